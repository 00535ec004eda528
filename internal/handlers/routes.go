package handlers

import (
	"github.com/labstack/echo/v4"

	authMiddleware "donation_platform/internal/middleware"
	"donation_platform/internal/services"
)

// Services bundles the dependencies of every handler
type Services struct {
	Auth         *services.AuthService
	Profiles     *services.ProfileService
	Charities    *services.CharityService
	Fundraisings *services.FundraisingService
	Donations    *services.DonationService
	Recurring    *services.RecurringPaymentService
	Reports      *services.ReportService
}

// RegisterRoutes mounts the JSON API on g
func RegisterRoutes(g *echo.Group, s Services) {
	authHandler := NewAuthHandler(s.Auth)
	profileHandler := NewProfileHandler(s.Profiles)
	charityHandler := NewCharityHandler(s.Charities, s.Auth)
	fundraisingHandler := NewFundraisingHandler(s.Fundraisings, s.Auth)
	donationHandler := NewDonationHandler(s.Donations)
	recurringHandler := NewRecurringPaymentHandler(s.Recurring)
	reportHandler := NewReportHandler(s.Reports)

	requireAuth := authMiddleware.RequireAuth(s.Auth)
	requireAdmin := authMiddleware.RequireAdmin(s.Auth)

	// Public routes
	g.POST("/auth/register", authHandler.Register)
	g.POST("/auth/login", authHandler.Login)

	g.GET("/charities", charityHandler.ListCharities)
	g.GET("/charities/:id", charityHandler.GetCharity)

	g.GET("/fundraisings", fundraisingHandler.ListFundraisings)
	g.GET("/fundraisings/active", fundraisingHandler.ListActiveFundraisings)
	g.GET("/fundraisings/charity/:charityId", fundraisingHandler.ListCharityFundraisings)
	g.GET("/fundraisings/:id", fundraisingHandler.GetFundraising)

	g.GET("/donations/fundraising/:fundraisingId", donationHandler.GetFundraisingDonations)
	g.GET("/donations/fundraising/:fundraisingId/total", donationHandler.GetFundraisingTotal)

	g.GET("/reports/:id", reportHandler.GetReport)
	g.GET("/reports/fundraising/:id", reportHandler.ListFundraisingReports)
	g.GET("/reports/charity/:id", reportHandler.ListCharityReports)

	// Protected routes
	protected := g.Group("", requireAuth)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/check-role", authHandler.CheckRole)

	protected.GET("/profile", profileHandler.GetProfile)
	protected.PUT("/profile", profileHandler.UpdateProfile)
	protected.POST("/profile/change-password", profileHandler.ChangePassword)

	protected.POST("/charities", charityHandler.CreateCharity)
	protected.PUT("/charities/:id", charityHandler.UpdateCharity)
	protected.DELETE("/charities/:id", charityHandler.DeleteCharity)
	protected.POST("/charities/:id/documents", charityHandler.UploadDocuments)

	protected.POST("/fundraisings", fundraisingHandler.CreateFundraising)
	protected.PUT("/fundraisings/:id", fundraisingHandler.UpdateFundraising)
	protected.POST("/fundraisings/:id/complete", fundraisingHandler.CompleteFundraising)
	protected.DELETE("/fundraisings/:id", fundraisingHandler.DeleteFundraising)

	protected.POST("/donations", donationHandler.CreateDonation)
	protected.GET("/donations/user", donationHandler.GetUserDonations)
	protected.DELETE("/donations/:id", donationHandler.DeleteDonation)

	protected.POST("/recurring-payments", recurringHandler.CreateRecurringPayment)
	protected.GET("/recurring-payments/user", recurringHandler.ListUserRecurringPayments)
	protected.DELETE("/recurring-payments/:id", recurringHandler.CancelRecurringPayment)

	protected.POST("/reports", reportHandler.CreateReport)
	protected.POST("/reports/:id/documents", reportHandler.UploadDocuments)
	protected.POST("/reports/upload", reportHandler.UploadFile)
	protected.POST("/files/upload", reportHandler.UploadFile)

	// Admin routes
	admin := g.Group("", requireAuth, requireAdmin)
	admin.PUT("/charities/:id/verify", charityHandler.VerifyCharity)
	admin.PUT("/donations/:id/status", donationHandler.UpdateDonationStatus)
	admin.POST("/reports/:id/verify", reportHandler.VerifyReport)
}
