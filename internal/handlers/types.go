package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"donation_platform/internal/models"
)

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"max=255"`
	LastName  string `json:"last_name" validate:"max=255"`
	Phone     string `json:"phone" validate:"max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=255"`
	LastName  *string `json:"last_name" validate:"omitempty,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// CharityRequest is sent as multipart form data together with documents
type CharityRequest struct {
	Name               string   `json:"name" form:"name" validate:"required,max=255"`
	Description        string   `json:"description" form:"description"`
	WebsiteURL         string   `json:"website_url" form:"website_url" validate:"omitempty,url"`
	Categories         []string `json:"categories" form:"categories"`
	RegistrationNumber string   `json:"registration_number" form:"registration_number" validate:"max=100"`
	ContactEmail       string   `json:"contact_email" form:"contact_email" validate:"omitempty,email"`
	ContactPhone       string   `json:"contact_phone" form:"contact_phone"`
	ContactAddress     string   `json:"contact_address" form:"contact_address"`
	BankLegalName      string   `json:"bank_legal_name" form:"bank_legal_name"`
	BankAccountNumber  string   `json:"bank_account_number" form:"bank_account_number"`
	BankRoutingCode    string   `json:"bank_routing_code" form:"bank_routing_code"`
	BankName           string   `json:"bank_name" form:"bank_name"`
}

type UpdateCharityRequest struct {
	Name               *string   `json:"name" validate:"omitempty,max=255"`
	Description        *string   `json:"description"`
	WebsiteURL         *string   `json:"website_url" validate:"omitempty,url"`
	Categories         *[]string `json:"categories"`
	RegistrationNumber *string   `json:"registration_number" validate:"omitempty,max=100"`
	ContactEmail       *string   `json:"contact_email" validate:"omitempty,email"`
	ContactPhone       *string   `json:"contact_phone"`
	ContactAddress     *string   `json:"contact_address"`
	BankLegalName      *string   `json:"bank_legal_name"`
	BankAccountNumber  *string   `json:"bank_account_number"`
	BankRoutingCode    *string   `json:"bank_routing_code"`
	BankName           *string   `json:"bank_name"`
}

type FundraisingRequest struct {
	CharityID    uint            `json:"charity_id" validate:"required"`
	Title        string          `json:"title" validate:"required,max=255"`
	Description  string          `json:"description" validate:"max=2000"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	StartDate    *time.Time      `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	ImageURL     string          `json:"image_url" validate:"max=500"`
}

type UpdateFundraisingRequest struct {
	CharityID    *uint            `json:"charity_id"`
	Title        *string          `json:"title" validate:"omitempty,max=255"`
	Description  *string          `json:"description" validate:"omitempty,max=2000"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	StartDate    *time.Time       `json:"start_date"`
	EndDate      *time.Time       `json:"end_date"`
	ImageURL     *string          `json:"image_url" validate:"omitempty,max=500"`
}

// DonationRequest amounts may be sent as JSON strings or numbers
type DonationRequest struct {
	CharityID         uint            `json:"charity_id" validate:"required"`
	FundraisingID     *uint           `json:"fundraising_id"`
	Amount            decimal.Decimal `json:"amount"`
	Message           string          `json:"message" validate:"max=1000"`
	Anonymous         bool            `json:"anonymous"`
	Recurring         bool            `json:"recurring"`
	RecurringInterval string          `json:"recurring_interval" validate:"max=50"`
	PaymentMethod     string          `json:"payment_method" validate:"max=50"`
}

type DonationStatusRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required"`
}

// DonationResponse carries the settled donation and, when the monthly
// schedule could not be registered, the reason
type DonationResponse struct {
	models.Donation
	RecurringPayment       *models.RecurringPayment `json:"recurring_payment,omitempty"`
	RecurringScheduleError string                   `json:"recurring_schedule_error,omitempty"`
}

type RecurringPaymentRequest struct {
	FundraisingID uint            `json:"fundraising_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDay    int             `json:"payment_day" validate:"required,min=1,max=31"`
}

type ReportRequest struct {
	FundraisingID        uint            `json:"fundraising_id" validate:"required"`
	Title                string          `json:"title" validate:"required,max=255"`
	Description          string          `json:"description" validate:"max=2000"`
	SpentAmount          decimal.Decimal `json:"spent_amount"`
	DocumentURLs         []string        `json:"document_urls"`
	DocumentDescriptions []string        `json:"document_descriptions"`
	ReportDate           *time.Time      `json:"report_date"`
}

type FileUploadResponse struct {
	URL string `json:"url"`
}
