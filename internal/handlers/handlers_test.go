package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	authMiddleware "donation_platform/internal/middleware"
	"donation_platform/internal/models"
	"donation_platform/internal/services"
)

var dbCounter atomic.Int64

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:handlersdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, services.AutoMigrate(db))

	store, err := services.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	auth := services.NewAuthService(db, nil, "test-secret", time.Hour)

	e := echo.New()
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler
	RegisterRoutes(e.Group("/api"), Services{
		Auth:         auth,
		Profiles:     services.NewProfileService(db, auth),
		Charities:    services.NewCharityService(db, store),
		Fundraisings: services.NewFundraisingService(db),
		Donations:    services.NewDonationService(db),
		Recurring:    services.NewRecurringPaymentService(db),
		Reports:      services.NewReportService(db, store),
	})

	return &testServer{e: e, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.e.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, path, token, field, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	fileWriter, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fileWriter.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	w := httptest.NewRecorder()
	s.e.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its token and id
func (s *testServer) register(t *testing.T, email string) (string, uint) {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: email, Password: "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, w, &resp)
	return resp.Token, resp.User.ID
}

func (s *testServer) promote(t *testing.T, userID uint) {
	t.Helper()
	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", userID).Update("role", models.UserRoleAdmin).Error)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp authMiddleware.ErrorResponse
	decode(t, w, &resp)
	return resp.Message
}

var charityBody = map[string]interface{}{
	"name":                "Clean Water",
	"registration_number": "REG-1",
	"categories":          []string{"water", "health"},
	"bank_legal_name":     "Clean Water Foundation",
	"bank_account_number": "123456",
	"bank_routing_code":   "ROUTE1",
	"bank_name":           "First Bank",
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("register and login", func(t *testing.T) {
		token, _ := s.register(t, "donor@example.com")
		assert.NotEmpty(t, token)

		w := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "DONOR@example.com", Password: "secret123"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "donor@example.com", Password: "secret123"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "donor@example.com", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid email fails validation", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "not-an-email", Password: "secret123"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorMessage(t, w), "Email")
	})

	t.Run("protected route needs a token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = s.do(t, http.MethodGet, "/api/profile", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("check role", func(t *testing.T) {
		token, _ := s.register(t, "role@example.com")
		w := s.do(t, http.MethodGet, "/api/auth/check-role", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		decode(t, w, &resp)
		assert.Equal(t, "user", resp["role"])
		assert.Equal(t, false, resp["isAdmin"])
	})
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "profile@example.com")

	w := s.do(t, http.MethodPut, "/api/profile", token, map[string]string{"first_name": "Ada"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		User           models.User `json:"user"`
		TotalDonations int64       `json:"total_donations"`
	}
	decode(t, w, &profile)
	assert.Equal(t, "Ada", profile.User.FirstName)
	assert.Zero(t, profile.TotalDonations)

	w = s.do(t, http.MethodPost, "/api/profile/change-password", token, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "another1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/profile/change-password", token, ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "another1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDonationFlow(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := s.register(t, "owner@example.com")
	donorToken, _ := s.register(t, "donor@example.com")

	w := s.do(t, http.MethodPost, "/api/charities", ownerToken, charityBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var charity services.CharityDetails
	decode(t, w, &charity)
	require.Len(t, charity.Fundraisings, 1)
	assert.Equal(t, models.FundraisingKindGeneral, charity.Fundraisings[0].Kind)

	charityPath := fmt.Sprintf("/api/charities/%d", charity.ID)

	// Unverified charities cannot open campaigns
	w = s.do(t, http.MethodPost, "/api/fundraisings", ownerToken, map[string]interface{}{
		"charity_id": charity.ID, "title": "Wells", "target_amount": "100",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPut, charityPath+"/verify", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.promote(t, ownerID)
	w = s.do(t, http.MethodPut, charityPath+"/verify", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/fundraisings", ownerToken, map[string]interface{}{
		"charity_id": charity.ID, "title": "Wells", "target_amount": "100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var campaign models.Fundraising
	decode(t, w, &campaign)

	donate := func(amount string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/api/donations", donorToken, map[string]interface{}{
			"charity_id": charity.ID, "fundraising_id": campaign.ID, "amount": amount,
		})
	}

	w = donate("60")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var donation DonationResponse
	decode(t, w, &donation)
	assert.Equal(t, "COMPLETED", donation.Status)
	assert.Equal(t, "Wells", donation.FundraisingTitle)
	assert.Empty(t, donation.RecurringScheduleError)

	w = donate("50")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, errorMessage(t, w), "40.00")

	w = donate("-5")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = donate("40")
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/fundraisings/%d", campaign.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &campaign)
	assert.True(t, campaign.CurrentAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, campaign.Completed)
	assert.False(t, campaign.Active)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/donations/fundraising/%d/total", campaign.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"100"`)

	w = s.do(t, http.MethodGet, "/api/donations/user", donorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var donations []models.Donation
	decode(t, w, &donations)
	assert.Len(t, donations, 2)

	// Closeout with a mismatched spent amount is rejected, the exact one closes it
	w = s.do(t, http.MethodPost, "/api/reports", ownerToken, map[string]interface{}{
		"fundraising_id": campaign.ID, "title": "Wells built", "spent_amount": "90",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/reports", ownerToken, map[string]interface{}{
		"fundraising_id": campaign.ID, "title": "Wells built", "spent_amount": "100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/reports/fundraising/%d", campaign.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []models.Report
	decode(t, w, &reports)
	assert.Len(t, reports, 1)
}

func TestDonationToGeneralFund(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := s.register(t, "owner@example.com")
	s.promote(t, ownerID)

	w := s.do(t, http.MethodPost, "/api/charities", ownerToken, charityBody)
	require.Equal(t, http.StatusCreated, w.Code)
	var charity services.CharityDetails
	decode(t, w, &charity)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/charities/%d/verify", charity.ID), ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/donations", ownerToken, map[string]interface{}{
		"charity_id": charity.ID, "amount": 25, "recurring": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var donation DonationResponse
	decode(t, w, &donation)
	assert.Equal(t, charity.Fundraisings[0].ID, donation.FundraisingID)
	require.NotNil(t, donation.RecurringPayment)

	w = s.do(t, http.MethodGet, "/api/recurring-payments/user", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payments []models.RecurringPayment
	decode(t, w, &payments)
	require.Len(t, payments, 1)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/recurring-payments/%d", payments[0].ID), ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodPost, "/api/recurring-payments", ownerToken, RecurringPaymentRequest{
		FundraisingID: donation.FundraisingID, Amount: decimal.NewFromInt(5), PaymentDay: 32,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCharityOwnership(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.register(t, "owner@example.com")
	otherToken, _ := s.register(t, "other@example.com")

	w := s.do(t, http.MethodPost, "/api/charities", ownerToken, charityBody)
	require.Equal(t, http.StatusCreated, w.Code)
	var charity services.CharityDetails
	decode(t, w, &charity)
	path := fmt.Sprintf("/api/charities/%d", charity.ID)

	w = s.do(t, http.MethodPut, path, otherToken, map[string]string{"name": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, path, ownerToken, map[string]string{"bank_name": "Only one field"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/charities/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownFundraisingIsNotFound(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "someone@example.com")

	w := s.do(t, http.MethodPut, "/api/fundraisings/9999", token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/fundraisings/9999/complete", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/fundraisings/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMultipartUploads(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "owner@example.com")

	fields := map[string]string{
		"name":                "Books for All",
		"bank_legal_name":     "Books Foundation",
		"bank_account_number": "987",
		"bank_routing_code":   "R9",
		"bank_name":           "Second Bank",
		"titles[]":            "Certificate",
	}
	w := s.upload(t, "/api/charities", token, "documents", "cert.pdf", "pdf-bytes", fields)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var charity services.CharityDetails
	decode(t, w, &charity)
	assert.True(t, strings.HasPrefix(charity.RegistrationNumber, "ORG-"))
	require.Len(t, charity.Documents, 1)
	assert.Equal(t, "Certificate", charity.Documents[0].Title)
	assert.True(t, strings.HasPrefix(charity.Documents[0].URL, "/uploads/"))

	w = s.upload(t, "/api/files/upload", token, "file", "receipt.png", "png-bytes", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp FileUploadResponse
	decode(t, w, &resp)
	assert.True(t, strings.HasSuffix(resp.URL, "_receipt.png"))

	w = s.do(t, http.MethodPost, "/api/reports/upload", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
