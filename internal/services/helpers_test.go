package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"donation_platform/internal/models"
)

var testNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

var dbCounter atomic.Int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

// memoryStore keeps uploads in memory
type memoryStore struct {
	files map[string][]byte
	fail  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[string][]byte)}
}

func (m *memoryStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "/uploads/" + storedName(originalName)
	m.files[url] = data
	return url, nil
}

func textUpload(name, content, title, description string) Upload {
	return Upload{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
		Title:       title,
		Description: description,
	}
}

func brokenUpload(name string) Upload {
	return Upload{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("disk gone")
		},
	}
}

type fixture struct {
	db           *gorm.DB
	store        *memoryStore
	auth         *AuthService
	profiles     *ProfileService
	charities    *CharityService
	fundraisings *FundraisingService
	donations    *DonationService
	recurring    *RecurringPaymentService
	reports      *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	store := newMemoryStore()
	clock := func() time.Time { return testNow }

	auth := NewAuthService(db, nil, "test-secret", time.Hour)
	auth.hashCost = bcrypt.MinCost
	auth.now = clock

	charities := NewCharityService(db, store)
	charities.now = clock
	fundraisings := NewFundraisingService(db)
	fundraisings.now = clock
	donations := NewDonationService(db)
	donations.now = clock
	recurring := NewRecurringPaymentService(db)
	recurring.now = clock
	reports := NewReportService(db, store)
	reports.now = clock

	return &fixture{
		db:           db,
		store:        store,
		auth:         auth,
		profiles:     NewProfileService(db, auth),
		charities:    charities,
		fundraisings: fundraisings,
		donations:    donations,
		recurring:    recurring,
		reports:      reports,
	}
}

func (f *fixture) user(t *testing.T, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", Role: models.UserRoleUser}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func validBank() models.BankDetails {
	return models.BankDetails{
		LegalName:     "Helping Hands Foundation",
		AccountNumber: "40703810000000000001",
		RoutingCode:   "044525225",
		BankName:      "First Bank",
	}
}

func (f *fixture) charity(t *testing.T, creatorID uint, registration string, verified bool) *CharityDetails {
	t.Helper()
	charity, err := f.charities.Create(context.Background(), CharityInput{
		Name:               "Helping Hands",
		Categories:         []string{"Children", "Health"},
		RegistrationNumber: registration,
		Bank:               validBank(),
	}, nil, creatorID)
	require.NoError(t, err)
	if verified {
		_, err = f.charities.Verify(context.Background(), charity.ID)
		require.NoError(t, err)
		charity.Verified = true
	}
	return charity
}

func (f *fixture) campaign(t *testing.T, charityID, creatorID uint, target string) *models.Fundraising {
	t.Helper()
	fundraising, err := f.fundraisings.Create(context.Background(), FundraisingInput{
		Title:        "New roof",
		TargetAmount: decimal.RequireFromString(target),
	}, charityID, creatorID)
	require.NoError(t, err)
	return fundraising
}

func (f *fixture) donate(t *testing.T, userID, charityID, fundraisingID uint, amount string) *DonationResult {
	t.Helper()
	result, err := f.donations.CreateDonation(context.Background(), DonationInput{
		CharityID:     charityID,
		FundraisingID: &fundraisingID,
		Amount:        decimal.RequireFromString(amount),
	}, userID)
	require.NoError(t, err)
	return result
}

func (f *fixture) reload(t *testing.T, id uint) models.Fundraising {
	t.Helper()
	var fundraising models.Fundraising
	require.NoError(t, f.db.First(&fundraising, id).Error)
	return fundraising
}

func generalFundOf(t *testing.T, charity *CharityDetails) models.Fundraising {
	t.Helper()
	for _, fr := range charity.Fundraisings {
		if fr.IsGeneralFund() {
			return fr
		}
	}
	t.Fatalf("charity %d has no general fund", charity.ID)
	return models.Fundraising{}
}
