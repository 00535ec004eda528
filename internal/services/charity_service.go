package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"donation_platform/internal/models"
)

// CharityService manages charity records and their general fund
type CharityService struct {
	db    *gorm.DB
	store DocumentStore
	now   func() time.Time
}

func NewCharityService(db *gorm.DB, store DocumentStore) *CharityService {
	return &CharityService{db: db, store: store, now: time.Now}
}

// CharityInput holds the fields of a new charity
type CharityInput struct {
	Name               string
	Description        string
	WebsiteURL         string
	Categories         []string
	RegistrationNumber string
	ContactEmail       string
	ContactPhone       string
	ContactAddress     string
	Bank               models.BankDetails
}

// CharityUpdate holds the optional fields of a charity update.
// Bank details, when present, must be complete.
type CharityUpdate struct {
	Name               *string
	Description        *string
	WebsiteURL         *string
	Categories         *[]string
	RegistrationNumber *string
	ContactEmail       *string
	ContactPhone       *string
	ContactAddress     *string
	Bank               *models.BankDetails
}

// CharityStats are computed from the charity's campaigns at read time
type CharityStats struct {
	TotalDonations     decimal.Decimal `json:"total_donations"`
	DonorCount         int             `json:"donor_count"`
	RecurringDonations int             `json:"recurring_donations"`
	CompletedCampaigns int             `json:"completed_campaigns"`
}

// CharityDetails is a charity with its campaigns and statistics
type CharityDetails struct {
	models.Charity
	Stats CharityStats `json:"stats"`
}

func (s *CharityService) registrationTaken(ctx context.Context, db *gorm.DB, number string, excludeID uint) (bool, error) {
	var count int64
	query := db.WithContext(ctx).Model(&models.Charity{}).Where("registration_number = ?", number)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check registration number: %w", err)
	}
	return count > 0, nil
}

func findCharity(ctx context.Context, db *gorm.DB, id uint) (*models.Charity, error) {
	var charity models.Charity
	if err := db.WithContext(ctx).First(&charity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCharityNotFound
		}
		return nil, fmt.Errorf("failed to fetch charity: %w", err)
	}
	return &charity, nil
}

func findGeneralFund(ctx context.Context, db *gorm.DB, charityID uint) (*models.Fundraising, error) {
	var fund models.Fundraising
	err := db.WithContext(ctx).
		Where("charity_id = ? AND kind = ?", charityID, models.FundraisingKindGeneral).
		First(&fund).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoGeneralFund
		}
		return nil, fmt.Errorf("failed to fetch general fund: %w", err)
	}
	return &fund, nil
}

// Create persists a charity together with its general fund. Uploaded
// documents are stored first and attached to both records.
func (s *CharityService) Create(ctx context.Context, in CharityInput, uploads []Upload, creatorID uint) (*CharityDetails, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, newError(KindValidationFailed, "name is required")
	}
	if strings.TrimSpace(in.RegistrationNumber) == "" {
		in.RegistrationNumber = fmt.Sprintf("ORG-%d", s.now().UnixMilli())
	}
	if _, err := findUser(ctx, s.db, creatorID); err != nil {
		return nil, err
	}
	if !in.Bank.Complete() {
		return nil, ErrMissingBankDetails
	}

	taken, err := s.registrationTaken(ctx, s.db, in.RegistrationNumber, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateRegistration
	}

	documents, err := storeUploads(ctx, s.store, uploads)
	if err != nil {
		return nil, err
	}

	charity := models.Charity{
		Name:               in.Name,
		Description:        in.Description,
		WebsiteURL:         in.WebsiteURL,
		Categories:         datatypes.JSONSlice[string](in.Categories),
		RegistrationNumber: in.RegistrationNumber,
		ContactEmail:       in.ContactEmail,
		ContactPhone:       in.ContactPhone,
		ContactAddress:     in.ContactAddress,
		BankLegalName:      in.Bank.LegalName,
		BankAccountNumber:  in.Bank.AccountNumber,
		BankRoutingCode:    in.Bank.RoutingCode,
		BankName:           in.Bank.BankName,
		Verified:           false,
		Active:             true,
		Documents:          datatypes.JSONSlice[models.Document](documents),
		CreatedByID:        creatorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&charity).Error; err != nil {
			return fmt.Errorf("failed to create charity: %w", err)
		}
		fund := models.NewGeneralFund(charity.ID, creatorID, documents, s.now())
		if err := tx.Create(&fund).Error; err != nil {
			return fmt.Errorf("failed to create general fund: %w", err)
		}
		charity.Fundraisings = []models.Fundraising{fund}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Charity %d created with general fund %d", charity.ID, charity.Fundraisings[0].ID)
	return &CharityDetails{Charity: charity, Stats: CharityStats{TotalDonations: decimal.Zero}}, nil
}

// Verify marks a charity as verified
func (s *CharityService) Verify(ctx context.Context, id uint) (*models.Charity, error) {
	charity, err := findCharity(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(charity).Update("verified", true).Error; err != nil {
		return nil, fmt.Errorf("failed to verify charity: %w", err)
	}
	charity.Verified = true

	log.Printf("Charity %d verified", id)
	return charity, nil
}

var charityEditableColumns = []string{
	"name", "description", "website_url", "categories", "registration_number",
	"contact_email", "contact_phone", "contact_address",
	"bank_legal_name", "bank_account_number", "bank_routing_code", "bank_name",
}

// Update applies the non-nil fields of update. Only the creator may update.
func (s *CharityService) Update(ctx context.Context, id uint, update CharityUpdate, requesterID uint) (*models.Charity, error) {
	charity, err := findCharity(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if charity.CreatedByID != requesterID {
		return nil, ErrNotCharityCreator
	}

	if update.RegistrationNumber != nil && *update.RegistrationNumber != charity.RegistrationNumber {
		if strings.TrimSpace(*update.RegistrationNumber) == "" {
			return nil, newError(KindValidationFailed, "registration number must not be blank")
		}
		taken, err := s.registrationTaken(ctx, s.db, *update.RegistrationNumber, charity.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateRegistration
		}
		charity.RegistrationNumber = *update.RegistrationNumber
	}
	if update.Bank != nil {
		if !update.Bank.Complete() {
			return nil, ErrMissingBankDetails
		}
		charity.BankLegalName = update.Bank.LegalName
		charity.BankAccountNumber = update.Bank.AccountNumber
		charity.BankRoutingCode = update.Bank.RoutingCode
		charity.BankName = update.Bank.BankName
	}
	if update.Name != nil {
		charity.Name = *update.Name
	}
	if update.Description != nil {
		charity.Description = *update.Description
	}
	if update.WebsiteURL != nil {
		charity.WebsiteURL = *update.WebsiteURL
	}
	if update.Categories != nil {
		charity.Categories = datatypes.JSONSlice[string](*update.Categories)
	}
	if update.ContactEmail != nil {
		charity.ContactEmail = *update.ContactEmail
	}
	if update.ContactPhone != nil {
		charity.ContactPhone = *update.ContactPhone
	}
	if update.ContactAddress != nil {
		charity.ContactAddress = *update.ContactAddress
	}

	// verified, active and documents are owned by their own operations
	err = s.db.WithContext(ctx).Model(charity).
		Select(charityEditableColumns).
		Updates(charity).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update charity: %w", err)
	}
	return findCharity(ctx, s.db, id)
}

// IsCreator reports whether userID created the charity
func (s *CharityService) IsCreator(ctx context.Context, userID, charityID uint) (bool, error) {
	charity, err := findCharity(ctx, s.db, charityID)
	if err != nil {
		return false, err
	}
	return charity.CreatedByID == userID, nil
}

// Delete removes a charity and everything under it. A charity with more
// than one active campaign (its general fund) cannot be deleted.
func (s *CharityService) Delete(ctx context.Context, id uint) error {
	if _, err := findCharity(ctx, s.db, id); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Fundraising{}).
			Where("charity_id = ? AND active = ?", id, true).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to count active campaigns: %w", err)
		}
		if active > 1 {
			return ErrHasActiveCampaigns
		}

		var fundraisingIDs []uint
		if err := tx.Model(&models.Fundraising{}).Where("charity_id = ?", id).Pluck("id", &fundraisingIDs).Error; err != nil {
			return fmt.Errorf("failed to list campaigns: %w", err)
		}
		if err := deleteCampaigns(tx, fundraisingIDs); err != nil {
			return err
		}
		if err := tx.Delete(&models.Charity{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete charity: %w", err)
		}

		log.Printf("Charity %d deleted with %d campaigns", id, len(fundraisingIDs))
		return nil
	})
}

// UploadDocuments attaches documents to the charity and its general fund
func (s *CharityService) UploadDocuments(ctx context.Context, charityID uint, uploads []Upload, requesterID uint) (*models.Charity, error) {
	charity, err := findCharity(ctx, s.db, charityID)
	if err != nil {
		return nil, err
	}
	if charity.CreatedByID != requesterID {
		return nil, ErrNotCharityCreator
	}
	fund, err := findGeneralFund(ctx, s.db, charityID)
	if err != nil {
		return nil, err
	}

	documents, err := storeUploads(ctx, s.store, uploads)
	if err != nil {
		return nil, err
	}

	charity.Documents = append(charity.Documents, documents...)
	fund.Documents = append(fund.Documents, documents...)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(charity).Update("documents", charity.Documents).Error; err != nil {
			return fmt.Errorf("failed to update charity documents: %w", err)
		}
		if err := tx.Model(fund).Update("documents", fund.Documents).Error; err != nil {
			return fmt.Errorf("failed to update general fund documents: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return charity, nil
}

// List returns every charity with its campaigns and statistics
func (s *CharityService) List(ctx context.Context) ([]CharityDetails, error) {
	var charities []models.Charity
	if err := s.db.WithContext(ctx).Preload("Fundraisings").Order("id").Find(&charities).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch charities: %w", err)
	}
	return s.withStats(ctx, charities)
}

// ListByCategory returns charities tagged with category, ignoring case
func (s *CharityService) ListByCategory(ctx context.Context, category string) ([]CharityDetails, error) {
	var charities []models.Charity
	if err := s.db.WithContext(ctx).Preload("Fundraisings").Order("id").Find(&charities).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch charities: %w", err)
	}

	matched := make([]models.Charity, 0, len(charities))
	for _, c := range charities {
		if c.HasCategory(category) {
			matched = append(matched, c)
		}
	}
	return s.withStats(ctx, matched)
}

// Get returns one charity with its campaigns and statistics
func (s *CharityService) Get(ctx context.Context, id uint) (*CharityDetails, error) {
	var charity models.Charity
	if err := s.db.WithContext(ctx).Preload("Fundraisings").First(&charity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCharityNotFound
		}
		return nil, fmt.Errorf("failed to fetch charity: %w", err)
	}

	details, err := s.withStats(ctx, []models.Charity{charity})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// withStats computes the statistics of charities whose Fundraisings are loaded
func (s *CharityService) withStats(ctx context.Context, charities []models.Charity) ([]CharityDetails, error) {
	charityOf := make(map[uint]uint)
	for _, c := range charities {
		for _, f := range c.Fundraisings {
			charityOf[f.ID] = c.ID
		}
	}

	var donations []models.Donation
	if len(charityOf) > 0 {
		ids := make([]uint, 0, len(charityOf))
		for id := range charityOf {
			ids = append(ids, id)
		}
		if err := s.db.WithContext(ctx).
			Select("fundraising_id", "user_id", "amount", "recurring").
			Where("fundraising_id IN ? AND payment_status = ?", ids, models.PaymentStatusCompleted).
			Find(&donations).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch donations: %w", err)
		}
	}

	stats := make(map[uint]*CharityStats, len(charities))
	donors := make(map[uint]map[uint]struct{}, len(charities))
	for _, c := range charities {
		st := &CharityStats{TotalDonations: decimal.Zero}
		for _, f := range c.Fundraisings {
			if f.Completed {
				st.CompletedCampaigns++
			}
		}
		stats[c.ID] = st
		donors[c.ID] = make(map[uint]struct{})
	}
	for _, d := range donations {
		charityID := charityOf[d.FundraisingID]
		st := stats[charityID]
		st.TotalDonations = st.TotalDonations.Add(d.Amount)
		if d.Recurring {
			st.RecurringDonations++
		}
		donors[charityID][d.UserID] = struct{}{}
	}

	result := make([]CharityDetails, 0, len(charities))
	for _, c := range charities {
		st := stats[c.ID]
		st.DonorCount = len(donors[c.ID])
		result = append(result, CharityDetails{Charity: c, Stats: *st})
	}
	return result, nil
}
