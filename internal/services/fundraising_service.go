package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"donation_platform/internal/models"
)

// FundraisingService manages campaigns
type FundraisingService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewFundraisingService(db *gorm.DB) *FundraisingService {
	return &FundraisingService{db: db, now: time.Now}
}

// FundraisingInput holds the fields of a new campaign
type FundraisingInput struct {
	Title        string
	Description  string
	TargetAmount decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
	ImageURL     string
}

// FundraisingUpdate holds the optional fields of a campaign update.
// CharityID, when set, must match the campaign's charity.
type FundraisingUpdate struct {
	CharityID    *uint
	Title        *string
	Description  *string
	TargetAmount *decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
	ImageURL     *string
}

func findFundraising(ctx context.Context, db *gorm.DB, id uint) (*models.Fundraising, error) {
	var fundraising models.Fundraising
	if err := db.WithContext(ctx).First(&fundraising, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFundraisingNotFound
		}
		return nil, fmt.Errorf("failed to fetch fundraising: %w", err)
	}
	return &fundraising, nil
}

// lockFundraising reads a campaign row with FOR UPDATE inside tx
func lockFundraising(tx *gorm.DB, id uint) (*models.Fundraising, error) {
	var fundraising models.Fundraising
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&fundraising, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFundraisingNotFound
		}
		return nil, fmt.Errorf("failed to lock fundraising: %w", err)
	}
	return &fundraising, nil
}

// deleteCampaigns removes campaigns and every record that belongs to them
func deleteCampaigns(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("fundraising_id IN ?", ids).Delete(&models.Donation{}).Error; err != nil {
		return fmt.Errorf("failed to delete donations: %w", err)
	}
	if err := tx.Where("fundraising_id IN ?", ids).Delete(&models.RecurringPayment{}).Error; err != nil {
		return fmt.Errorf("failed to delete recurring payments: %w", err)
	}
	if err := tx.Where("fundraising_id IN ?", ids).Delete(&models.Report{}).Error; err != nil {
		return fmt.Errorf("failed to delete reports: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Fundraising{}).Error; err != nil {
		return fmt.Errorf("failed to delete fundraisings: %w", err)
	}
	return nil
}

func validateDates(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

// Create opens a targeted campaign under a verified charity
func (s *FundraisingService) Create(ctx context.Context, in FundraisingInput, charityID, creatorID uint) (*models.Fundraising, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newError(KindValidationFailed, "title is required")
	}
	if !in.TargetAmount.IsPositive() {
		return nil, ErrInvalidTarget
	}
	if _, err := findUser(ctx, s.db, creatorID); err != nil {
		return nil, err
	}
	charity, err := findCharity(ctx, s.db, charityID)
	if err != nil {
		return nil, err
	}
	if !charity.Verified {
		log.Printf("Campaign creation rejected: charity %d is not verified", charityID)
		return nil, ErrNotVerified
	}

	start := s.now()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if err := validateDates(start, in.EndDate); err != nil {
		return nil, err
	}

	fundraising := models.Fundraising{
		CharityID:     charityID,
		CreatedByID:   creatorID,
		Kind:          models.FundraisingKindTargeted,
		Title:         in.Title,
		Description:   in.Description,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     start,
		EndDate:       in.EndDate,
		ImageURL:      in.ImageURL,
		Active:        true,
	}
	if err := s.db.WithContext(ctx).Create(&fundraising).Error; err != nil {
		return nil, fmt.Errorf("failed to create fundraising: %w", err)
	}

	log.Printf("Fundraising %d created for charity %d", fundraising.ID, charityID)
	return &fundraising, nil
}

// Update applies the non-nil fields of update. A general fund keeps its
// unbounded target.
func (s *FundraisingService) Update(ctx context.Context, id uint, update FundraisingUpdate) (*models.Fundraising, error) {
	fundraising, err := findFundraising(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if update.CharityID != nil && *update.CharityID != fundraising.CharityID {
		log.Printf("Rejected moving fundraising %d from charity %d to %d", id, fundraising.CharityID, *update.CharityID)
		return nil, ErrCharityMismatch
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, newError(KindValidationFailed, "title must not be blank")
		}
		fundraising.Title = *update.Title
	}
	if update.Description != nil {
		fundraising.Description = *update.Description
	}
	if update.TargetAmount != nil && !fundraising.IsGeneralFund() {
		if !update.TargetAmount.IsPositive() {
			return nil, ErrInvalidTarget
		}
		fundraising.TargetAmount = *update.TargetAmount
	}
	if update.StartDate != nil {
		fundraising.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		fundraising.EndDate = update.EndDate
	}
	if update.ImageURL != nil {
		fundraising.ImageURL = *update.ImageURL
	}
	if err := validateDates(fundraising.StartDate, fundraising.EndDate); err != nil {
		return nil, err
	}

	// current_amount and the state flags are owned by settlement
	err = s.db.WithContext(ctx).Model(fundraising).
		Select("title", "description", "target_amount", "start_date", "end_date", "image_url").
		Updates(fundraising).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update fundraising: %w", err)
	}
	return fundraising, nil
}

// Complete closes an active campaign that already has a report
func (s *FundraisingService) Complete(ctx context.Context, id uint) (*models.Fundraising, error) {
	var fundraising *models.Fundraising
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := lockFundraising(tx, id)
		if err != nil {
			return err
		}
		if !f.Active {
			return ErrAlreadyCompleted
		}

		var reports int64
		if err := tx.Model(&models.Report{}).Where("fundraising_id = ?", id).Count(&reports).Error; err != nil {
			return fmt.Errorf("failed to check reports: %w", err)
		}
		if reports == 0 {
			return ErrMissingReport
		}

		f.MarkCompleted()
		if err := tx.Model(f).Select("active", "completed").Updates(f).Error; err != nil {
			return fmt.Errorf("failed to complete fundraising: %w", err)
		}
		fundraising = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Fundraising %d completed with %s of %s", id, fundraising.CurrentAmount, fundraising.TargetAmount)
	return fundraising, nil
}

// Delete removes a campaign with its donations, recurring payments and reports
func (s *FundraisingService) Delete(ctx context.Context, id uint) error {
	if _, err := findFundraising(ctx, s.db, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCampaigns(tx, []uint{id})
	})
	if err != nil {
		return err
	}

	log.Printf("Fundraising %d deleted", id)
	return nil
}

func (s *FundraisingService) List(ctx context.Context) ([]models.Fundraising, error) {
	return s.find(s.db.WithContext(ctx))
}

func (s *FundraisingService) ListActive(ctx context.Context) ([]models.Fundraising, error) {
	return s.find(s.db.WithContext(ctx).Where("active = ?", true))
}

func (s *FundraisingService) ListByCharity(ctx context.Context, charityID uint) ([]models.Fundraising, error) {
	return s.find(s.db.WithContext(ctx).Where("charity_id = ?", charityID))
}

func (s *FundraisingService) find(query *gorm.DB) ([]models.Fundraising, error) {
	var fundraisings []models.Fundraising
	if err := query.Preload("Charity").Order("id").Find(&fundraisings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch fundraisings: %w", err)
	}
	return fundraisings, nil
}

func (s *FundraisingService) Get(ctx context.Context, id uint) (*models.Fundraising, error) {
	var fundraising models.Fundraising
	if err := s.db.WithContext(ctx).Preload("Charity").First(&fundraising, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFundraisingNotFound
		}
		return nil, fmt.Errorf("failed to fetch fundraising: %w", err)
	}
	return &fundraising, nil
}

// IsCreator reports whether userID created the campaign
func (s *FundraisingService) IsCreator(ctx context.Context, userID, fundraisingID uint) (bool, error) {
	fundraising, err := findFundraising(ctx, s.db, fundraisingID)
	if err != nil {
		return false, err
	}
	return fundraising.CreatedByID == userID, nil
}
