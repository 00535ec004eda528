package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"donation_platform/internal/models"
)

const defaultPaymentMethod = "CARD"

// DonationService settles donations against campaigns
type DonationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDonationService(db *gorm.DB) *DonationService {
	return &DonationService{db: db, now: time.Now}
}

// DonationInput describes a pledge. Without FundraisingID the donation goes
// to the charity's general fund.
type DonationInput struct {
	CharityID         uint
	FundraisingID     *uint
	Amount            decimal.Decimal
	Message           string
	Anonymous         bool
	Recurring         bool
	RecurringInterval string
	PaymentMethod     string
}

// DonationResult is a settled donation. RecurringScheduleErr is set when the
// donation succeeded but its monthly schedule could not be registered.
type DonationResult struct {
	Donation             *models.Donation
	RecurringPayment     *models.RecurringPayment
	RecurringScheduleErr error
}

// completedTotal sums the completed donations of a campaign
func completedTotal(db *gorm.DB, fundraisingID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := db.Model(&models.Donation{}).
		Where("fundraising_id = ? AND payment_status = ?", fundraisingID, models.PaymentStatusCompleted).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum donations: %w", err)
	}
	return sumAmounts(amounts), nil
}

// completeIfReached closes a targeted campaign whose completed total reached
// its target. It reports whether the campaign was closed.
func completeIfReached(tx *gorm.DB, fundraising *models.Fundraising) (bool, error) {
	if fundraising.Completed {
		return false, nil
	}
	total, err := completedTotal(tx, fundraising.ID)
	if err != nil {
		return false, err
	}
	if !fundraising.ReachedTarget(total) {
		return false, nil
	}

	fundraising.MarkCompleted()
	if err := tx.Model(fundraising).Select("active", "completed").Updates(fundraising).Error; err != nil {
		return false, fmt.Errorf("failed to complete fundraising: %w", err)
	}
	log.Printf("Fundraising %d reached its target (%s of %s)", fundraising.ID, total, fundraising.TargetAmount)
	return true, nil
}

// addToCampaign increments the stored total of a locked campaign
func addToCampaign(tx *gorm.DB, fundraising *models.Fundraising, amount decimal.Decimal) error {
	fundraising.CurrentAmount = fundraising.CurrentAmount.Add(amount)
	if err := tx.Model(fundraising).Update("current_amount", fundraising.CurrentAmount).Error; err != nil {
		return fmt.Errorf("failed to update fundraising amount: %w", err)
	}
	return nil
}

// acceptingCharity fails unless the campaign and its charity can take donations
func acceptingCharity(tx *gorm.DB, fundraising *models.Fundraising) (*models.Charity, error) {
	if !fundraising.Active {
		return nil, ErrCampaignInactive
	}
	var charity models.Charity
	if err := tx.First(&charity, fundraising.CharityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCharityNotFound
		}
		return nil, fmt.Errorf("failed to fetch charity: %w", err)
	}
	if !charity.Verified {
		return nil, ErrCharityNotVerified
	}
	return &charity, nil
}

// checkRemaining fails when amount would push a targeted campaign past its target
func checkRemaining(fundraising *models.Fundraising, amount decimal.Decimal) error {
	if fundraising.IsGeneralFund() {
		return nil
	}
	remaining := fundraising.RemainingAmount()
	if amount.GreaterThan(remaining) {
		log.Printf("Donation of %s exceeds remaining %s on fundraising %d", amount, remaining, fundraising.ID)
		return fmt.Errorf("%w: at most %s can still be donated", ErrExceedsRemaining, remaining.StringFixed(2))
	}
	return nil
}

// subtractFromCampaign removes a completed amount from the stored total of a
// locked campaign, never going below zero
func subtractFromCampaign(tx *gorm.DB, fundraising *models.Fundraising, amount decimal.Decimal) error {
	fundraising.CurrentAmount = decimal.Max(fundraising.CurrentAmount.Sub(amount), decimal.Zero)
	if err := tx.Model(fundraising).Update("current_amount", fundraising.CurrentAmount).Error; err != nil {
		return fmt.Errorf("failed to update fundraising amount: %w", err)
	}
	return nil
}

func (s *DonationService) resolveCampaign(tx *gorm.DB, in DonationInput) (*models.Fundraising, error) {
	if in.FundraisingID == nil {
		var ids []uint
		err := tx.Model(&models.Fundraising{}).
			Where("charity_id = ? AND kind = ? AND active = ?", in.CharityID, models.FundraisingKindGeneral, true).
			Limit(1).Pluck("id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("failed to find general fund: %w", err)
		}
		if len(ids) == 0 {
			log.Printf("No general fund for charity %d", in.CharityID)
			return nil, ErrNoGeneralFund
		}
		return lockFundraising(tx, ids[0])
	}

	fundraising, err := lockFundraising(tx, *in.FundraisingID)
	if err != nil {
		return nil, err
	}
	if in.CharityID != 0 && fundraising.CharityID != in.CharityID {
		return nil, ErrCharityMismatch
	}
	return fundraising, nil
}

// CreateDonation records a completed donation and applies it to the campaign
// total in one transaction. The campaign row stays locked until commit.
func (s *DonationService) CreateDonation(ctx context.Context, in DonationInput, userID uint) (*DonationResult, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = defaultPaymentMethod
	}

	result := &DonationResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(ctx, tx, userID); err != nil {
			return err
		}

		fundraising, err := s.resolveCampaign(tx, in)
		if err != nil {
			return err
		}
		charity, err := acceptingCharity(tx, fundraising)
		if err != nil {
			log.Printf("Donation to fundraising %d rejected: %v", fundraising.ID, err)
			return err
		}

		if err := checkRemaining(fundraising, in.Amount); err != nil {
			return err
		}

		donation := models.Donation{
			UserID:            userID,
			FundraisingID:     fundraising.ID,
			Amount:            in.Amount,
			TransactionID:     uuid.New().String(),
			PaymentMethod:     in.PaymentMethod,
			PaymentStatus:     models.PaymentStatusCompleted,
			Message:           in.Message,
			Anonymous:         in.Anonymous,
			Recurring:         in.Recurring,
			RecurringInterval: in.RecurringInterval,
		}
		if err := tx.Create(&donation).Error; err != nil {
			return fmt.Errorf("failed to create donation: %w", err)
		}
		if err := addToCampaign(tx, fundraising, in.Amount); err != nil {
			return err
		}

		if in.Recurring {
			now := s.now()
			var payment *models.RecurringPayment
			err := tx.Transaction(func(nested *gorm.DB) error {
				var err error
				payment, err = createRecurringPayment(nested, userID, fundraising.ID, in.Amount, now.Day(), now)
				return err
			})
			if err != nil {
				log.Printf("Failed to schedule recurring payment for donation %d: %v", donation.ID, err)
				result.RecurringScheduleErr = err
			} else {
				result.RecurringPayment = payment
			}
		}

		if _, err := completeIfReached(tx, fundraising); err != nil {
			return err
		}

		fundraising.Charity = charity
		donation.Decorate(fundraising)
		result.Donation = &donation
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Donation %d of %s settled on fundraising %d", result.Donation.ID, result.Donation.Amount, result.Donation.FundraisingID)
	return result, nil
}

func (s *DonationService) GetUserDonations(ctx context.Context, userID uint) ([]models.Donation, error) {
	return s.list(ctx, "user_id = ?", userID)
}

func (s *DonationService) GetFundraisingDonations(ctx context.Context, fundraisingID uint) ([]models.Donation, error) {
	return s.list(ctx, "fundraising_id = ?", fundraisingID)
}

func (s *DonationService) list(ctx context.Context, query string, arg uint) ([]models.Donation, error) {
	var donations []models.Donation
	err := s.db.WithContext(ctx).
		Preload("Fundraising.Charity").
		Where(query, arg).
		Order("created_at DESC, id DESC").
		Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}
	for i := range donations {
		donations[i].Decorate(donations[i].Fundraising)
	}
	return donations, nil
}

// GetTotalDonationAmount sums the completed donations of a campaign
func (s *DonationService) GetTotalDonationAmount(ctx context.Context, fundraisingID uint) (decimal.Decimal, error) {
	return completedTotal(s.db.WithContext(ctx), fundraisingID)
}

// UpdateDonationStatus moves a donation that is not yet completed to status.
// Completing it applies the amount to the campaign and runs the target check.
func (s *DonationService) UpdateDonationStatus(ctx context.Context, id uint, status models.PaymentStatus) (*models.Donation, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var donation models.Donation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&donation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDonationNotFound
			}
			return fmt.Errorf("failed to fetch donation: %w", err)
		}
		if donation.PaymentStatus == models.PaymentStatusCompleted {
			log.Printf("Rejected status change of completed donation %d", id)
			return ErrDonationCompleted
		}

		if status != models.PaymentStatusCompleted {
			donation.PaymentStatus = status
			if err := tx.Model(&donation).Update("payment_status", status).Error; err != nil {
				return fmt.Errorf("failed to update donation status: %w", err)
			}
			return nil
		}

		// Completing settles the donation with the same guards as a new one
		fundraising, err := lockFundraising(tx, donation.FundraisingID)
		if err != nil {
			return err
		}
		if _, err := acceptingCharity(tx, fundraising); err != nil {
			log.Printf("Completion of donation %d rejected: %v", id, err)
			return err
		}
		if err := checkRemaining(fundraising, donation.Amount); err != nil {
			return err
		}

		donation.PaymentStatus = status
		if err := tx.Model(&donation).Update("payment_status", status).Error; err != nil {
			return fmt.Errorf("failed to update donation status: %w", err)
		}
		if err := addToCampaign(tx, fundraising, donation.Amount); err != nil {
			return err
		}
		_, err = completeIfReached(tx, fundraising)
		return err
	})
	if err != nil {
		return nil, err
	}

	donation.Decorate(nil)
	log.Printf("Donation %d status set to %s", id, status)
	return &donation, nil
}

// DeleteDonation removes a donation owned by userID. A completed donation is
// taken off its campaign total in the same transaction.
func (s *DonationService) DeleteDonation(ctx context.Context, id, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var donation models.Donation
		if err := tx.First(&donation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDonationNotFound
			}
			return fmt.Errorf("failed to fetch donation: %w", err)
		}
		if donation.UserID != userID {
			log.Printf("User %d attempted to delete donation %d", userID, id)
			return ErrNotDonationOwner
		}

		if donation.PaymentStatus == models.PaymentStatusCompleted {
			fundraising, err := lockFundraising(tx, donation.FundraisingID)
			if err != nil && !errors.Is(err, ErrFundraisingNotFound) {
				return err
			}
			if fundraising != nil {
				if err := subtractFromCampaign(tx, fundraising, donation.Amount); err != nil {
					return err
				}
			}
		}

		if err := tx.Delete(&donation).Error; err != nil {
			return fmt.Errorf("failed to delete donation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Donation %d deleted", id)
	return nil
}
