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
	"gorm.io/gorm/clause"

	"donation_platform/internal/models"
)

const recurringInterval = "MONTHLY"

// RecurringPaymentService manages monthly pledges
type RecurringPaymentService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecurringPaymentService(db *gorm.DB) *RecurringPaymentService {
	return &RecurringPaymentService{db: db, now: time.Now}
}

// ProcessSummary counts the outcome of one ProcessDue run
type ProcessSummary struct {
	Processed   int `json:"processed"`
	Skipped     int `json:"skipped"`
	Deactivated int `json:"deactivated"`
	Failed      int `json:"failed"`
}

// createRecurringPayment schedules a pledge inside tx
func createRecurringPayment(tx *gorm.DB, userID, fundraisingID uint, amount decimal.Decimal, paymentDay int, now time.Time) (*models.RecurringPayment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if paymentDay < 1 || paymentDay > 31 {
		return nil, ErrInvalidPaymentDay
	}
	if _, err := findFundraising(tx.Statement.Context, tx, fundraisingID); err != nil {
		return nil, err
	}

	next, err := models.NextPaymentDate(paymentDay, now)
	if err != nil {
		return nil, err
	}

	payment := models.RecurringPayment{
		UserID:          userID,
		FundraisingID:   fundraisingID,
		Amount:          amount,
		PaymentDay:      paymentDay,
		NextPaymentDate: next,
		IsActive:        true,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create recurring payment: %w", err)
	}
	return &payment, nil
}

// Create schedules a monthly pledge of amount on paymentDay
func (s *RecurringPaymentService) Create(ctx context.Context, userID, fundraisingID uint, amount decimal.Decimal, paymentDay int) (*models.RecurringPayment, error) {
	if _, err := findUser(ctx, s.db, userID); err != nil {
		return nil, err
	}

	payment, err := createRecurringPayment(s.db.WithContext(ctx), userID, fundraisingID, amount, paymentDay, s.now())
	if err != nil {
		return nil, err
	}

	log.Printf("Recurring payment %d scheduled, next charge %s", payment.ID, payment.NextPaymentDate.Format(time.DateOnly))
	return payment, nil
}

// Cancel deactivates a pledge owned by userID. The record is kept.
func (s *RecurringPaymentService) Cancel(ctx context.Context, id, userID uint) error {
	var payment models.RecurringPayment
	if err := s.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecurringNotFound
		}
		return fmt.Errorf("failed to fetch recurring payment: %w", err)
	}
	if payment.UserID != userID {
		return ErrNotRecurringOwner
	}

	if err := s.db.WithContext(ctx).Model(&payment).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to cancel recurring payment: %w", err)
	}
	log.Printf("Recurring payment %d cancelled", id)
	return nil
}

// ListForUser returns the active pledges of userID
func (s *RecurringPaymentService) ListForUser(ctx context.Context, userID uint) ([]models.RecurringPayment, error) {
	var payments []models.RecurringPayment
	err := s.db.WithContext(ctx).
		Preload("Fundraising").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("next_payment_date").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recurring payments: %w", err)
	}
	return payments, nil
}

type chargeOutcome int

const (
	chargeApplied chargeOutcome = iota
	chargeSkipped
	chargeDeactivated
	chargeNotDue
)

// ProcessDue charges every active pledge whose next payment date is before
// now. Each charge is recorded as a completed recurring donation in its own
// transaction; a failed charge does not stop the others.
func (s *RecurringPaymentService) ProcessDue(ctx context.Context, now time.Time) (*ProcessSummary, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.RecurringPayment{}).
		Where("is_active = ? AND next_payment_date < ?", true, now).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due payments: %w", err)
	}

	summary := &ProcessSummary{}
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		outcome, err := s.charge(ctx, id, now)
		if err != nil {
			log.Printf("Failed to charge recurring payment %d: %v", id, err)
			summary.Failed++
			errs = append(errs, fmt.Errorf("recurring payment %d: %w", id, err))
			continue
		}
		switch outcome {
		case chargeApplied:
			summary.Processed++
		case chargeSkipped:
			summary.Skipped++
		case chargeDeactivated:
			summary.Deactivated++
		case chargeNotDue:
		}
	}

	log.Printf("Recurring run: %d processed, %d skipped, %d deactivated, %d failed",
		summary.Processed, summary.Skipped, summary.Deactivated, summary.Failed)
	return summary, errors.Join(errs...)
}

func (s *RecurringPaymentService) charge(ctx context.Context, id uint, now time.Time) (chargeOutcome, error) {
	var outcome chargeOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.RecurringPayment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_active = ? AND next_payment_date < ?", id, true, now).
			First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// charged or cancelled by a concurrent run
			outcome = chargeNotDue
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock recurring payment: %w", err)
		}

		fundraising, err := lockFundraising(tx, payment.FundraisingID)
		if err == nil {
			_, err = acceptingCharity(tx, fundraising)
		}
		if err != nil {
			if KindOf(err) == KindInternal {
				return err
			}
			log.Printf("Deactivating recurring payment %d: %v", id, err)
			outcome = chargeDeactivated
			return tx.Model(&payment).Update("is_active", false).Error
		}

		if err := payment.Advance(now); err != nil {
			return err
		}
		if !fundraising.IsGeneralFund() && payment.Amount.GreaterThan(fundraising.RemainingAmount()) {
			log.Printf("Skipping recurring payment %d: %s exceeds remaining %s", id, payment.Amount, fundraising.RemainingAmount())
			outcome = chargeSkipped
			return tx.Model(&payment).Update("next_payment_date", payment.NextPaymentDate).Error
		}

		donation := models.Donation{
			UserID:            payment.UserID,
			FundraisingID:     fundraising.ID,
			Amount:            payment.Amount,
			TransactionID:     uuid.New().String(),
			PaymentMethod:     defaultPaymentMethod,
			PaymentStatus:     models.PaymentStatusCompleted,
			Recurring:         true,
			RecurringInterval: recurringInterval,
		}
		if err := tx.Create(&donation).Error; err != nil {
			return fmt.Errorf("failed to record recurring donation: %w", err)
		}
		if err := addToCampaign(tx, fundraising, payment.Amount); err != nil {
			return err
		}
		if _, err := completeIfReached(tx, fundraising); err != nil {
			return err
		}
		if err := tx.Model(&payment).Update("next_payment_date", payment.NextPaymentDate).Error; err != nil {
			return fmt.Errorf("failed to advance recurring payment: %w", err)
		}

		outcome = chargeApplied
		return nil
	})
	return outcome, err
}
