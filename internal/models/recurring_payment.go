package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
)

// RecurringPayment is a monthly pledge a user keeps against a campaign
type RecurringPayment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID          uint            `gorm:"index;not null" json:"user_id"`
	FundraisingID   uint            `gorm:"index;not null" json:"fundraising_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentDay      int             `gorm:"not null" json:"payment_day"`
	NextPaymentDate time.Time       `gorm:"index:idx_recurring_payments_active_next,priority:2" json:"next_payment_date"`
	IsActive        bool            `gorm:"default:true;index:idx_recurring_payments_active_next,priority:1" json:"is_active"`

	// Relationships
	User        *User        `gorm:"foreignKey:UserID" json:"-"`
	Fundraising *Fundraising `gorm:"foreignKey:FundraisingID" json:"fundraising,omitempty"`
}

// NextPaymentDate returns midnight of paymentDay in the first month, starting
// with the month of now, that has such a day and lies strictly after now.
// Months shorter than paymentDay are skipped, never clamped.
func NextPaymentDate(paymentDay int, now time.Time) (time.Time, error) {
	if paymentDay < 1 || paymentDay > 31 {
		return time.Time{}, fmt.Errorf("payment day %d out of range 1-31", paymentDay)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:       rrule.MONTHLY,
		Dtstart:    monthStart,
		Bymonthday: []int{paymentDay},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build payment rule: %w", err)
	}

	next := rule.After(now, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no payment date found for day %d", paymentDay)
	}
	return next, nil
}

// Advance recomputes NextPaymentDate relative to now
func (p *RecurringPayment) Advance(now time.Time) error {
	next, err := NextPaymentDate(p.PaymentDay, now)
	if err != nil {
		return err
	}
	p.NextPaymentDate = next
	return nil
}
