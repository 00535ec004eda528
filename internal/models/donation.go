package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the settlement state of a donation
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Valid reports whether s is a known status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Donation records a single pledge against a campaign
type Donation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID        uint            `gorm:"index;not null" json:"user_id"`
	FundraisingID uint            `gorm:"index;not null" json:"fundraising_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`

	TransactionID     string        `gorm:"type:varchar(64);uniqueIndex" json:"transaction_id"`
	PaymentMethod     string        `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);default:'PENDING'" json:"payment_status"`
	Message           string        `gorm:"type:text" json:"message"`
	Anonymous         bool          `gorm:"default:false" json:"anonymous"`
	Recurring         bool          `gorm:"default:false" json:"recurring"`
	RecurringInterval string        `gorm:"type:varchar(50)" json:"recurring_interval"`

	// Presentation fields, recomputed on every read
	Status           string `gorm:"-" json:"status"`
	FundraisingTitle string `gorm:"-" json:"fundraising_title"`
	CharityName      string `gorm:"-" json:"charity_name"`

	// Relationships
	User        *User        `gorm:"foreignKey:UserID" json:"-"`
	Fundraising *Fundraising `gorm:"foreignKey:FundraisingID" json:"-"`
}

// Decorate fills the presentation fields from the loaded campaign and charity
func (d *Donation) Decorate(fundraising *Fundraising) {
	d.Status = string(d.PaymentStatus)
	if fundraising == nil {
		return
	}
	d.FundraisingTitle = fundraising.Title
	if fundraising.Charity != nil {
		d.CharityName = fundraising.Charity.Name
	}
}
