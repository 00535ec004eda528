package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FundraisingKind distinguishes a charity's general fund from targeted campaigns
type FundraisingKind string

const (
	FundraisingKindGeneral  FundraisingKind = "general"
	FundraisingKindTargeted FundraisingKind = "targeted"
)

// UnboundedTargetAmount is the target stored on a general fund for display.
// Logic must use Kind, never compare against this value.
var UnboundedTargetAmount = decimal.RequireFromString("999999999999")

const (
	GeneralFundTitle       = "General fund"
	GeneralFundDescription = "Main fund for undesignated donations"
)

// Fundraising represents a campaign owned by a charity
type Fundraising struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CharityID   uint `gorm:"index;not null" json:"charity_id"`
	CreatedByID uint `gorm:"index;not null" json:"created_by_id"`

	Kind          FundraisingKind `gorm:"type:varchar(20);default:'targeted';index" json:"kind"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Description   string          `gorm:"type:varchar(2000)" json:"description"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"current_amount"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	ImageURL      string          `gorm:"type:varchar(500)" json:"image_url"`

	Active    bool `gorm:"default:true;index" json:"active"`
	Completed bool `gorm:"default:false" json:"completed"`

	Documents datatypes.JSONSlice[Document] `json:"documents"`

	// Relationships
	Charity   *Charity `gorm:"foreignKey:CharityID" json:"charity,omitempty"`
	CreatedBy *User    `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

// IsGeneralFund reports whether the campaign is its charity's unbounded general fund
func (f Fundraising) IsGeneralFund() bool {
	return f.Kind == FundraisingKindGeneral
}

// RemainingAmount returns how much a targeted campaign can still accept
func (f Fundraising) RemainingAmount() decimal.Decimal {
	return f.TargetAmount.Sub(f.CurrentAmount)
}

// ReachedTarget reports whether total meets the target of a targeted campaign.
// A general fund never reaches its target.
func (f Fundraising) ReachedTarget(total decimal.Decimal) bool {
	if f.IsGeneralFund() {
		return false
	}
	return total.GreaterThanOrEqual(f.TargetAmount)
}

// MarkCompleted closes the campaign: completed campaigns never accept donations
func (f *Fundraising) MarkCompleted() {
	f.Completed = true
	f.Active = false
}

// NewGeneralFund builds the companion general fund created with every charity
func NewGeneralFund(charityID, creatorID uint, documents []Document, now time.Time) Fundraising {
	return Fundraising{
		CharityID:     charityID,
		CreatedByID:   creatorID,
		Kind:          FundraisingKindGeneral,
		Title:         GeneralFundTitle,
		Description:   GeneralFundDescription,
		TargetAmount:  UnboundedTargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     now,
		Active:        true,
		Documents:     append(datatypes.JSONSlice[Document]{}, documents...),
	}
}
