package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Charity represents an organization collecting donations
type Charity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name               string                      `gorm:"type:varchar(255);not null" json:"name"`
	Description        string                      `gorm:"type:text" json:"description"`
	WebsiteURL         string                      `gorm:"type:varchar(255)" json:"website_url"`
	Categories         datatypes.JSONSlice[string] `json:"categories"`
	RegistrationNumber string                      `gorm:"type:varchar(100);uniqueIndex;not null" json:"registration_number"`

	ContactEmail   string `gorm:"type:varchar(255)" json:"contact_email"`
	ContactPhone   string `gorm:"type:varchar(50)" json:"contact_phone"`
	ContactAddress string `gorm:"type:varchar(500)" json:"contact_address"`

	// Settlement details
	BankLegalName     string `gorm:"type:varchar(255);not null" json:"bank_legal_name"`
	BankAccountNumber string `gorm:"type:varchar(64);not null" json:"bank_account_number"`
	BankRoutingCode   string `gorm:"type:varchar(64);not null" json:"bank_routing_code"`
	BankName          string `gorm:"type:varchar(255);not null" json:"bank_name"`

	Verified bool `gorm:"default:false" json:"verified"`
	Active   bool `gorm:"default:true" json:"active"`

	Documents datatypes.JSONSlice[Document] `json:"documents"`

	CreatedByID uint `gorm:"index;not null" json:"created_by_id"`

	// Relationships
	CreatedBy    *User         `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Fundraisings []Fundraising `gorm:"foreignKey:CharityID" json:"fundraisings,omitempty"`
}

// BankDetails groups the settlement fields that must be provided together
type BankDetails struct {
	LegalName     string
	AccountNumber string
	RoutingCode   string
	BankName      string
}

// Complete reports whether every settlement field is non-blank
func (b BankDetails) Complete() bool {
	for _, v := range []string{b.LegalName, b.AccountNumber, b.RoutingCode, b.BankName} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// HasCategory reports whether the charity is tagged with category (case-insensitive)
func (c Charity) HasCategory(category string) bool {
	for _, tag := range c.Categories {
		if strings.EqualFold(tag, category) {
			return true
		}
	}
	return false
}
