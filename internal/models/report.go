package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Report is the spend report that closes out a campaign
type Report struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FundraisingID uint            `gorm:"uniqueIndex;not null" json:"fundraising_id"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Description   string          `gorm:"type:varchar(2000)" json:"description"`
	SpentAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"spent_amount"`

	// DocumentURLs and DocumentDescriptions are parallel lists
	DocumentURLs         datatypes.JSONSlice[string] `json:"document_urls"`
	DocumentDescriptions datatypes.JSONSlice[string] `json:"document_descriptions"`

	ReportDate time.Time `gorm:"not null" json:"report_date"`
	Verified   bool      `gorm:"default:false" json:"verified"`

	// Relationships
	Fundraising *Fundraising `gorm:"foreignKey:FundraisingID" json:"-"`
}

// AppendDocuments adds urls with their descriptions, defaulting missing
// descriptions to the empty string so both lists stay the same length.
func (r *Report) AppendDocuments(urls, descriptions []string) {
	for i, url := range urls {
		desc := ""
		if i < len(descriptions) {
			desc = descriptions[i]
		}
		r.DocumentURLs = append(r.DocumentURLs, url)
		r.DocumentDescriptions = append(r.DocumentDescriptions, desc)
	}
}

// RoundMoney rounds half-up to two decimals
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
