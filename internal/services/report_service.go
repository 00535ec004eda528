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

// ReportService files and serves campaign spend reports
type ReportService struct {
	db    *gorm.DB
	store DocumentStore
	now   func() time.Time
}

func NewReportService(db *gorm.DB, store DocumentStore) *ReportService {
	return &ReportService{db: db, store: store, now: time.Now}
}

// ReportInput holds the fields of a new report
type ReportInput struct {
	FundraisingID        uint
	Title                string
	Description          string
	SpentAmount          decimal.Decimal
	DocumentURLs         []string
	DocumentDescriptions []string
	ReportDate           *time.Time
}

func findReport(ctx context.Context, db *gorm.DB, id uint) (*models.Report, error) {
	var report models.Report
	if err := db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return &report, nil
}

// Create files the report of a campaign and closes the campaign. The spent
// amount must equal the collected amount after rounding both to cents.
func (s *ReportService) Create(ctx context.Context, in ReportInput, requesterID uint) (*models.Report, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, newError(KindValidationFailed, "title is required")
	}

	var report models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fundraising, err := lockFundraising(tx, in.FundraisingID)
		if err != nil {
			return err
		}
		if fundraising.CreatedByID != requesterID {
			log.Printf("User %d is not the creator of fundraising %d", requesterID, fundraising.ID)
			return ErrNotCampaignCreator
		}

		spent := models.RoundMoney(in.SpentAmount)
		collected := models.RoundMoney(fundraising.CurrentAmount)
		if !spent.Equal(collected) {
			log.Printf("Report amount %s does not match collected %s on fundraising %d", spent, collected, fundraising.ID)
			return ErrAmountMismatch
		}

		var existing int64
		if err := tx.Model(&models.Report{}).Where("fundraising_id = ?", fundraising.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check reports: %w", err)
		}
		if existing > 0 {
			return ErrReportExists
		}

		reportDate := s.now()
		if in.ReportDate != nil {
			reportDate = *in.ReportDate
		}
		report = models.Report{
			FundraisingID:        fundraising.ID,
			Title:                in.Title,
			Description:          in.Description,
			SpentAmount:          in.SpentAmount,
			DocumentURLs:         datatypes.JSONSlice[string]{},
			DocumentDescriptions: datatypes.JSONSlice[string]{},
			ReportDate:           reportDate,
		}
		report.AppendDocuments(in.DocumentURLs, in.DocumentDescriptions)
		if err := tx.Create(&report).Error; err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}

		fundraising.MarkCompleted()
		if err := tx.Model(fundraising).Select("active", "completed").Updates(fundraising).Error; err != nil {
			return fmt.Errorf("failed to complete fundraising: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Report %d filed, fundraising %d completed", report.ID, report.FundraisingID)
	return &report, nil
}

// Verify marks a report as verified
func (s *ReportService) Verify(ctx context.Context, id uint) (*models.Report, error) {
	report, err := findReport(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(report).Update("verified", true).Error; err != nil {
		return nil, fmt.Errorf("failed to verify report: %w", err)
	}
	report.Verified = true
	return report, nil
}

// UploadDocuments stores files and appends them to the report. Missing
// descriptions are stored as empty strings.
func (s *ReportService) UploadDocuments(ctx context.Context, id uint, uploads []Upload) (*models.Report, error) {
	report, err := findReport(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	documents, err := storeUploads(ctx, s.store, uploads)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(documents))
	descriptions := make([]string, len(documents))
	for i, d := range documents {
		urls[i] = d.URL
		descriptions[i] = d.Description
	}
	report.AppendDocuments(urls, descriptions)

	err = s.db.WithContext(ctx).Model(report).
		Select("document_urls", "document_descriptions").
		Updates(report).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update report documents: %w", err)
	}

	log.Printf("Added %d documents to report %d", len(documents), id)
	return report, nil
}

// UploadFile stores a single file and returns its URL
func (s *ReportService) UploadFile(ctx context.Context, upload Upload) (string, error) {
	return saveUpload(ctx, s.store, upload)
}

func (s *ReportService) Get(ctx context.Context, id uint) (*models.Report, error) {
	return findReport(ctx, s.db, id)
}

// ListForFundraising returns the reports of a campaign, newest first
func (s *ReportService) ListForFundraising(ctx context.Context, fundraisingID uint) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("fundraising_id = ?", fundraisingID).
		Order("report_date DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}
	return reports, nil
}

// ListForCharity returns the reports of every campaign of a charity, newest first
func (s *ReportService) ListForCharity(ctx context.Context, charityID uint) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Where("fundraising_id IN (?)", s.db.Model(&models.Fundraising{}).Select("id").Where("charity_id = ?", charityID)).
		Order("report_date DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}
	return reports, nil
}
