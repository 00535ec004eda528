package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"donation_platform/internal/models"
)

// ProfileService serves the current user's profile
type ProfileService struct {
	db   *gorm.DB
	auth *AuthService
}

func NewProfileService(db *gorm.DB, auth *AuthService) *ProfileService {
	return &ProfileService{db: db, auth: auth}
}

// Profile is a user summary with donation statistics
type Profile struct {
	User                    *models.User    `json:"user"`
	TotalDonations          int64           `json:"total_donations"`
	TotalDonated            decimal.Decimal `json:"total_donated"`
	ActiveRecurringPayments int64           `json:"active_recurring_payments"`
}

// ProfileUpdate holds the optional fields of a profile update
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Donation{}).
		Where("user_id = ? AND payment_status = ?", userID, models.PaymentStatusCompleted).
		Count(&profile.TotalDonations).Error; err != nil {
		return nil, fmt.Errorf("failed to count donations: %w", err)
	}

	var amounts []decimal.Decimal
	if err := db.Model(&models.Donation{}).
		Where("user_id = ? AND payment_status = ?", userID, models.PaymentStatusCompleted).
		Pluck("amount", &amounts).Error; err != nil {
		return nil, fmt.Errorf("failed to sum donations: %w", err)
	}
	profile.TotalDonated = sumAmounts(amounts)

	if err := db.Model(&models.RecurringPayment{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&profile.ActiveRecurringPayments).Error; err != nil {
		return nil, fmt.Errorf("failed to count recurring payments: %w", err)
	}

	return profile, nil
}

// UpdateProfile applies the non-nil fields of update. Changing the email
// resets the verified flag.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error) {
	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if email == "" {
			return nil, newError(KindValidationFailed, "email must not be blank")
		}
		if email != user.Email {
			taken, err := s.auth.emailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrDuplicateEmail
			}
			user.Email = email
			user.EmailVerified = false
		}
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}

	err = s.db.WithContext(ctx).Model(user).
		Select("email", "email_verified", "first_name", "last_name", "phone").
		Updates(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one
func (s *ProfileService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if next == "" {
		return newError(KindValidationFailed, "new password must not be blank")
	}

	hash, err := s.auth.hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Printf("Password changed for user %d", userID)
	return nil
}

func sumAmounts(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
