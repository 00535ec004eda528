package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donation_platform/internal/models"
)

func TestGetProfileStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.user(t, "owner@example.com")
	donor := f.user(t, "donor@example.com")
	charity := f.charity(t, owner.ID, "ORG-1", true)
	campaign := f.campaign(t, charity.ID, owner.ID, "1000")

	f.donate(t, donor.ID, charity.ID, campaign.ID, "100.50")
	f.donate(t, donor.ID, charity.ID, campaign.ID, "20")
	_, err := f.recurring.Create(ctx, donor.ID, campaign.ID, decimal.NewFromInt(5), 3)
	require.NoError(t, err)

	profile, err := f.profiles.GetProfile(ctx, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, donor.ID, profile.User.ID)
	assert.Equal(t, int64(2), profile.TotalDonations)
	assert.True(t, decimal.RequireFromString("120.50").Equal(profile.TotalDonated), profile.TotalDonated.String())
	assert.Equal(t, int64(1), profile.ActiveRecurringPayments)

	_, err = f.profiles.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.user(t, "taken@example.com")
	user := f.user(t, "me@example.com")
	require.NoError(t, f.db.Model(&user).Update("email_verified", true).Error)

	taken := "taken@example.com"
	_, err := f.profiles.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	email := "New@Example.com"
	phone := "+15550100"
	updated, err := f.profiles.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: &email, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, phone, updated.Phone)
	assert.False(t, updated.EmailVerified)

	var stored models.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.False(t, stored.EmailVerified)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
	assert.Equal(t, user.Role, stored.Role)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.auth.Register(ctx, RegisterInput{Email: "me@example.com", Password: "old-pass"})
	require.NoError(t, err)
	userID := registered.User.ID

	err = f.profiles.ChangePassword(ctx, userID, "wrong", "new-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.profiles.ChangePassword(ctx, userID, "old-pass", "new-pass"))

	_, err = f.auth.Login(ctx, "me@example.com", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "me@example.com", "new-pass")
	assert.NoError(t, err)
}
