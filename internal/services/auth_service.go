package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"donation_platform/internal/models"
)

const revokedTokenPrefix = "revoked_token:"

// TokenClaims are the claims embedded in every access token
type TokenClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and access tokens
type AuthService struct {
	db         *gorm.DB
	cache      *RedisCache
	secret     []byte
	expiration time.Duration
	hashCost   int
	now        func() time.Time
}

// NewAuthService creates an AuthService. cache may be nil, in which case
// logout does not revoke tokens.
func NewAuthService(db *gorm.DB, cache *RedisCache, secret string, expiration time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		cache:      cache,
		secret:     []byte(secret),
		expiration: expiration,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// RegisterInput holds the fields accepted at registration
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) emailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates a user and returns a token for it
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, newError(KindValidationFailed, "email and password are required")
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		log.Printf("Registration attempt with existing email")
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         models.UserRoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.IssueToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	log.Printf("User %d registered", user.ID)
	return &AuthResult{Token: token, User: &user}, nil
}

// Login verifies credentials. Unknown email and wrong password both return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("Login failed: wrong password for user %d", user.ID)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("Failed to record last login for user %d: %v", user.ID, err)
	}

	token, err := s.IssueToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: &user}, nil
}

// IssueToken signs a token carrying the user id and email
func (s *AuthService) IssueToken(userID uint, email string) (string, error) {
	now := s.now()
	claims := TokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parse(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken reports whether the signature and expiry of token are valid
func (s *AuthService) ValidateToken(token string) bool {
	_, err := s.parse(token)
	return err == nil
}

// ExtractUserID returns the user id of a valid, non-revoked token
func (s *AuthService) ExtractUserID(ctx context.Context, token string) (uint, error) {
	claims, err := s.parse(token)
	if err != nil {
		return 0, err
	}

	if s.cache != nil && claims.ID != "" {
		revoked, err := s.cache.Exists(ctx, revokedTokenPrefix+claims.ID)
		if err != nil {
			log.Printf("Failed to check token revocation: %v", err)
		} else if revoked {
			return 0, ErrInvalidToken
		}
	}
	return claims.UserID, nil
}

// Logout revokes token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if s.cache == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedTokenPrefix+claims.ID, claims.UserID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// CheckRole returns the role of a user
func (s *AuthService) CheckRole(ctx context.Context, userID uint) (models.UserRole, error) {
	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func findUser(ctx context.Context, db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}
