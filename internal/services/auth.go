package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emilythestrangee/community-forum/backend/internal/mail"
	"github.com/emilythestrangee/community-forum/backend/internal/models"
)

const otpTTL = time.Hour

// AuthService handles signup, email verification via one-time codes, login,
// and session token issuance.
type AuthService struct {
	db         *gorm.DB
	mailer     mail.Sender
	validate   *validator.Validate
	jwtSecret  []byte
	bcryptCost int
}

func NewAuthService(db *gorm.DB, mailer mail.Sender, jwtSecret string, bcryptCost int) *AuthService {
	return &AuthService{
		db:         db,
		mailer:     mailer,
		validate:   validator.New(),
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
	}
}

// Signup creates an unverified user and dispatches a verification code. Every
// failed input check is reported together, not just the first.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	var msgs []string
	if req.Username == "" {
		msgs = append(msgs, "Username is required")
	}
	if !isStrongPassword(req.Password) {
		msgs = append(msgs, "Weak password")
	}
	if s.validate.Var(req.Email, "required,email") != nil {
		msgs = append(msgs, "Invalid email")
	}
	if req.PhoneNumber != "" && s.validate.Var(req.PhoneNumber, "e164") != nil {
		msgs = append(msgs, "Invalid phone number")
	}
	if len(msgs) > 0 {
		return nil, &models.ValidationError{Messages: msgs}
	}

	var existing models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", req.Username, req.Email).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: username or email already exists", models.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:    req.Username,
		Email:       req.Email,
		Password:    string(hashed),
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Country:     req.Country,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.issueOTP(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Verify checks a submitted code against the user's live OTP. An expired code
// is purged and a fresh one sent in the same call.
func (s *AuthService) Verify(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return fmt.Errorf("%w: email already verified", models.ErrConflict)
	}

	var otp models.UserOTP
	err = s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: no verification code found", models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find otp: %w", err)
	}

	if time.Now().After(otp.ExpiresAt) {
		// Lazy expiry cleanup: purge and silently reissue, then report.
		if err := s.issueOTP(ctx, user); err != nil {
			return err
		}
		return fmt.Errorf("%w: code expired, a new code has been sent", models.ErrValidation)
	}

	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		return fmt.Errorf("%w: invalid verification code", models.ErrValidation)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("verified", true).Error; err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserOTP{}).Error; err != nil {
			return fmt.Errorf("purge otps: %w", err)
		}
		return nil
	})
}

// ResendCode reissues the verification code for an unverified account.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return fmt.Errorf("%w: email already verified", models.ErrConflict)
	}
	return s.issueOTP(ctx, user)
}

// Login verifies credentials and returns a signed session token. Wrong email
// and wrong password are indistinguishable to the caller; an unverified
// account gets its own error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}

	if !user.Verified {
		return "", nil, fmt.Errorf("%w: email not verified", models.ErrForbidden)
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// IssueToken signs a session token bound to the user id.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"exp":      time.Now().Add(72 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GetUser loads one user by id.
func (s *AuthService) GetUser(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", models.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// issueOTP purges any older codes, stores a bcrypt hash of a fresh 4-digit
// code, and dispatches it. Only the hash is ever at rest.
func (s *AuthService) issueOTP(ctx context.Context, user *models.User) error {
	code, err := generateOTPCode()
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserOTP{}).Error; err != nil {
			return fmt.Errorf("purge old otps: %w", err)
		}
		otp := models.UserOTP{
			UserID:    user.ID,
			CodeHash:  string(hashed),
			ExpiresAt: time.Now().Add(otpTTL),
		}
		if err := tx.Create(&otp).Error; err != nil {
			return fmt.Errorf("create otp: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.mailer.SendOTP(user, code)
}

// generateOTPCode returns a 4-digit code in 1000..9999.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}

func isStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	return hasUpper && hasLower
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", models.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
