package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrPasswordMismatch is returned when a confirmation does not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrIncorrectPassword is returned when the current password is wrong on change.
	ErrIncorrectPassword = errors.New("current password is incorrect")
	// ErrNameRequired is returned when the display name is blank.
	ErrNameRequired = errors.New("name is required")
	// ErrNameTooLong is returned when the display name exceeds its limit.
	ErrNameTooLong = errors.New("name must be at most 100 characters")
	// ErrInvalidTheme is returned for a theme outside LIGHT, DARK and AUTO.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidTimeZone is returned when the time zone is not a known IANA name.
	ErrInvalidTimeZone = errors.New("invalid time zone")
	// ErrInvalidLanguage is returned when the language code is blank or too long.
	ErrInvalidLanguage = errors.New("language must be 1 to 5 characters")
)

// SettingsUpdate lists the settings fields to change.
type SettingsUpdate struct {
	Theme                *domain.Theme
	TimeZone             *string
	Language             *string
	NotificationsEnabled *bool
	EmailNotifications   *bool
	TaskReminders        *bool
}

// AuthService handles authentication and account business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	now    func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		now:    time.Now,
	}
}

// Register creates a new user account with default settings.
func (s *AuthService) Register(_ context.Context, name, email, password, confirm string) (*domain.User, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	exists, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	settings := domain.DefaultSettings(user.ID)
	settings.CreatedAt = now
	settings.UpdatedAt = now

	if err := s.repo.Create(user, &settings); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(_ context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair.
func (s *AuthService) RefreshTokens(_ context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.repo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	tokens, err := s.generateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(userID)
}

// UpdateUser changes the name and/or email of a user.
func (s *AuthService) UpdateUser(_ context.Context, userID string, name, email *string) (*domain.User, error) {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		n, err := validateName(*name)
		if err != nil {
			return nil, err
		}
		user.Name = n
	}

	if email != nil {
		e, err := normalizeEmail(*email)
		if err != nil {
			return nil, err
		}
		if e != user.Email {
			exists, err := s.repo.EmailExists(e)
			if err != nil {
				return nil, fmt.Errorf("failed to check email existence: %w", err)
			}
			if exists {
				return nil, ErrUserExists
			}
			user.Email = e
			user.EmailVerified = false
		}
	}

	user.UpdatedAt = s.now()
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(_ context.Context, userID, current, next, confirm string) error {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return ErrIncorrectPassword
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	if next != confirm {
		return ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return s.repo.Update(user)
}

// DeleteUser removes the account and its settings, returning the removed user.
func (s *AuthService) DeleteUser(_ context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(userID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetSettings returns the user's settings, creating the defaults on first access.
func (s *AuthService) GetSettings(_ context.Context, userID string) (*domain.Settings, error) {
	settings, err := s.repo.FindSettings(userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.repo.FindByID(userID); err != nil {
		return nil, err
	}
	defaults := domain.DefaultSettings(userID)
	now := s.now()
	defaults.CreatedAt = now
	defaults.UpdatedAt = now
	if err := s.repo.SaveSettings(&defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// UpdateSettings applies a partial settings change.
func (s *AuthService) UpdateSettings(ctx context.Context, userID string, update SettingsUpdate) (*domain.Settings, error) {
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Theme != nil {
		theme := domain.Theme(strings.ToUpper(string(*update.Theme)))
		if !theme.Valid() {
			return nil, ErrInvalidTheme
		}
		settings.Theme = theme
	}
	if update.TimeZone != nil {
		tz := strings.TrimSpace(*update.TimeZone)
		if _, err := time.LoadLocation(tz); tz == "" || err != nil {
			return nil, ErrInvalidTimeZone
		}
		settings.TimeZone = tz
	}
	if update.Language != nil {
		lang := strings.TrimSpace(*update.Language)
		if lang == "" || len(lang) > domain.MaxLanguageLength {
			return nil, ErrInvalidLanguage
		}
		settings.Language = lang
	}
	if update.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *update.NotificationsEnabled
	}
	if update.EmailNotifications != nil {
		settings.EmailNotifications = *update.EmailNotifications
	}
	if update.TaskReminders != nil {
		settings.TaskReminders = *update.TaskReminders
	}

	settings.UpdatedAt = s.now()
	if err := s.repo.SaveSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *AuthService) generateTokenPair(userID, email string) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < domain.MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > domain.MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if len([]rune(name)) > domain.MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
