package user

import (
	"time"
	// Embedded zone database so IANA time zones resolve on minimal images.
	_ "time/tzdata"
)

// Field limits for user input.
const (
	MaxNameLength     = 100
	MaxLanguageLength = 5
	MinPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	MaxPasswordLength = 72
)

// User represents a user entity in the system.
type User struct {
	ID            string `gorm:"primaryKey;size:36"`
	Email         string `gorm:"uniqueIndex;not null;size:255"`
	Name          string `gorm:"size:100;not null"`
	PasswordHash  string `gorm:"not null;type:text"`
	EmailVerified bool   `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Theme is the UI color scheme preference.
type Theme string

const (
	ThemeLight Theme = "LIGHT"
	ThemeDark  Theme = "DARK"
	ThemeAuto  Theme = "AUTO"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

// Settings holds per-user preferences. There is exactly one row per user.
type Settings struct {
	UserID               string `gorm:"primaryKey;size:36"`
	Theme                Theme  `gorm:"size:8;not null;default:LIGHT"`
	TimeZone             string `gorm:"size:64;not null;default:UTC"`
	Language             string `gorm:"size:5;not null;default:en"`
	NotificationsEnabled bool   `gorm:"not null"`
	EmailNotifications   bool   `gorm:"not null"`
	TaskReminders        bool   `gorm:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName returns the table name for the Settings entity.
func (Settings) TableName() string {
	return "user_settings"
}

// DefaultSettings returns the settings a new account starts with.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:               userID,
		Theme:                ThemeLight,
		TimeZone:             "UTC",
		Language:             "en",
		NotificationsEnabled: true,
		EmailNotifications:   true,
		TaskReminders:        true,
	}
}

// Location resolves the settings time zone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if s.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WantsReminderEmails reports whether due reminders may be mailed to the user.
func (s Settings) WantsReminderEmails() bool {
	return s.NotificationsEnabled && s.EmailNotifications && s.TaskReminders
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims represents JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
