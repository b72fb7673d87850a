package auth

import (
	"time"

	domain "github.com/example/todo-app/domain/user"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	User         UserResponse `json:"user"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// UserRequest addresses a single user.
type UserRequest struct {
	UserID string `json:"user_id"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateUserRequest changes profile fields; nil fields are left as they are.
type UpdateUserRequest struct {
	UserID string  `json:"user_id"`
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
}

// ChangePasswordRequest represents a password change.
type ChangePasswordRequest struct {
	UserID          string `json:"user_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePasswordResponse acknowledges a password change.
type ChangePasswordResponse struct {
	Changed bool `json:"changed"`
}

// DeleteUserResponse acknowledges an account removal.
type DeleteUserResponse struct {
	Deleted bool `json:"deleted"`
}

// SettingsResponse is the public view of user settings.
type SettingsResponse struct {
	UserID               string       `json:"user_id"`
	Theme                domain.Theme `json:"theme"`
	TimeZone             string       `json:"time_zone"`
	Language             string       `json:"language"`
	NotificationsEnabled bool         `json:"notifications_enabled"`
	EmailNotifications   bool         `json:"email_notifications"`
	TaskReminders        bool         `json:"task_reminders"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// UpdateSettingsRequest changes settings; nil fields are left as they are.
type UpdateSettingsRequest struct {
	UserID               string        `json:"user_id"`
	Theme                *domain.Theme `json:"theme,omitempty"`
	TimeZone             *string       `json:"time_zone,omitempty"`
	Language             *string       `json:"language,omitempty"`
	NotificationsEnabled *bool         `json:"notifications_enabled,omitempty"`
	EmailNotifications   *bool         `json:"email_notifications,omitempty"`
	TaskReminders        *bool         `json:"task_reminders,omitempty"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toSettingsResponse(s *domain.Settings) SettingsResponse {
	return SettingsResponse{
		UserID:               s.UserID,
		Theme:                s.Theme,
		TimeZone:             s.TimeZone,
		Language:             s.Language,
		NotificationsEnabled: s.NotificationsEnabled,
		EmailNotifications:   s.EmailNotifications,
		TaskReminders:        s.TaskReminders,
		UpdatedAt:            s.UpdatedAt,
	}
}

// ToSettings converts a settings response back into the domain value.
func (r SettingsResponse) ToSettings() domain.Settings {
	return domain.Settings{
		UserID:               r.UserID,
		Theme:                r.Theme,
		TimeZone:             r.TimeZone,
		Language:             r.Language,
		NotificationsEnabled: r.NotificationsEnabled,
		EmailNotifications:   r.EmailNotifications,
		TaskReminders:        r.TaskReminders,
		UpdatedAt:            r.UpdatedAt,
	}
}
