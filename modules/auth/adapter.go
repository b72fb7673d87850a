package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/todo-app/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is what other modules use to reach authentication and account data.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetSettings(ctx context.Context, userID string) (*domain.Settings, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("auth adapter requires non-nil ServiceContainer")
	}
	return &AuthAdapter{container: container}
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := UserRequest{UserID: userID}
	var resp UserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}

	return &domain.User{
		ID:            resp.ID,
		Email:         resp.Email,
		Name:          resp.Name,
		EmailVerified: resp.EmailVerified,
		CreatedAt:     resp.CreatedAt,
		UpdatedAt:     resp.UpdatedAt,
	}, nil
}

// GetSettings retrieves the preferences of a user.
func (a *AuthAdapter) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	req := UserRequest{UserID: userID}
	var resp SettingsResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-settings",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-settings request failed: %w", err)
	}

	settings := resp.ToSettings()
	return &settings, nil
}

// AccountPort covers the account flows exposed over HTTP.
type AccountPort interface {
	Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	UpdateUser(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error)
	ChangePassword(ctx context.Context, req *ChangePasswordRequest) error
	DeleteUser(ctx context.Context, userID string) error
	UpdateSettings(ctx context.Context, req *UpdateSettingsRequest) (*SettingsResponse, error)
}

var _ AccountPort = (*AuthAdapter)(nil)

// Register creates an account.
func (a *AuthAdapter) Register(ctx context.Context, req *RegisterRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"register",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login exchanges credentials for a token pair.
func (a *AuthAdapter) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"login",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"refresh-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("refresh-token request failed: %w", err)
	}
	return &resp, nil
}

// UpdateUser changes profile fields.
func (a *AuthAdapter) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error) {
	var resp UserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-user",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-user request failed: %w", err)
	}
	return &resp, nil
}

// ChangePassword replaces the password after checking the current one.
func (a *AuthAdapter) ChangePassword(ctx context.Context, req *ChangePasswordRequest) error {
	var resp ChangePasswordResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"change-password",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return fmt.Errorf("change-password request failed: %w", err)
	}
	return nil
}

// DeleteUser removes an account.
func (a *AuthAdapter) DeleteUser(ctx context.Context, userID string) error {
	req := UserRequest{UserID: userID}
	var resp DeleteUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("delete-user request failed: %w", err)
	}
	if !resp.Deleted {
		return fmt.Errorf("user not found")
	}
	return nil
}

// UpdateSettings changes user preferences.
func (a *AuthAdapter) UpdateSettings(ctx context.Context, req *UpdateSettingsRequest) (*SettingsResponse, error) {
	var resp SettingsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-settings",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("update-settings request failed: %w", err)
	}
	return &resp, nil
}
