package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/todo-app/database"
	domain "github.com/example/todo-app/domain/user"
	"github.com/example/todo-app/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Config configures the auth module.
type Config struct {
	Database   database.Config
	JWT        JWTConfig
	BcryptCost int
}

// AuthModule provides authentication and account services.
type AuthModule struct {
	config   Config
	db       *gorm.DB
	service  *AuthService
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.EventEmitterModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(config Config) *AuthModule {
	if config.JWT.SecretKey == "" {
		config.JWT = DefaultJWTConfig()
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = DefaultBcryptCost
	}
	return &AuthModule{config: config}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetEventBus receives the event bus used to announce account removal.
func (m *AuthModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events published by this module.
func (m *AuthModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserDeletedV1.ToBase(),
	}
}

// Start opens the user database and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.config.Database, &domain.User{}, &domain.Settings{})
	if err != nil {
		return err
	}
	m.db = db

	m.service = NewAuthService(
		NewUserRepository(db),
		NewPasswordHasherWithCost(m.config.BcryptCost),
		NewJWTManager(m.config.JWT),
	)

	log.Printf("[auth] Module started (driver: %s, database: %s)", m.config.Database.Driver, m.config.Database.DSN)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[auth] Warning: failed to close database: %v", err)
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.config.Database.Driver,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-user", json.Unmarshal, json.Marshal, m.handleUpdateUser,
	); err != nil {
		return fmt.Errorf("failed to register update-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "change-password", json.Unmarshal, json.Marshal, m.handleChangePassword,
	); err != nil {
		return fmt.Errorf("failed to register change-password service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-user", json.Unmarshal, json.Marshal, m.handleDeleteUser,
	); err != nil {
		return fmt.Errorf("failed to register delete-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-settings", json.Unmarshal, json.Marshal, m.handleGetSettings,
	); err != nil {
		return fmt.Errorf("failed to register get-settings service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-settings", json.Unmarshal, json.Marshal, m.handleUpdateSettings,
	); err != nil {
		return fmt.Errorf("failed to register update-settings service: %w", err)
	}

	log.Printf("[auth] Registered services: register, login, refresh-token, validate-token, get-user, " +
		"update-user, change-password, delete-user, get-settings, update-settings")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Register(ctx, req.Name, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		return UserResponse{}, err
	}
	log.Printf("[auth] User registered: %s", user.ID)
	return toUserResponse(user), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	user, tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(user, tokens), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	user, tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	return toTokenResponse(user, tokens), nil
}

// handleValidateToken reports validation failures in the response body, not as errors.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req UserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleUpdateUser(ctx context.Context, req UpdateUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.UpdateUser(ctx, req.UserID, req.Name, req.Email)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleChangePassword(ctx context.Context, req ChangePasswordRequest, _ *mono.Msg) (ChangePasswordResponse, error) {
	if err := m.service.ChangePassword(ctx, req.UserID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return ChangePasswordResponse{}, err
	}
	log.Printf("[auth] Password changed for user %s", req.UserID)
	return ChangePasswordResponse{Changed: true}, nil
}

func (m *AuthModule) handleDeleteUser(ctx context.Context, req UserRequest, _ *mono.Msg) (DeleteUserResponse, error) {
	user, err := m.service.DeleteUser(ctx, req.UserID)
	if err != nil {
		return DeleteUserResponse{}, err
	}

	if m.eventBus != nil {
		event := events.UserDeletedEvent{
			UserID:    user.ID,
			Email:     user.Email,
			DeletedAt: time.Now(),
		}
		if err := events.UserDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[auth] Warning: failed to publish UserDeleted event for user %s: %v", user.ID, err)
		}
	}

	log.Printf("[auth] User deleted: %s", user.ID)
	return DeleteUserResponse{Deleted: true}, nil
}

func (m *AuthModule) handleGetSettings(ctx context.Context, req UserRequest, _ *mono.Msg) (SettingsResponse, error) {
	settings, err := m.service.GetSettings(ctx, req.UserID)
	if err != nil {
		return SettingsResponse{}, err
	}
	return toSettingsResponse(settings), nil
}

func (m *AuthModule) handleUpdateSettings(ctx context.Context, req UpdateSettingsRequest, _ *mono.Msg) (SettingsResponse, error) {
	settings, err := m.service.UpdateSettings(ctx, req.UserID, SettingsUpdate{
		Theme:                req.Theme,
		TimeZone:             req.TimeZone,
		Language:             req.Language,
		NotificationsEnabled: req.NotificationsEnabled,
		EmailNotifications:   req.EmailNotifications,
		TaskReminders:        req.TaskReminders,
	})
	if err != nil {
		return SettingsResponse{}, err
	}
	return toSettingsResponse(settings), nil
}

func toTokenResponse(user *domain.User, tokens *domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
		User:         toUserResponse(user),
	}
}
