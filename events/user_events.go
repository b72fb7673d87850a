package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserDeletedEvent is emitted after an account is removed.
// Modules owning per-user data purge it on receipt.
type UserDeletedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	DeletedAt time.Time `json:"deleted_at"`
}

// UserDeletedV1 is the typed event definition for account removal.
// Subject: events.auth.v1.user-deleted
var UserDeletedV1 = helper.EventDefinition[UserDeletedEvent](
	"auth", "UserDeleted", "v1",
)
