package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLoginSucceeded = "auth.login.succeeded"
	EventTypeLoginFailed    = "auth.login.failed"
	EventTypeLoginBlocked   = "auth.login.blocked"
	EventTypeLogout         = "auth.logout"
)

// Login failure reasons.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonServerError        = "server_error"
)

type LoginSucceededEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	ClientIP string `json:"client_ip"`
}

func NewLoginSucceededEvent(userID int64, role, clientIP string) *LoginSucceededEvent {
	return &LoginSucceededEvent{
		BaseEvent: newBase(EventTypeLoginSucceeded, map[string]interface{}{
			"user_id":   userID,
			"role":      role,
			"client_ip": clientIP,
		}),
		UserID:   userID,
		Role:     role,
		ClientIP: clientIP,
	}
}

type LoginFailedEvent struct {
	BaseEvent
	ClientIP string `json:"client_ip"`
	Reason   string `json:"reason"`
	Locked   bool   `json:"locked"`
}

func NewLoginFailedEvent(clientIP, reason string, locked bool) *LoginFailedEvent {
	return &LoginFailedEvent{
		BaseEvent: newBase(EventTypeLoginFailed, map[string]interface{}{
			"client_ip": clientIP,
			"reason":    reason,
			"locked":    locked,
		}),
		ClientIP: clientIP,
		Reason:   reason,
		Locked:   locked,
	}
}

type LoginBlockedEvent struct {
	BaseEvent
	ClientIP string `json:"client_ip"`
}

func NewLoginBlockedEvent(clientIP string) *LoginBlockedEvent {
	return &LoginBlockedEvent{
		BaseEvent: newBase(EventTypeLoginBlocked, map[string]interface{}{
			"client_ip": clientIP,
		}),
		ClientIP: clientIP,
	}
}

type LogoutEvent struct {
	BaseEvent
	UserID int64 `json:"user_id"`
}

func NewLogoutEvent(userID int64) *LogoutEvent {
	return &LogoutEvent{
		BaseEvent: newBase(EventTypeLogout, map[string]interface{}{
			"user_id": userID,
		}),
		UserID: userID,
	}
}

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
