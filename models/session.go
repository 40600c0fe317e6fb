// File: safar/models/session.go
package models

import "time"

// UserProfile is the snapshot of the authenticated user stored alongside a
// session. It is refreshed on token rotation, not kept in sync with the user
// service.
type UserProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Session binds an opaque session identifier to an authenticated user's token
// pair and device metadata, with a hard expiration time.
type Session struct {
	SessionID    string      `json:"sessionId"`
	UserID       string      `json:"userId"`
	User         UserProfile `json:"user"`
	AccessToken  string      `json:"-"`
	RefreshToken string      `json:"-"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	CreatedAt    time.Time   `json:"createdAt"`
	LastActivity time.Time   `json:"lastActivity"`
	DeviceInfo   string      `json:"deviceInfo,omitempty"`
	IPAddress    string      `json:"ipAddress,omitempty"`
	UserAgent    string      `json:"userAgent,omitempty"`
}

// SessionUpdate carries the only fields callers may change after creation.
// Nil fields are left untouched.
type SessionUpdate struct {
	User         *UserProfile `json:"user,omitempty"`
	AccessToken  *string      `json:"accessToken,omitempty"`
	RefreshToken *string      `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time   `json:"expiresAt,omitempty"`
}
