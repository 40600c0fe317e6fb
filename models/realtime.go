// File: safar/models/realtime.go
package models

import (
	"encoding/json"
	"time"
)

// MessageType identifies a server-to-client frame. The set is closed; anything
// else is a protocol violation.
type MessageType string

const (
	TypeInitialData     MessageType = "initial_data"
	TypeBookingUpdate   MessageType = "booking_update"
	TypeNewMessage      MessageType = "new_message"
	TypeNewNotification MessageType = "new_notification"
	TypeError           MessageType = "error"
	TypePong            MessageType = "pong"
)

// Action identifies a client-to-server command.
type Action string

const (
	ActionPing                     Action = "ping"
	ActionMarkMessageRead          Action = "mark_message_read"
	ActionMarkNotificationRead     Action = "mark_notification_read"
	ActionSendMessage              Action = "send_message"
	ActionGetMoreMessages          Action = "get_more_messages"
	ActionMarkAllNotificationsRead Action = "mark_all_notifications_read"
)

// Envelope is the inbound wire frame. Payload decoding is deferred until the
// type is known.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Command is the outbound wire frame.
type Command struct {
	Action  Action `json:"action"`
	Payload any    `json:"payload"`
}

// InitialData is the state snapshot pushed once after the stream authenticates.
type InitialData struct {
	Bookings      []BookingUpdate `json:"bookings"`
	Notifications []Notification  `json:"notifications"`
	UnreadCount   int             `json:"unreadCount"`
}

// BookingUpdate signals a status change on a booking.
type BookingUpdate struct {
	BookingID  string    `json:"bookingId"`
	UserID     string    `json:"userId"`
	ListingID  string    `json:"listingId,omitempty"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ChatMessage is a message delivered to a conversation this service observes.
type ChatMessage struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sentAt"`
}

// Notification is a user-facing notification event.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ServerError is an application-level error pushed by the stream.
type ServerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
