package session

import "safar/models"

// Store is the authoritative, process-local registry of live sessions. It is
// not safe across multiple processes; a multi-instance deployment needs a
// shared implementation (e.g. Redis) behind this same interface.
type Store interface {
	// Create stores a session keyed by its SessionID, generating one when empty.
	Create(s models.Session) models.Session
	// Get returns the session and bumps its LastActivity. An expired session is
	// removed and reported as missing.
	Get(sessionID string) (models.Session, bool)
	// Update merges the allowed fields into a live session.
	Update(sessionID string, upd models.SessionUpdate) (models.Session, bool)
	// Delete removes a session, reporting whether anything was removed.
	Delete(sessionID string) bool
	// DeleteAllForUser removes every session belonging to userID except the
	// optionally excluded one, returning the count removed.
	DeleteAllForUser(userID, excludeSessionID string) int
	// GetSessionsForUser returns the user's live sessions, removing any expired
	// ones it encounters.
	GetSessionsForUser(userID string) []models.Session
	// Count sweeps expired sessions eagerly, then returns the live count.
	Count() int
	// Clear empties the store unconditionally.
	Clear()
	// StartCleanup begins the periodic expiration sweep.
	StartCleanup()
	// StopCleanup stops the sweep without touching stored data.
	StopCleanup()
}
