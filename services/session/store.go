package session

import (
	"sync"
	"time"

	"safar/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the background sweep removes sessions
// nobody reads anymore.
const DefaultSweepInterval = 5 * time.Minute

// MemoryStore keeps sessions in two maps: the primary keyed by sessionID and a
// reverse index keyed by userID. Every mutation keeps both consistent.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	byUser   map[string]map[string]struct{}

	sweepEvery time.Duration
	stopCh     chan struct{}
	running    bool

	logger *zap.Logger
	now    func() time.Time // overridable in tests
}

var _ Store = (*MemoryStore)(nil)

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithSweepInterval overrides the periodic sweep interval.
func WithSweepInterval(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d > 0 {
			s.sweepEvery = d
		}
	}
}

// NewMemoryStore returns an empty in-memory session store. The caller owns the
// sweep lifecycle via StartCleanup/StopCleanup.
func NewMemoryStore(logger *zap.Logger, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:   make(map[string]models.Session),
		byUser:     make(map[string]map[string]struct{}),
		sweepEvery: DefaultSweepInterval,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(sess models.Session) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.SessionID == "" {
		sess.SessionID = uuid.NewString()
	}
	now := s.now()
	sess.CreatedAt = now
	sess.LastActivity = now

	// Overwrite-by-key is treated as idempotent re-creation, but the previous
	// record must be unlinked from its owner first so the reverse index never
	// holds an orphan entry.
	if prev, ok := s.sessions[sess.SessionID]; ok {
		s.unlinkLocked(prev)
	}

	s.sessions[sess.SessionID] = sess
	ids, ok := s.byUser[sess.UserID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[sess.UserID] = ids
	}
	ids[sess.SessionID] = struct{}{}

	s.logger.Debug("session created",
		zap.String("sessionId", sess.SessionID),
		zap.String("userId", sess.UserID),
		zap.Time("expiresAt", sess.ExpiresAt))
	return sess
}

func (s *MemoryStore) Get(sessionID string) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.Session{}, false
	}
	if s.expiredLocked(sess) {
		s.removeLocked(sessionID)
		return models.Session{}, false
	}

	// Every successful read counts as activity.
	sess.LastActivity = s.now()
	s.sessions[sessionID] = sess
	return sess, true
}

func (s *MemoryStore) Update(sessionID string, upd models.SessionUpdate) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return models.Session{}, false
	}
	if s.expiredLocked(sess) {
		s.removeLocked(sessionID)
		return models.Session{}, false
	}

	if upd.User != nil {
		sess.User = *upd.User
	}
	if upd.AccessToken != nil {
		sess.AccessToken = *upd.AccessToken
	}
	if upd.RefreshToken != nil {
		sess.RefreshToken = *upd.RefreshToken
	}
	if upd.ExpiresAt != nil {
		sess.ExpiresAt = *upd.ExpiresAt
	}
	sess.LastActivity = s.now()
	s.sessions[sessionID] = sess
	return sess, true
}

func (s *MemoryStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(sessionID)
}

func (s *MemoryStore) DeleteAllForUser(userID, excludeSessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.byUser[userID]
	if !ok {
		return 0
	}

	removed := 0
	for id := range ids {
		if id == excludeSessionID {
			continue
		}
		if s.removeLocked(id) {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("bulk session revocation",
			zap.String("userId", userID),
			zap.Int("removed", removed),
			zap.String("excluded", excludeSessionID))
	}
	return removed
}

func (s *MemoryStore) GetSessionsForUser(userID string) []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.byUser[userID]
	if !ok {
		return nil
	}

	out := make([]models.Session, 0, len(ids))
	for id := range ids {
		sess := s.sessions[id]
		if s.expiredLocked(sess) {
			s.removeLocked(id)
			continue
		}
		out = append(out, sess)
	}
	return out
}

func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.sessions)
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]models.Session)
	s.byUser = make(map[string]map[string]struct{})
}

// StartCleanup launches the periodic sweep. Calling it twice is a no-op.
func (s *MemoryStore) StartCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	go s.run(s.stopCh)
}

// StopCleanup stops the sweep goroutine. Stored sessions are untouched.
func (s *MemoryStore) StopCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

func (s *MemoryStore) run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			removed := s.sweepLocked()
			s.mu.Unlock()
			if removed > 0 {
				s.logger.Info("session sweep", zap.Int("removed", removed))
			}
		}
	}
}

// expiredLocked is the single liveness predicate every access path uses.
func (s *MemoryStore) expiredLocked(sess models.Session) bool {
	return !sess.ExpiresAt.After(s.now())
}

func (s *MemoryStore) sweepLocked() int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expiredLocked(sess) {
			s.removeLocked(id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) removeLocked(sessionID string) bool {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	delete(s.sessions, sessionID)
	s.unlinkLocked(sess)
	return true
}

func (s *MemoryStore) unlinkLocked(sess models.Session) {
	ids, ok := s.byUser[sess.UserID]
	if !ok {
		return
	}
	delete(ids, sess.SessionID)
	if len(ids) == 0 {
		delete(s.byUser, sess.UserID)
	}
}
