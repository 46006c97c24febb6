package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/riskboard/internal/marketdata"
	"github.com/aristath/riskboard/internal/risk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultIdleTimeout is how long an untouched session survives a sweep
const DefaultIdleTimeout = 30 * time.Minute

var (
	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("session not found")
	// ErrSymbolNotSelected is returned when a symbol is outside the session's selection
	ErrSymbolNotSelected = errors.New("symbol not in selection")
)

// Session is one dashboard viewer. It owns its loader, so no cache state is
// shared between sessions.
type Session struct {
	ID        string
	CreatedAt time.Time

	loader *marketdata.Loader

	mu         sync.Mutex
	request    marketdata.Request
	lastAccess time.Time
	reportKey  string
	report     *risk.Report
}

// Selection returns the current selection
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selectionFromRequest(s.request)
}

// Request returns the current normalized load request
func (s *Session) Request() marketdata.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request
}

// LastAccess returns when the session was last used
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// CachedKeys lists the price keys the session's loader holds
func (s *Session) CachedKeys() []string {
	return s.loader.Keys()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

// Info is the serializable summary of a session
type Info struct {
	ID         string    `json:"id"`
	Selection  Selection `json:"selection"`
	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
	CachedKeys []string  `json:"cached_keys"`
}

// Info summarizes the session
func (s *Session) Info() Info {
	return Info{
		ID:         s.ID,
		Selection:  s.Selection(),
		CreatedAt:  s.CreatedAt,
		LastAccess: s.LastAccess(),
		CachedKeys: s.CachedKeys(),
	}
}

// SessionManager creates, finds and expires sessions
type SessionManager struct {
	provider    marketdata.Provider
	defaults    Selection
	idleTimeout time.Duration
	log         zerolog.Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager whose sessions load through provider.
// A non-positive idleTimeout uses DefaultIdleTimeout.
func NewSessionManager(provider marketdata.Provider, defaults Selection, idleTimeout time.Duration, log zerolog.Logger) *SessionManager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &SessionManager{
		provider:    provider,
		defaults:    defaults,
		idleTimeout: idleTimeout,
		log:         log.With().Str("component", "sessions").Logger(),
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Defaults returns the selection new sessions start with
func (m *SessionManager) Defaults() Selection {
	return m.defaults
}

// Create starts a session. Empty fields of sel fall back to the defaults.
func (m *SessionManager) Create(sel Selection) (*Session, error) {
	req, err := sel.Merge(m.defaults).Request()
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		loader:     marketdata.NewLoader(m.provider, m.log),
		request:    req,
		lastAccess: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Info().Str("session", s.ID).Str("key", req.Key()).Msg("Session created")
	return s, nil
}

// Get finds a session and marks it as used
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(m.now())
	return s, nil
}

// Delete ends a session
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.log.Info().Str("session", id).Msg("Session deleted")
	return nil
}

// Sweep removes sessions idle longer than the timeout and returns how many went
func (m *SessionManager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastAccess()) > m.idleTimeout {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session ids in sorted order
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
