package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"neoslink/internal/pkg/logx"
	"neoslink/internal/pkg/metrics"
)

// LineHandler receives each line a session reads.
type LineHandler func(ctx context.Context, s *Session, line string)

// Manager tracks every live session and fans out broadcasts.
type Manager struct {
	// sessions is keyed by Session.ID.
	sessions map[string]*Session

	// mu guards sessions. It is never held during a send or probe.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logx.Component("SessionManager"),
	}
}

// Join activates s and registers it for broadcasts.
func (m *Manager) Join(s *Session) {
	s.activate()

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetSessions(n)
	m.logger.Info().Str("session_id", s.ID).Int("sessions", n).Msg("Client connected")
}

// Leave unregisters s and closes it. Leaving twice is harmless.
func (m *Manager) Leave(s *Session) {
	m.mu.Lock()
	cur, ok := m.sessions[s.ID]
	removed := ok && cur == s
	if removed {
		delete(m.sessions, s.ID)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	s.Close()

	if removed {
		metrics.SetSessions(n)
		m.logger.Info().Str("session_id", s.ID).Int("sessions", n).Msg("Client disconnected")
	}
}

// Serve runs s until its connection ends or ctx is cancelled, passing each line to onLine.
// s is removed before an abnormal disconnect triggers a Sweep of every session.
func (m *Manager) Serve(ctx context.Context, s *Session, onLine LineHandler) {
	go s.WritePump()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	err := s.ReadPump(func(line string) {
		onLine(ctx, s, line)
	})

	m.Leave(s)

	if err != nil && !isNormalClose(err) && ctx.Err() == nil {
		m.logger.Info().Err(err).Str("session_id", s.ID).Msg("Client connection ended abnormally, sweeping sessions")
		m.Sweep()
	}
}

// snapshot copies the current sessions so callers can work without holding mu.
func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Broadcast queues lines on every session and returns how many accepted them.
// A session that cannot accept is closed and left for the next Sweep.
func (m *Manager) Broadcast(lines ...string) int {
	delivered := 0
	for _, s := range m.snapshot() {
		if err := s.Enqueue(lines...); err != nil {
			m.logger.Debug().Err(err).Str("session_id", s.ID).Msg("Broadcast skipped session")
			continue
		}
		delivered++
	}
	return delivered
}

// Sweep probes every session and evicts the closed or unresponsive ones.
// It returns the evicted session IDs.
func (m *Manager) Sweep() []string {
	var dead []*Session
	for _, s := range m.snapshot() {
		if err := s.probe(); err != nil {
			dead = append(dead, s)
		}
	}

	if len(dead) == 0 {
		return nil
	}

	m.mu.Lock()
	for _, s := range dead {
		if cur, ok := m.sessions[s.ID]; ok && cur == s {
			delete(m.sessions, s.ID)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	ids := make([]string, 0, len(dead))
	for _, s := range dead {
		s.Close()
		ids = append(ids, s.ID)
		metrics.SessionsEvicted.Inc()
		m.logger.Warn().
			Str("session_id", s.ID).
			Dur("idle", time.Since(s.LastSeen())).
			Msg("Client disconnected")
	}
	metrics.SetSessions(n)

	return ids
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session and empties the manager.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down session manager...")

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	metrics.SetSessions(0)

	m.logger.Info().Int("closed", len(sessions)).Msg("Session manager shutdown complete.")
}
