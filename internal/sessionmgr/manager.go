// Package sessionmgr owns the set of session.Session instances, one
// per paired panel, and is the integration point between the pairing
// client (K), the session state machine (J), and the decision
// pipeline's delivery step.
//
// Grounded on agent/agent.go's single-owner registry-of-workers shape,
// generalized from one client connection to many independent panel
// sessions.
package sessionmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/trestlehq/coordinator/internal/session"
	"github.com/trestlehq/coordinator/pkg/types"
)

// Manager holds every active panel session, keyed by device id.
type Manager struct {
	checkpoint session.CheckpointStore
	logger     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New constructs an empty Manager. checkpoint may be nil (no-op store).
func New(checkpoint session.CheckpointStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{checkpoint: checkpoint, logger: logger}
}

// Add registers and starts a session for a newly paired (or
// reconnected-at-startup) panel. Replaces and closes any existing
// session for the same device id.
func (m *Manager) Add(ctx context.Context, deviceID string, cfg session.Config, hooks session.Hooks) *session.Session {
	s := session.New(deviceID, cfg, hooks, m.checkpoint, m.logger)

	m.mu.Lock()
	if old, exists := m.sessions[deviceID]; exists {
		go old.Close()
	}
	if m.sessions == nil {
		m.sessions = make(map[string]*session.Session)
	}
	m.sessions[deviceID] = s
	m.mu.Unlock()

	s.Start(ctx)
	return s
}

// Get returns the session for deviceID, if any.
func (m *Manager) Get(deviceID string) (*session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[deviceID]
	return s, ok
}

// Remove closes and forgets a device's session, e.g. after unpair.
func (m *Manager) Remove(deviceID string) error {
	m.mu.Lock()
	s, ok := m.sessions[deviceID]
	delete(m.sessions, deviceID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close()
}

// Count returns the number of active sessions, used by the self-health
// sampler (O).
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// DeliverAlert sends a realization frame to deviceID's session. It
// returns an error when no session exists for deviceID; a session that
// exists but is not connected drops the frame and returns nil, so a
// panel that is not currently reachable simply misses the alert.
func (m *Manager) DeliverAlert(deviceID string, frame types.RealizationFrame) error {
	s, ok := m.Get(deviceID)
	if !ok {
		return fmt.Errorf("no session for device %s", deviceID)
	}
	return s.SendAlert(frame)
}

// CloseAll closes every session, bounded individually by the session
// package's own CloseTaskWait.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	sessions := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
}
