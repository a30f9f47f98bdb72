package session

import (
	"context"
	"time"

	"github.com/trestlehq/coordinator/internal/transport"
)

// keepalive sends ping{id} every PingInterval and tracks missed
// windows. After MaxMissedPingWindows consecutive misses it force-
// closes the socket and lets reconnect logic take over.
func (s *Session) keepalive(ctx context.Context, conn *transport.Client) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	s.mu.Lock()
	s.missedPings = 0
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.sendPing(conn)
			if s.pingOverdue() {
				s.mu.Lock()
				s.missedPings++
				missed := s.missedPings
				s.mu.Unlock()
				if missed >= 3 {
					s.logger.Warn("keepalive missed too many windows, forcing close")
					_ = conn.Close()
					return
				}
			}
		}
	}
}

func (s *Session) sendPing(conn *transport.Client) {
	s.mu.Lock()
	s.pingCounter++
	id := s.pingCounter
	s.state.OutstandingPingIDs[id] = time.Now()
	s.mu.Unlock()

	_ = conn.SendJSON(s.buildEnvelope("ping", map[string]any{"id": id}))
}

// pingOverdue reports whether any outstanding ping has exceeded
// PingInterval + PingTimeout without a pong.
func (s *Session) pingOverdue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline := s.cfg.PingInterval + s.cfg.PingTimeout
	now := time.Now()
	for _, sentAt := range s.state.OutstandingPingIDs {
		if now.Sub(sentAt) > deadline {
			return true
		}
	}
	return false
}

// handlePong records latency and resets the missed-window counter.
func (s *Session) handlePong(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sentAt, ok := s.state.OutstandingPingIDs[id]
	if !ok {
		return // unknown ping id: ignored
	}
	delete(s.state.OutstandingPingIDs, id)
	latency := time.Since(sentAt)
	s.missedPings = 0
	s.logger.Debug("pong received", "ping_id", id, "latency_ms", latency.Milliseconds())
}
