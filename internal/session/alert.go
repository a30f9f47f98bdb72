package session

import "github.com/trestlehq/coordinator/pkg/types"

// SendAlert delivers a realized decision directly, outside the
// batched state-update path: an alert is a one-shot event, not a
// binding whose value is coalesced and later re-sent on reconnect.
func (s *Session) SendAlert(frame types.RealizationFrame) error {
	s.mu.Lock()
	conn := s.conn
	connected := conn != nil && s.state.Protocol == types.StateAuthenticated
	s.mu.Unlock()
	if !connected {
		return nil // transient: no connected panel to deliver to, not an error
	}

	intents := make([]map[string]any, 0, len(frame.Intents))
	for _, in := range frame.Intents {
		intents = append(intents, map[string]any{
			"channel":      string(in.Channel),
			"intensity":    string(in.Intensity),
			"persistent":   in.Persistent,
			"interruptive": in.Interruptive,
		})
	}

	return conn.SendJSON(s.buildEnvelope("alert", map[string]any{
		"alert_id": frame.AlertID,
		"level":    frame.Level.String(),
		"intents":  intents,
	}))
}
