package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trestlehq/coordinator/internal/transport"
	"github.com/trestlehq/coordinator/pkg/types"
)

// listen reads normalized messages until the connection ends or ctx is
// cancelled. Any transport error sets state failed and returns (the
// caller's runLoop then reconnects); malformed messages are logged and
// ignored and unknown msg_id acks are ignored; neither crashes the
// listener.
func (s *Session) listen(ctx context.Context, conn *transport.Client) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-conn.Messages():
			if !ok {
				return nil
			}
			switch msg.Type {
			case transport.MessageText:
				s.dispatch(msg.Data, conn)
			case transport.MessageClosed:
				return nil
			case transport.MessageError:
				s.setProtocolState(types.StateFailed)
				return msg.Err
			}
		}
	}
}

func (s *Session) dispatch(data []byte, conn *transport.Client) {
	var env envelopeBody
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Debug("malformed message, ignoring", "error", err)
		return
	}

	switch env.Type {
	case "input_event":
		bindingID, _ := env.Body["target_widget_binding"].(string)
		action, _ := env.Body["action"].(string)
		value := env.Body["value"]
		s.hooks.inputEvent(bindingID, action, value)

	case "state_request":
		s.handleStateRequest(env, conn)

	case "state_update":
		// Host-originated state_update is informational only in this
		// reference implementation; binding writes flow through
		// ScheduleStateUpdate from the decision pipeline, not inbound.

	case "layout_applied":
		layoutID, _ := env.Body["layout_id"].(string)
		s.handleLayoutApplied(layoutID)

	case "delta_ack":
		msgID, _ := env.Body["msg_id"].(string)
		s.handleDeltaAck(msgID)

	case "pong":
		id, ok := numberField(env.Body["id"])
		if ok {
			s.handlePong(id)
		}

	default:
		s.logger.Debug("unknown message type, ignoring", "type", env.Type)
	}
}

func (s *Session) handleStateRequest(env envelopeBody, conn *transport.Client) {
	raw, ok := env.Body["binding_ids"].([]any)
	if !ok {
		return
	}
	states := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		bindingID, ok := v.(string)
		if !ok {
			continue
		}
		state, found := s.hooks.stateRequest(bindingID)
		if !found {
			continue
		}
		states = append(states, map[string]any{"binding_id": bindingID, "state": state})
	}
	_ = conn.SendJSON(s.buildEnvelope("snapshot", map[string]any{
		"layout_id": s.currentLayoutID(),
		"states":    states,
	}))
}

func (s *Session) currentLayoutID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AppliedLayoutID
}

func (s *Session) handleLayoutApplied(layoutID string) {
	s.mu.Lock()
	matches := layoutID != "" && layoutID == s.pendingLayoutID
	if matches {
		s.state.AppliedLayoutID = layoutID
		s.state.SnapshotSent = false
	}
	s.mu.Unlock()
	if matches {
		s.hooks.layoutApplied(layoutID)
	}
}

// SendLayout sends a layout envelope and remembers the id; the applied
// flag flips only once a matching layout_applied arrives.
func (s *Session) SendLayout(layoutID string, pkg map[string]any) error {
	if len(layoutID) < 7 || layoutID[:7] != "sha256:" {
		return fmt.Errorf("layout_id must be prefixed \"sha256:\", got %q", layoutID)
	}
	s.mu.Lock()
	s.pendingLayoutID = layoutID
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: session not connected", types.ErrConnection)
	}
	return conn.SendJSON(s.buildEnvelope("layout", map[string]any{
		"layout_id": layoutID,
		"layout":    pkg,
	}))
}

func numberField(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
