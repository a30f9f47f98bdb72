package session

import (
	"time"

	"github.com/trestlehq/coordinator/pkg/types"
)

// ScheduleStateUpdate writes binding_id/value to the per-session
// pending map (last-write-wins) and arms the batch timer if it is not
// already running. Returns false only when called after Close.
func (s *Session) ScheduleStateUpdate(bindingID string, value any) bool {
	if s.isShutdown() {
		return false
	}
	s.mu.Lock()
	s.state.PendingBatch[bindingID] = value
	armed := s.batchTimerSet
	if !armed {
		s.batchTimerSet = true
		s.batchTimer = time.AfterFunc(s.cfg.BatchInterval, s.onBatchTimerFire)
	}
	s.mu.Unlock()
	return true
}

func (s *Session) onBatchTimerFire() {
	s.mu.Lock()
	s.batchTimerSet = false
	s.mu.Unlock()
	s.flush()
}

// flush sends the pending batch as a snapshot (first flush after a
// layout is applied) or a delta (every flush after). Returns false if
// not connected, no layout is applied, or the ack window is full — in
// which case the pending batch is retained for the next flush.
func (s *Session) flush() bool {
	s.mu.Lock()
	conn := s.conn
	layoutID := s.state.AppliedLayoutID
	connected := conn != nil && s.state.Protocol == types.StateAuthenticated
	hasLayout := layoutID != ""
	if !connected || !hasLayout || len(s.state.PendingBatch) == 0 {
		s.mu.Unlock()
		return false
	}

	if !s.state.SnapshotSent {
		states := make([]map[string]any, 0, len(s.state.PendingBatch))
		for bindingID, value := range s.state.PendingBatch {
			states = append(states, map[string]any{"binding_id": bindingID, "state": value})
		}
		s.state.PendingBatch = make(map[string]any)
		s.state.SnapshotSent = true
		s.mu.Unlock()

		return conn.SendJSON(s.buildEnvelope("snapshot", map[string]any{
			"layout_id": layoutID,
			"states":    states,
		})) == nil
	}

	if len(s.state.PendingAcks) >= types.MaxPendingAcks {
		s.mu.Unlock()
		return false // backpressure: batch retained, caller must slow down
	}

	changes := make([]map[string]any, 0, len(s.state.PendingBatch))
	for bindingID, value := range s.state.PendingBatch {
		changes = append(changes, map[string]any{"binding_id": bindingID, "state": value})
	}
	s.state.NextSeq++
	seq := s.state.NextSeq
	msgID := generateMsgID(s.deviceID, seq)
	s.state.PendingAcks[msgID] = types.PendingAck{MsgID: msgID, Seq: seq, SentAt: time.Now()}
	s.state.PendingBatch = make(map[string]any)
	s.mu.Unlock()

	ok := conn.SendJSON(s.buildEnvelope("delta", map[string]any{
		"layout_id": layoutID,
		"seq":       seq,
		"msg_id":    msgID,
		"changes":   changes,
	})) == nil

	s.maybeSaveCheckpoint()
	return ok
}

// handleDeltaAck removes the acked entry from the pending-acks map and
// records its round-trip latency.
func (s *Session) handleDeltaAck(msgID string) {
	s.mu.Lock()
	ack, ok := s.state.PendingAcks[msgID]
	delete(s.state.PendingAcks, msgID)
	s.mu.Unlock()
	if !ok {
		return // unknown msg_id ack: ignored
	}
	latency := time.Since(ack.SentAt)
	s.logger.Debug("delta acked", "msg_id", msgID, "seq", ack.Seq, "latency_ms", latency.Milliseconds())
}

func (s *Session) maybeSaveCheckpoint() {
	s.mu.Lock()
	now := time.Now()
	if now.Sub(s.lastCheckpointSave) < checkpointSaveInterval() {
		s.mu.Unlock()
		return
	}
	s.lastCheckpointSave = now
	deviceID := s.deviceID
	layoutID := s.state.AppliedLayoutID
	applied := s.state.SnapshotSent
	seq := s.state.NextSeq
	s.mu.Unlock()

	s.checkpoint.SaveCheckpoint(bgContext(), deviceID, layoutID, applied, seq, time.Now())
}
