package types

import "time"

// ProtocolState is the session state machine's connection state.
type ProtocolState string

const (
	StateDisconnected   ProtocolState = "disconnected"
	StateConnecting     ProtocolState = "connecting"
	StateAuthenticating ProtocolState = "authenticating"
	StateAuthenticated  ProtocolState = "authenticated"
	StateFailed         ProtocolState = "failed"
)

// PendingAck tracks one outstanding delta awaiting delta_ack.
type PendingAck struct {
	MsgID   string
	Seq     int64
	SentAt  time.Time
}

// MaxPendingAcks bounds the outstanding-delta-ack set per session.
const MaxPendingAcks = 32

// SessionState is the per-panel mutable state held exclusively by the
// session task. Every field here is mutated only from that task's own
// goroutine; nothing in this struct is safe to share across tasks.
type SessionState struct {
	DeviceID            string
	Protocol            ProtocolState
	NegotiatedVersion    int
	PendingBatch         map[string]any // binding_id -> value, last-write-wins
	PendingAcks          map[string]PendingAck // msg_id -> ack
	OutstandingPingIDs   map[int64]time.Time
	ReconnectAttempts    int
	AppliedLayoutID      string
	SnapshotSent         bool
	NextSeq              int64
}

// NewSessionState returns a freshly disconnected session state.
func NewSessionState(deviceID string) *SessionState {
	return &SessionState{
		DeviceID:           deviceID,
		Protocol:           StateDisconnected,
		PendingBatch:       make(map[string]any),
		PendingAcks:        make(map[string]PendingAck),
		OutstandingPingIDs: make(map[int64]time.Time),
	}
}
