// Package session implements the session state machine (J): one
// instance per paired panel, owning connect/auth/keepalive/reconnect,
// batching/coalescing of state updates, and delta sequencing.
//
// Grounded on two teacher shapes: agent/internal/shipper/shipper.go's
// mutex-guarded buffer + non-blocking flush-trigger channel + ticker-
// driven Run(ctx) loop (the batching/coalescing half), and
// control-plane/internal/service/state_machine.go's transition-switch
// style (the connect/auth/keepalive/reconnect half).
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/trestlehq/coordinator/internal/constants"
	"github.com/trestlehq/coordinator/internal/frame"
	"github.com/trestlehq/coordinator/internal/transport"
	"github.com/trestlehq/coordinator/pkg/types"
)

// CheckpointStore is the optional durable resume-hint store (N). A
// no-op implementation is used when no database is configured.
type CheckpointStore interface {
	LoadCheckpoint(ctx context.Context, deviceID string) (seq int64, ok bool)
	SaveCheckpoint(ctx context.Context, deviceID, layoutID string, layoutApplied bool, seq int64, lastInteraction time.Time)
}

// Config holds the session's timing parameters.
type Config struct {
	Host          string
	Port          int
	Path          string
	Secret        string
	PingInterval  time.Duration
	PingTimeout   time.Duration
	RetryBase     time.Duration
	RetryMax      time.Duration
	BatchInterval time.Duration
	ConnectTimeout time.Duration
}

// DefaultConfig returns the session protocol's documented defaults.
func DefaultConfig() Config {
	return Config{
		Path:           "/ws",
		PingInterval:   constants.DefaultPingInterval,
		PingTimeout:    constants.DefaultPingTimeout,
		RetryBase:      constants.DefaultRetryBase,
		RetryMax:       constants.DefaultRetryMax,
		BatchInterval:  constants.DefaultBatchInterval,
		ConnectTimeout: 10 * time.Second,
	}
}

// Session is one panel's session state machine. Its mutable state
// (the embedded types.SessionState) is owned exclusively by this
// session's own tasks; nothing here is safe to mutate from outside.
type Session struct {
	deviceID string
	cfg      Config
	hooks    Hooks
	checkpoint CheckpointStore
	logger   *slog.Logger

	mu    sync.Mutex
	state *types.SessionState
	conn  *transport.Client

	shutdown      chan struct{}
	shutdownOnce  sync.Once
	reconnecting  bool
	batchTimer    *time.Timer
	batchTimerSet bool
	pingCounter   int64
	missedPings   int
	lastCheckpointSave time.Time
	pendingLayoutID    string
}

// New constructs a Session in the disconnected state. Call Start to
// begin connecting.
func New(deviceID string, cfg Config, hooks Hooks, checkpoint CheckpointStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if checkpoint == nil {
		checkpoint = noopCheckpointStore{}
	}
	s := &Session{
		deviceID:   deviceID,
		cfg:        cfg,
		hooks:      hooks,
		checkpoint: checkpoint,
		logger:     logger.With("component", "session", "device_id", deviceID),
		state:      types.NewSessionState(deviceID),
		shutdown:   make(chan struct{}),
	}
	if seq, ok := checkpoint.LoadCheckpoint(context.Background(), deviceID); ok {
		s.state.NextSeq = seq
		s.logger.Debug("resumed session checkpoint", "seq", seq)
	}
	return s
}

// Start launches the listener task, which connects and, on any
// abnormal termination, reconnects with backoff until Close is called.
func (s *Session) Start(ctx context.Context) {
	go s.runLoop(ctx)
}

func (s *Session) runLoop(ctx context.Context) {
	for {
		select {
		case <-s.shutdown:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connectAndListen(ctx); err != nil {
			s.logger.Warn("session connection ended", "error", err)
			if errors.Is(err, types.ErrAuthInvalid) {
				// auth_invalid is terminal for the session: the panel's
				// secret is wrong or revoked, and retrying with the same
				// secret will only fail again. Stay in failed rather than
				// reconnect; re-pairing is the only way out.
				return
			}
		}

		select {
		case <-s.shutdown:
			return
		case <-ctx.Done():
			return
		default:
		}
		if !s.isShutdown() {
			s.reconnectDelay(ctx)
		}
	}
}

func (s *Session) setProtocolState(st types.ProtocolState) {
	s.mu.Lock()
	s.state.Protocol = st
	s.mu.Unlock()
	s.hooks.stateChange(st)
}

func (s *Session) isShutdown() bool {
	select {
	case <-s.shutdown:
		return true
	default:
		return false
	}
}

// Close marks shutdown, cancels reconnect/keepalive/listen, closes the
// batch timer and socket (each bounded by CloseTaskWait), and
// transitions to disconnected.
func (s *Session) Close() error {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
	})

	s.mu.Lock()
	if s.batchTimer != nil {
		s.batchTimer.Stop()
	}
	conn := s.conn
	s.mu.Unlock()

	var err error
	if conn != nil {
		done := make(chan struct{})
		go func() {
			err = conn.Close()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(constants.CloseTaskWait):
		}
	}
	s.setProtocolState(types.StateDisconnected)
	return err
}

// noopCheckpointStore is used when no database is configured; losing
// only restart-continuity diagnostics, never core correctness.
type noopCheckpointStore struct{}

func (noopCheckpointStore) LoadCheckpoint(context.Context, string) (int64, bool) { return 0, false }
func (noopCheckpointStore) SaveCheckpoint(context.Context, string, string, bool, int64, time.Time) {}

// buildEnvelope is a small convenience wrapper binding frame.BuildEnvelope
// to this session's device id and clock.
func (s *Session) buildEnvelope(msgType string, body map[string]any) frame.Envelope {
	return frame.BuildEnvelope(msgType, s.deviceID, "", time.Now(), body)
}
