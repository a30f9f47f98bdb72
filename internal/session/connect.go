package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trestlehq/coordinator/internal/transport"
	"github.com/trestlehq/coordinator/pkg/types"
)

// SupportedProtocolVersions is the local set of protocol versions this
// coordinator can speak; only version 1 exists today.
var SupportedProtocolVersions = []int{1}

// connectAndListen opens the WebSocket, performs the auth handshake,
// and then blocks running the listener until the connection ends or
// shutdown is requested. Returns nil only on a graceful shutdown-close.
func (s *Session) connectAndListen(ctx context.Context) error {
	s.setProtocolState(types.StateConnecting)

	conn, err := transport.Connect(ctx, s.cfg.Host, s.cfg.Port, s.cfg.Path, s.cfg.ConnectTimeout)
	if err != nil {
		s.setProtocolState(types.StateFailed)
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.state.ReconnectAttempts = 0
	s.mu.Unlock()

	s.setProtocolState(types.StateAuthenticating)
	if err := conn.SendJSON(s.buildEnvelope("auth", map[string]any{
		"secret":            s.cfg.Secret,
		"protocol_versions": SupportedProtocolVersions,
	})); err != nil {
		s.setProtocolState(types.StateFailed)
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	authResult := make(chan error, 1)
	go s.waitForAuth(conn, authResult)

	select {
	case err := <-authResult:
		if err != nil {
			s.setProtocolState(types.StateFailed)
			if errors.Is(err, types.ErrAuthInvalid) {
				s.hooks.authFailed()
			}
			return err
		}
	case <-s.shutdown:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	s.setProtocolState(types.StateAuthenticated)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); s.keepalive(taskCtx, conn) }()

	listenErr := s.listen(taskCtx, conn)
	cancel()
	wg.Wait()
	return listenErr
}

// waitForAuth reads messages until it sees auth_ok or auth_invalid.
func (s *Session) waitForAuth(conn *transport.Client, result chan<- error) {
	for msg := range conn.Messages() {
		switch msg.Type {
		case transport.MessageText:
			var env envelopeBody
			if err := json.Unmarshal(msg.Data, &env); err != nil {
				continue // malformed message: logged and ignored, never crash
			}
			switch env.Type {
			case "auth_ok":
				versions, err := parseVersions(env.Body["coordinator_protocol_versions"])
				if err != nil {
					result <- fmt.Errorf("%w: %v", types.ErrAuthInvalid, err)
					return
				}
				negotiated := negotiateVersion(versions, SupportedProtocolVersions)
				if negotiated == 0 {
					result <- fmt.Errorf("%w: no mutual protocol version", types.ErrAuthInvalid)
					return
				}
				s.mu.Lock()
				s.state.NegotiatedVersion = negotiated
				s.mu.Unlock()
				_ = conn.SendJSON(s.buildEnvelope("auth_confirmed", map[string]any{}))
				result <- nil
				return
			case "auth_invalid":
				msgText, _ := env.Body["message"].(string)
				result <- fmt.Errorf("%w: %s", types.ErrAuthInvalid, msgText)
				return
			}
		case transport.MessageClosed, transport.MessageError:
			result <- fmt.Errorf("%w: connection ended during auth", types.ErrConnection)
			return
		}
	}
	result <- fmt.Errorf("%w: connection closed during auth", types.ErrConnection)
}

type envelopeBody struct {
	V        int            `json:"v"`
	Type     string         `json:"type"`
	MsgID    string         `json:"msg_id"`
	DeviceID string         `json:"device_id"`
	TS       int64          `json:"ts"`
	Body     map[string]any `json:"body"`
}

// parseVersions extracts a non-empty list of integers. Booleans are
// rejected even though JSON numbers decode as float64, since Go's
// encoding/json never decodes a bool into a number in the first place;
// the explicit type switch below is what rejects them.
func parseVersions(raw any) ([]int, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("coordinator_protocol_versions must be a non-empty list")
	}
	out := make([]int, 0, len(list))
	for _, v := range list {
		switch n := v.(type) {
		case float64:
			if n != float64(int(n)) {
				return nil, fmt.Errorf("coordinator_protocol_versions must contain only integers")
			}
			out = append(out, int(n))
		default:
			return nil, fmt.Errorf("coordinator_protocol_versions must contain only integers")
		}
	}
	return out, nil
}

// negotiateVersion selects the highest version in both remote and
// local, or 0 if there is no overlap.
func negotiateVersion(remote, local []int) int {
	localSet := make(map[int]bool, len(local))
	for _, v := range local {
		localSet[v] = true
	}
	best := 0
	for _, v := range remote {
		if localSet[v] && v > best {
			best = v
		}
	}
	return best
}

// reconnectDelay waits min(retry_base * 2^attempts, retry_max) before
// returning, unless shutdown fires first. Only one reconnect task may
// exist at a time — runLoop's sequential structure already guarantees
// this, since the next connectAndListen call only begins after this
// delay returns.
func (s *Session) reconnectDelay(ctx context.Context) {
	s.mu.Lock()
	attempts := s.state.ReconnectAttempts
	s.state.ReconnectAttempts++
	s.mu.Unlock()

	delay := s.cfg.RetryBase * time.Duration(1<<uint(minInt(attempts, 30)))
	if delay > s.cfg.RetryMax || delay <= 0 {
		delay = s.cfg.RetryMax
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.shutdown:
	case <-ctx.Done():
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
