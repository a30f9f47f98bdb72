// Package frame implements the frame builders (L): the envelope shape
// shared by every message on the device WebSocket, plus the auth and
// time-sync message bodies.
package frame

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the fixed protocol envelope version.
const EnvelopeVersion = 1

// Envelope is the fixed shape wrapping every WebSocket message.
type Envelope struct {
	V        int            `json:"v"`
	Type     string         `json:"type"`
	MsgID    string         `json:"msg_id"`
	DeviceID string         `json:"device_id"`
	TS       int64          `json:"ts"` // epoch milliseconds
	Body     map[string]any `json:"body"`
}

// BuildEnvelope wraps body in the fixed envelope shape. msgID is a
// fresh uuid when empty.
func BuildEnvelope(msgType, deviceID, msgID string, now time.Time, body map[string]any) Envelope {
	if msgID == "" {
		msgID = uuid.NewString()
	}
	return Envelope{
		V:        EnvelopeVersion,
		Type:     msgType,
		MsgID:    msgID,
		DeviceID: deviceID,
		TS:       now.UnixMilli(),
		Body:     body,
	}
}

// BuildTimeBody emits {epoch, utc_offset, timezone?}.
func BuildTimeBody(now time.Time, tz string) map[string]any {
	_, offsetSeconds := now.Zone()
	body := map[string]any{
		"epoch":      now.Unix(),
		"utc_offset": offsetSeconds,
	}
	if tz != "" {
		body["timezone"] = tz
	}
	return body
}

// BuildAuthOK validates coordinatorVersions (non-empty, all integers;
// booleans rejected by the caller's type, since Go's int type already
// excludes bool) and emits {coordinator_protocol_versions}.
func BuildAuthOK(deviceID string, coordinatorVersions []int) (map[string]any, error) {
	if len(coordinatorVersions) == 0 {
		return nil, fmt.Errorf("coordinator_protocol_versions must not be empty")
	}
	versions := make([]int, len(coordinatorVersions))
	copy(versions, coordinatorVersions)
	return map[string]any{
		"coordinator_protocol_versions": versions,
	}, nil
}

// BuildAuthInvalid requires a non-empty message and emits {message}.
func BuildAuthInvalid(deviceID, message string) (map[string]any, error) {
	if message == "" {
		return nil, fmt.Errorf("auth_invalid message must not be empty")
	}
	return map[string]any{"message": message}, nil
}
