package frame

import (
	"testing"
	"time"
)

func TestBuildEnvelope_GeneratesMsgIDWhenEmpty(t *testing.T) {
	now := time.Unix(1700000000, 0)
	env := BuildEnvelope("ping", "panel-1", "", now, nil)
	if env.MsgID == "" {
		t.Fatalf("expected a generated msg_id")
	}
	if env.V != EnvelopeVersion || env.Type != "ping" || env.DeviceID != "panel-1" {
		t.Fatalf("got %+v, want v/type/device_id set correctly", env)
	}
	if env.TS != now.UnixMilli() {
		t.Fatalf("got ts=%d, want %d", env.TS, now.UnixMilli())
	}
}

func TestBuildEnvelope_PreservesProvidedMsgID(t *testing.T) {
	env := BuildEnvelope("pong", "panel-1", "fixed-id", time.Now(), nil)
	if env.MsgID != "fixed-id" {
		t.Fatalf("got %q, want fixed-id", env.MsgID)
	}
}

func TestBuildTimeBody_OmitsTimezoneWhenEmpty(t *testing.T) {
	body := BuildTimeBody(time.Now(), "")
	if _, ok := body["timezone"]; ok {
		t.Fatalf("timezone key must be absent when tz is empty")
	}
	if _, ok := body["epoch"]; !ok {
		t.Fatalf("epoch key must always be present")
	}
}

func TestBuildTimeBody_IncludesTimezoneWhenProvided(t *testing.T) {
	body := BuildTimeBody(time.Now(), "America/Los_Angeles")
	if body["timezone"] != "America/Los_Angeles" {
		t.Fatalf("got %v, want America/Los_Angeles", body["timezone"])
	}
}

func TestBuildAuthOK_RejectsEmptyVersions(t *testing.T) {
	if _, err := BuildAuthOK("panel-1", nil); err == nil {
		t.Fatalf("expected an error for empty coordinator_protocol_versions")
	}
}

func TestBuildAuthOK_CopiesVersionsSlice(t *testing.T) {
	versions := []int{1, 2}
	body, err := BuildAuthOK("panel-1", versions)
	if err != nil {
		t.Fatalf("BuildAuthOK: %v", err)
	}
	versions[0] = 99
	got := body["coordinator_protocol_versions"].([]int)
	if got[0] == 99 {
		t.Fatalf("BuildAuthOK must copy the versions slice, not alias the caller's")
	}
}

func TestBuildAuthInvalid_RejectsEmptyMessage(t *testing.T) {
	if _, err := BuildAuthInvalid("panel-1", ""); err == nil {
		t.Fatalf("expected an error for an empty message")
	}
}

func TestBuildAuthInvalid_EmitsMessage(t *testing.T) {
	body, err := BuildAuthInvalid("panel-1", "bad secret")
	if err != nil || body["message"] != "bad secret" {
		t.Fatalf("got (%v, %v), want (bad secret, nil)", body, err)
	}
}
