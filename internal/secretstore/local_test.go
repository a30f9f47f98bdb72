package secretstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalStore_PutThenGetRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store, err := newLocalStore(dir, testLogger())
	if err != nil {
		t.Fatalf("newLocalStore: %v", err)
	}

	if err := store.Put(context.Background(), "panel-1", "s3cr3t"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	secret, ok, err := store.Get(context.Background(), "panel-1")
	if err != nil || !ok || secret != "s3cr3t" {
		t.Fatalf("got (%q, %v, %v), want (s3cr3t, true, nil)", secret, ok, err)
	}
}

func TestLocalStore_GetMissingReturnsNotOK(t *testing.T) {
	dir := t.TempDir()
	store, err := newLocalStore(dir, testLogger())
	if err != nil {
		t.Fatalf("newLocalStore: %v", err)
	}

	_, ok, err := store.Get(context.Background(), "never-paired")
	if err != nil || ok {
		t.Fatalf("got (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestLocalStore_DeleteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := newLocalStore(dir, testLogger())
	if err != nil {
		t.Fatalf("newLocalStore: %v", err)
	}

	if err := store.Put(context.Background(), "panel-1", "s3cr3t"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(context.Background(), "panel-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(context.Background(), "panel-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	_, ok, _ := store.Get(context.Background(), "panel-1")
	if ok {
		t.Fatalf("secret still present after delete")
	}
}
