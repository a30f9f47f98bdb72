package pairing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchDeviceID_AuthorizedReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "panel-1"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	id, err := c.FetchDeviceID(context.Background(), "good-secret")
	if err != nil || id != "panel-1" {
		t.Fatalf("got (%q, %v), want (panel-1, nil)", id, err)
	}
}

func TestFetchDeviceID_NoStoredSecretAnd401IsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	id, err := c.FetchDeviceID(context.Background(), "")
	if err != nil || id != "" {
		t.Fatalf("got (%q, %v), want (\"\", nil)", id, err)
	}
}

func TestFetchDeviceID_OrphanRecoveryUnpairsAndRetries(t *testing.T) {
	unpaired := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/unpair" && r.Method == http.MethodPost:
			unpaired = true
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/api/info":
			if unpaired {
				json.NewEncoder(w).Encode(map[string]string{"id": "panel-recovered"})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	id, err := c.FetchDeviceID(context.Background(), "stale-secret")
	if err != nil || id != "panel-recovered" {
		t.Fatalf("got (%q, %v), want (panel-recovered, nil)", id, err)
	}
	if !unpaired {
		t.Fatalf("expected unpair to have been called")
	}
}

func TestFetchDeviceID_SecondUnauthorizedAfterUnpairIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/unpair":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/api/info":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	id, err := c.FetchDeviceID(context.Background(), "stale-secret")
	if err != nil || id != "" {
		t.Fatalf("got (%q, %v), want (\"\", nil)", id, err)
	}
}

func TestFetchDeviceID_DisallowedStatusRaisesResponseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.FetchDeviceID(context.Background(), "secret")
	rerr, ok := err.(*ResponseError)
	if !ok || rerr.Status != http.StatusInternalServerError {
		t.Fatalf("got %v, want *ResponseError{500}", err)
	}
}

func TestPair_Non200RaisesResponseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Pair(context.Background(), "new-secret")
	rerr, ok := err.(*ResponseError)
	if !ok || rerr.Status != http.StatusBadRequest {
		t.Fatalf("got %v, want *ResponseError{400}", err)
	}
}

func TestUnpair_IsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.Unpair(context.Background()); err != nil {
		t.Fatalf("first unpair: %v", err)
	}
	if err := c.Unpair(context.Background()); err != nil {
		t.Fatalf("second unpair: %v", err)
	}
}
