// Package secretstore provides durable storage for paired-panel secrets.
// Each paired panel has a device id and an opaque bearer secret that the
// pairing client presents; the store's job is only to persist and
// retrieve that (device id, secret) pair across coordinator restarts.
//
// Grounded on control-plane/internal/secrets/keystore.go's interface
// shape and factory.go's auto-selecting backend construction, adapted
// from SSH key-pair storage to a single opaque secret per device.
package secretstore

import (
	"context"
	"fmt"
	"log/slog"
)

// Store persists and retrieves paired-panel secrets.
type Store interface {
	// Get returns the stored secret for deviceID, or ok=false if none
	// is stored (the panel has never been paired, or was unpaired).
	Get(ctx context.Context, deviceID string) (secret string, ok bool, err error)

	// Put stores or replaces the secret for deviceID.
	Put(ctx context.Context, deviceID, secret string) error

	// Delete removes the stored secret, if any. Idempotent.
	Delete(ctx context.Context, deviceID string) error

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is "1password", "local", or "auto" (1Password if
	// configured, local otherwise).
	Backend string

	OnePasswordHost    string
	OnePasswordToken   string
	OnePasswordVaultID string

	LocalDir string
}

// New constructs a Store per cfg.
func New(cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend := cfg.Backend
	if backend == "" {
		backend = "auto"
	}

	switch backend {
	case "1password":
		if cfg.OnePasswordToken == "" {
			return nil, fmt.Errorf("1password backend requested but no connect token configured")
		}
		return newOnePasswordStore(cfg, logger)

	case "local":
		return newLocalStore(cfg.LocalDir, logger)

	case "auto":
		if cfg.OnePasswordToken != "" {
			store, err := newOnePasswordStore(cfg, logger)
			if err != nil {
				logger.Warn("1password secret store unavailable, falling back to local", "error", err)
				return newLocalStore(cfg.LocalDir, logger)
			}
			return store, nil
		}
		return newLocalStore(cfg.LocalDir, logger)

	default:
		return nil, fmt.Errorf("unknown secret store backend: %s", backend)
	}
}
