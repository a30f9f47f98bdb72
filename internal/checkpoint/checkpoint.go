// Package checkpoint implements the session checkpoint store (N): a
// durable, best-effort record of where each panel's delta sequence left
// off, used only to seed NextSeq on restart so a reconnecting panel's
// stale acks don't collide with fresh ones. It is never consulted for
// correctness of the decision pipeline itself.
//
// Grounded on control-plane/internal/store/store.go's pgxpool-backed
// Store shape (NewStoreFromURL, raw SQL via pool.Exec/QueryRow).
package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trestlehq/coordinator/db/migrate"
)

// Store persists session checkpoints in Postgres. It implements
// session.CheckpointStore.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewFromURL connects to the database at url and applies any pending
// migrations before returning.
func NewFromURL(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to checkpoint database: %w", err)
	}
	if err := migrate.Run(ctx, pool, slog.Default()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running checkpoint migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// LoadCheckpoint returns the last saved seq for deviceID, or ok=false
// if no checkpoint has ever been saved.
func (s *Store) LoadCheckpoint(ctx context.Context, deviceID string) (int64, bool) {
	var seq int64
	err := s.pool.QueryRow(ctx, `
		SELECT seq FROM session_checkpoints WHERE device_id = $1
	`, deviceID).Scan(&seq)
	if err != nil {
		return 0, false // pgx.ErrNoRows or a transient error: caller proceeds from seq 0
	}
	return seq, true
}

// SaveCheckpoint upserts the latest known state for deviceID. Errors
// are discarded here and not returned (the signature mirrors
// session.CheckpointStore) since checkpoint loss never threatens
// correctness, only restart continuity.
func (s *Store) SaveCheckpoint(ctx context.Context, deviceID, layoutID string, layoutApplied bool, seq int64, lastInteraction time.Time) {
	_, _ = s.pool.Exec(ctx, `
		INSERT INTO session_checkpoints (device_id, layout_id, layout_applied, seq, last_interaction, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (device_id) DO UPDATE SET
			layout_id = EXCLUDED.layout_id,
			layout_applied = EXCLUDED.layout_applied,
			seq = EXCLUDED.seq,
			last_interaction = EXCLUDED.last_interaction,
			updated_at = NOW()
	`, deviceID, layoutID, layoutApplied, seq, lastInteraction)
}

// Delete removes a device's checkpoint, e.g. after an unpair.
func (s *Store) Delete(ctx context.Context, deviceID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM session_checkpoints WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}
