package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trestlehq/coordinator/pkg/types"
)

const (
	keyTraces = "trestle:traces"

	// DefaultRetention bounds how long a persisted trace survives in
	// Redis; traces are best-effort, never a replay log.
	DefaultRetention = 1 * time.Hour
)

// RedisSink buffers traces through a bounded in-memory channel so the
// decision path's Emit call never blocks on Redis I/O, then persists
// them from a background task. The channel/drain split mirrors the
// ResultBuffer/Flusher pair used for probe-result persistence, adapted
// from a COPY-into-Postgres drain to a Redis SET-with-expiry drain,
// one key per decision id.
type RedisSink struct {
	client *redis.Client
	logger *slog.Logger
	ch     chan types.DecisionTrace
}

// NewRedisSink connects to redisURL and returns a sink whose Emit is
// non-blocking up to the channel's capacity; beyond that, traces are
// dropped (oldest-preference is approximated by dropping the newest
// arrival, since decision-path Emit must never block to make room).
func NewRedisSink(redisURL string, logger *slog.Logger, bufferCapacity int) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisSink{
		client: client,
		logger: logger,
		ch:     make(chan types.DecisionTrace, bufferCapacity),
	}, nil
}

// Emit implements Emitter. Non-blocking: a full channel drops the
// trace rather than stalling the decision path.
func (s *RedisSink) Emit(t types.DecisionTrace) {
	select {
	case s.ch <- t:
	default:
		s.logger.Warn("trace dropped: redis sink channel full", "decision_id", t.DecisionID)
	}
}

// Run drains the channel into Redis until ctx is cancelled, persisting
// each trace with DefaultRetention expiry.
func (s *RedisSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.ch:
			s.persist(ctx, t)
		}
	}
}

func (s *RedisSink) persist(ctx context.Context, t types.DecisionTrace) {
	data, err := json.Marshal(t)
	if err != nil {
		s.logger.Warn("failed to marshal decision trace", "error", err)
		return
	}
	key := fmt.Sprintf("%s:%s", keyTraces, t.DecisionID)
	if err := s.client.Set(ctx, key, data, DefaultRetention).Err(); err != nil {
		s.logger.Warn("failed to persist decision trace", "error", err, "decision_id", t.DecisionID)
	}
}

// Close closes the underlying Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
