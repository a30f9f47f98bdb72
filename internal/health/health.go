// Package health implements the coordinator self-health sampler (O): a
// periodic snapshot of process-level resource use and adapter status,
// independent of the decision pipeline, intended for an operator-facing
// diagnostics surface rather than anything the pipeline consults.
//
// Grounded on control-plane/internal/metrics/collector.go's cached
// gopsutil process-metrics collection, adapted from a request-driven,
// TTL-cached read into a ticker-driven periodic sampler.
package health

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/trestlehq/coordinator/internal/adapter"
	"github.com/trestlehq/coordinator/internal/constants"
	"github.com/trestlehq/coordinator/pkg/types"
)

// Sampler periodically produces a CoordinatorHealthSample and keeps the
// most recent one, readable through Latest; samples are not logged.
type Sampler struct {
	registry       *adapter.Registry
	activeSessions func() int
	startTime      time.Time
	interval       time.Duration
	logger         *slog.Logger

	mu     sync.RWMutex
	latest types.CoordinatorHealthSample
}

// New constructs a Sampler. registry may be nil if adapter health is
// not yet wired; activeSessions may be nil, in which case
// ActiveSessions is always reported as 0.
func New(registry *adapter.Registry, activeSessions func() int, interval time.Duration, logger *slog.Logger) *Sampler {
	if interval <= 0 {
		interval = constants.HealthSampleInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		registry:       registry,
		activeSessions: activeSessions,
		startTime:      time.Now(),
		interval:       interval,
		logger:         logger,
	}
}

// Latest returns the most recently collected sample. Before the first
// tick, it reflects zero values with UptimeSeconds computed on demand.
func (s *Sampler) Latest() types.CoordinatorHealthSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample := s.latest
	sample.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
	return sample
}

// Run samples on a ticker until done closes. One task, never suspends
// except on the ticker and done.
func (s *Sampler) Run(done <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	sample := types.CoordinatorHealthSample{
		Timestamp:     time.Now(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Status:        "healthy",
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			sample.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			sample.MemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
		if memPct, err := proc.MemoryPercent(); err == nil {
			sample.MemoryPercent = float64(memPct)
		}
	} else {
		s.logger.Debug("self-health: could not read process metrics", "error", err)
	}

	if s.registry != nil {
		health := s.registry.Health()
		sample.AdapterHealth = make(map[string]string, len(health))
		for id, h := range health {
			sample.AdapterHealth[id] = string(h)
			if h == adapter.HealthOffline {
				sample.Status = "degraded"
			}
		}
	}

	if s.activeSessions != nil {
		sample.ActiveSessions = s.activeSessions()
	}

	if sample.CPUPercent > 90 || sample.MemoryPercent > 90 {
		sample.Status = "degraded"
	}

	s.mu.Lock()
	s.latest = sample
	s.mu.Unlock()
}
