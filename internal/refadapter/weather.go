// Package refadapter provides two small reference ecosystem adapters
// demonstrating the two delivery modes the adapter boundary must
// support: a ticker-driven poll adapter (weather) and a push-driven
// adapter fed by an external event source (motion). Grounded on the
// teacher's config-struct-plus-Execute shape (executor/icmp.go), with
// the scheduler/ticker idiom from agent/internal/scheduler/scheduler.go
// folded in directly rather than kept as a standalone generic package.
package refadapter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/trestlehq/coordinator/internal/adapter"
	"github.com/trestlehq/coordinator/pkg/types"
)

// WeatherSource fetches one native weather observation. A real
// deployment substitutes a client for the ecosystem's weather
// integration; this adapter's only job is the poll/publish loop and
// the canonical Fact construction.
type WeatherSource interface {
	FetchObservation(ctx context.Context) (state string, attrs map[string]any, err error)
}

// WeatherAdapter polls a WeatherSource on a fixed interval and
// publishes environment facts to its subscribers.
type WeatherAdapter struct {
	id       string
	source   WeatherSource
	interval time.Duration

	mu        sync.RWMutex
	subs      map[int]subscription
	nextSubID int
	health    adapter.Health
}

type subscription struct {
	sink      adapter.FactSink
	factTypes map[types.FactType]bool
}

// NewWeatherAdapter constructs a poll-based weather adapter.
func NewWeatherAdapter(id string, source WeatherSource, interval time.Duration) *WeatherAdapter {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &WeatherAdapter{
		id:       id,
		source:   source,
		interval: interval,
		subs:     make(map[int]subscription),
		health:   adapter.HealthOK,
	}
}

// AdapterID implements adapter.Adapter.
func (w *WeatherAdapter) AdapterID() string { return w.id }

// GetHealth implements adapter.Adapter.
func (w *WeatherAdapter) GetHealth() adapter.Health {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.health
}

// SubscribeFacts implements adapter.Adapter.
func (w *WeatherAdapter) SubscribeFacts(sink adapter.FactSink, factTypes []types.FactType) adapter.Unsubscribe {
	w.mu.Lock()
	id := w.nextSubID
	w.nextSubID++
	filter := make(map[types.FactType]bool, len(factTypes))
	for _, t := range factTypes {
		filter[t] = true
	}
	w.subs[id] = subscription{sink: sink, factTypes: filter}
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// ApplyIntent implements adapter.Adapter. Weather is observation-only;
// it accepts no intents.
func (w *WeatherAdapter) ApplyIntent(types.Intent) error {
	return nil
}

// Run polls on the configured interval until ctx is cancelled. The
// first poll is staggered by jitter to avoid every reference adapter
// instance in a process waking on the same tick.
func (w *WeatherAdapter) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(jitter(w.interval) / 4):
	}
	w.poll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *WeatherAdapter) poll(ctx context.Context) {
	state, attrs, err := w.source.FetchObservation(ctx)
	if err != nil {
		w.mu.Lock()
		w.health = adapter.HealthDegraded
		w.mu.Unlock()
		return
	}
	w.mu.Lock()
	w.health = adapter.HealthOK
	w.mu.Unlock()

	data := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		data[k] = v
	}
	data["state"] = state
	data["measurement"] = "weather"
	data["value"] = state

	fact, err := types.NewFact(types.FactEnvironment, w.id, time.Now(), data, 0.9)
	if err != nil {
		return
	}
	w.publish(fact)
}

func (w *WeatherAdapter) publish(fact types.Fact) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, sub := range w.subs {
		if len(sub.factTypes) > 0 && !sub.factTypes[fact.FactType] {
			continue
		}
		sub.sink.ReceiveFact(fact)
	}
}

// jitter returns interval +/- up to 10%, avoiding synchronized polling
// across many reference adapter instances.
func jitter(interval time.Duration) time.Duration {
	spread := float64(interval) * 0.1
	return interval + time.Duration((rand.Float64()*2-1)*spread)
}
