package refadapter

import (
	"sync"
	"time"

	"github.com/trestlehq/coordinator/internal/adapter"
	"github.com/trestlehq/coordinator/pkg/types"
)

// MotionAdapter is a push-based reference adapter: an external event
// source (a webhook handler, an MQTT subscriber — supplied by the host
// integration) calls ReportMotion as events arrive, and the adapter
// fans them out to subscribers as canonical facts. No polling loop;
// contrast with WeatherAdapter's ticker-driven shape.
type MotionAdapter struct {
	id string

	mu        sync.RWMutex
	subs      map[int]subscription
	nextSubID int
	health    adapter.Health
}

// NewMotionAdapter constructs a push-based motion adapter.
func NewMotionAdapter(id string) *MotionAdapter {
	return &MotionAdapter{
		id:     id,
		subs:   make(map[int]subscription),
		health: adapter.HealthOK,
	}
}

// AdapterID implements adapter.Adapter.
func (m *MotionAdapter) AdapterID() string { return m.id }

// GetHealth implements adapter.Adapter.
func (m *MotionAdapter) GetHealth() adapter.Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// SubscribeFacts implements adapter.Adapter.
func (m *MotionAdapter) SubscribeFacts(sink adapter.FactSink, factTypes []types.FactType) adapter.Unsubscribe {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	filter := make(map[types.FactType]bool, len(factTypes))
	for _, t := range factTypes {
		filter[t] = true
	}
	m.subs[id] = subscription{sink: sink, factTypes: filter}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// ApplyIntent implements adapter.Adapter. Motion sensors are
// observation-only; activate_output/deactivate_output intents targeting
// a paired output device are the only ones this adapter acts on, and a
// reference implementation has none to drive.
func (m *MotionAdapter) ApplyIntent(types.Intent) error {
	return nil
}

// ReportMotion is called by the host integration's event source
// (webhook, MQTT callback, etc.) whenever the ecosystem reports a
// motion reading for sourceID.
func (m *MotionAdapter) ReportMotion(sourceID string, detected bool, confidence float64) error {
	fact, err := types.NewFact(types.FactMotion, sourceID, time.Now(), map[string]any{
		"detected": detected,
	}, confidence)
	if err != nil {
		return err
	}
	m.publish(fact)
	return nil
}

// SetHealth lets the host integration report connectivity loss to its
// upstream event source (e.g. an MQTT broker disconnect).
func (m *MotionAdapter) SetHealth(h adapter.Health) {
	m.mu.Lock()
	m.health = h
	m.mu.Unlock()
}

func (m *MotionAdapter) publish(fact types.Fact) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subs {
		if len(sub.factTypes) > 0 && !sub.factTypes[fact.FactType] {
			continue
		}
		sub.sink.ReceiveFact(fact)
	}
}
