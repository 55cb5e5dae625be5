package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/organization-service/internal/events"
)

func ptr[T any](value T) *T { return &value }

// captureDispatcher records published events so tests can assert on the
// audit trail. Publishing happens on a detached goroutine, so assertions
// use Eventually.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type memoryRosterCache struct {
	mu            sync.Mutex
	entries       map[string][]byte
	hits          int
	sets          int
	invalidations int
}

func newMemoryRosterCache() *memoryRosterCache {
	return &memoryRosterCache{entries: make(map[string][]byte)}
}

func (c *memoryRosterCache) GetRoster(_ context.Context, specialtyID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[specialtyID]
	if ok {
		c.hits++
	}
	return payload, ok
}

func (c *memoryRosterCache) SetRoster(_ context.Context, specialtyID string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[specialtyID] = payload
	c.sets++
	return nil
}

func (c *memoryRosterCache) InvalidateRoster(_ context.Context, specialtyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, specialtyID)
	c.invalidations++
	return nil
}
