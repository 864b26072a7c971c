package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Memory keeps history in process, keyed per device.
type Memory struct {
	mu       sync.RWMutex
	byDevice map[string]map[string]*model.Message
	owner    map[string]string
	events   map[string][]model.Event
}

func NewMemory() *Memory {
	return &Memory{
		byDevice: make(map[string]map[string]*model.Message),
		owner:    make(map[string]string),
		events:   make(map[string][]model.Event),
	}
}

func (m *Memory) Save(_ context.Context, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.byDevice[msg.DeviceID]
	if !ok {
		msgs = make(map[string]*model.Message)
		m.byDevice[msg.DeviceID] = msgs
	}
	stored := msg
	msgs[msg.ID] = &stored
	m.owner[msg.ID] = msg.DeviceID
	return nil
}

func (m *Memory) lookup(id string) (*model.Message, bool) {
	deviceID, ok := m.owner[id]
	if !ok {
		return nil, false
	}
	msg, ok := m.byDevice[deviceID][id]
	return msg, ok
}

func (m *Memory) UpdateStatus(_ context.Context, id string, status model.MessageStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.lookup(id)
	if !ok {
		return ErrNotFound
	}
	applyStatus(msg, status, at)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.lookup(id)
	if !ok {
		return model.Message{}, ErrNotFound
	}
	return *msg, nil
}

// ListByDevice returns the device's messages, newest first.
func (m *Memory) ListByDevice(_ context.Context, deviceID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Message, 0, len(m.byDevice[deviceID]))
	for _, msg := range m.byDevice[deviceID] {
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListActive returns every active message, oldest first.
func (m *Memory) ListActive(_ context.Context) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Message
	for _, msgs := range m.byDevice {
		for _, msg := range msgs {
			if msg.Status == model.StatusActive {
				out = append(out, *msg)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	deviceID, ok := m.owner[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byDevice[deviceID], id)
	delete(m.owner, id)
	return nil
}

// Record appends a lifecycle event.
func (m *Memory) Record(_ context.Context, ev model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.DeviceID] = append(m.events[ev.DeviceID], ev)
	return nil
}

// Events returns the recorded events of a device in emission order.
func (m *Memory) Events(deviceID string) []model.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Event(nil), m.events[deviceID]...)
}
