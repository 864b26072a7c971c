// Package devices resolves device ids to panel descriptors.
package devices

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// ErrUnknownDevice is returned when a directory has no entry for a device id.
var ErrUnknownDevice = errors.New("unknown device")

// Directory supplies device descriptors.
type Directory interface {
	Lookup(ctx context.Context, deviceID string) (model.Device, error)
}

// Registry is a directory that can also be listed and written.
type Registry interface {
	Directory
	Upsert(ctx context.Context, dev model.Device) error
	List(ctx context.Context) ([]model.Device, error)
}

// Static is an in-memory directory.
type Static struct {
	mu      sync.RWMutex
	devices map[string]model.Device
}

// NewStatic returns a directory holding devs.
func NewStatic(devs ...model.Device) *Static {
	s := &Static{devices: make(map[string]model.Device, len(devs))}
	for _, d := range devs {
		s.devices[d.DeviceID] = d
	}
	return s
}

// Upsert adds or replaces a device.
func (s *Static) Upsert(_ context.Context, dev model.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[dev.DeviceID] = dev
	return nil
}

func (s *Static) Lookup(_ context.Context, deviceID string) (model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[deviceID]
	if !ok {
		return model.Device{}, ErrUnknownDevice
	}
	return d, nil
}

// List returns all devices ordered by id.
func (s *Static) List(_ context.Context) ([]model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

var (
	_ Registry = (*Static)(nil)
	_ Registry = (*Postgres)(nil)
	_ Registry = (*Cached)(nil)
)
