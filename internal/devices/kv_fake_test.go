package devices

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type fakeKV struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	setKeys []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	f.ttls[key] = ttl
	f.setKeys = append(f.setKeys, key)
	return nil
}

var errKVDown = errors.New("kv down")

type countingDirectory struct {
	Directory
	calls int
}

func (c *countingDirectory) Lookup(ctx context.Context, deviceID string) (model.Device, error) {
	c.calls++
	return c.Directory.Lookup(ctx, deviceID)
}
