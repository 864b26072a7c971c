package devices

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// KV is the string cache the directory is fronted by (redis in production).
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Cached is a read-through cache over another directory. Cache failures are
// logged and never fail a lookup.
type Cached struct {
	next Directory
	kv   KV
	ttl  time.Duration
}

// NewCached caches lookups of next in kv for ttl.
func NewCached(next Directory, kv KV, ttl time.Duration) *Cached {
	return &Cached{next: next, kv: kv, ttl: ttl}
}

func cacheKey(deviceID string) string {
	return "marquee:device:" + deviceID
}

func (c *Cached) Lookup(ctx context.Context, deviceID string) (model.Device, error) {
	key := cacheKey(deviceID)

	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("device cache read failed")
	} else if ok {
		var dev model.Device
		if err := json.Unmarshal([]byte(raw), &dev); err == nil {
			return dev, nil
		}
		log.Warn().Str("key", key).Msg("discarding malformed device cache entry")
	}

	dev, err := c.next.Lookup(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, ErrUnknownDevice) {
			log.Error().Err(err).Str("device_id", deviceID).Msg("device lookup failed")
		}
		return model.Device{}, err
	}

	c.store(ctx, dev)
	return dev, nil
}

func (c *Cached) store(ctx context.Context, dev model.Device) {
	key := cacheKey(dev.DeviceID)
	payload, err := json.Marshal(dev)
	if err == nil {
		err = c.kv.Set(ctx, key, string(payload), c.ttl)
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("device cache write failed")
	}
}

// ErrReadOnly is returned when writing through a cache whose backing directory
// cannot be written.
var ErrReadOnly = errors.New("device directory is read-only")

// Upsert writes through to the backing directory and refreshes the cache entry.
func (c *Cached) Upsert(ctx context.Context, dev model.Device) error {
	reg, ok := c.next.(Registry)
	if !ok {
		return ErrReadOnly
	}
	if err := reg.Upsert(ctx, dev); err != nil {
		return err
	}
	c.store(ctx, dev)
	return nil
}

// List reads the backing directory directly.
func (c *Cached) List(ctx context.Context) ([]model.Device, error) {
	reg, ok := c.next.(Registry)
	if !ok {
		return nil, ErrReadOnly
	}
	return reg.List(ctx)
}
