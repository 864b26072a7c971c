// Package redis backs the device resolution cache and lifecycle event fan-out.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// NewClient opens a client and checks the connection.
func NewClient(ctx context.Context, redisAddress string, redisUsername string, redisPassword string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	log.Info().Str("address", redisAddress).Msg("connected to redis")
	return rdb, nil
}

// KV is a string cache over redis.
type KV struct {
	rdb *redis.Client
}

func NewKV(rdb *redis.Client) *KV {
	return &KV{rdb: rdb}
}

// Get returns the value of key; ok is false when the key does not exist.
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := kv.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (kv *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := kv.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to add key to redis")
		return err
	}
	return nil
}

// EventChannel is the pub/sub channel of one device's lifecycle events.
func EventChannel(deviceID string) string {
	return "marquee:events:" + deviceID
}

// Publisher broadcasts lifecycle events on per-device channels.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) Record(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, EventChannel(ev.DeviceID), payload).Err()
}

// Subscribe streams the lifecycle events of a device until ctx is done.
func (p *Publisher) Subscribe(ctx context.Context, deviceID string) <-chan model.Event {
	out := make(chan model.Event)
	sub := p.rdb.Subscribe(ctx, EventChannel(deviceID))
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev model.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
