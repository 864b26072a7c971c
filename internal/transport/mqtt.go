package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const qos = 1

// MQTTConfig holds the broker connection settings.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each slot's artifact as a retained message, so a panel that
// reconnects receives its current content.
type MQTT struct {
	client publisher
	prefix string
	now    func() time.Time
	close  func()
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// DialMQTT connects to the broker.
func DialMQTT(cfg MQTTConfig) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	m := newMQTT(client, cfg.TopicPrefix)
	m.close = func() { client.Disconnect(250) }
	return m, nil
}

func newMQTT(client publisher, prefix string) *MQTT {
	if prefix == "" {
		prefix = "led"
	}
	return &MQTT{client: client, prefix: prefix, now: time.Now, close: func() {}}
}

func (m *MQTT) publish(ctx context.Context, topic string, payload []byte) error {
	token := m.client.Publish(topic, qos, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Deliver publishes the artifact's envelope and waits for the broker's ack.
func (m *MQTT) Deliver(ctx context.Context, a *compose.Artifact) error {
	env, err := NewEnvelope(a, m.now())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	topic := SlotTopic(m.prefix, a.DeviceID, a.Slot)
	if err := m.publish(ctx, topic, payload); err != nil {
		return err
	}
	log.Debug().Str("topic", topic).Str("message_id", a.MessageID).Int("bytes", len(payload)).Msg("artifact published")
	return nil
}

// Clear removes the retained content of a slot. Devices receive an empty payload.
func (m *MQTT) Clear(ctx context.Context, deviceID string, slot model.SlotNumber) error {
	topic := SlotTopic(m.prefix, deviceID, slot)
	if err := m.publish(ctx, topic, []byte{}); err != nil {
		return err
	}
	log.Debug().Str("topic", topic).Msg("slot cleared")
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.close()
}
