package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	_ "image/png"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/effects"
	"github.com/Nixie-Tech-LLC/marquee/internal/raster"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	token *fakeToken
	sent  []published
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.sent = append(p.sent, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return p.token
}

var sentAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func artifact() *compose.Artifact {
	return &compose.Artifact{
		MessageID: "msg-1",
		DeviceID:  "lobby",
		Slot:      3,
		Bitmap:    raster.Bitmap{Width: 4, Height: 2, Pixels: image.NewRGBA(image.Rect(0, 0, 4, 2))},
		Effects:   compose.EffectMetadata{EntryCode: effects.EntryScrollLeft, EntrySpeed: 5, HoldSeconds: 10, ExitCode: effects.ExitFadeOut, ExitSpeed: 8},
	}
}

func TestSlotTopic(t *testing.T) {
	assert.Equal(t, "led/lobby/slots/3", SlotTopic("led", "lobby", 3))
	assert.Equal(t, "signs/lobby/slots/100", SlotTopic("signs/", "lobby", 100))
}

func TestDeliverPublishesRetainedEnvelope(t *testing.T) {
	pub := &fakePublisher{token: newToken(nil, true)}
	m := newMQTT(pub, "")
	m.now = func() time.Time { return sentAt }

	require.NoError(t, m.Deliver(context.Background(), artifact()))
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.Equal(t, "led/lobby/slots/3", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.payload, &env))
	assert.Equal(t, "msg-1", env.MessageID)
	assert.Equal(t, 4, env.Width)
	assert.Equal(t, 2, env.Height)
	assert.Equal(t, effects.EntryScrollLeft, env.Effects.EntryCode)
	assert.Equal(t, effects.ExitFadeOut, env.Effects.ExitCode)
	assert.True(t, env.SentAt.Equal(sentAt))

	img, _, err := image.Decode(bytes.NewReader(env.PNG))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestDeliverReturnsBrokerError(t *testing.T) {
	brokerErr := errors.New("not authorized")
	m := newMQTT(&fakePublisher{token: newToken(brokerErr, true)}, "led")

	err := m.Deliver(context.Background(), artifact())
	assert.ErrorIs(t, err, brokerErr)
}

func TestDeliverHonoursContext(t *testing.T) {
	m := newMQTT(&fakePublisher{token: newToken(nil, false)}, "led")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Deliver(ctx, artifact()), context.Canceled)
}

func TestClearPublishesEmptyRetained(t *testing.T) {
	pub := &fakePublisher{token: newToken(nil, true)}
	m := newMQTT(pub, "led")

	require.NoError(t, m.Clear(context.Background(), "lobby", 7))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "led/lobby/slots/7", pub.sent[0].topic)
	assert.True(t, pub.sent[0].retained)
	assert.Empty(t, pub.sent[0].payload)
}

func TestLoopbackRecordsDeliveries(t *testing.T) {
	l := NewLoopback()
	require.NoError(t, l.Deliver(context.Background(), artifact()))
	require.NoError(t, l.Clear(context.Background(), "lobby", 3))
	assert.Equal(t, []Delivery{{MessageID: "msg-1", DeviceID: "lobby", Slot: 3}}, l.Deliveries())
}
