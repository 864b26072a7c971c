package compose

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/devices"
	"github.com/Nixie-Tech-LLC/marquee/internal/history"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/playback"
	"github.com/Nixie-Tech-LLC/marquee/internal/raster"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
)

var errBrokerDown = errors.New("broker down")

type fakeTransport struct {
	mu        sync.Mutex
	err       error
	delivered []*Artifact

	// seen is the slot state observed during delivery.
	seen    []model.Slot
	cleared []model.SlotNumber
	reg     *slots.Registry

	// onDeliver runs before anything else and without the lock held, so it
	// may submit further messages.
	onDeliver func(a *Artifact) error
}

func (f *fakeTransport) Deliver(_ context.Context, a *Artifact) error {
	if f.onDeliver != nil {
		if err := f.onDeliver(a); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reg != nil {
		f.seen = append(f.seen, f.reg.Slot(a.DeviceID, a.Slot))
	}
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, a)
	return nil
}

func (f *fakeTransport) Clear(_ context.Context, deviceID string, slot model.SlotNumber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, slot)
	return nil
}

type fakeStore struct {
	names []string
	err   error
}

func (f *fakeStore) SaveArtifact(_ context.Context, name string, png []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "/uploads/" + name, nil
}

type harness struct {
	composer  *Composer
	registry  *slots.Registry
	history   *history.Memory
	transport *fakeTransport
	board     *playback.Board
	now       time.Time
}

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, mode CommitMode, devs ...model.Device) *harness {
	t.Helper()
	rz, err := raster.New()
	require.NoError(t, err)

	h := &harness{
		registry: slots.NewRegistry(),
		history:  history.NewMemory(),
		board:    playback.NewBoard(stoppedClock{}),
		now:      testEpoch,
	}
	h.transport = &fakeTransport{reg: h.registry}

	seq := 0
	h.composer, err = New(Options{
		Registry:   h.registry,
		Rasterizer: rz,
		Directory:  devices.NewStatic(devs...),
		History:    h.history,
		Transport:  h.transport,
		Events:     h.history,
		Board:      h.board,
		Mode:       mode,
		Now:        func() time.Time { return h.now },
		NewID: func() string {
			seq++
			return fmt.Sprintf("msg-%d", seq)
		},
	})
	require.NoError(t, err)
	return h
}

func (h *harness) eventTypes(deviceID string) []model.EventType {
	var out []model.EventType
	for _, ev := range h.history.Events(deviceID) {
		out = append(out, ev.Type)
	}
	return out
}

// stoppedClock never fires; players stay in the first phase that needs a timer.
type stoppedClock struct{}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return true }

func (stoppedClock) AfterFunc(time.Duration, func()) (playback.Timer, error) {
	return stoppedTimer{}, nil
}

func slotPtr(n int) *model.SlotNumber {
	s := model.SlotNumber(n)
	return &s
}
