package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/devices"
	"github.com/Nixie-Tech-LLC/marquee/internal/history"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/playback"
	"github.com/Nixie-Tech-LLC/marquee/internal/raster"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
	"github.com/Nixie-Tech-LLC/marquee/internal/transport"
)

func TestExpirySweeperReleasesEndedMessages(t *testing.T) {
	rz, err := raster.New()
	require.NoError(t, err)
	board := playback.NewBoard(nil)
	t.Cleanup(board.StopAll)
	hist := history.NewMemory()

	composer, err := compose.New(compose.Options{
		Registry:   slots.NewRegistry(),
		Rasterizer: rz,
		Directory:  devices.NewStatic(model.Device{DeviceID: "lobby", Resolution: model.Resolution{Width: 640, Height: 360}}),
		History:    hist,
		Transport:  transport.NewLoopback(),
		Board:      board,
	})
	require.NoError(t, err)

	ended := time.Now().Add(-time.Minute)
	a, err := composer.Submit(context.Background(), compose.Submission{
		DeviceID: "lobby",
		Content:  "Lunch is served",
		Schedule: model.Schedule{EndAt: &ended},
	})
	require.NoError(t, err)
	require.Equal(t, []model.SlotNumber{a.Slot}, composer.ActiveSlots("lobby"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runExpirySweeper(ctx, composer, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(composer.ActiveSlots("lobby")) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}

	msg, err := hist.Get(context.Background(), a.MessageID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, msg.Status)
}
