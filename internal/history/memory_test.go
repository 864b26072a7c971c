package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func message(id, deviceID string, offset time.Duration, status model.MessageStatus) model.Message {
	return model.Message{
		ID:         id,
		DeviceID:   deviceID,
		Content:    "hello " + id,
		Status:     status,
		RoomNumber: 6,
		CreatedAt:  epoch.Add(offset),
		UpdatedAt:  epoch.Add(offset),
	}
}

func TestMemoryListByDeviceIsScopedAndNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, message("a", "dev-1", 0, model.StatusActive)))
	require.NoError(t, m.Save(ctx, message("b", "dev-1", time.Minute, model.StatusPending)))
	require.NoError(t, m.Save(ctx, message("c", "dev-2", 2*time.Minute, model.StatusActive)))

	got, err := m.ListByDevice(ctx, "dev-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	none, err := m.ListByDevice(ctx, "dev-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryUpdateStatusArchivesOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, message("a", "dev-1", 0, model.StatusActive)))

	first := epoch.Add(time.Hour)
	require.NoError(t, m.UpdateStatus(ctx, "a", model.StatusArchived, first))
	require.NoError(t, m.UpdateStatus(ctx, "a", model.StatusArchived, first.Add(time.Hour)))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, got.Status)
	require.NotNil(t, got.ArchivedAt)
	assert.True(t, got.ArchivedAt.Equal(first))
	assert.Equal(t, "hello a", got.Content)
}

func TestMemoryUnknownIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.UpdateStatus(ctx, "missing", model.StatusFailed, epoch), ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "missing"), ErrNotFound)
}

func TestMemoryListActiveAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, message("a", "dev-1", time.Minute, model.StatusActive)))
	require.NoError(t, m.Save(ctx, message("b", "dev-2", 0, model.StatusActive)))
	require.NoError(t, m.Save(ctx, message("c", "dev-1", 0, model.StatusArchived)))

	active, err := m.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "b", active[0].ID)
	assert.Equal(t, "a", active[1].ID)

	require.NoError(t, m.Delete(ctx, "c"))
	_, err = m.Get(ctx, "c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRecordsEventsInOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Record(ctx, model.Event{Type: model.EventCreated, MessageID: "a", DeviceID: "dev-1"}))
	require.NoError(t, m.Record(ctx, model.Event{Type: model.EventSent, MessageID: "a", DeviceID: "dev-1"}))
	require.NoError(t, m.Record(ctx, model.Event{Type: model.EventCreated, MessageID: "b", DeviceID: "dev-2"}))

	evs := m.Events("dev-1")
	require.Len(t, evs, 2)
	assert.Equal(t, model.EventCreated, evs[0].Type)
	assert.Equal(t, model.EventSent, evs[1].Type)
}
