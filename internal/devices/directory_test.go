package devices

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

var panel = model.Device{
	DeviceID:   "lobby",
	Name:       "Lobby",
	Resolution: model.Resolution{Width: 1920, Height: 1080},
}

func TestStaticLookup(t *testing.T) {
	dir := NewStatic(panel)

	got, err := dir.Lookup(context.Background(), "lobby")
	require.NoError(t, err)
	assert.Equal(t, panel, got)

	_, err = dir.Lookup(context.Background(), "attic")
	assert.ErrorIs(t, err, ErrUnknownDevice)

	require.NoError(t, dir.Upsert(context.Background(), model.Device{DeviceID: "attic", Resolution: model.Resolution{Width: 64, Height: 32}}))
	all, err := dir.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "attic", all[0].DeviceID)
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Postgres) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewPostgres(sqlx.NewDb(db, "postgres"))
}

func TestPostgresLookup(t *testing.T) {
	db, mock, dir := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT device_id, name, width, height`).
		WithArgs("lobby").
		WillReturnRows(sqlmock.NewRows([]string{"device_id", "name", "width", "height"}).
			AddRow("lobby", "Lobby", 1920, 1080))

	got, err := dir.Lookup(context.Background(), "lobby")
	require.NoError(t, err)
	assert.Equal(t, panel, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLookupUnknown(t *testing.T) {
	db, mock, dir := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT device_id, name, width, height`).
		WithArgs("attic").
		WillReturnRows(sqlmock.NewRows([]string{"device_id", "name", "width", "height"}))

	_, err := dir.Lookup(context.Background(), "attic")
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresList(t *testing.T) {
	db, mock, dir := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`ORDER BY device_id`).
		WillReturnRows(sqlmock.NewRows([]string{"device_id", "name", "width", "height"}).
			AddRow("hall", "", 64, 32).
			AddRow("lobby", "Lobby", 1920, 1080))

	all, err := dir.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, panel, all[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert(t *testing.T) {
	db, mock, dir := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO devices`).
		WithArgs("lobby", "Lobby", 1920, 1080).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, dir.Upsert(context.Background(), panel))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedReadsThrough(t *testing.T) {
	kv := newFakeKV()
	next := &countingDirectory{Directory: NewStatic(panel)}
	dir := NewCached(next, kv, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := dir.Lookup(context.Background(), "lobby")
		require.NoError(t, err)
		assert.Equal(t, panel, got)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Minute, kv.ttls["marquee:device:lobby"])
}

func TestCachedDoesNotCacheUnknown(t *testing.T) {
	kv := newFakeKV()
	dir := NewCached(NewStatic(), kv, time.Minute)

	_, err := dir.Lookup(context.Background(), "attic")
	assert.ErrorIs(t, err, ErrUnknownDevice)
	assert.Empty(t, kv.setKeys)
}

func TestCachedSurvivesCacheOutage(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errKVDown
	kv.setErr = errKVDown
	next := &countingDirectory{Directory: NewStatic(panel)}
	dir := NewCached(next, kv, time.Minute)

	got, err := dir.Lookup(context.Background(), "lobby")
	require.NoError(t, err)
	assert.Equal(t, panel, got)
	assert.Equal(t, 1, next.calls)
}

func TestCachedIgnoresMalformedEntry(t *testing.T) {
	kv := newFakeKV()
	kv.values["marquee:device:lobby"] = "{not json"
	dir := NewCached(NewStatic(panel), kv, time.Minute)

	got, err := dir.Lookup(context.Background(), "lobby")
	require.NoError(t, err)
	assert.Equal(t, panel, got)
	assert.Contains(t, kv.values["marquee:device:lobby"], `"device_id":"lobby"`)
}

func TestCachedUpsertRefreshesEntry(t *testing.T) {
	kv := newFakeKV()
	next := &countingDirectory{Directory: NewStatic(panel)}
	dir := NewCached(NewStatic(panel), kv, time.Minute)

	_, err := dir.Lookup(context.Background(), "lobby")
	require.NoError(t, err)

	bigger := panel
	bigger.Resolution = model.Resolution{Width: 3840, Height: 2160}
	require.NoError(t, dir.Upsert(context.Background(), bigger))

	got, err := dir.Lookup(context.Background(), "lobby")
	require.NoError(t, err)
	assert.Equal(t, bigger, got)

	readOnly := NewCached(next, kv, time.Minute)
	assert.ErrorIs(t, readOnly.Upsert(context.Background(), panel), ErrReadOnly)
}
