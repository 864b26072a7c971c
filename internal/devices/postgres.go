package devices

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Postgres reads devices from the devices table.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type deviceRow struct {
	DeviceID string `db:"device_id"`
	Name     string `db:"name"`
	Width    int    `db:"width"`
	Height   int    `db:"height"`
}

func (r deviceRow) toModel() model.Device {
	return model.Device{
		DeviceID:   r.DeviceID,
		Name:       r.Name,
		Resolution: model.Resolution{Width: r.Width, Height: r.Height},
	}
}

func (p *Postgres) Lookup(ctx context.Context, deviceID string) (model.Device, error) {
	var row deviceRow
	err := p.db.GetContext(ctx, &row, `
		SELECT device_id, name, width, height
		FROM devices
		WHERE device_id = $1
		`, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Device{}, ErrUnknownDevice
	}
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("failed to get device by id")
		return model.Device{}, err
	}
	return row.toModel(), nil
}

// Upsert registers a device or updates its name and resolution.
func (p *Postgres) Upsert(ctx context.Context, dev model.Device) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO devices (device_id, name, width, height, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (device_id) DO UPDATE
		SET name = EXCLUDED.name,
		width = EXCLUDED.width,
		height = EXCLUDED.height,
		updated_at = now()
		`, dev.DeviceID, dev.Name, dev.Resolution.Width, dev.Resolution.Height)
	if err != nil {
		log.Error().Err(err).Str("device_id", dev.DeviceID).Msg("failed to upsert device")
	}
	return err
}

// List returns all devices ordered by id.
func (p *Postgres) List(ctx context.Context) ([]model.Device, error) {
	var rows []deviceRow
	if err := p.db.SelectContext(ctx, &rows, `
		SELECT device_id, name, width, height
		FROM devices
		ORDER BY device_id
		`); err != nil {
		log.Error().Err(err).Msg("failed to list devices")
		return nil, err
	}
	out := make([]model.Device, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
