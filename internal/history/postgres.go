package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Postgres stores history in the messages and message_events tables.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

const messageColumns = `id, device_id, content, status, priority, urgent, room_number,
		display_options, schedule, created_at, updated_at, archived_at`

type messageRow struct {
	model.Message
	DisplayOptions types.JSONText `db:"display_options"`
	Schedule       types.JSONText `db:"schedule"`
}

func (r messageRow) toModel() (model.Message, error) {
	msg := r.Message
	if len(r.DisplayOptions) > 0 {
		if err := r.DisplayOptions.Unmarshal(&msg.DisplayOptions); err != nil {
			return model.Message{}, fmt.Errorf("decode display_options of %s: %w", r.ID, err)
		}
	}
	if len(r.Schedule) > 0 {
		if err := r.Schedule.Unmarshal(&msg.Schedule); err != nil {
			return model.Message{}, fmt.Errorf("decode schedule of %s: %w", r.ID, err)
		}
	}
	return msg, nil
}

func (p *Postgres) Save(ctx context.Context, msg model.Message) error {
	opts, err := json.Marshal(msg.DisplayOptions)
	if err != nil {
		return err
	}
	sched, err := json.Marshal(msg.Schedule)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at,
		archived_at = EXCLUDED.archived_at
		`,
		msg.ID, msg.DeviceID, msg.Content, msg.Status, msg.Priority, msg.Urgent, int(msg.RoomNumber),
		types.JSONText(opts), types.JSONText(sched), msg.CreatedAt, msg.UpdatedAt, msg.ArchivedAt)
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to save message")
	}
	return err
}

func (p *Postgres) UpdateStatus(ctx context.Context, id string, status model.MessageStatus, at time.Time) error {
	var archivedAt *time.Time
	if status == model.StatusArchived {
		archivedAt = &at
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE messages
		SET status = $2, updated_at = $3, archived_at = COALESCE(archived_at, $4)
		WHERE id = $1
		`, id, status, at, archivedAt)
	if err != nil {
		log.Error().Err(err).Str("message_id", id).Str("status", string(status)).Msg("failed to update message status")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (model.Message, error) {
	var row messageRow
	err := p.db.GetContext(ctx, &row, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("message_id", id).Msg("failed to get message")
		return model.Message{}, err
	}
	return row.toModel()
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	var rows []messageRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		msg, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// ListByDevice returns the device's messages, newest first.
func (p *Postgres) ListByDevice(ctx context.Context, deviceID string) ([]model.Message, error) {
	out, err := p.list(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE device_id = $1
		ORDER BY created_at DESC, id DESC
		`, deviceID)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("failed to list messages")
	}
	return out, err
}

// ListActive returns every active message, oldest first.
func (p *Postgres) ListActive(ctx context.Context) ([]model.Message, error) {
	out, err := p.list(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE status = $1
		ORDER BY created_at, id
		`, model.StatusActive)
	if err != nil {
		log.Error().Err(err).Msg("failed to list active messages")
	}
	return out, err
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Str("message_id", id).Msg("failed to delete message")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Record appends a lifecycle event.
func (p *Postgres) Record(ctx context.Context, ev model.Event) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO message_events (message_id, device_id, slot, type, at)
		VALUES ($1, $2, $3, $4, $5)
		`, ev.MessageID, ev.DeviceID, int(ev.Slot), ev.Type, ev.At)
	if err != nil {
		log.Error().Err(err).Str("message_id", ev.MessageID).Str("type", string(ev.Type)).Msg("failed to record event")
	}
	return err
}
