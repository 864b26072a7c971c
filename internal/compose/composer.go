// Package compose turns submissions into slot-bound artifacts and drives their
// delivery, commit and lifecycle bookkeeping.
package compose

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/devices"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/playback"
	"github.com/Nixie-Tech-LLC/marquee/internal/raster"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
)

// CommitMode decides when a slot becomes active relative to delivery.
type CommitMode string

const (
	// CommitConfirmed commits only after the transport accepted the artifact.
	CommitConfirmed CommitMode = "confirmed"
	// CommitOptimistic commits before delivery and rolls back on failure.
	CommitOptimistic CommitMode = "optimistic"
)

// ParseCommitMode accepts "confirmed", "optimistic" or empty (confirmed).
func ParseCommitMode(s string) (CommitMode, error) {
	switch CommitMode(s) {
	case "", CommitConfirmed:
		return CommitConfirmed, nil
	case CommitOptimistic:
		return CommitOptimistic, nil
	}
	return "", fmt.Errorf("unknown commit mode %q", s)
}

// Options wires a Composer. Registry, Rasterizer, Directory, History and
// Transport are required.
type Options struct {
	Registry   *slots.Registry
	Rasterizer *raster.Rasterizer
	Directory  Directory
	History    History
	Transport  Transport

	// Events receives lifecycle events; nil drops them.
	Events EventSink
	// Board mirrors device playback per slot; nil disables it.
	Board *playback.Board
	// Artifacts stores rendered PNGs; nil disables it.
	Artifacts ArtifactStore

	Mode              CommitMode
	MaxContentLength  int
	DefaultResolution model.Resolution

	Now   func() time.Time
	NewID func() string
}

// Composer orchestrates the registry, rasterizer and collaborators.
type Composer struct {
	opts Options
}

// New validates opts and fills defaults.
func New(opts Options) (*Composer, error) {
	switch {
	case opts.Registry == nil:
		return nil, errors.New("compose: registry is required")
	case opts.Rasterizer == nil:
		return nil, errors.New("compose: rasterizer is required")
	case opts.Directory == nil:
		return nil, errors.New("compose: directory is required")
	case opts.History == nil:
		return nil, errors.New("compose: history is required")
	case opts.Transport == nil:
		return nil, errors.New("compose: transport is required")
	}
	if opts.Mode == "" {
		opts.Mode = CommitConfirmed
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = DefaultMaxContentLength
	}
	if !opts.DefaultResolution.Valid() {
		opts.DefaultResolution = model.DefaultResolution()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Composer{opts: opts}, nil
}

// Mode returns the configured commit mode.
func (c *Composer) Mode() CommitMode { return c.opts.Mode }

func (c *Composer) emit(ctx context.Context, typ model.EventType, msgID, deviceID string, slot model.SlotNumber) {
	if c.opts.Events == nil {
		return
	}
	ev := model.Event{Type: typ, MessageID: msgID, DeviceID: deviceID, Slot: slot, At: c.opts.Now()}
	if err := c.opts.Events.Record(ctx, ev); err != nil {
		log.Warn().Err(err).Str("type", string(typ)).Str("message_id", msgID).Msg("failed to record lifecycle event")
	}
}

func (c *Composer) setStatus(ctx context.Context, id string, status model.MessageStatus) {
	if err := c.opts.History.UpdateStatus(ctx, id, status, c.opts.Now()); err != nil {
		log.Error().Err(err).Str("message_id", id).Str("status", string(status)).Msg("failed to update message status")
	}
}

// resolve returns the device resolution, falling back to the default with a
// warning when the device is unknown or has no usable resolution.
func (c *Composer) resolve(ctx context.Context, deviceID string) (model.Resolution, []string, error) {
	dev, err := c.opts.Directory.Lookup(ctx, deviceID)
	if errors.Is(err, devices.ErrUnknownDevice) {
		log.Warn().Str("device_id", deviceID).Msg("unknown device, using default resolution")
		res := c.opts.DefaultResolution
		return res, []string{fmt.Sprintf("unknown device %q, rendered at default %dx%d", deviceID, res.Width, res.Height)}, nil
	}
	if err != nil {
		return model.Resolution{}, nil, fmt.Errorf("resolve device %s: %w", deviceID, err)
	}
	if !dev.Resolution.Valid() {
		log.Warn().Str("device_id", deviceID).Int("width", dev.Resolution.Width).Int("height", dev.Resolution.Height).Msg("device has invalid resolution, using default")
		res := c.opts.DefaultResolution
		return res, []string{fmt.Sprintf("device %q has invalid resolution, rendered at default %dx%d", deviceID, res.Width, res.Height)}, nil
	}
	return dev.Resolution, nil, nil
}

// Compose validates a submission, reserves its slot and renders it. The
// returned artifact holds the reservation until Send or Discard.
func (c *Composer) Compose(ctx context.Context, sub Submission) (*Artifact, error) {
	sub, err := validate(sub, c.opts.MaxContentLength)
	if err != nil {
		return nil, err
	}

	res, warnings, err := c.resolve(ctx, sub.DeviceID)
	if err != nil {
		return nil, err
	}

	rsv, err := c.opts.Registry.Reserve(sub.DeviceID, slots.ReserveRequest{
		Requested: sub.RoomNumber,
		Urgent:    sub.Urgent,
		Overwrite: sub.Confirm,
	})
	if errors.Is(err, slots.ErrSlotConflict) {
		return nil, &ConflictError{DeviceID: sub.DeviceID, Slot: rsv.Number}
	}
	if err != nil {
		return nil, err
	}
	if rsv.Forced {
		warnings = append(warnings, fmt.Sprintf("all slots busy, overwriting slot %d", rsv.Number))
	}

	bmp, layout, err := c.opts.Rasterizer.Render(sub.Content, sub.DisplayOptions, res)
	if err != nil {
		c.opts.Registry.Cancel(sub.DeviceID, rsv.Number)
		return nil, fmt.Errorf("render: %w", err)
	}

	now := c.opts.Now()
	msg := model.Message{
		ID:             c.opts.NewID(),
		DeviceID:       sub.DeviceID,
		Content:        sub.Content,
		Status:         model.StatusPending,
		Priority:       sub.Priority,
		Urgent:         sub.Urgent,
		RoomNumber:     rsv.Number,
		DisplayOptions: sub.DisplayOptions,
		Schedule:       sub.Schedule,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.opts.History.Save(ctx, msg); err != nil {
		c.opts.Registry.Cancel(sub.DeviceID, rsv.Number)
		return nil, fmt.Errorf("save message: %w", err)
	}

	a := &Artifact{
		MessageID: msg.ID,
		DeviceID:  sub.DeviceID,
		Slot:      rsv.Number,
		Bitmap:    bmp,
		Layout:    layout,
		Effects:   effectMetadata(sub.DisplayOptions, sub.Schedule),
		Conflict:  rsv.Conflict,
		Forced:    rsv.Forced,
		Warnings:  warnings,
		message:   msg,
	}
	c.storeImage(ctx, a)

	c.emit(ctx, model.EventCreated, msg.ID, msg.DeviceID, msg.RoomNumber)
	log.Info().
		Str("message_id", msg.ID).
		Str("device_id", msg.DeviceID).
		Int("slot", int(rsv.Number)).
		Bool("conflict", rsv.Conflict).
		Msg("message composed")
	return a, nil
}

func (c *Composer) storeImage(ctx context.Context, a *Artifact) {
	if c.opts.Artifacts == nil {
		return
	}
	png, err := a.PNG()
	if err == nil {
		a.ImageURL, err = c.opts.Artifacts.SaveArtifact(ctx, path.Join(a.DeviceID, a.MessageID+".png"), png)
	}
	if err != nil {
		log.Warn().Err(err).Str("message_id", a.MessageID).Msg("failed to store rendered artifact")
		a.Warnings = append(a.Warnings, "rendered image was not stored")
	}
}

// Send delivers an artifact and commits its slot according to the commit mode.
// On failure the slot is left as it was before the submission.
func (c *Composer) Send(ctx context.Context, a *Artifact) error {
	if !a.settle() {
		return ErrSettled
	}
	c.setStatus(ctx, a.MessageID, model.StatusSending)

	var displaced []string
	if c.opts.Mode == CommitOptimistic {
		prior := c.opts.Registry.Slot(a.DeviceID, a.Slot)
		var err error
		if displaced, err = c.opts.Registry.Commit(a.DeviceID, a.Slot, a.MessageID); err != nil {
			c.opts.Registry.Cancel(a.DeviceID, a.Slot)
			return c.failed(ctx, a, err)
		}
		if err := c.opts.Transport.Deliver(ctx, a); err != nil {
			// A later commit of the slot wins over this rollback.
			if !c.opts.Registry.RestoreIf(a.DeviceID, a.Slot, a.MessageID, prior.Active, prior.LastMessageRef) {
				log.Warn().Str("message_id", a.MessageID).Int("slot", int(a.Slot)).Msg("slot was recommitted during delivery, rollback skipped")
			}
			return c.failed(ctx, a, fmt.Errorf("%w: %w", ErrDeliveryFailed, err))
		}
	} else {
		if err := c.opts.Transport.Deliver(ctx, a); err != nil {
			c.opts.Registry.Cancel(a.DeviceID, a.Slot)
			return c.failed(ctx, a, fmt.Errorf("%w: %w", ErrDeliveryFailed, err))
		}
		var err error
		if displaced, err = c.opts.Registry.Commit(a.DeviceID, a.Slot, a.MessageID); err != nil {
			c.opts.Registry.Cancel(a.DeviceID, a.Slot)
			return c.failed(ctx, a, err)
		}
	}

	c.setStatus(ctx, a.MessageID, model.StatusActive)
	c.emit(ctx, model.EventSent, a.MessageID, a.DeviceID, a.Slot)
	c.archive(ctx, a.DeviceID, a.Slot, displaced)

	if c.opts.Board != nil {
		c.opts.Board.Start(a.DeviceID, a.Slot, playback.PlanFromOptions(a.message.DisplayOptions, a.message.Schedule))
	}
	log.Info().Str("message_id", a.MessageID).Str("device_id", a.DeviceID).Int("slot", int(a.Slot)).Msg("message sent")
	return nil
}

func (c *Composer) failed(ctx context.Context, a *Artifact, err error) error {
	log.Error().Err(err).Str("message_id", a.MessageID).Str("device_id", a.DeviceID).Int("slot", int(a.Slot)).Msg("failed to send message")
	c.setStatus(ctx, a.MessageID, model.StatusFailed)
	c.emit(ctx, model.EventFailed, a.MessageID, a.DeviceID, a.Slot)
	return err
}

func (c *Composer) archive(ctx context.Context, deviceID string, slot model.SlotNumber, ids []string) {
	for _, id := range ids {
		c.setStatus(ctx, id, model.StatusArchived)
		c.emit(ctx, model.EventArchived, id, deviceID, slot)
	}
}

// Submit composes and sends in one step.
func (c *Composer) Submit(ctx context.Context, sub Submission) (*Artifact, error) {
	a, err := c.Compose(ctx, sub)
	if err != nil {
		return nil, err
	}
	if err := c.Send(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

// Discard abandons an unsent artifact and frees its reservation.
func (c *Composer) Discard(ctx context.Context, a *Artifact) error {
	if !a.settle() {
		return ErrSettled
	}
	c.opts.Registry.Cancel(a.DeviceID, a.Slot)
	c.setStatus(ctx, a.MessageID, model.StatusCancelled)
	c.emit(ctx, model.EventCancelled, a.MessageID, a.DeviceID, a.Slot)
	return nil
}

// Release deactivates a slot and archives the message it held. Releasing an
// inactive slot is a no-op.
func (c *Composer) Release(ctx context.Context, deviceID string, n model.SlotNumber) ([]string, error) {
	released, err := c.opts.Registry.Release(deviceID, n)
	if err != nil {
		return nil, err
	}
	c.archive(ctx, deviceID, n, released)
	if len(released) > 0 {
		c.stopped(ctx, deviceID, n)
	}
	return released, nil
}

// stopped stops playback of a released slot and blanks it on the device.
func (c *Composer) stopped(ctx context.Context, deviceID string, n model.SlotNumber) {
	if c.opts.Board != nil {
		c.opts.Board.Stop(deviceID, n)
	}
	if cl, ok := c.opts.Transport.(Clearer); ok {
		if err := cl.Clear(ctx, deviceID, n); err != nil {
			log.Warn().Err(err).Str("device_id", deviceID).Int("slot", int(n)).Msg("failed to clear released slot")
		}
	}
}

// DeleteFromHistory permanently removes a message that no longer occupies a slot.
func (c *Composer) DeleteFromHistory(ctx context.Context, id string) error {
	msg, err := c.opts.History.Get(ctx, id)
	if err != nil {
		return err
	}
	if ref, ok := c.opts.Registry.Occupant(msg.DeviceID, msg.RoomNumber); ok && ref == id {
		return ErrMessageActive
	}
	if err := c.opts.History.Delete(ctx, id); err != nil {
		return err
	}
	c.emit(ctx, model.EventDeleted, id, msg.DeviceID, msg.RoomNumber)
	return nil
}

// ExpireDue releases the slots of active messages whose schedule ended before
// now. It returns the expired message ids.
func (c *Composer) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	active, err := c.opts.History.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	var expired []string
	for _, msg := range active {
		if !msg.Schedule.Ended(now) {
			continue
		}
		if ref, ok := c.opts.Registry.Occupant(msg.DeviceID, msg.RoomNumber); ok && ref == msg.ID {
			if _, err := c.opts.Registry.Release(msg.DeviceID, msg.RoomNumber); err != nil {
				log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to release expired slot")
				continue
			}
			c.stopped(ctx, msg.DeviceID, msg.RoomNumber)
		}
		c.setStatus(ctx, msg.ID, model.StatusExpired)
		c.emit(ctx, model.EventExpired, msg.ID, msg.DeviceID, msg.RoomNumber)
		expired = append(expired, msg.ID)
	}
	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("expired scheduled messages")
	}
	return expired, nil
}

// Restore rebuilds slot occupancy from the active messages in history and
// returns the number of occupied slots. When two active messages claim one
// slot the newer wins and the older is archived.
func (c *Composer) Restore(ctx context.Context) (int, error) {
	active, err := c.opts.History.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, msg := range active {
		if !slots.FullRange.Contains(msg.RoomNumber) {
			log.Warn().Str("message_id", msg.ID).Int("slot", int(msg.RoomNumber)).Msg("skipping active message with invalid slot")
			continue
		}
		if prev, ok := c.opts.Registry.Occupant(msg.DeviceID, msg.RoomNumber); ok {
			c.archive(ctx, msg.DeviceID, msg.RoomNumber, []string{prev})
		} else {
			restored++
		}
		c.opts.Registry.Restore(msg.DeviceID, msg.RoomNumber, true, msg.ID)
	}
	log.Info().Int("count", restored).Msg("restored slot occupancy from history")
	return restored, nil
}

// ActiveSlots lists the active slots of a device in ascending order.
func (c *Composer) ActiveSlots(deviceID string) []model.SlotNumber {
	return c.opts.Registry.ActiveSlots(deviceID)
}

// Slots returns the registry snapshot of a device.
func (c *Composer) Slots(deviceID string) []model.Slot {
	return c.opts.Registry.Slots(deviceID)
}

// History lists a device's messages, newest first.
func (c *Composer) History(ctx context.Context, deviceID string) ([]model.Message, error) {
	return c.opts.History.ListByDevice(ctx, deviceID)
}

// Playback reports the mirrored playback of a slot.
func (c *Composer) Playback(deviceID string, n model.SlotNumber) (playback.Status, bool) {
	if c.opts.Board == nil {
		return playback.Status{}, false
	}
	return c.opts.Board.Status(deviceID, n)
}

// Preview renders content at the reference frame of the device without
// touching any slot or history.
func (c *Composer) Preview(ctx context.Context, deviceID, content string, opts model.DisplayOptions) (raster.Bitmap, raster.Layout, []string, error) {
	if err := validateContent(content, c.opts.MaxContentLength); err != nil {
		return raster.Bitmap{}, raster.Layout{}, nil, err
	}
	opts = opts.WithDefaults()
	if err := ValidateOptions(opts); err != nil {
		return raster.Bitmap{}, raster.Layout{}, nil, err
	}
	res := c.opts.DefaultResolution
	var warnings []string
	if deviceID != "" {
		var err error
		if res, warnings, err = c.resolve(ctx, deviceID); err != nil {
			return raster.Bitmap{}, raster.Layout{}, nil, err
		}
	}
	bmp, layout, err := c.opts.Rasterizer.RenderPreview(content, opts, res)
	return bmp, layout, warnings, err
}
