package compose

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/effects"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/raster"
)

// Submission is a request to show content on a device.
type Submission struct {
	DeviceID string
	Content  string
	Urgent   bool
	Priority int
	// RoomNumber is the requested slot; nil lets the registry pick one.
	RoomNumber *model.SlotNumber
	// Confirm accepts overwriting an occupied, explicitly requested slot.
	Confirm        bool
	DisplayOptions model.DisplayOptions
	Schedule       model.Schedule
}

// EffectMetadata travels with the bitmap so the device can play it.
type EffectMetadata struct {
	EntryCode   effects.EntryCode `json:"entry_code"`
	EntrySpeed  int               `json:"entry_speed"`
	WaitSeconds int               `json:"wait_seconds"`
	HoldSeconds int               `json:"hold_seconds"`
	ExitCode    effects.ExitCode  `json:"exit_code"`
	ExitSpeed   int               `json:"exit_speed"`
	Blink       bool              `json:"blink"`
}

func effectMetadata(opts model.DisplayOptions, schedule model.Schedule) EffectMetadata {
	return EffectMetadata{
		EntryCode:   effects.EntryCode(opts.DisplayEffect),
		EntrySpeed:  opts.DisplayEffectSpeed,
		WaitSeconds: opts.DisplayWaitTimeSeconds,
		HoldSeconds: int(schedule.Hold() / time.Second),
		ExitCode:    effects.ExitCode(opts.EndEffect),
		ExitSpeed:   opts.EndEffectSpeed,
		Blink:       opts.Blink,
	}
}

// Artifact is a composed message bound to a reserved slot, ready for hand-off.
// It is settled exactly once, by Send or Discard.
type Artifact struct {
	MessageID string
	DeviceID  string
	Slot      model.SlotNumber
	Bitmap    raster.Bitmap
	Layout    raster.Layout
	Effects   EffectMetadata
	// Conflict means the slot was occupied when reserved; Forced means the whole
	// range was busy and the first slot was taken without confirmation.
	Conflict bool
	Forced   bool
	Warnings []string
	// ImageURL is set when the rendered PNG was stored.
	ImageURL string

	message model.Message
	settled atomic.Bool
}

// settle marks the artifact settled and reports whether this call did it.
func (a *Artifact) settle() bool { return a.settled.CompareAndSwap(false, true) }

// Message returns the history record the artifact was created with.
func (a *Artifact) Message() model.Message { return a.message }

// PNG encodes the bitmap.
func (a *Artifact) PNG() ([]byte, error) { return a.Bitmap.EncodePNG() }

// Directory resolves device descriptors.
type Directory interface {
	Lookup(ctx context.Context, deviceID string) (model.Device, error)
}

// History persists messages.
type History interface {
	Save(ctx context.Context, msg model.Message) error
	UpdateStatus(ctx context.Context, id string, status model.MessageStatus, at time.Time) error
	Get(ctx context.Context, id string) (model.Message, error)
	ListByDevice(ctx context.Context, deviceID string) ([]model.Message, error)
	ListActive(ctx context.Context) ([]model.Message, error)
	Delete(ctx context.Context, id string) error
}

// Transport hands an artifact to the device.
type Transport interface {
	Deliver(ctx context.Context, a *Artifact) error
}

// Clearer is implemented by transports that can blank a released slot on the device.
type Clearer interface {
	Clear(ctx context.Context, deviceID string, slot model.SlotNumber) error
}

// EventSink receives lifecycle events.
type EventSink interface {
	Record(ctx context.Context, ev model.Event) error
}

// ArtifactStore keeps rendered PNGs.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, name string, png []byte) (string, error)
}
