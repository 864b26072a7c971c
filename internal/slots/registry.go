// Package slots keeps per-device occupancy of the 100 addressable message slots.
//
// Each device owns an independent table; nothing is shared between devices.
// Calls for one device are serialized by that device's mutex.
package slots

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// ReserveRequest describes the slot a submission wants.
type ReserveRequest struct {
	// Requested is nil for auto-assignment.
	Requested *model.SlotNumber
	Urgent    bool
	// Overwrite confirms replacing an occupied, explicitly requested slot.
	Overwrite bool
}

// Reservation is a slot held for a submission until it is committed or cancelled.
type Reservation struct {
	DeviceID string
	Number   model.SlotNumber
	// Conflict is true when the slot was occupied at reservation time.
	Conflict bool
	// Forced marks the auto-assign fallback when the whole range is busy.
	Forced bool
}

type slotState struct {
	active    bool
	reserved  int
	ref       string
	updatedAt time.Time
}

type deviceTable struct {
	mu    sync.Mutex
	slots map[model.SlotNumber]*slotState
}

func (t *deviceTable) get(n model.SlotNumber) *slotState {
	s, ok := t.slots[n]
	if !ok {
		s = &slotState{}
		t.slots[n] = s
	}
	return s
}

func (t *deviceTable) busy(n model.SlotNumber) bool {
	s, ok := t.slots[n]
	return ok && (s.active || s.reserved > 0)
}

// Registry is the in-memory slot bookkeeping for all devices.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*deviceTable
	now     func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*deviceTable),
		now:     time.Now,
	}
}

func (r *Registry) table(deviceID string) *deviceTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.devices[deviceID]
	if !ok {
		t = &deviceTable{slots: make(map[model.SlotNumber]*slotState)}
		r.devices[deviceID] = t
	}
	return t
}

// lookup returns the table of deviceID without creating it.
func (r *Registry) lookup(deviceID string) (*deviceTable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.devices[deviceID]
	return t, ok
}

// ActiveSlots returns the active slot numbers of deviceID in ascending order.
func (r *Registry) ActiveSlots(deviceID string) []model.SlotNumber {
	t, ok := r.lookup(deviceID)
	if !ok {
		return []model.SlotNumber{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.SlotNumber, 0, len(t.slots))
	for n, s := range t.slots {
		if s.active {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Slots returns a snapshot of every slot of deviceID that has ever been touched.
func (r *Registry) Slots(deviceID string) []model.Slot {
	t, ok := r.lookup(deviceID)
	if !ok {
		return []model.Slot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.Slot, 0, len(t.slots))
	for n, s := range t.slots {
		out = append(out, model.Slot{
			DeviceID:       deviceID,
			Number:         n,
			Active:         s.active,
			Reserved:       s.reserved,
			LastMessageRef: s.ref,
			UpdatedAt:      s.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Reserve picks the slot a submission will occupy and holds it until Commit or Cancel.
//
// An explicitly requested slot that is busy yields Conflict and ErrSlotConflict
// unless Overwrite is set; nothing is held in that case. Auto-assignment takes the
// lowest free slot of the range, or the first slot of the range as a forced
// overwrite when every slot is busy.
func (r *Registry) Reserve(deviceID string, req ReserveRequest) (Reservation, error) {
	if deviceID == "" {
		return Reservation{}, ErrEmptyDeviceID
	}
	if req.Requested != nil {
		if err := Validate(*req.Requested, req.Urgent); err != nil {
			return Reservation{}, err
		}
	}

	t := r.table(deviceID)
	t.mu.Lock()
	defer t.mu.Unlock()

	res := Reservation{DeviceID: deviceID}
	if req.Requested != nil {
		res.Number = *req.Requested
		res.Conflict = t.busy(res.Number)
		if res.Conflict && !req.Overwrite {
			return res, ErrSlotConflict
		}
	} else {
		rng := RangeFor(req.Urgent)
		res.Number = rng.First
		res.Conflict, res.Forced = true, true
		for n := rng.First; n <= rng.Last; n++ {
			if !t.busy(n) {
				res.Number = n
				res.Conflict, res.Forced = false, false
				break
			}
		}
	}

	s := t.get(res.Number)
	s.reserved++
	s.updatedAt = r.now()

	log.Debug().
		Str("device_id", deviceID).
		Int("slot", int(res.Number)).
		Bool("conflict", res.Conflict).
		Bool("forced", res.Forced).
		Msg("slot reserved")
	return res, nil
}

// Cancel drops one pending reservation of the slot. It is a no-op when none is held.
func (r *Registry) Cancel(deviceID string, n model.SlotNumber) {
	t, ok := r.lookup(deviceID)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.slots[n]; ok && s.reserved > 0 {
		s.reserved--
		s.updatedAt = r.now()
	}
}

// Commit marks the slot active with messageRef as its only associated message.
// It returns the message ref that was displaced, which the caller archives.
// A pending reservation of the slot, if any, is consumed.
func (r *Registry) Commit(deviceID string, n model.SlotNumber, messageRef string) ([]string, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	if !FullRange.Contains(n) {
		return nil, Validate(n, false)
	}

	t := r.table(deviceID)
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(n)
	var displaced []string
	if s.active && s.ref != "" && s.ref != messageRef {
		displaced = []string{s.ref}
	}
	s.active = true
	s.ref = messageRef
	if s.reserved > 0 {
		s.reserved--
	}
	s.updatedAt = r.now()

	log.Debug().Str("device_id", deviceID).Int("slot", int(n)).Str("message_id", messageRef).Msg("slot committed")
	return displaced, nil
}

// Release marks the slot inactive and returns the message ref that was associated
// with it. Releasing an inactive slot does nothing.
func (r *Registry) Release(deviceID string, n model.SlotNumber) ([]string, error) {
	if !FullRange.Contains(n) {
		return nil, Validate(n, false)
	}

	t, ok := r.lookup(deviceID)
	if !ok {
		return nil, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[n]
	if !ok || !s.active {
		return nil, nil
	}
	s.active = false
	s.updatedAt = r.now()

	var released []string
	if s.ref != "" {
		released = []string{s.ref}
	}
	log.Debug().Str("device_id", deviceID).Int("slot", int(n)).Msg("slot released")
	return released, nil
}

// Restore sets the slot back to a previously committed state without touching
// reservations. It is used to undo an optimistic commit and to rebuild state
// from history at startup.
func (r *Registry) Restore(deviceID string, n model.SlotNumber, active bool, messageRef string) {
	t := r.table(deviceID)
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(n)
	s.active = active
	s.ref = messageRef
	s.updatedAt = r.now()
}

// RestoreIf is Restore guarded by the current occupant: it only applies while
// the slot is active with expectRef. It reports whether the slot was restored.
func (r *Registry) RestoreIf(deviceID string, n model.SlotNumber, expectRef string, active bool, messageRef string) bool {
	t, ok := r.lookup(deviceID)
	if !ok {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[n]
	if !ok || !s.active || s.ref != expectRef {
		return false
	}
	s.active = active
	s.ref = messageRef
	s.updatedAt = r.now()
	return true
}

// Occupant returns the message associated with an active slot.
func (r *Registry) Occupant(deviceID string, n model.SlotNumber) (string, bool) {
	t, ok := r.lookup(deviceID)
	if !ok {
		return "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[n]
	if !ok || !s.active {
		return "", false
	}
	return s.ref, true
}

// Slot returns the current record of one slot.
func (r *Registry) Slot(deviceID string, n model.SlotNumber) model.Slot {
	out := model.Slot{DeviceID: deviceID, Number: n}
	t, ok := r.lookup(deviceID)
	if !ok {
		return out
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.slots[n]; ok {
		out.Active = s.active
		out.Reserved = s.reserved
		out.LastMessageRef = s.ref
		out.UpdatedAt = s.updatedAt
	}
	return out
}
