// Package history persists messages and their lifecycle events.
package history

import (
	"errors"
	"time"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// ErrNotFound is returned for an unknown message id.
var ErrNotFound = errors.New("message not found")

// applyStatus is the only mutation history allows on a stored message.
func applyStatus(msg *model.Message, status model.MessageStatus, at time.Time) {
	msg.Status = status
	msg.UpdatedAt = at
	if status == model.StatusArchived && msg.ArchivedAt == nil {
		t := at
		msg.ArchivedAt = &t
	}
}
