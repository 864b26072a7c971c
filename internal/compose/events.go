package compose

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Sinks fans an event out to several sinks. A failing sink is logged and skipped.
type Sinks []EventSink

func (s Sinks) Record(ctx context.Context, ev model.Event) error {
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, ev); err != nil {
			log.Warn().Err(err).
				Str("type", string(ev.Type)).
				Str("message_id", ev.MessageID).
				Msg("failed to record lifecycle event")
		}
	}
	return nil
}
