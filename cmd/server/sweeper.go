package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
)

// runExpirySweeper releases slots of scheduled messages whose window closed,
// every interval until ctx is done.
func runExpirySweeper(ctx context.Context, composer *compose.Composer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := composer.ExpireDue(ctx, now); err != nil {
				log.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}
