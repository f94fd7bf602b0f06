package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"circles-platform/internal/usecase"
)

// RescueSweeper periodically expires rescue offers whose deadline has passed.
// It is the in-process counterpart of the scheduled cleanup endpoint; both
// call the same sweep, which is safe to run repeatedly and concurrently.
type RescueSweeper struct {
	interval   time.Duration
	transferUC *usecase.TransferUseCase
	log        *zerolog.Logger
}

func NewRescueSweeper(interval time.Duration, transferUC *usecase.TransferUseCase, logger *zerolog.Logger) *RescueSweeper {
	l := logger.With().Str("component", "RescueSweeper").Logger()
	return &RescueSweeper{
		interval:   interval,
		transferUC: transferUC,
		log:        &l,
	}
}

func (w *RescueSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting rescue sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping rescue sweeper")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.transferUC.ExpireSweep(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("rescue sweep error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("rescue offers expired")
			}
		}
	}
}
