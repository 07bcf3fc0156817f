package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-ledger/internal/usecase"
)

// IntentExpiryWorker sweeps payment intents past their deadline and marks
// them expired. Expiry is also applied lazily on read, so this only exists
// to keep the stored state and metrics from drifting on idle intents.
type IntentExpiryWorker struct {
	interval time.Duration
	intentUC *usecase.IntentUseCase
	log      *zerolog.Logger
}

func NewIntentExpiryWorker(interval time.Duration, intentUC *usecase.IntentUseCase, logger *zerolog.Logger) *IntentExpiryWorker {
	l := logger.With().Str("component", "IntentExpiryWorker").Logger()
	return &IntentExpiryWorker{interval: interval, intentUC: intentUC, log: &l}
}

func (w *IntentExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting intent expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping intent expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.intentUC.ExpireDue(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("intent expiry sweep failed")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("payment intents expired")
			}
		}
	}
}
