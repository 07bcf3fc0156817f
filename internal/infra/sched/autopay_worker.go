package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-ledger/internal/usecase"
)

// AutoPayWorker periodically charges active autopay subscriptions whose due
// date has passed, via the subscription use case.
type AutoPayWorker struct {
	interval time.Duration
	subUC    *usecase.SubscriptionUseCase
	log      *zerolog.Logger
}

func NewAutoPayWorker(interval time.Duration, subUC *usecase.SubscriptionUseCase, logger *zerolog.Logger) *AutoPayWorker {
	l := logger.With().Str("component", "AutoPayWorker").Logger()
	return &AutoPayWorker{interval: interval, subUC: subUC, log: &l}
}

func (w *AutoPayWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting autopay worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping autopay worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.subUC.ProcessDueAutoPay(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("autopay sweep failed")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("autopay payments processed")
			}
		}
	}
}
