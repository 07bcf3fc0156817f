package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/infra/metrics"
)

// RegistryUseCase manages the singleton registry: one-time initialization
// and the administrative pause flag.
type RegistryUseCase struct {
	registry repository.RegistryRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
	now      func() time.Time
}

func NewRegistryUseCase(registry repository.RegistryRepository, tm repository.TransactionManager, logger *zerolog.Logger) *RegistryUseCase {
	l := logger.With().Str("component", "RegistryUC").Logger()
	return &RegistryUseCase{registry: registry, tm: tm, log: &l, now: time.Now}
}

// Initialize creates the singleton with zeroed counters. The check is
// idempotent, the application is not: a second call fails with
// ErrAlreadyInitialized and leaves the first registry untouched.
func (uc *RegistryUseCase) Initialize(ctx context.Context, authority string) (*model.Registry, error) {
	reg, err := model.NewRegistry(authority, uc.now())
	if err != nil {
		return nil, err
	}
	err = uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.registry.Create(ctx, tx, reg)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("authority", authority).Msg("registry initialized")
	return reg, nil
}

// SetPaused toggles the system-wide pause flag. Only the registry authority
// may call it; the check deliberately ignores the current pause state so the
// system can always be unpaused.
func (uc *RegistryUseCase) SetPaused(ctx context.Context, caller string, paused bool) (*model.Registry, error) {
	var reg *model.Registry
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		reg, err = uc.registry.Get(ctx, tx)
		if err != nil {
			return err
		}
		if caller != reg.Authority {
			return domain.ErrUnauthorized
		}
		reg.IsPaused = paused
		reg.UpdatedAt = uc.now()
		return uc.registry.Update(ctx, tx, reg)
	})
	if err != nil {
		return nil, err
	}
	metrics.SetPaused(paused)
	uc.log.Info().Bool("paused", paused).Msg("pause flag updated")
	return reg, nil
}

// Get returns the current registry state.
func (uc *RegistryUseCase) Get(ctx context.Context) (*model.Registry, error) {
	return uc.registry.Get(ctx, nil)
}

// requireUnpaused loads the registry inside tx and rejects the operation if
// the pause flag is set. Shared by every mutating use case.
func requireUnpaused(ctx context.Context, tx repository.Tx, registry repository.RegistryRepository) (*model.Registry, error) {
	reg, err := registry.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	if reg.IsPaused {
		return nil, domain.ErrSystemPaused
	}
	return reg, nil
}
