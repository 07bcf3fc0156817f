package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"subscription-ledger/internal/infra/db/memory"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// fakeClock is a controllable time source shared by every use case in a test
// environment, so expiry and due-date logic can be driven deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// testEnv wires the full use case stack over the in-memory backend.
type testEnv struct {
	clock      *fakeClock
	registryUC *RegistryUseCase
	planUC     *PlanUseCase
	intentUC   *IntentUseCase
	subUC      *SubscriptionUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	tm := memory.NewTxManager(store)
	registryRepo := memory.NewRegistryRepo(store)
	planRepo := memory.NewPlanRepo(store)
	intentRepo := memory.NewIntentRepo(store)
	subRepo := memory.NewSubscriptionRepo(store)
	payRepo := memory.NewPaymentRepo(store)

	logger := newTestLogger()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	registryUC := NewRegistryUseCase(registryRepo, tm, logger)
	registryUC.now = clock.Now
	planUC := NewPlanUseCase(registryRepo, planRepo, tm, logger)
	planUC.now = clock.Now
	intentUC := NewIntentUseCase(registryRepo, planRepo, intentRepo, subRepo, tm, logger)
	intentUC.now = clock.Now
	subUC := NewSubscriptionUseCase(registryRepo, planRepo, subRepo, payRepo, tm, logger)
	subUC.now = clock.Now

	return &testEnv{
		clock:      clock,
		registryUC: registryUC,
		planUC:     planUC,
		intentUC:   intentUC,
		subUC:      subUC,
	}
}

const testAuthority = "authority-1"

// initRegistry initializes the singleton so the other use cases can run.
func (e *testEnv) initRegistry(t *testing.T) {
	t.Helper()
	if _, err := e.registryUC.Initialize(context.Background(), testAuthority); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
}

// createPlan seeds a plan with sensible defaults and returns its ID.
func (e *testEnv) createPlan(t *testing.T, id string, price int64, periodSeconds int64, maxSubs uint32) {
	t.Helper()
	_, err := e.planUC.Create(context.Background(), testAuthority, CreateInput{
		PlanID:         id,
		Name:           "Plan " + id,
		Description:    "test plan",
		PricePerPeriod: price,
		PeriodSeconds:  periodSeconds,
		MaxSubscribers: maxSubs,
	})
	if err != nil {
		t.Fatalf("create plan %s: %v", id, err)
	}
}
