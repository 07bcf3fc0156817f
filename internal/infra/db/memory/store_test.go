//go:build !integration

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
)

func testPlan(id string) *model.SubscriptionPlan {
	return &model.SubscriptionPlan{
		ID:             id,
		Name:           "Plan " + id,
		PricePerPeriod: 100,
		PeriodSeconds:  3600,
		IsActive:       true,
		Authority:      "auth",
		CreatedAt:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTxManager_CommitAndRollback(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply all staged writes on success", func(t *testing.T) {
		store := NewStore()
		tm := NewTxManager(store)
		plans := NewPlanRepo(store)

		err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if err := plans.Create(ctx, tx, testPlan("a")); err != nil {
				return err
			}
			return plans.Create(ctx, tx, testPlan("b"))
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}

		all, err := plans.ListAll(ctx, nil)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("stored %d plans, want 2", len(all))
		}
	})

	t.Run("should discard every staged write on error", func(t *testing.T) {
		store := NewStore()
		tm := NewTxManager(store)
		plans := NewPlanRepo(store)

		boom := errors.New("boom")
		err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if err := plans.Create(ctx, tx, testPlan("a")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got: %v", err)
		}

		if _, err := plans.FindByID(ctx, nil, "a"); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Fatalf("expected ErrPlanNotFound after rollback, got: %v", err)
		}
	})

	t.Run("should let reads inside the transaction see staged writes", func(t *testing.T) {
		store := NewStore()
		tm := NewTxManager(store)
		plans := NewPlanRepo(store)

		err := tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if err := plans.Create(ctx, tx, testPlan("a")); err != nil {
				return err
			}
			p, err := plans.FindByID(ctx, tx, "a")
			if err != nil {
				return err
			}
			p.CurrentSubscribers = 3
			return plans.Update(ctx, tx, p)
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}

		p, err := plans.FindByID(ctx, nil, "a")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if p.CurrentSubscribers != 3 {
			t.Errorf("currentSubscribers = %d, want 3", p.CurrentSubscribers)
		}
	})

	t.Run("should reject a foreign transaction handle", func(t *testing.T) {
		store := NewStore()
		plans := NewPlanRepo(store)

		err := plans.Create(ctx, struct{}{}, testPlan("a"))
		if !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Fatalf("expected ErrInvalidExecContext, got: %v", err)
		}
	})
}

func TestRepos_CopySemantics(t *testing.T) {
	ctx := context.Background()

	t.Run("mutating a returned plan must not leak into the store", func(t *testing.T) {
		store := NewStore()
		plans := NewPlanRepo(store)

		if err := plans.Create(ctx, nil, testPlan("a")); err != nil {
			t.Fatalf("create: %v", err)
		}
		p, err := plans.FindByID(ctx, nil, "a")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		p.PricePerPeriod = 999

		again, err := plans.FindByID(ctx, nil, "a")
		if err != nil {
			t.Fatalf("find again: %v", err)
		}
		if again.PricePerPeriod != 100 {
			t.Errorf("stored price = %d, want 100", again.PricePerPeriod)
		}
	})
}

func TestPaymentRepo_History(t *testing.T) {
	ctx := context.Background()

	t.Run("should list a payer's records ordered by timestamp", func(t *testing.T) {
		store := NewStore()
		payments := NewPaymentRepo(store)

		base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		r2 := model.NewPaymentRecord("alice", "sub-1", 100, model.PaymentMethodManual, base.Add(2*time.Hour))
		r1 := model.NewPaymentRecord("alice", "sub-1", 100, model.PaymentMethodManual, base.Add(time.Hour))
		other := model.NewPaymentRecord("bob", "sub-9", 100, model.PaymentMethodManual, base)
		for _, r := range []*model.PaymentRecord{r2, r1, other} {
			if err := payments.Append(ctx, nil, r); err != nil {
				t.Fatalf("append: %v", err)
			}
		}

		got, err := payments.ListByPayer(ctx, nil, "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
		if !got[0].Timestamp.Before(got[1].Timestamp) {
			t.Errorf("records out of order: %v then %v", got[0].Timestamp, got[1].Timestamp)
		}
	})
}
