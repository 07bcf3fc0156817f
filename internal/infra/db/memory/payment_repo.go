package memory

import (
	"context"
	"sort"
	"strconv"

	"subscription-ledger/internal/domain"
	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/domain/ports/repository"
	"subscription-ledger/internal/domain/storage"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo stores the append-only payment history. Addresses include the
// record timestamp so repeated payments on one subscription never collide.
type PaymentRepo struct {
	store *Store
}

func NewPaymentRepo(store *Store) *PaymentRepo {
	return &PaymentRepo{store: store}
}

func paymentAddr(rec *model.PaymentRecord) string {
	return storage.PaymentAddress(rec.Payer, rec.SubscriptionRef,
		strconv.FormatInt(rec.Timestamp.UnixNano(), 10))
}

func (r *PaymentRepo) Append(ctx context.Context, tx repository.Tx, rec *model.PaymentRecord) error {
	return r.store.access(tx, func(a accessor) error {
		addr := paymentAddr(rec)
		if _, ok := a.get(addr); ok {
			return domain.ErrInvalidArgument
		}
		cp := *rec
		a.put(addr, &cp)
		return nil
	})
}

func (r *PaymentRepo) ListByPayer(ctx context.Context, tx repository.Tx, payer string) ([]*model.PaymentRecord, error) {
	return r.list(tx, storage.Address(storage.NamespacePayment, payer)+":")
}

func (r *PaymentRepo) ListBySubscription(ctx context.Context, tx repository.Tx, payer, subscriptionRef string) ([]*model.PaymentRecord, error) {
	return r.list(tx, storage.Address(storage.NamespacePayment, payer, subscriptionRef)+":")
}

func (r *PaymentRepo) list(tx repository.Tx, prefix string) ([]*model.PaymentRecord, error) {
	var out []*model.PaymentRecord
	err := r.store.access(tx, func(a accessor) error {
		a.each(prefix, func(_ string, v any) {
			cp := *v.(*model.PaymentRecord)
			out = append(out, &cp)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
