package aggregates

import (
	"context"
	"time"

	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"github.com/yungbote/classroom-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// TxRunner provides a shared transaction boundary primitive for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
// Called on a handle that is already inside a transaction, gorm nests via SAVEPOINT.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

type retryingTxRunner struct {
	inner    TxRunner
	attempts int
	backoff  time.Duration
}

// NewRetryingTxRunner re-runs the whole transaction when it fails with a
// transient storage error (serialization failure, deadlock, lock timeout).
// Bodies must be safe to repeat, which holds for every aggregate write here
// because each one re-reads its state under lock.
func NewRetryingTxRunner(inner TxRunner, attempts int, backoff time.Duration) TxRunner {
	if attempts < 1 {
		attempts = 1
	}
	return &retryingTxRunner{inner: inner, attempts: attempts, backoff: backoff}
}

func (r *retryingTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.inner.InTx(ctx, fn)
		if err == nil || !domainagg.IsRetryable(MapError("aggregate.tx", err)) {
			return err
		}
		if ctx.Err() != nil || attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return err
}
