package qtx

import (
	"context"
	"sync/atomic"
)

// clonedTransaction - клон [CommittableTransaction]: разделяет с ней участников и результат, но имеет собственное
// время жизни. Освобождение исходной транзакции клон не затрагивает, и наоборот.
type clonedTransaction struct {
	origin   *CommittableTransaction
	disposed atomic.Bool
}

func (c *clonedTransaction) EnlistTheOnlyDurable(trm SinglePhaseNotification) error {
	if c.disposed.Load() {
		return ErrTxUnavailable
	}
	return c.origin.enlistTheOnlyDurable(trm, false)
}

func (c *clonedTransaction) EnlistVolatile(trm EnlistmentNotification, opts EnlistmentOptions) error {
	if c.disposed.Load() {
		return ErrTxUnavailable
	}
	return c.origin.enlistVolatile(trm, opts, false)
}

func (c *clonedTransaction) Rollback(ctx context.Context) error {
	if c.disposed.Load() {
		return ErrTxUnavailable
	}
	return c.origin.Rollback(ctx)
}

func (c *clonedTransaction) Info() (TransactionInformation, error) {
	if c.disposed.Load() {
		return TransactionInformation{}, ErrTxUnavailable
	}
	return c.origin.info(false)
}

func (c *clonedTransaction) Clone() (Transaction, error) {
	if c.disposed.Load() {
		return nil, ErrTxUnavailable
	}
	return &clonedTransaction{origin: c.origin}, nil
}

func (c *clonedTransaction) RegisterCompletion(fn CompletionFunc) (func(), error) {
	if c.disposed.Load() {
		return nil, ErrTxUnavailable
	}
	return c.origin.registerCompletion(fn, c, false)
}

func (c *clonedTransaction) Dispose() {
	c.disposed.Store(true)
}
