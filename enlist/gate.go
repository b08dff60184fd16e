package enlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/qbixus/qtx-uow"
	"github.com/qbixus/qtx-uow/internal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Gate - участник окружающей транзакции от имени исходной единицы работы и ее зависимых единиц работы.
//
// Gate владеет клоном окружающей транзакции и освобождает его при завершении. Завершение (OnTransactionCompleted)
// выполняется ровно один раз, какое бы из событий транзакции его ни вызвало: уведомление второй фазы или событие
// завершения транзакции. После успешной подготовки Gate блокирует Wait до своего завершения.
type Gate struct {
	uow         UnitOfWork
	tx          qtx.Transaction
	txID        uuid.UUID
	mode        DurabilityMode
	syncTimeout time.Duration
	logger      *zap.Logger
	inst        *instruments
	tracer      trace.Tracer
	deps        dependencyGraph

	enlisted          atomic.Bool
	prepared          atomic.Bool
	active            atomic.Bool
	completed         atomic.Bool
	disposed          atomic.Bool
	closeOnCompletion atomic.Bool

	mu         sync.Mutex
	locked     bool
	block      chan struct{}
	unregister func()
}

type gateSettings struct {
	mode        DurabilityMode
	syncTimeout time.Duration
	logger      *zap.Logger
	inst        *instruments
	tracer      trace.Tracer
}

// newGate создает Gate для исходной единицы работы uow с клоном окружающей транзакции ambient.
func newGate(uow UnitOfWork, ambient qtx.Transaction, settings gateSettings) (*Gate, error) {
	internal.Assert(uow != nil && ambient != nil, "#args")
	clone, err := ambient.Clone()
	if err != nil {
		return nil, wrapSession(uow, fmt.Errorf("clone ambient transaction: %w", err))
	}
	info, err := clone.Info()
	if err != nil {
		clone.Dispose()
		return nil, wrapSession(uow, err)
	}
	return &Gate{
		uow:         uow,
		tx:          clone,
		txID:        info.LocalID,
		mode:        settings.mode,
		syncTimeout: settings.syncTimeout,
		logger: settings.logger.With(
			zap.Stringer("session_id", uow.ID()),
			zap.Stringer("tx_id", info.LocalID),
		),
		inst:   settings.inst,
		tracer: settings.tracer,
	}, nil
}

// enlist присоединяет Gate к транзакции, связывает его с исходной единицей работы и уведомляет ее и
// присоединенные зависимые единицы работы о начале транзакции.
func (g *Gate) enlist(ctx context.Context) error {
	internal.Assert(g.enlisted.CompareAndSwap(false, true), "#enlist: repeated", g.uow.ID())

	g.active.Store(true)
	g.uow.SetTransactionContext(g)
	if err := g.tx.EnlistVolatile(g, g.mode.enlistmentOptions()); err != nil {
		g.active.Store(false)
		return wrapSession(g.uow, fmt.Errorf("enlist into transaction: %w", err))
	}
	unregister, err := g.tx.RegisterCompletion(g.transactionCompleted)
	if err != nil {
		return wrapSession(g.uow, fmt.Errorf("register completion: %w", err))
	}
	g.mu.Lock()
	if g.completed.Load() {
		g.mu.Unlock()
		unregister()
	} else {
		g.unregister = unregister
		g.mu.Unlock()
	}

	g.inst.enlisted(ctx, g.mode)
	g.logger.Debug("enlisted into ambient transaction", zap.Stringer("mode", g.mode))

	g.uow.OnTransactionBegin(ctx)
	for _, dep := range g.deps.snapshot() {
		dep.uow.OnTransactionBegin(ctx)
	}
	return nil
}

// abandon освобождает Gate, который не удалось присоединить, не вызывая обратных вызовов завершения.
func (g *Gate) abandon() {
	g.completed.Store(true)
	g.active.Store(false)
	for _, dep := range g.deps.detachAll() {
		if dep.uow.TransactionContext() == dep.context {
			dep.uow.SetTransactionContext(nil)
		}
	}
	if g.uow.TransactionContext() == g {
		g.uow.SetTransactionContext(nil)
	}
	g.dispose()
}

// attach присоединяет зависимую единицу работы. Возвращает true, если она присоединена впервые.
func (g *Gate) attach(dep UnitOfWork) (*DependentContext, bool, error) {
	return g.deps.attach(g, dep)
}

// Prepare - фаза подготовки: записывает отложенные изменения исходной и зависимых единиц работы. Оставленный или
// уже завершенный Gate в подготовке не участвует.
func (g *Gate) Prepare(ctx context.Context, enl qtx.PreparingEnlistment) {
	if g.completed.Load() {
		g.logger.Debug("prepare skipped for completed enlistment")
		enl.Done()
		return
	}
	internal.Assert(g.prepared.CompareAndSwap(false, true), "#prepare: repeated", g.uow.ID())
	ctx, span := g.tracer.Start(ctx, "qtx.enlist.Prepare", trace.WithAttributes(g.spanAttributes()...))
	defer span.End()

	g.logger.Debug("preparing transaction")
	if err := g.beforeCompletion(ctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrPrepareFailure, err)
		g.logger.Error("transaction prepare phase failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "prepare failed")
		g.inst.prepareFailures.Add(ctx, 1)
		enl.ForceRollback(err)
		return
	}

	g.lock()
	enl.Prepared()
}

func (g *Gate) beforeCompletion(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in before completion: %v", r)
		}
	}()

	end := g.uow.Connection().BeginProcessingFromTransaction(g.mode == Durable)
	defer end()

	if g.mode == Volatile {
		return g.runBeforeCompletion(ctx)
	}

	ctx, complete, dispose := qtx.WithTransactionScope(ctx, qtx.WithScopeTransaction(g.tx))
	defer func() { err = errors.Join(err, dispose()) }()
	if err := g.runBeforeCompletion(ctx); err != nil {
		return err
	}
	return complete()
}

func (g *Gate) runBeforeCompletion(ctx context.Context) error {
	if err := g.uow.OnBeforeCompletion(ctx); err != nil {
		return wrapSession(g.uow, err)
	}
	for _, dep := range g.deps.snapshot() {
		if err := dep.uow.OnBeforeCompletion(ctx); err != nil {
			return wrapSession(dep.uow, err)
		}
	}
	return nil
}

func (g *Gate) Commit(ctx context.Context, enl qtx.Enlistment) {
	g.secondPhase(ctx, enl, OutcomeCommitted)
}

func (g *Gate) Rollback(ctx context.Context, enl qtx.Enlistment) {
	g.secondPhase(ctx, enl, OutcomeAborted)
}

// InDoubt завершает Gate как неуспешный, не дожидаясь разрешения неопределенности.
func (g *Gate) InDoubt(ctx context.Context, enl qtx.Enlistment) {
	g.secondPhase(ctx, enl, OutcomeInDoubt)
}

func (g *Gate) secondPhase(ctx context.Context, enl qtx.Enlistment, outcome Outcome) {
	g.logger.Debug("second phase notification", zap.Stringer("outcome", outcome))
	enl.Done()
	_ = g.OnTransactionCompleted(ctx, outcome)
}

func (g *Gate) transactionCompleted(ctx context.Context, _ qtx.Transaction) {
	_ = g.OnTransactionCompleted(ctx, OutcomeUnknown)
}

// OnTransactionCompleted завершает участие в транзакции: уведомляет единицы работы о результате, отвязывает их от
// Gate, закрывает отложенные к закрытию и освобождает Gate. Выполняется только при первом вызове, повторные вызовы
// ничего не делают. Для OutcomeUnknown результат определяется по статусу транзакции.
//
// Ошибки обратных вызовов записываются в журнал и возвращаются вызывающему.
func (g *Gate) OnTransactionCompleted(ctx context.Context, outcome Outcome) error {
	if !g.completed.CompareAndSwap(false, true) {
		return nil
	}
	defer g.dispose()

	g.mu.Lock()
	unregister := g.unregister
	g.unregister = nil
	g.mu.Unlock()
	if unregister != nil {
		unregister()
	}

	outcome = g.resolve(outcome)
	ctx, span := g.tracer.Start(ctx, "qtx.enlist.Complete", trace.WithAttributes(
		append(g.spanAttributes(), attribute.String("outcome", outcome.String()))...))
	defer span.End()
	ctx = withTeardown(ctx, g)
	success := outcome == OutcomeCommitted
	g.active.Store(false)

	var errs []error
	func() {
		conn := g.uow.Connection()
		end := conn.BeginProcessingFromTransaction(false)
		defer end()
		conn.AfterTransaction(ctx)

		if err := g.uow.OnAfterCompletion(ctx, success); err != nil {
			errs = append(errs, wrapSession(g.uow, err))
		}
		for _, dep := range g.deps.snapshot() {
			if err := dep.uow.OnAfterCompletion(ctx, success); err != nil {
				errs = append(errs, wrapSession(dep.uow, err))
			}
		}
		errs = append(errs, g.cleanup(ctx)...)
	}()

	g.inst.completed(ctx, outcome)
	err := errors.Join(errs...)
	if err != nil {
		g.logger.Error("failure at transaction completion", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return err
	}
	g.logger.Debug("transaction completed", zap.Stringer("outcome", outcome))
	return nil
}

func (g *Gate) resolve(outcome Outcome) Outcome {
	if outcome != OutcomeUnknown {
		return outcome
	}
	info, err := g.tx.Info()
	if err != nil {
		g.logger.Warn("transaction status is unavailable, assuming rollback", zap.Error(err))
		return OutcomeAborted
	}
	switch info.Status {
	case qtx.StatusCommitted:
		return OutcomeCommitted
	case qtx.StatusInDoubt:
		return OutcomeInDoubt
	default:
		return OutcomeAborted
	}
}

// cleanup отвязывает зависимые единицы работы, затем исходную, закрывая отложенные к закрытию.
func (g *Gate) cleanup(ctx context.Context) []error {
	var errs []error
	for _, dep := range g.deps.detachAll() {
		if dep.uow.TransactionContext() != dep.context {
			continue
		}
		if dep.context.ShouldCloseOnCompletion() {
			if err := dep.uow.CloseFromExternalTransaction(ctx); err != nil {
				errs = append(errs, wrapSession(dep.uow, err))
			}
		}
		dep.uow.SetTransactionContext(nil)
	}
	if g.uow.TransactionContext() == g {
		if g.ShouldCloseOnCompletion() {
			if err := g.uow.CloseFromExternalTransaction(ctx); err != nil {
				errs = append(errs, wrapSession(g.uow, err))
			}
		}
		g.uow.SetTransactionContext(nil)
	}
	return errs
}

// Wait блокируется до завершения Gate, если транзакция подготовлена или уже не активна. Не блокируется внутри
// завершения этого же Gate. Ожидание ограничено временем синхронизации: по его истечении блокировка снимается
// навсегда и возвращается ErrSynchronizationTimeout.
func (g *Gate) Wait(ctx context.Context) error {
	if g.disposed.Load() || isTeardown(ctx, g) {
		return nil
	}
	if !g.isLocked() {
		info, err := g.tx.Info()
		if err != nil || info.Status == qtx.StatusActive {
			return nil
		}
		g.lock()
	}

	g.mu.Lock()
	block := g.block
	g.mu.Unlock()
	if block == nil {
		return nil
	}

	start := time.Now()
	timer := time.NewTimer(g.syncTimeout)
	defer timer.Stop()
	select {
	case <-block:
		g.inst.waited(ctx, start)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		g.unlock()
		g.inst.syncTimeouts.Add(ctx, 1)
		g.logger.Error("synchronization timeout for transaction completion", zap.Duration("timeout", g.syncTimeout))
		return wrapSession(g.uow, ErrSynchronizationTimeout)
	}
}

func (g *Gate) isLocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked
}

// lock взводит блокировку один раз за время жизни Gate.
func (g *Gate) lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locked || g.disposed.Load() {
		return
	}
	g.locked = true
	g.block = make(chan struct{})
}

func (g *Gate) unlock() {
	g.mu.Lock()
	block := g.block
	g.block = nil
	g.mu.Unlock()
	if block != nil {
		close(block)
	}
}

// dispose освобождает клон транзакции и снимает блокировку. Вызывается только при завершении или отказе от Gate,
// повторные вызовы ничего не делают.
func (g *Gate) dispose() {
	if !g.disposed.CompareAndSwap(false, true) {
		return
	}
	g.mu.Lock()
	unregister := g.unregister
	g.unregister = nil
	g.mu.Unlock()
	if unregister != nil {
		unregister()
	}
	g.tx.Dispose()
	g.unlock()
}

func (g *Gate) IsInActiveTransaction() bool {
	return g.active.Load()
}

func (g *Gate) CanFlushOnCompletion() bool {
	return g.mode == Durable
}

func (g *Gate) ShouldCloseOnCompletion() bool {
	return g.closeOnCompletion.Load()
}

func (g *Gate) SetCloseOnCompletion(v bool) {
	g.closeOnCompletion.Store(v)
}

// Transaction возвращает клон окружающей транзакции, принадлежащий Gate.
func (g *Gate) Transaction() qtx.Transaction {
	return g.tx
}

func (g *Gate) IsDisposed() bool {
	return g.disposed.Load()
}

// Dependents возвращает присоединенные зависимые единицы работы в порядке присоединения.
func (g *Gate) Dependents() []UnitOfWork {
	entries := g.deps.snapshot()
	deps := make([]UnitOfWork, len(entries))
	for i, e := range entries {
		deps[i] = e.uow
	}
	return deps
}

func (g *Gate) mainGate() *Gate {
	return g
}

// boundTo сообщает, присоединен ли Gate к транзакции tx.
func (g *Gate) boundTo(tx qtx.Transaction) bool {
	if tx == nil {
		return false
	}
	info, err := tx.Info()
	return err == nil && info.LocalID == g.txID
}

func (g *Gate) spanAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("qtx.session_id", g.uow.ID().String()),
		attribute.String("qtx.tx_id", g.txID.String()),
		attribute.String("qtx.mode", g.mode.String()),
	}
}
