package enlist

import (
	"context"
	"errors"

	"github.com/qbixus/qtx-uow"
	"github.com/qbixus/qtx-uow/internal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Coordinator решает, нужно ли присоединять единицу работы к окружающей транзакции, и создает для этого Gate.
// Безопасен для конкурентного использования.
type Coordinator struct {
	cfg    Config
	source AmbientTransactionSource
	logger *zap.Logger
	inst   *instruments
	tracer trace.Tracer
	locks  originLocks
}

func NewCoordinator(opts ...Option) (*Coordinator, error) {
	o := newOptions(opts)
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	inst, err := newInstruments(o.meterProvider)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		cfg:    o.cfg,
		source: o.source,
		logger: o.logger,
		inst:   inst,
		tracer: o.tracerProvider.Tracer(instrumentationName),
	}, nil
}

// Config возвращает действующие настройки.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// EnlistIfNeeded присоединяет uow к окружающей транзакции, если это требуется. Вызывается перед каждым
// использованием единицы работы.
//
// Если исходная единица работы еще связана с завершающейся транзакцией, EnlistIfNeeded сначала дожидается ее
// завершения. Зависимая единица работы присоединяется к Gate исходной и уведомляется о начале транзакции один раз.
// Решение о присоединении принимается под мьютексом исходной единицы работы, поэтому при конкурентном
// использовании одной единицы работы Gate создается один раз.
func (c *Coordinator) EnlistIfNeeded(ctx context.Context, uow UnitOfWork) error {
	internal.Assert(uow != nil, "#args: uow")
	origin := uow.Originating()
	conn := origin.Connection()
	if !conn.ShouldAutoJoinTransaction() {
		return nil
	}

	if current := origin.TransactionContext(); current != nil {
		if err := current.Wait(ctx); err != nil {
			return err
		}
	}

	unlock := c.locks.lock(origin.ID())
	defer unlock()

	tx := c.source.CurrentTransaction(ctx)
	var gate *Gate
	if current := origin.TransactionContext(); current != nil {
		gate = current.mainGate()
	}

	if gate == nil || gate.boundTo(tx) {
		if err := conn.EnlistIfRequired(ctx, tx); err != nil {
			return wrapSession(origin, err)
		}
	}
	if tx == nil {
		return nil
	}

	if gate != nil {
		if uow.ID() == origin.ID() {
			return nil
		}
		_, attached, err := gate.attach(uow)
		if err != nil {
			return err
		}
		if attached {
			c.logger.Debug("dependent session attached to transaction",
				zap.Stringer("session_id", uow.ID()), zap.Stringer("origin_session_id", origin.ID()))
			uow.OnTransactionBegin(ctx)
		}
		return nil
	}

	gate, err := newGate(origin, tx, gateSettings{
		mode:        c.cfg.Mode(),
		syncTimeout: c.cfg.SyncTimeout,
		logger:      c.logger,
		inst:        c.inst,
		tracer:      c.tracer,
	})
	if err != nil {
		return err
	}
	var errs []error
	for _, dep := range conn.Dependents() {
		if _, _, err := gate.attach(dep); err != nil {
			errs = append(errs, err)
		}
	}
	if uow.ID() != origin.ID() {
		if _, _, err := gate.attach(uow); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		gate.abandon()
		return err
	}
	if err := gate.enlist(ctx); err != nil {
		gate.abandon()
		return err
	}
	return nil
}

// IsInActiveTransaction сообщает, участвует ли uow в активной окружающей транзакции.
func (c *Coordinator) IsInActiveTransaction(uow UnitOfWork) bool {
	tc := uow.TransactionContext()
	return tc != nil && tc.IsInActiveTransaction()
}

// ExecuteInIsolation выполняет work вне окружающей транзакции: в зоне без транзакции, а при transacted в зоне с
// новой транзакцией, которая фиксируется, если work завершилась без ошибки.
func (c *Coordinator) ExecuteInIsolation(ctx context.Context, work func(ctx context.Context) error, transacted bool) (
	err error,
) {
	internal.Assert(work != nil, "#args: work")
	ctx, complete, dispose := qtx.WithTransactionScope(ctx, qtx.WithSuppressTx())
	defer func() { err = errors.Join(err, dispose()) }()

	if !transacted {
		if err := work(ctx); err != nil {
			return err
		}
		return complete()
	}

	txCtx, txComplete, txDispose := qtx.WithTransactionScope(ctx, qtx.WithRequiresNewTx())
	defer func() { err = errors.Join(err, txDispose()) }()
	if err := work(txCtx); err != nil {
		return err
	}
	if err := txComplete(); err != nil {
		return err
	}
	return complete()
}
