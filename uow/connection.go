package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/qbixus/qtx-uow"
	"github.com/qbixus/qtx-uow/enlist"
	"go.uber.org/zap"
)

var (
	// ErrConnectionUnavailable - соединение нельзя использовать во время обработки события транзакции.
	ErrConnectionUnavailable = errors.New("#UOW_CONNECTION_UNAVAILABLE")
	// ErrSessionClosed - сессия или ее соединение закрыты.
	ErrSessionClosed = errors.New("#UOW_SESSION_CLOSED")
)

// ConnectionManager владеет соединением исходной сессии, которое разделяют ее зависимые сессии. В окружающей
// транзакции соединение открывает транзакцию базы данных и присоединяется к окружающей как единственный
// долговременный ресурс.
type ConnectionManager struct {
	db        *sql.DB
	autoJoin  bool
	isolation bool
	logger    *zap.Logger

	mu              sync.Mutex
	conn            *sql.Conn
	tx              *sql.Tx
	enlistedIn      uuid.UUID
	dependents      []*Session
	processing      bool
	allowConnection bool
	closed          bool
}

func (m *ConnectionManager) ShouldAutoJoinTransaction() bool {
	return m.autoJoin
}

// EnlistIfRequired открывает транзакцию базы данных и присоединяет ее к tx, если соединение еще не присоединено к
// tx. Соединение может участвовать только в одной транзакции одновременно.
func (m *ConnectionManager) EnlistIfRequired(ctx context.Context, tx qtx.Transaction) error {
	if tx == nil {
		return nil
	}
	info, err := tx.Info()
	if err != nil {
		return err
	}
	if info.Status != qtx.StatusActive {
		return fmt.Errorf("%w: transaction %s is %s", qtx.ErrTxError, info.LocalID, info.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enlistedIn == info.LocalID {
		return nil
	}
	if m.tx != nil {
		return fmt.Errorf("%w: connection is enlisted in transaction %s", qtx.ErrTxError, m.enlistedIn)
	}
	conn, err := m.connection(ctx)
	if err != nil {
		return err
	}
	opts := &sql.TxOptions{}
	if m.isolation {
		opts.Isolation = info.IsolationLevel.SQL()
	}
	sqlTx, err := conn.BeginTx(context.WithoutCancel(ctx), opts)
	if err != nil {
		return fmt.Errorf("begin database transaction: %w", err)
	}
	if err := tx.EnlistTheOnlyDurable(&durableResource{manager: m, tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return fmt.Errorf("enlist connection: %w", err)
	}
	m.tx = sqlTx
	m.enlistedIn = info.LocalID
	m.logger.Debug("connection enlisted into transaction",
		zap.Stringer("tx_id", info.LocalID), zap.Stringer("isolation", info.IsolationLevel))
	return nil
}

// AfterTransaction отменяет транзакцию базы данных, если результат не был ей доставлен, и отвязывает соединение
// от завершенной транзакции.
func (m *ConnectionManager) AfterTransaction(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tx != nil {
		if err := m.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			m.logger.Warn("database transaction rollback failed", zap.Error(err))
		}
		m.tx = nil
	}
	m.enlistedIn = uuid.Nil
}

func (m *ConnectionManager) BeginProcessingFromTransaction(allowConnectionUsage bool) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	processing, allow := m.processing, m.allowConnection
	m.processing, m.allowConnection = true, allowConnectionUsage
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.processing, m.allowConnection = processing, allow
	}
}

func (m *ConnectionManager) Dependents() []enlist.UnitOfWork {
	m.mu.Lock()
	defer m.mu.Unlock()
	deps := make([]enlist.UnitOfWork, len(m.dependents))
	for i, s := range m.dependents {
		deps[i] = s
	}
	return deps
}

func (m *ConnectionManager) addDependent(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependents = append(m.dependents, s)
}

func (m *ConnectionManager) removeDependent(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependents = slices.DeleteFunc(m.dependents, func(d *Session) bool { return d == s })
}

func (m *ConnectionManager) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, err := m.connection(ctx)
	if err != nil {
		return nil, err
	}
	if m.tx != nil {
		return m.tx.ExecContext(ctx, query, args...)
	}
	return conn.ExecContext(ctx, query, args...)
}

func (m *ConnectionManager) queryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, err := m.connection(ctx)
	if err != nil {
		return nil, err
	}
	if m.tx != nil {
		return m.tx.QueryRowContext(ctx, query, args...), nil
	}
	return conn.QueryRowContext(ctx, query, args...), nil
}

// connection возвращает соединение, открывая его при первом использовании. Требует m.mu.
func (m *ConnectionManager) connection(ctx context.Context) (*sql.Conn, error) {
	if m.closed {
		return nil, ErrSessionClosed
	}
	if m.processing && !m.allowConnection {
		return nil, ErrConnectionUnavailable
	}
	if m.conn == nil {
		conn, err := m.db.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("open connection: %w", err)
		}
		m.conn = conn
	}
	return m.conn, nil
}

func (m *ConnectionManager) release(tx *sql.Tx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tx == tx {
		m.tx = nil
	}
}

func (m *ConnectionManager) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	if m.tx != nil {
		if err := m.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		m.tx = nil
	}
	if m.conn != nil {
		errs = append(errs, m.conn.Close())
		m.conn = nil
	}
	return errors.Join(errs...)
}

// ---

// durableResource - транзакция базы данных как единственный долговременный ресурс окружающей транзакции.
type durableResource struct {
	manager *ConnectionManager
	tx      *sql.Tx
}

func (r *durableResource) SinglePhaseCommit(_ context.Context, enl qtx.SinglePhaseEnlistment) {
	err := r.tx.Commit()
	r.manager.release(r.tx)
	if err != nil {
		r.manager.logger.Error("database transaction commit failed", zap.Error(err))
		enl.Aborted(err)
		return
	}
	enl.Committed()
}

func (r *durableResource) Prepare(_ context.Context, enl qtx.PreparingEnlistment) {
	enl.Prepared()
}

func (r *durableResource) Commit(_ context.Context, enl qtx.Enlistment) {
	enl.Done()
}

func (r *durableResource) Rollback(_ context.Context, enl qtx.Enlistment) {
	if err := r.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.manager.logger.Warn("database transaction rollback failed", zap.Error(err))
	}
	r.manager.release(r.tx)
	enl.Done()
}

func (r *durableResource) InDoubt(_ context.Context, enl qtx.Enlistment) {
	r.manager.release(r.tx)
	enl.Done()
}
