// Package uow - единица работы поверх database/sql, присоединяемая к окружающей транзакции qtx.
//
// Сессия накапливает изменения и записывает их в соединение при Flush, а в окружающей транзакции также на фазе
// ее подготовки. Зависимые сессии разделяют соединение исходной.
package uow

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qbixus/qtx-uow/enlist"
	"go.uber.org/zap"
)

// Factory открывает сессии над базой данных.
type Factory struct {
	db          *sql.DB
	coordinator *enlist.Coordinator
	logger      *zap.Logger
	autoJoin    bool
	isolation   bool
}

type Option func(*Factory)

// WithLogger задает журнал сессий. По умолчанию журнал отключен.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// WithoutAutoJoin отключает автоматическое присоединение сессий к окружающей транзакции.
func WithoutAutoJoin() Option {
	return func(f *Factory) { f.autoJoin = false }
}

// WithIsolationLevels передает уровень изоляции окружающей транзакции в транзакцию базы данных. Не все драйверы
// поддерживают уровни изоляции, отличные от уровня по умолчанию.
func WithIsolationLevels() Option {
	return func(f *Factory) { f.isolation = true }
}

func NewFactory(db *sql.DB, coordinator *enlist.Coordinator, opts ...Option) *Factory {
	f := &Factory{db: db, coordinator: coordinator, logger: zap.NewNop(), autoJoin: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open открывает исходную сессию. Соединение открывается при первом использовании.
func (f *Factory) Open() *Session {
	id := uuid.New()
	logger := f.logger.With(zap.Stringer("session_id", id))
	return &Session{
		id: id,
		manager: &ConnectionManager{
			db:        f.db,
			autoJoin:  f.autoJoin,
			isolation: f.isolation,
			logger:    logger,
		},
		coordinator: f.coordinator,
		logger:      logger,
	}
}

// ---

type statement struct {
	query string
	args  []any
}

// Session - единица работы. Безопасна для конкурентного использования; использование во время завершения
// окружающей транзакции ожидает его окончания.
type Session struct {
	id          uuid.UUID
	origin      *Session
	manager     *ConnectionManager
	coordinator *enlist.Coordinator
	logger      *zap.Logger

	mu      sync.Mutex
	pending []statement
	tc      enlist.TransactionContext
	closed  bool
}

// OpenDependent открывает зависимую сессию, разделяющую соединение исходной сессии.
func (s *Session) OpenDependent() *Session {
	origin := s
	if s.origin != nil {
		origin = s.origin
	}
	id := uuid.New()
	dep := &Session{
		id:          id,
		origin:      origin,
		manager:     origin.manager,
		coordinator: origin.coordinator,
		logger:      origin.logger.With(zap.Stringer("dependent_session_id", id)),
	}
	origin.manager.addDependent(dep)
	return dep
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Originating() enlist.UnitOfWork {
	if s.origin != nil {
		return s.origin
	}
	return s
}

func (s *Session) Connection() enlist.ConnectionManager {
	return s.manager
}

func (s *Session) TransactionContext() enlist.TransactionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tc
}

func (s *Session) SetTransactionContext(tc enlist.TransactionContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tc = tc
}

// Exec откладывает изменение до Flush.
func (s *Session) Exec(ctx context.Context, query string, args ...any) error {
	if err := s.prepareUse(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, statement{query: query, args: args})
	return nil
}

// Flush записывает отложенные изменения в соединение.
func (s *Session) Flush(ctx context.Context) error {
	if err := s.prepareUse(ctx); err != nil {
		return err
	}
	return s.flush(ctx)
}

func (s *Session) flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for i, st := range pending {
		if _, err := s.manager.exec(ctx, st.query, st.args...); err != nil {
			s.mu.Lock()
			s.pending = append(pending[i:], s.pending...)
			s.mu.Unlock()
			return fmt.Errorf("flush %q: %w", st.query, err)
		}
	}
	return nil
}

// QueryRow записывает отложенные изменения и выполняет запрос в соединении сессии.
func (s *Session) QueryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	return s.manager.queryRow(ctx, query, args...)
}

// Close закрывает сессию. В активной окружающей транзакции закрытие откладывается до ее завершения.
// Закрытие исходной сессии закрывает соединение.
func (s *Session) Close(ctx context.Context) error {
	if s.IsClosed() {
		return nil
	}
	if tc := s.TransactionContext(); tc != nil {
		if err := tc.Wait(ctx); err != nil {
			return err
		}
	}
	if tc := s.TransactionContext(); tc != nil && tc.IsInActiveTransaction() {
		tc.SetCloseOnCompletion(true)
		s.logger.Debug("session close deferred until transaction completion")
		return nil
	}
	return s.closeNow()
}

func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) closeNow() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pending = nil
	s.mu.Unlock()

	s.logger.Debug("session closed")
	if s.origin != nil {
		s.manager.removeDependent(s)
		return nil
	}
	return s.manager.close()
}

func (s *Session) prepareUse(ctx context.Context) error {
	if s.IsClosed() {
		return ErrSessionClosed
	}
	return s.coordinator.EnlistIfNeeded(ctx, s)
}

// ---

func (s *Session) OnTransactionBegin(context.Context) {
	s.logger.Debug("session joined transaction")
}

// OnBeforeCompletion записывает отложенные изменения, если соединение доступно на фазе подготовки.
func (s *Session) OnBeforeCompletion(ctx context.Context) error {
	if tc := s.TransactionContext(); tc == nil || !tc.CanFlushOnCompletion() {
		s.mu.Lock()
		n := len(s.pending)
		s.mu.Unlock()
		if n > 0 {
			s.logger.Warn("pending writes are not flushed on transaction completion", zap.Int("pending", n))
		}
		return nil
	}
	return s.Flush(ctx)
}

// OnAfterCompletion отбрасывает незаписанные изменения.
func (s *Session) OnAfterCompletion(_ context.Context, success bool) error {
	s.mu.Lock()
	n := len(s.pending)
	s.pending = nil
	s.mu.Unlock()
	s.logger.Debug("session transaction completed", zap.Bool("success", success), zap.Int("discarded", n))
	return nil
}

func (s *Session) CloseFromExternalTransaction(context.Context) error {
	return s.closeNow()
}
