package enlist

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qbixus/qtx-uow"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// journal - общий журнал событий единиц работы и соединения.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.events)
}

func (j *journal) count(event string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.events {
		if e == event {
			n++
		}
	}
	return n
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = nil
}

// ---

type fakeConnection struct {
	journal     *journal
	noAutoJoin  bool
	enlistErr   error
	enlistDelay time.Duration

	mu         sync.Mutex
	dependents []UnitOfWork
}

func (c *fakeConnection) ShouldAutoJoinTransaction() bool {
	return !c.noAutoJoin
}

func (c *fakeConnection) EnlistIfRequired(_ context.Context, tx qtx.Transaction) error {
	if tx == nil {
		return nil
	}
	c.journal.add("conn.enlist")
	time.Sleep(c.enlistDelay)
	return c.enlistErr
}

func (c *fakeConnection) AfterTransaction(context.Context) {
	c.journal.add("conn.after")
}

func (c *fakeConnection) BeginProcessingFromTransaction(allowConnectionUsage bool) func() {
	c.journal.add("conn.processing(%v)", allowConnectionUsage)
	return func() { c.journal.add("conn.processing.end") }
}

func (c *fakeConnection) Dependents() []UnitOfWork {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.dependents)
}

// ---

type fakeSession struct {
	id      uuid.UUID
	name    string
	origin  *fakeSession
	conn    *fakeConnection
	journal *journal

	beforeErr error
	afterErr  error
	onAfter   func(ctx context.Context)

	mu sync.Mutex
	tc TransactionContext
}

func newOriginSession(j *journal, name string) *fakeSession {
	return &fakeSession{id: uuid.New(), name: name, conn: &fakeConnection{journal: j}, journal: j}
}

// dependent создает зависимую единицу работы, известную соединению.
func (s *fakeSession) dependent(name string) *fakeSession {
	dep := s.unknownDependent(name)
	s.conn.mu.Lock()
	s.conn.dependents = append(s.conn.dependents, dep)
	s.conn.mu.Unlock()
	return dep
}

// unknownDependent создает зависимую единицу работы, о которой соединение не знает.
func (s *fakeSession) unknownDependent(name string) *fakeSession {
	return &fakeSession{id: uuid.New(), name: name, origin: s, conn: s.conn, journal: s.journal}
}

func (s *fakeSession) ID() uuid.UUID {
	return s.id
}

func (s *fakeSession) Originating() UnitOfWork {
	if s.origin != nil {
		return s.origin
	}
	return s
}

func (s *fakeSession) Connection() ConnectionManager {
	return s.conn
}

func (s *fakeSession) TransactionContext() TransactionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tc
}

func (s *fakeSession) SetTransactionContext(tc TransactionContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tc = tc
}

func (s *fakeSession) OnTransactionBegin(context.Context) {
	s.journal.add("%s.begin", s.name)
}

func (s *fakeSession) OnBeforeCompletion(context.Context) error {
	s.journal.add("%s.before", s.name)
	return s.beforeErr
}

func (s *fakeSession) OnAfterCompletion(ctx context.Context, success bool) error {
	s.journal.add("%s.after(%v)", s.name, success)
	if s.onAfter != nil {
		s.onAfter(ctx)
	}
	return s.afterErr
}

func (s *fakeSession) CloseFromExternalTransaction(context.Context) error {
	s.journal.add("%s.close", s.name)
	return nil
}

func (s *fakeSession) gate(t *testing.T) *Gate {
	t.Helper()
	g, ok := s.TransactionContext().(*Gate)
	require.True(t, ok, "session %s is not enlisted", s.name)
	return g
}

// ---

type fakeEnlistment struct {
	mu       sync.Mutex
	prepared int
	done     int
	forced   error
}

func (e *fakeEnlistment) Done() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done++
}

func (e *fakeEnlistment) ForceRollback(cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forced = cause
}

func (e *fakeEnlistment) Prepared() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prepared++
}

// ---

func testSettings(t *testing.T, logger *zap.Logger) gateSettings {
	t.Helper()
	inst, err := newInstruments(metricnoop.NewMeterProvider())
	require.NoError(t, err)
	if logger == nil {
		logger = zap.NewNop()
	}
	return gateSettings{
		mode:        Durable,
		syncTimeout: DefaultSyncTimeout,
		logger:      logger,
		inst:        inst,
		tracer:      tracenoop.NewTracerProvider().Tracer(instrumentationName),
	}
}

func newTestCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(opts...)
	require.NoError(t, err)
	return c
}
