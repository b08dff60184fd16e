package enlist

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/qbixus/qtx-uow/internal"
)

// DependentContext связывает зависимую единицу работы с Gate исходной единицы работы. Ожидание и состояние
// транзакции берутся у Gate; флаг отложенного закрытия у каждой зависимой единицы работы свой.
type DependentContext struct {
	gate              atomic.Pointer[Gate]
	closeOnCompletion atomic.Bool
}

func newDependentContext(g *Gate) *DependentContext {
	dc := &DependentContext{}
	dc.gate.Store(g)
	return dc
}

func (dc *DependentContext) Wait(ctx context.Context) error {
	if g := dc.gate.Load(); g != nil {
		return g.Wait(ctx)
	}
	return nil
}

func (dc *DependentContext) IsInActiveTransaction() bool {
	g := dc.gate.Load()
	return g != nil && g.IsInActiveTransaction()
}

func (dc *DependentContext) CanFlushOnCompletion() bool {
	g := dc.gate.Load()
	return g != nil && g.CanFlushOnCompletion()
}

func (dc *DependentContext) ShouldCloseOnCompletion() bool {
	return dc.closeOnCompletion.Load()
}

func (dc *DependentContext) SetCloseOnCompletion(v bool) {
	dc.closeOnCompletion.Store(v)
}

// Gate возвращает Gate исходной единицы работы или nil после завершения транзакции.
func (dc *DependentContext) Gate() *Gate {
	return dc.gate.Load()
}

func (dc *DependentContext) mainGate() *Gate {
	return dc.gate.Load()
}

// ---

type dependent struct {
	uow     UnitOfWork
	context *DependentContext
}

// dependencyGraph - зависимые единицы работы Gate в порядке присоединения.
type dependencyGraph struct {
	mu       sync.Mutex
	entries  []dependent
	detached bool
}

// attach присоединяет dep к g. Повторное присоединение возвращает существующий контекст. Присоединение после
// завершения Gate ничего не делает.
func (dg *dependencyGraph) attach(g *Gate, dep UnitOfWork) (*DependentContext, bool, error) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	if dg.detached {
		return nil, false, nil
	}
	internal.AssertFunc(func() bool { return dep.Originating().ID() == g.uow.ID() }, "#attach: foreign session", dep.ID())
	id := dep.ID()
	for _, e := range dg.entries {
		if e.uow.ID() == id {
			return e.context, false, nil
		}
	}
	if existing := dep.TransactionContext(); existing != nil {
		if other := existing.mainGate(); other != nil && other != g && other.IsInActiveTransaction() {
			return nil, false, fmt.Errorf("%w: session %s is bound to transaction %s",
				ErrAlreadyEnlistedElsewhere, id, other.txID)
		}
	}

	dc := newDependentContext(g)
	dg.entries = append(dg.entries, dependent{uow: dep, context: dc})
	dep.SetTransactionContext(dc)
	return dc, true, nil
}

func (dg *dependencyGraph) snapshot() []dependent {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	return append([]dependent(nil), dg.entries...)
}

// detachAll отвязывает все зависимые единицы работы от Gate и запрещает дальнейшие присоединения.
func (dg *dependencyGraph) detachAll() []dependent {
	dg.mu.Lock()
	entries := dg.entries
	dg.entries = nil
	dg.detached = true
	dg.mu.Unlock()

	for _, e := range entries {
		e.context.gate.Store(nil)
	}
	return entries
}
