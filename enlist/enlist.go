// Package enlist присоединяет единицы работы (сессии с соединением и отложенными изменениями) к окружающей
// транзакции qtx как участников 2PC и синхронизирует их использование с завершением транзакции.
//
// Единица работы, владеющая соединением, присоединяется через [Gate]. Зависимые единицы работы, разделяющие ее
// соединение, получают [DependentContext] и все события жизненного цикла в порядке присоединения, но сами к
// транзакции не присоединяются. Решение о присоединении принимает [Coordinator].
package enlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/qbixus/qtx-uow"
)

var (
	// ErrAlreadyEnlistedElsewhere - зависимая единица работы уже связана с другой активной транзакцией.
	ErrAlreadyEnlistedElsewhere = errors.New("#ENLIST_ALREADY_ENLISTED_ELSEWHERE")
	// ErrPrepareFailure - сбой на фазе подготовки; транзакция принудительно отменяется.
	ErrPrepareFailure = errors.New("#ENLIST_PREPARE_FAILURE")
	// ErrSynchronizationTimeout - ожидание завершения транзакции превысило допустимое время.
	ErrSynchronizationTimeout = errors.New("#ENLIST_SYNCHRONIZATION_TIMEOUT")
	// ErrTransactionUnavailable - экземпляр транзакции освобожден владельцем.
	ErrTransactionUnavailable = qtx.ErrTxUnavailable
)

// Outcome - результат транзакции с точки зрения участника.
type Outcome int

const (
	// OutcomeUnknown - результат определяется по статусу транзакции.
	OutcomeUnknown Outcome = iota
	OutcomeCommitted
	OutcomeAborted
	OutcomeInDoubt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeAborted:
		return "aborted"
	case OutcomeInDoubt:
		return "in_doubt"
	default:
		return "unknown"
	}
}

// DurabilityMode - режим присоединения Gate.
type DurabilityMode int

const (
	// Durable - соединение доступно на фазе подготовки, отложенные изменения записываются в нем.
	Durable DurabilityMode = iota
	// Volatile - участник только уведомляется, соединение на фазе подготовки не используется.
	Volatile
)

func (m DurabilityMode) String() string {
	if m == Durable {
		return "durable"
	}
	return "volatile"
}

func (m DurabilityMode) enlistmentOptions() qtx.EnlistmentOptions {
	if m == Durable {
		return qtx.EnlistDuringPrepareRequired
	}
	return qtx.EnlistmentNone
}

// teardownKey помечает контекст, в котором выполняется завершение Gate: ожидание этого же Gate в таком контексте
// не блокируется.
type teardownKey struct{}

func withTeardown(ctx context.Context, g *Gate) context.Context {
	return context.WithValue(ctx, teardownKey{}, g)
}

func isTeardown(ctx context.Context, g *Gate) bool {
	current, _ := ctx.Value(teardownKey{}).(*Gate)
	return current == g
}

func wrapSession(uow UnitOfWork, err error) error {
	return fmt.Errorf("session %s: %w", uow.ID(), err)
}
