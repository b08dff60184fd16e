package enlist

import (
	"context"

	"github.com/google/uuid"
	"github.com/qbixus/qtx-uow"
)

// LifecycleSink - обратные вызовы единицы работы, связанные с окружающей транзакцией. Вызываются ровно один раз
// на транзакцию, в порядке присоединения единиц работы, в произвольной горутине.
type LifecycleSink interface {
	// OnTransactionBegin - единица работы присоединена к транзакции. Вызывается под мьютексом исходной единицы
	// работы в Coordinator и не должен вызывать EnlistIfNeeded для нее.
	OnTransactionBegin(ctx context.Context)
	// OnBeforeCompletion - фаза подготовки: нужно записать отложенные изменения. Ошибка отменяет транзакцию.
	OnBeforeCompletion(ctx context.Context) error
	// OnAfterCompletion - транзакция завершена с указанным результатом.
	OnAfterCompletion(ctx context.Context, success bool) error
	// CloseFromExternalTransaction закрывает единицу работы, закрытие которой было отложено до завершения транзакции.
	CloseFromExternalTransaction(ctx context.Context) error
}

// ConnectionManager - владелец физического соединения исходной единицы работы.
type ConnectionManager interface {
	// ShouldAutoJoinTransaction сообщает, присоединяется ли единица работы к окружающей транзакции автоматически.
	ShouldAutoJoinTransaction() bool
	// EnlistIfRequired присоединяет соединение к tx, если это еще не сделано. tx может быть nil.
	EnlistIfRequired(ctx context.Context, tx qtx.Transaction) error
	// AfterTransaction вызывается при завершении транзакции до обратных вызовов OnAfterCompletion.
	AfterTransaction(ctx context.Context)
	// BeginProcessingFromTransaction отмечает начало обработки событий транзакции; allowConnectionUsage
	// определяет, можно ли при этом использовать соединение. Возвращает функцию окончания обработки.
	BeginProcessingFromTransaction(allowConnectionUsage bool) (end func())
	// Dependents возвращает известные зависимые единицы работы, разделяющие соединение, в порядке создания.
	Dependents() []UnitOfWork
}

// UnitOfWork - единица работы с точки зрения присоединения к транзакции.
type UnitOfWork interface {
	LifecycleSink
	ID() uuid.UUID
	// Originating возвращает единицу работы, владеющую соединением; для исходной - саму себя.
	Originating() UnitOfWork
	// Connection возвращает менеджер соединения исходной единицы работы.
	Connection() ConnectionManager
	TransactionContext() TransactionContext
	SetTransactionContext(TransactionContext)
}

// TransactionContext - связь единицы работы с окружающей транзакцией: [*Gate] для исходной единицы работы и
// [*DependentContext] для зависимых.
type TransactionContext interface {
	// Wait блокируется, пока завершение транзакции не позволит использовать единицу работы.
	Wait(ctx context.Context) error
	IsInActiveTransaction() bool
	// CanFlushOnCompletion сообщает, будет ли соединение доступно на фазе подготовки.
	CanFlushOnCompletion() bool
	ShouldCloseOnCompletion() bool
	// SetCloseOnCompletion откладывает закрытие единицы работы до завершения транзакции.
	SetCloseOnCompletion(bool)

	mainGate() *Gate
}

// AmbientTransactionSource - источник окружающей транзакции.
type AmbientTransactionSource interface {
	CurrentTransaction(ctx context.Context) qtx.Transaction
}

// AmbientTransactionSourceFunc - адаптер функции к AmbientTransactionSource.
type AmbientTransactionSourceFunc func(ctx context.Context) qtx.Transaction

func (f AmbientTransactionSourceFunc) CurrentTransaction(ctx context.Context) qtx.Transaction {
	return f(ctx)
}

// ContextTransactionSource берет окружающую транзакцию из контекста, см. [qtx.CurrentTransaction].
var ContextTransactionSource AmbientTransactionSource = AmbientTransactionSourceFunc(qtx.CurrentTransaction)
