package qtx

import "context"

type Enlistment interface {
	// Done indicates that the transaction participant has completed its work.
	Done()
}

type SinglePhaseEnlistment interface {
	Aborted(cause error)
	Committed()
	// InDoubt indicates that the outcome of the transaction can not be determined by the resource.
	InDoubt(cause error)
}

type PreparingEnlistment interface {
	Enlistment
	// ForceRollback indicates that the transaction should be rolled back.
	ForceRollback(cause error)
	// Prepared indicates that the transaction can be commited.
	Prepared()
}

type EnlistmentNotification interface {
	Prepare(ctx context.Context, enl PreparingEnlistment)
	Commit(ctx context.Context, enl Enlistment)
	Rollback(ctx context.Context, enl Enlistment)
	InDoubt(ctx context.Context, enl Enlistment)
}

type SinglePhaseNotification interface {
	EnlistmentNotification
	SinglePhaseCommit(ctx context.Context, enl SinglePhaseEnlistment)
}

// EnlistmentOptions - режим присоединения диспетчера не долговременных ресурсов.
type EnlistmentOptions int

const (
	// EnlistmentNone - диспетчер только уведомляется о ходе выполнения 2PC.
	EnlistmentNone EnlistmentOptions = iota
	// EnlistDuringPrepareRequired - диспетчеру на фазе подготовки 2PC требуется соединение, и он может присоединять
	// к транзакции другие диспетчеры (в частности, долговременный). Такие диспетчеры подготавливаются раньше прочих.
	EnlistDuringPrepareRequired
)

// CompletionFunc - обработчик завершения транзакции. Вызывается ровно один раз в отдельной горутине, как только
// результат транзакции становится окончательным. Порядок относительно второй фазы 2PC не определен.
type CompletionFunc func(ctx context.Context, tx Transaction)

// Transaction - локальная транзакция с множественными участниками-диспетчерами долговременных (durable) и не
// долговременных (volatile) ресурсов, взаимодействие с которыми производится по протоколам Two Phase Commit (2PC) и
// Single Phase Commit (SPC).
type Transaction interface {

	// EnlistTheOnlyDurable присоединяет диспетчер долгосрочных ресурсов в режиме один-и-только-один. В этом режиме
	// присоединение других диспетчеров долгосрочных ресурсов не допускается, а взаимодействие с присоединенным
	// диспетчером всегда производится только по протоколу SPC.
	// Может использоваться конкурентно. На фазе подготовки 2PC также может использоваться вложенно.
	//
	// Возвращает nil если диспетчер был присоединен, ErrTxError если статус транзакции не допускает новые
	// присоединения или если присоединенный диспетчер долговременных ресурсов уже есть, и ErrTxUnavailable если
	// транзакция освобождена.
	EnlistTheOnlyDurable(trm SinglePhaseNotification) error

	// EnlistVolatile присоединяет диспетчер не долговременных ресурсов в указанном режиме.
	// Может использоваться конкурентно. На фазе подготовки 2PC также может использоваться вложенно.
	//
	// Возвращает nil если диспетчер был присоединен, ErrTxError если статус транзакции не допускает новые
	// присоединения, и ErrTxUnavailable если транзакция освобождена.
	EnlistVolatile(trm EnlistmentNotification, opts EnlistmentOptions) error

	// Rollback отменяет все изменения в транзакции.
	// Блокируется на все время выполнения отмены изменений за исключением заключительной обработки ответов - она
	// всегда выполняется конкурентно и может завершиться уже после завершения вызова Rollback.
	// Может использоваться конкурентно. На фазе подготовки 2PC также может использоваться вложенно.
	//
	// Возвращает nil если изменения отменены, ErrTxAborted если изменения были отменены ранее, и ErrTxError если
	// изменения были зафиксированы ранее.
	Rollback(context.Context) error

	// Info возвращает сведения о транзакции или ErrTxUnavailable если транзакция освобождена.
	Info() (TransactionInformation, error)

	// Clone возвращает независимый экземпляр той же транзакции со своим временем жизни. Клон не может
	// зафиксировать транзакцию.
	//
	// Возвращает ErrTxUnavailable если транзакция освобождена.
	Clone() (Transaction, error)

	// RegisterCompletion регистрирует обработчик завершения транзакции, см. [CompletionFunc]. Если транзакция уже
	// завершена, обработчик вызывается немедленно (в отдельной горутине).
	//
	// Возвращает функцию отмены регистрации или ErrTxUnavailable если транзакция освобождена.
	RegisterCompletion(fn CompletionFunc) (unregister func(), err error)

	// Dispose освобождает экземпляр транзакции. Повторные вызовы ничего не делают.
	Dispose()
}
