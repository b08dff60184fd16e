package qtx

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/qbixus/qtx-uow/internal"
)

// CommittableTransaction - локальная транзакция [Transaction], изменения в которой могут быть зафиксированы.
// Нулевое значение готово к использованию (уровень изоляции IsolationSerializable).
type CommittableTransaction struct {
	mu     sync.Mutex
	status txStatus
	tod    SinglePhaseNotification // The Only Durable TRM.
	vrms   []volatileTRM           // Volatile TRM-s.

	localID       uuid.UUID
	distributedID uuid.UUID
	isolation     IsolationLevel
	disposed      bool

	completions []completionRegistration
	nextRegID   uint64

	// Для исключения конкурирующих друг с другом Commit и Rollback, в дополнение к mu
	ctlMu sync.Mutex
}

// NewCommittableTransaction создает транзакцию с указанным уровнем изоляции.
func NewCommittableTransaction(isolation IsolationLevel) *CommittableTransaction {
	return &CommittableTransaction{localID: uuid.New(), isolation: isolation}
}

// EnlistTheOnlyDurable реализует [Transaction.EnlistTheOnlyDurable].
func (tx *CommittableTransaction) EnlistTheOnlyDurable(drm SinglePhaseNotification) error {
	return tx.enlistTheOnlyDurable(drm, true)
}

func (tx *CommittableTransaction) enlistTheOnlyDurable(drm SinglePhaseNotification, checkDisposed bool) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if checkDisposed && tx.disposed {
		return ErrTxUnavailable
	}
	if tx.tod != nil {
		return ErrTxError
	}

	if !(tx.status == txStatusActive || tx.isPreparing()) {
		return ErrTxError
	}
	tx.tod = drm
	return nil
}

// EnlistVolatile реализует [Transaction.EnlistVolatile].
func (tx *CommittableTransaction) EnlistVolatile(vrm EnlistmentNotification, opts EnlistmentOptions) error {
	return tx.enlistVolatile(vrm, opts, true)
}

func (tx *CommittableTransaction) enlistVolatile(
	vrm EnlistmentNotification, opts EnlistmentOptions, checkDisposed bool,
) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if checkDisposed && tx.disposed {
		return ErrTxUnavailable
	}
	if !(tx.status == txStatusActive || tx.isPreparing()) {
		return ErrTxError
	}
	tx.vrms = append(tx.vrms, volatileTRM{trm: vrm, opts: opts})
	return nil
}

// Commit фиксирует изменения в транзакции.
// Фиксация изменений выполняется поэтапно: 1) фаза подготовки 2PC, сначала диспетчеры с
// EnlistDuringPrepareRequired, затем прочие; 2) фиксация SPC; 3) фаза фиксации, отмены или неопределенности 2PC,
// включая отмену SPC.
// Блокируется на все время выполнения фиксации изменений за исключением обработки ответов на последнем этапе - она
// всегда выполняется конкурентно и может завершиться уже после завершения вызова Commit. Обработчики завершения
// (см. [CompletionFunc]) запускаются конкурентно сразу после определения результата.
// Может использоваться конкурентно.
// Допускает вложенное использование Rollback, EnlistTheOnlyDurable и EnlistVolatile на фазе подготовки 2PC.
//
// Возвращает nil если изменения зафиксированы, ErrTxAborted если изменения отменены или были отменены ранее,
// ErrTxInDoubt если диспетчер долговременных ресурсов не смог определить результат, и ErrTxError если изменения
// были зафиксированы ранее.
func (tx *CommittableTransaction) Commit(ctx context.Context) error {
	tx.ctlMu.Lock()
	defer tx.ctlMu.Unlock()

	tx.mu.Lock()

	// ... т.к. tx.ctlMu исключает конкурирующие вызовы Commit и Rollback
	internal.Assert(tx.isTerminated() || tx.status == txStatusActive, "#commit", tx.status)

	// Проверяем текущее состояние
	if tx.status == txStatusAborted {
		tx.mu.Unlock()
		return ErrTxAborted
	}
	if tx.isTerminated() {
		tx.mu.Unlock()
		return ErrTxError
	}
	// ... и возможность быстрого завершения
	if tx.tod == nil && len(tx.vrms) == 0 {
		tx.status = txStatusCommitted
		completions := tx.terminate()
		tx.mu.Unlock()
		tx.notifyCompleted(ctx, completions)
		return nil
	}

	internal.Assert(tx.status == txStatusActive)

	// Формируем рабочий набор данных
	var (
		tod         = tx.tod
		vrms        = orderForPrepare(tx.vrms)
		responses   = make(chan response, len(vrms)+1)
		shouldAbort bool
		inDoubt     bool
	)

	// Шаг 1: 2PC Prepare

	tx.status = txStatusPreparing

	for processed := 0; !shouldAbort && processed < len(vrms); {
		tx.mu.Unlock()

		for i := processed; i < len(vrms); i++ {
			vrms[i].Prepare(ctx, enlistment{participant: i, responses: responses})
		}

		for ; processed < len(vrms); processed++ {
			resp, ok := <-responses
			internal.Assert(ok)
			switch resp.vote {
			case voteDone:
				vrms[resp.participant] = nil
			case voteAbort, voteInDoubt:
				shouldAbort = true
			case voteCommit:
			}
		}

		tx.mu.Lock()

		// Учитываем возможные вложенные присоединения...
		if len(tx.vrms) > len(vrms) {
			vrms = append(vrms, notifications(tx.vrms[len(vrms):])...)
			close(responses)
			responses = make(chan response, len(vrms)+1)
		}
		tod = tx.tod

		// Учитываем возможные вложенные Rollback...
		if tx.status == txStatusPrepareAborted {
			shouldAbort = true
		}
	}

	// Шаг 2: SPC Commit

	tx.status = txStatusFinalizing

	if tod != nil && !shouldAbort {
		tx.mu.Unlock()

		tod.SinglePhaseCommit(ctx, enlistment{participant: durableParticipant, responses: responses})

		resp, ok := <-responses
		internal.Assert(ok)
		switch resp.vote {
		case voteCommit:
		case voteInDoubt:
			inDoubt = true
		default:
			shouldAbort = true
		}

		tx.mu.Lock()
	}

	// Шаг 3: 2PC Rollback/Commit/InDoubt + SPC Rollback

	// Фиксируем результирующий статус транзакции
	switch {
	case shouldAbort:
		tx.status = txStatusAborted
	case inDoubt:
		tx.status = txStatusInDoubt
	default:
		tx.status = txStatusCommitted
	}

	// Высвобождаем накопленные ресурсы - все необходимое есть в рабочем наборе данных
	completions := tx.terminate()

	tx.mu.Unlock()

	tx.notifyCompleted(ctx, completions)

	// Инициируем необходимые Commit/Rollback/InDoubt
	pendingRespsNo := 0
	if tod != nil && shouldAbort {
		tod.Rollback(ctx, enlistment{participant: durableParticipant, responses: responses})
		pendingRespsNo++
	}
	for i, vrm := range vrms {
		if vrm == nil {
			//	"Done" присоединения игнорируем
			continue
		}
		en := enlistment{participant: i, responses: responses}
		switch {
		case shouldAbort:
			vrm.Rollback(ctx, en)
		case inDoubt:
			vrm.InDoubt(ctx, en)
		default:
			vrm.Commit(ctx, en)
		}
		pendingRespsNo++
	}

	drainResponses(responses, pendingRespsNo)

	// Завершаем вызов

	switch {
	case shouldAbort:
		return ErrTxAborted
	case inDoubt:
		return ErrTxInDoubt
	}
	return nil
}

// Rollback реализует [Transaction.Rollback].
func (tx *CommittableTransaction) Rollback(ctx context.Context) error {
	// Отрабатываем случай вложенного (и неотличимого конкурентного) вызова во время 2PC Prepare, а также вызова из
	// обработчиков второй фазы, когда результат уже определен
	tx.mu.Lock()
	if tx.isPreparing() {
		tx.status = txStatusPrepareAborted
		tx.mu.Unlock()
		return nil
	}
	if err := tx.terminatedErr(); err != nil {
		tx.mu.Unlock()
		return err
	}
	tx.mu.Unlock()

	tx.ctlMu.Lock()
	defer tx.ctlMu.Unlock()

	tx.mu.Lock()

	// ... т.к. tx.ctlMu исключает конкурирующие вызовы Commit и Rollback
	internal.Assert(tx.isTerminated() || tx.status == txStatusActive, "#rollback", tx.status)

	if err := tx.terminatedErr(); err != nil {
		tx.mu.Unlock()
		return err
	}

	// Формируем рабочий набор данных
	var (
		tod  = tx.tod
		vrms = notifications(tx.vrms)
	)

	// Единственный шаг: 2PC/SPC Rollback

	tx.status = txStatusAborted
	completions := tx.terminate()

	tx.mu.Unlock()

	tx.notifyCompleted(ctx, completions)

	if tod == nil && len(vrms) == 0 {
		return nil
	}

	responses := make(chan response, len(vrms)+1)
	pendingRespsNo := 0
	if tod != nil {
		tod.Rollback(ctx, enlistment{participant: durableParticipant, responses: responses})
		pendingRespsNo++
	}
	for i, vrm := range vrms {
		vrm.Rollback(ctx, enlistment{participant: i, responses: responses})
	}
	pendingRespsNo += len(vrms)

	drainResponses(responses, pendingRespsNo)

	return nil
}

// Promote повышает транзакцию до распределенной и возвращает ее распределенный идентификатор. Повторные вызовы
// возвращают тот же идентификатор.
func (tx *CommittableTransaction) Promote() (uuid.UUID, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.disposed {
		return uuid.Nil, ErrTxUnavailable
	}
	if tx.isTerminated() {
		return uuid.Nil, ErrTxError
	}
	if tx.distributedID == uuid.Nil {
		tx.distributedID = uuid.New()
	}
	return tx.distributedID, nil
}

// Info реализует [Transaction.Info].
func (tx *CommittableTransaction) Info() (TransactionInformation, error) {
	return tx.info(true)
}

func (tx *CommittableTransaction) info(checkDisposed bool) (TransactionInformation, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if checkDisposed && tx.disposed {
		return TransactionInformation{}, ErrTxUnavailable
	}
	return TransactionInformation{
		LocalID:        tx.identity(),
		DistributedID:  tx.distributedID,
		Status:         tx.status.public(),
		IsolationLevel: tx.isolation,
	}, nil
}

// Clone реализует [Transaction.Clone].
func (tx *CommittableTransaction) Clone() (Transaction, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.disposed {
		return nil, ErrTxUnavailable
	}
	return &clonedTransaction{origin: tx}, nil
}

// RegisterCompletion реализует [Transaction.RegisterCompletion].
func (tx *CommittableTransaction) RegisterCompletion(fn CompletionFunc) (func(), error) {
	return tx.registerCompletion(fn, tx, true)
}

func (tx *CommittableTransaction) registerCompletion(
	fn CompletionFunc, sender Transaction, checkDisposed bool,
) (func(), error) {
	internal.Assert(fn != nil, "#args: fn")

	tx.mu.Lock()
	if checkDisposed && tx.disposed {
		tx.mu.Unlock()
		return nil, ErrTxUnavailable
	}
	if tx.isTerminated() {
		tx.mu.Unlock()
		go fn(context.Background(), sender)
		return func() {}, nil
	}

	tx.nextRegID++
	id := tx.nextRegID
	tx.completions = append(tx.completions, completionRegistration{id: id, fn: fn, sender: sender})
	tx.mu.Unlock()

	return func() {
		tx.mu.Lock()
		defer tx.mu.Unlock()
		tx.completions = slices.DeleteFunc(tx.completions, func(r completionRegistration) bool { return r.id == id })
	}, nil
}

// Dispose реализует [Transaction.Dispose]. Незавершенная транзакция отменяется.
func (tx *CommittableTransaction) Dispose() {
	tx.mu.Lock()
	if tx.disposed {
		tx.mu.Unlock()
		return
	}
	tx.disposed = true
	active := tx.status == txStatusActive
	tx.mu.Unlock()

	if active {
		_ = tx.Rollback(context.Background())
	}
}

func (tx *CommittableTransaction) isTerminated() bool {
	return tx.status == txStatusCommitted || tx.status == txStatusAborted || tx.status == txStatusInDoubt
}

func (tx *CommittableTransaction) terminatedErr() error {
	switch {
	case tx.status == txStatusAborted:
		return ErrTxAborted
	case tx.isTerminated():
		return ErrTxError
	}
	return nil
}

func (tx *CommittableTransaction) isPreparing() bool {
	return tx.status == txStatusPreparing || tx.status == txStatusPrepareAborted
}

func (tx *CommittableTransaction) identity() uuid.UUID {
	if tx.localID == uuid.Nil {
		tx.localID = uuid.New()
	}
	return tx.localID
}

// terminate высвобождает участников и возвращает обработчики завершения, которые нужно вызвать.
func (tx *CommittableTransaction) terminate() []completionRegistration {
	tx.tod = nil
	tx.vrms = nil
	completions := tx.completions
	tx.completions = nil
	return completions
}

func (tx *CommittableTransaction) notifyCompleted(ctx context.Context, completions []completionRegistration) {
	if len(completions) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		for _, reg := range completions {
			reg.fn(ctx, reg.sender)
		}
	}()
}

// Запускает конкурентную фоновую обработку ответов
func drainResponses(responses chan response, pendingRespsNo int) {
	go func() {
		for range pendingRespsNo {
			_, ok := <-responses
			internal.Assert(ok)
		}
		close(responses)
	}()
}

// ---

type volatileTRM struct {
	trm  EnlistmentNotification
	opts EnlistmentOptions
}

// orderForPrepare возвращает диспетчеры в порядке подготовки: сначала EnlistDuringPrepareRequired, затем
// прочие, с сохранением порядка присоединения внутри каждой группы.
func orderForPrepare(vrms []volatileTRM) []EnlistmentNotification {
	ordered := make([]EnlistmentNotification, 0, len(vrms)+len(vrms)/2+1)
	for _, v := range vrms {
		if v.opts == EnlistDuringPrepareRequired {
			ordered = append(ordered, v.trm)
		}
	}
	for _, v := range vrms {
		if v.opts != EnlistDuringPrepareRequired {
			ordered = append(ordered, v.trm)
		}
	}
	return ordered
}

func notifications(vrms []volatileTRM) []EnlistmentNotification {
	res := make([]EnlistmentNotification, len(vrms))
	for i, v := range vrms {
		res[i] = v.trm
	}
	return res
}

type completionRegistration struct {
	id     uint64
	fn     CompletionFunc
	sender Transaction
}

// ---

type txStatus int

const (
	txStatusActive txStatus = iota
	txStatusPreparing
	txStatusPrepareAborted
	txStatusFinalizing
	txStatusCommitted
	txStatusAborted
	txStatusInDoubt
)

func (s txStatus) public() Status {
	switch s {
	case txStatusCommitted:
		return StatusCommitted
	case txStatusAborted:
		return StatusAborted
	case txStatusInDoubt:
		return StatusInDoubt
	default:
		return StatusActive
	}
}
