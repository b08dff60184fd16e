package qtx

// vote - ответ участника транзакции на уведомление.
type vote int

const (
	// voteDone - участник больше не нуждается в уведомлениях.
	voteDone vote = iota
	voteAbort
	voteCommit
	voteInDoubt
)

// durableParticipant - номер диспетчера долговременных ресурсов в ответах.
const durableParticipant = -1

type response struct {
	vote        vote
	participant int
	cause       error
}

// enlistment передает ответы участника с номером participant в канал ответов транзакции. Реализует
// [PreparingEnlistment] и [SinglePhaseEnlistment].
type enlistment struct {
	participant int
	responses   chan<- response
}

func (en enlistment) reply(v vote, cause error) {
	en.responses <- response{vote: v, participant: en.participant, cause: cause}
}

func (en enlistment) Done()                     { en.reply(voteDone, nil) }
func (en enlistment) Prepared()                 { en.reply(voteCommit, nil) }
func (en enlistment) Committed()                { en.reply(voteCommit, nil) }
func (en enlistment) ForceRollback(cause error) { en.reply(voteAbort, cause) }
func (en enlistment) Aborted(cause error)       { en.reply(voteAbort, cause) }
func (en enlistment) InDoubt(cause error)       { en.reply(voteInDoubt, cause) }
