package qtx

import (
	"database/sql"

	"github.com/google/uuid"
)

// Status - наблюдаемый извне статус транзакции.
type Status int

const (
	StatusActive Status = iota
	StatusCommitted
	StatusAborted
	StatusInDoubt
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusCommitted:
		return "Committed"
	case StatusAborted:
		return "Aborted"
	case StatusInDoubt:
		return "InDoubt"
	default:
		return "Unknown"
	}
}

// IsolationLevel - уровень изоляции транзакции. Нулевое значение - IsolationSerializable.
type IsolationLevel int

const (
	IsolationSerializable IsolationLevel = iota
	IsolationRepeatableRead
	IsolationReadCommitted
	IsolationReadUncommitted
	IsolationSnapshot
)

func (l IsolationLevel) String() string {
	return l.SQL().String()
}

// SQL возвращает соответствующий уровень изоляции database/sql.
func (l IsolationLevel) SQL() sql.IsolationLevel {
	switch l {
	case IsolationRepeatableRead:
		return sql.LevelRepeatableRead
	case IsolationReadCommitted:
		return sql.LevelReadCommitted
	case IsolationReadUncommitted:
		return sql.LevelReadUncommitted
	case IsolationSnapshot:
		return sql.LevelSnapshot
	default:
		return sql.LevelSerializable
	}
}

// TransactionInformation - сведения о транзакции.
type TransactionInformation struct {
	// LocalID - идентификатор транзакции, общий для всех ее клонов.
	LocalID uuid.UUID
	// DistributedID - идентификатор распределенной транзакции, uuid.Nil если транзакция не распределенная.
	DistributedID  uuid.UUID
	Status         Status
	IsolationLevel IsolationLevel
}

// IsDistributed сообщает, была ли транзакция повышена до распределенной.
func (info TransactionInformation) IsDistributed() bool {
	return info.DistributedID != uuid.Nil
}
