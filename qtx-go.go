package qtx

import (
	"errors"
	"fmt"
)

var (
	ErrTxError          = errors.New("#TX_ILLEGAL_STATE")
	ErrTxAborted        = fmt.Errorf("#TX_ABORTED: %w", ErrTxError)
	ErrTxInDoubt        = fmt.Errorf("#TX_IN_DOUBT: %w", ErrTxError)
	ErrTxUnavailable    = errors.New("#TX_UNAVAILABLE")
	ErrInvalidOperation = errors.New("#TX_INVALID_OPERATION")
)

type contextKey[T any] struct{}
