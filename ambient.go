package qtx

import (
	"context"
)

// WithTransaction возвращает производный по отношению к ctx контекст с окружающей транзакцией tx. Значение nil
// подавляет окружающую транзакцию.
func WithTransaction(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, contextKey[Transaction]{}, tx)
}

// CurrentTransaction возвращает окружающую транзакцию или nil.
func CurrentTransaction(ctx context.Context) Transaction {
	tx, ok := ctx.Value(contextKey[Transaction]{}).(Transaction)
	if !ok {
		return nil
	}
	return tx
}

// SameTransaction сообщает, представляют ли a и b (в том числе клоны) одну и ту же транзакцию.
// Освобожденный экземпляр не совпадает ни с чем, кроме самого себя.
func SameTransaction(a, b Transaction) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	ai, err := a.Info()
	if err != nil {
		return false
	}
	bi, err := b.Info()
	if err != nil {
		return false
	}
	return ai.LocalID == bi.LocalID
}
