package persistence

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned when Commit or Rollback finds no transaction.
var ErrNoTransaction = errors.New("no transaction in context")

// AmbientTx is a transaction carried in a context. Owned is false for a
// unit of work that joined an enclosing transaction; only the owner ends it.
type AmbientTx[T any] struct {
	Tx    T
	Owned bool
}

type ambientKey[T any] struct{}

func withAmbient[T any](ctx context.Context, tx T, owned bool) context.Context {
	return context.WithValue(ctx, ambientKey[T]{}, AmbientTx[T]{Tx: tx, Owned: owned})
}

func ambientFrom[T any](ctx context.Context) (AmbientTx[T], bool) {
	info, ok := ctx.Value(ambientKey[T]{}).(AmbientTx[T])
	return info, ok
}

// txUnit is a unit of work over any transaction type. Begin joins a
// transaction of the same type already in the context.
type txUnit[T any] struct {
	begin    func(context.Context) (T, error)
	commit   func(context.Context, T) error
	rollback func(context.Context, T) error
}

func (u txUnit[T]) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := ambientFrom[T](ctx); ok {
		return withAmbient(ctx, info.Tx, false), nil
	}
	tx, err := u.begin(ctx)
	if err != nil {
		return nil, err
	}
	return withAmbient(ctx, tx, true), nil
}

func (u txUnit[T]) Commit(ctx context.Context) error {
	return u.end(ctx, u.commit)
}

func (u txUnit[T]) Rollback(ctx context.Context) error {
	return u.end(ctx, u.rollback)
}

func (u txUnit[T]) end(ctx context.Context, fn func(context.Context, T) error) error {
	info, ok := ambientFrom[T](ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return fn(ctx, info.Tx)
}
