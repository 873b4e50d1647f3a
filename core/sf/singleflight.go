package sf

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Group deduplicates concurrent calls that share a key.
type Group[T any] struct {
	group singleflight.Group
}

func New[T any]() *Group[T] { return &Group[T]{} }

// Do runs fn once for all concurrent callers of key and hands each of them
// the same result. shared reports whether the result went to more than one
// caller.
func (g *Group[T]) Do(key string, fn func() (T, error)) (v T, shared bool, err error) {
	res, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return v, shared, err
	}
	return res.(T), shared, nil
}

// DoContext is like Do but stops waiting when ctx is done. The call itself
// keeps running for the other waiters.
func (g *Group[T]) DoContext(ctx context.Context, key string, fn func() (T, error)) (v T, err error) {
	ch := g.group.DoChan(key, func() (any, error) {
		return fn()
	})
	select {
	case <-ctx.Done():
		return v, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return v, res.Err
		}
		return res.Val.(T), nil
	}
}

// Forget drops key so the next call runs fn again.
func (g *Group[T]) Forget(key string) { g.group.Forget(key) }
