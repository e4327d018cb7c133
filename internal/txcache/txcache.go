// Package txcache provides transaction-scoped memoization. A memoized
// function caches successful results for the lifetime of one outer database
// transaction, so repeated lookups within a single request hit the store
// once, while no cached value can ever leak into a later transaction.
package txcache

import "context"

// Scope is anything that can invalidate a cache when the outermost
// transaction of a unit of work ends. *UnitOfWork implements it.
type Scope interface {
	OnOuterEnd(func())
}

// Memoize wraps fn with a cache keyed by its argument, bound to the given
// scope. Only successful results are cached; errors propagate unmemoized.
// The cache clears when the scope's outermost transaction ends, never on
// savepoint boundaries.
func Memoize[K comparable, V any](scope Scope, fn func(context.Context, K) (V, error)) func(context.Context, K) (V, error) {
	cache := make(map[K]V)
	scope.OnOuterEnd(func() {
		clear(cache)
	})
	return func(ctx context.Context, key K) (V, error) {
		if v, ok := cache[key]; ok {
			return v, nil
		}
		v, err := fn(ctx, key)
		if err != nil {
			var zero V
			return zero, err
		}
		cache[key] = v
		return v, nil
	}
}
