// Package graph materializes parsed pass records into a Neo4j property
// graph and answers aggregation queries over it.
package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/passnet/passnet/pkg/neoutil"
	"github.com/passnet/passnet/pkg/resilience"
)

// DefaultTimeout bounds any substrate operation whose caller supplied no
// deadline of its own.
const DefaultTimeout = 15 * time.Second

// Store provides match graph operations on top of the substrate seam.
type Store struct {
	opener  neoutil.SessionOpener
	timeout time.Duration
	breaker *resilience.Breaker
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout overrides the default per-operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBreaker guards read queries with a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(s *Store) { s.breaker = b }
}

// New creates a Store over a connected driver.
func New(driver neo4j.DriverWithContext, opts ...Option) *Store {
	return NewWithOpener(neoutil.NewOpener(driver), opts...)
}

// NewWithOpener creates a Store over an arbitrary session opener.
func NewWithOpener(opener neoutil.SessionOpener, opts ...Option) *Store {
	s := &Store{opener: opener, timeout: DefaultTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// bound returns a context carrying a deadline, applying the store default
// when the caller did not set one.
func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// guardRead routes a read through the circuit breaker when one is set.
func (s *Store) guardRead(ctx context.Context, f func(context.Context) error) error {
	if s.breaker != nil {
		return s.breaker.Call(ctx, f)
	}
	return f(ctx)
}
