// Package neoutil defines the persistence-substrate boundary: a minimal
// session/runner/result seam over the Neo4j driver. Everything above this
// seam issues parametrized Cypher and reads tabular records; tests swap in
// mock openers without a live database.
package neoutil

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CypherResult is the minimal read surface of a query result.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherRunner executes a single parametrized query.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is a logical unit of work against the substrate. Each Run
// outside ExecuteWrite is an auto-commit transaction; ExecuteWrite scopes
// several statements into one managed write transaction.
type CypherSession interface {
	CypherRunner
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// SessionOpener hands out sessions scoped to one operation.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// Opener is the driver-backed SessionOpener.
type Opener struct {
	driver neo4j.DriverWithContext
}

// NewOpener creates an Opener over a connected driver.
func NewOpener(driver neo4j.DriverWithContext) *Opener {
	return &Opener{driver: driver}
}

// OpenSession opens a driver session.
func (o *Opener) OpenSession(ctx context.Context) CypherSession {
	return &driverSession{sess: o.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

type driverSession struct {
	sess neo4j.SessionWithContext
}

func (s *driverSession) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := s.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *driverSession) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	return s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(managedTx{tx: tx})
	})
}

func (s *driverSession) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}

// managedTx adapts a managed transaction to the CypherRunner seam.
type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (m managedTx) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := m.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}
