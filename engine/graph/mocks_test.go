package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/passnet/passnet/pkg/neoutil"
)

// --- Mock infrastructure ---

type mockResult struct {
	records []*neo4j.Record
	idx     int
	err     error
}

func newMockResult(records ...*neo4j.Record) *mockResult {
	return &mockResult{records: records}
}

func (m *mockResult) Next(_ context.Context) bool {
	if m.idx < len(m.records) {
		m.idx++
		return true
	}
	return false
}

func (m *mockResult) Record() *neo4j.Record { return m.records[m.idx-1] }

func (m *mockResult) Err() error { return m.err }

// mockSession answers Run from a queue of canned results and records every
// statement it sees, both auto-commit and inside ExecuteWrite.
type mockSession struct {
	results  []*mockResult
	runErr   error
	writeErr error

	cyphers []string
	params  []map[string]any
	closed  bool
}

func (s *mockSession) Run(_ context.Context, cypher string, params map[string]any) (neoutil.CypherResult, error) {
	s.cyphers = append(s.cyphers, cypher)
	s.params = append(s.params, params)
	if s.runErr != nil {
		return nil, s.runErr
	}
	if len(s.results) == 0 {
		return newMockResult(), nil
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res, nil
}

func (s *mockSession) ExecuteWrite(_ context.Context, work func(tx neoutil.CypherRunner) (any, error)) (any, error) {
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	return work(s)
}

func (s *mockSession) Close(_ context.Context) error {
	s.closed = true
	return nil
}

// txErrorSession fails the nth Run inside a write transaction.
type txErrorSession struct {
	failAt  int
	failErr error
	count   int
	cyphers []string
}

func (s *txErrorSession) Run(_ context.Context, cypher string, _ map[string]any) (neoutil.CypherResult, error) {
	s.cyphers = append(s.cyphers, cypher)
	n := s.count
	s.count++
	if n == s.failAt {
		return nil, s.failErr
	}
	return newMockResult(), nil
}

func (s *txErrorSession) ExecuteWrite(_ context.Context, work func(tx neoutil.CypherRunner) (any, error)) (any, error) {
	return work(s)
}

func (s *txErrorSession) Close(_ context.Context) error { return nil }

type mockOpener struct {
	session neoutil.CypherSession
}

func (o *mockOpener) OpenSession(_ context.Context) neoutil.CypherSession { return o.session }

// --- record builders ---

func rec(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func linkRecord(fromID int64, fromName string, toID int64, toName string, count int64) *neo4j.Record {
	return rec(
		[]string{"fromId", "fromName", "toId", "toName", "count"},
		fromID, fromName, toID, toName, count,
	)
}
