package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/passnet/passnet/engine/domain"
	"github.com/passnet/passnet/engine/events"
	"github.com/passnet/passnet/engine/graph"
	"github.com/passnet/passnet/pkg/fn"
)

const samplePayload = `[
	{
		"id": "e1",
		"type": {"id": 30, "name": "Pass"},
		"team": {"id": 217, "name": "Barcelona"},
		"player": {"id": 5503, "name": "Messi"},
		"minute": 3,
		"pass": {"recipient": {"id": 5216, "name": "Busquets"}}
	}
]`

type fakeMaterializer struct {
	mu       sync.Mutex
	calls    int
	lastID   string
	lastEx   events.Extract
	failures int
	err      error

	inFlight int32
	overlap  atomic.Bool
}

func (f *fakeMaterializer) ImportMatch(_ context.Context, matchID string, teams []events.Team, passes []events.PassRecord) (graph.ImportSummary, error) {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastID = matchID
	f.lastEx = events.Extract{MatchID: matchID, Teams: teams, Passes: passes}
	if f.failures > 0 {
		f.failures--
		return graph.ImportSummary{}, f.err
	}
	return graph.ImportSummary{TeamsImported: len(teams), PassesImported: len(passes)}, nil
}

func TestImport_ParsesAndMaterializes(t *testing.T) {
	store := &fakeMaterializer{}
	svc := NewService(store, nil)

	sum, err := svc.Import(context.Background(), "m1", []byte(samplePayload))
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if sum.TeamsImported != 1 || sum.PassesImported != 1 {
		t.Fatalf("wrong summary: %+v", sum)
	}
	if store.lastID != "m1" {
		t.Fatalf("wrong match id: %q", store.lastID)
	}
	if len(store.lastEx.Passes) != 1 || store.lastEx.Passes[0].FromID != 5503 {
		t.Fatalf("wrong extract: %+v", store.lastEx)
	}
}

func TestImport_ParseFailureSkipsMaterialize(t *testing.T) {
	store := &fakeMaterializer{}
	svc := NewService(store, nil)

	_, err := svc.Import(context.Background(), "m1", []byte(`{"not": "an array"}`))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if store.calls != 0 {
		t.Fatal("materializer must not run on parse failure")
	}
}

func TestImport_NullPayloadLeavesMatchUntouched(t *testing.T) {
	store := &fakeMaterializer{}
	svc := NewService(store, nil)

	_, err := svc.Import(context.Background(), "m1", []byte(`null`))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	// A null payload must not pass for an empty event array: materializing
	// it would delete the match's existing pass data.
	if store.calls != 0 {
		t.Fatal("materializer must not run on a null payload")
	}
}

func TestImport_EmptyEventArray(t *testing.T) {
	store := &fakeMaterializer{}
	svc := NewService(store, nil)

	sum, err := svc.Import(context.Background(), "m1", []byte(`[]`))
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if sum.TeamsImported != 0 || sum.PassesImported != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
	if store.calls != 1 {
		t.Fatal("empty arrays still materialize (to clear stale data)")
	}
}

func TestImport_PropagatesImportError(t *testing.T) {
	cause := domain.NewImportError("m1", "create passes", errors.New("db down"))
	store := &fakeMaterializer{failures: 1, err: cause}
	svc := NewService(store, nil)

	_, err := svc.Import(context.Background(), "m1", []byte(samplePayload))
	if !errors.Is(err, domain.ErrImportFailed) {
		t.Fatalf("expected import failure, got %v", err)
	}
}

func TestImport_RetryRecoversTransientFailure(t *testing.T) {
	cause := domain.NewImportError("m1", "write transaction", errors.New("reset"))
	store := &fakeMaterializer{failures: 1, err: cause}
	svc := NewService(store, nil, WithRetry(fn.RetryOpts{
		MaxAttempts: 2,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
	}))

	sum, err := svc.Import(context.Background(), "m1", []byte(samplePayload))
	if err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if store.calls != 2 || sum.PassesImported != 1 {
		t.Fatalf("calls=%d sum=%+v", store.calls, sum)
	}
}

func TestImport_SameMatchSerializes(t *testing.T) {
	store := &fakeMaterializer{}
	svc := NewService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Import(context.Background(), "m1", []byte(samplePayload)); err != nil {
				t.Errorf("import: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.overlap.Load() {
		t.Fatal("imports of the same match overlapped")
	}
	if store.calls != 8 {
		t.Fatalf("expected 8 imports, got %d", store.calls)
	}
}
