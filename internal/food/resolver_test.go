package food

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"nourish/internal/nutrient"
)

type fakeBarcode struct {
	products map[string]*Product
	calls    int
}

func (f *fakeBarcode) Lookup(_ context.Context, barcode string) (*Product, error) {
	f.calls++
	return f.products[barcode], nil
}

type fakeLocal struct {
	rows    map[string][]LocalRow
	queries []string
}

func (f *fakeLocal) Search(_ context.Context, query string, _ int) ([]LocalRow, error) {
	f.queries = append(f.queries, query)
	return f.rows[normalizeName(query)], nil
}

type fakeRemote struct {
	results map[string][]Candidate
	err     error
	queries []string
}

func (f *fakeRemote) Search(_ context.Context, query string, _ int) ([]Candidate, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

type missingCall struct{ name, query string }

type fakeMissing struct {
	mu    sync.Mutex
	calls []missingCall
}

func (f *fakeMissing) RecordMissing(_ context.Context, name, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, missingCall{name, query})
	return nil
}

type fakeRecorder struct {
	sources []string
}

func (f *fakeRecorder) RecordResolution(_ context.Context, source string, _ time.Duration) error {
	f.sources = append(f.sources, source)
	return nil
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	apple := LocalRow{Code: "F110000", Name: "Apfel, roh", Per100g: kcal(52), Weight: WeightExact}

	t.Run("barcode wins", func(t *testing.T) {
		bc := &fakeBarcode{products: map[string]*Product{
			"4001": {Barcode: "4001", Name: "Müsliriegel", Nutriments: map[string]any{"energy-kcal_100g": 420.0}},
		}}
		local := &fakeLocal{}
		r := NewResolver(ResolverDeps{Barcode: bc, Local: local}, zap.NewNop())

		rec := r.Resolve(ctx, "Riegel", "4001")
		if rec == nil || rec.Source != SourceBarcode || rec.Per100g.Get(nutrient.Calories) != 420 {
			t.Fatalf("unexpected record %+v", rec)
		}
		if len(local.queries) != 0 {
			t.Error("local step ran after a barcode hit")
		}
	})

	t.Run("unknown barcode falls through to local", func(t *testing.T) {
		bc := &fakeBarcode{}
		local := &fakeLocal{rows: map[string][]LocalRow{"apfel, roh": {apple}}}
		r := NewResolver(ResolverDeps{Barcode: bc, Local: local}, zap.NewNop())

		rec := r.Resolve(ctx, "Apfel", "999")
		if rec == nil || rec.Source != SourceLocal || rec.ExternalID != "F110000" {
			t.Fatalf("unexpected record %+v", rec)
		}
		if bc.calls != 1 {
			t.Errorf("barcode calls = %d, want 1", bc.calls)
		}
	})

	t.Run("alias replaces the local query", func(t *testing.T) {
		local := &fakeLocal{rows: map[string][]LocalRow{"apfel, roh": {apple}}}
		r := NewResolver(ResolverDeps{Local: local}, zap.NewNop())

		r.Resolve(ctx, "apfel", "")
		if len(local.queries) != 1 || local.queries[0] != "Apfel, roh" {
			t.Errorf("local queries = %v", local.queries)
		}
	})

	t.Run("remote uses translation", func(t *testing.T) {
		remote := &fakeRemote{results: map[string][]Candidate{
			"salmon": {
				{FdcID: 1, Description: "Salmon oil"},
				{FdcID: 2, Description: "Salmon, raw", DataType: "SR Legacy", Nutrients: map[int]float64{1008: 142}},
			},
		}}
		r := NewResolver(ResolverDeps{Local: &fakeLocal{}, Remote: remote}, zap.NewNop())

		rec := r.Resolve(ctx, "gebratener Lachs", "")
		if rec == nil || rec.ExternalID != "2" || rec.Source != SourceRemote {
			t.Fatalf("unexpected record %+v", rec)
		}
		if rec.Per100g.Get(nutrient.Calories) != 142 {
			t.Errorf("calories = %v", rec.Per100g.Get(nutrient.Calories))
		}
	})

	t.Run("remote retries original name after empty translation", func(t *testing.T) {
		remote := &fakeRemote{results: map[string][]Candidate{
			"Skyr": {{FdcID: 9, Description: "Skyr"}},
		}}
		r := NewResolver(ResolverDeps{Remote: remote}, zap.NewNop())

		rec := r.Resolve(ctx, "Skyr", "")
		if rec == nil || rec.ExternalID != "9" {
			t.Fatalf("unexpected record %+v", rec)
		}
		want := []string{"skyr yogurt", "Skyr"}
		if len(remote.queries) != 2 || remote.queries[0] != want[0] || remote.queries[1] != want[1] {
			t.Errorf("remote queries = %v, want %v", remote.queries, want)
		}
	})

	t.Run("untranslated name is searched once", func(t *testing.T) {
		remote := &fakeRemote{}
		r := NewResolver(ResolverDeps{Remote: remote}, zap.NewNop())
		r.Resolve(ctx, "Quetschie", "")
		if len(remote.queries) != 1 {
			t.Errorf("remote queries = %v", remote.queries)
		}
	})

	t.Run("exhaustion records missing once per call", func(t *testing.T) {
		missing := &fakeMissing{}
		rec := &fakeRecorder{}
		r := NewResolver(ResolverDeps{
			Local:    &fakeLocal{},
			Remote:   &fakeRemote{},
			Missing:  missing,
			Recorder: rec,
		}, zap.NewNop())

		if got := r.Resolve(ctx, " Lachs ", ""); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
		if len(missing.calls) != 1 {
			t.Fatalf("missing calls = %d, want 1", len(missing.calls))
		}
		if c := missing.calls[0]; c.name != "Lachs" || c.query != "salmon" {
			t.Errorf("missing call = %+v", c)
		}
		if len(rec.sources) != 1 || rec.sources[0] != string(SourceNone) {
			t.Errorf("recorded sources = %v", rec.sources)
		}
	})

	t.Run("barcode-only miss is recorded by barcode", func(t *testing.T) {
		missing := &fakeMissing{}
		r := NewResolver(ResolverDeps{
			Barcode: &fakeBarcode{},
			Local:   &fakeLocal{},
			Missing: missing,
		}, zap.NewNop())

		if got := r.Resolve(ctx, "", "4006040001"); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
		if len(missing.calls) != 1 {
			t.Fatalf("missing calls = %d, want 1", len(missing.calls))
		}
		if c := missing.calls[0]; c.name != "4006040001" || c.query != "barcode:4006040001" {
			t.Errorf("missing call = %+v", c)
		}
	})

	t.Run("remote failure is a miss", func(t *testing.T) {
		missing := &fakeMissing{}
		r := NewResolver(ResolverDeps{
			Remote:  &fakeRemote{err: errors.New("boom")},
			Missing: missing,
		}, zap.NewNop())

		if got := r.Resolve(ctx, "Quetschie", ""); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
		if len(missing.calls) != 1 {
			t.Errorf("missing calls = %d, want 1", len(missing.calls))
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		local := &fakeLocal{rows: map[string][]LocalRow{"apfel, roh": {apple}}}
		r := NewResolver(ResolverDeps{Local: local}, zap.NewNop())

		a := r.Resolve(ctx, "Apfel", "")
		b := r.Resolve(ctx, "Apfel", "")
		if a == nil || b == nil || *a != *b {
			t.Errorf("resolutions differ: %+v vs %+v", a, b)
		}
	})
}

type blockingRemote struct{}

func (blockingRemote) Search(ctx context.Context, _ string, _ int) ([]Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolver_Timeout(t *testing.T) {
	missing := &fakeMissing{}
	r := NewResolver(ResolverDeps{
		Remote:  blockingRemote{},
		Missing: missing,
		Timeout: 20 * time.Millisecond,
	}, zap.NewNop())

	done := make(chan *Record, 1)
	go func() { done <- r.Resolve(context.Background(), "Lachs", "") }()

	select {
	case rec := <-done:
		if rec != nil {
			t.Errorf("expected nil, got %+v", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not honour its deadline")
	}
	missing.mu.Lock()
	defer missing.mu.Unlock()
	if len(missing.calls) != 1 {
		t.Errorf("missing calls = %d, want 1", len(missing.calls))
	}
}
