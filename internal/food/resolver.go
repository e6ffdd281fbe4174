package food

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	localSearchLimit  = 5
	remoteSearchLimit = 10

	// SourceNone is recorded in metrics when every step missed.
	SourceNone Source = "none"
)

// BarcodeLookup finds packaged products by barcode.
type BarcodeLookup interface {
	Lookup(ctx context.Context, barcode string) (*Product, error)
}

// LocalSearcher ranks rows of the local food table.
type LocalSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]LocalRow, error)
}

// RemoteSearcher queries the remote nutrient database.
type RemoteSearcher interface {
	Search(ctx context.Context, query string, max int) ([]Candidate, error)
}

// MissingSink records names no step could resolve.
type MissingSink interface {
	RecordMissing(ctx context.Context, name, query string) error
}

// Recorder receives one observation per Resolve call.
type Recorder interface {
	RecordResolution(ctx context.Context, source string, latency time.Duration) error
}

// ResolverDeps are the collaborators of a Resolver. Nil collaborators skip
// their step.
type ResolverDeps struct {
	Barcode  BarcodeLookup
	Local    LocalSearcher
	Remote   RemoteSearcher
	Missing  MissingSink
	Recorder Recorder
	// Timeout bounds a whole Resolve call. Zero means no extra deadline.
	Timeout time.Duration
}

// Resolver maps a food name, and optionally a barcode, to a per-100 g
// record by trying each source in turn.
type Resolver struct {
	deps   ResolverDeps
	steps  []step
	logger *zap.Logger
}

// lookup carries one resolution through the steps.
type lookup struct {
	name    string
	barcode string
	// query is the last search string sent to a source, reported with a miss.
	query string
}

type step func(ctx context.Context, l *lookup) *Record

func NewResolver(deps ResolverDeps, logger *zap.Logger) *Resolver {
	r := &Resolver{deps: deps, logger: logger}
	r.steps = []step{r.byBarcode, r.byLocal, r.byRemote}
	return r
}

// Resolve returns the first record found, or nil when every step missed.
// Misses are reported to the missing sink. Resolve never fails; provider
// errors degrade to a miss.
func (r *Resolver) Resolve(ctx context.Context, name, barcode string) *Record {
	start := time.Now()
	if r.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deps.Timeout)
		defer cancel()
	}

	l := &lookup{
		name:    strings.TrimSpace(name),
		barcode: strings.TrimSpace(barcode),
	}
	l.query = l.name

	var rec *Record
	for _, s := range r.steps {
		if rec = s(ctx, l); rec != nil {
			break
		}
		if ctx.Err() != nil {
			r.logger.Warn("resolution deadline reached", zap.String("name", l.name), zap.Error(ctx.Err()))
			break
		}
	}

	// The deadline may have passed; bookkeeping still has to land.
	bg := context.WithoutCancel(ctx)
	source := SourceNone
	if rec != nil {
		source = rec.Source
		r.logger.Info("food resolved",
			zap.String("name", l.name),
			zap.String("source", string(rec.Source)),
			zap.String("external_id", rec.ExternalID))
	} else {
		r.reportMissing(bg, l)
	}
	r.record(bg, source, time.Since(start))
	return rec
}

func (r *Resolver) byBarcode(ctx context.Context, l *lookup) *Record {
	if l.barcode == "" || r.deps.Barcode == nil {
		return nil
	}
	p, err := r.deps.Barcode.Lookup(ctx, l.barcode)
	if err != nil {
		r.logger.Warn("barcode step failed", zap.String("barcode", l.barcode), zap.Error(err))
		return nil
	}
	if p == nil {
		return nil
	}
	return p.Record()
}

func (r *Resolver) byLocal(ctx context.Context, l *lookup) *Record {
	if r.deps.Local == nil || l.name == "" {
		return nil
	}
	q := ResolveAlias(l.name)
	l.query = q
	rows, err := r.deps.Local.Search(ctx, q, localSearchLimit)
	if err != nil {
		r.logger.Warn("local step failed", zap.String("query", q), zap.Error(err))
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	r.logger.Debug("local match",
		zap.String("query", q),
		zap.String("match", rows[0].Name),
		zap.Float64("weight", rows[0].Weight))
	return rows[0].Record()
}

func (r *Resolver) byRemote(ctx context.Context, l *lookup) *Record {
	if r.deps.Remote == nil || l.name == "" {
		return nil
	}
	translated, ok := Translate(l.name)
	query := l.name
	if ok {
		query = translated
	}
	if rec := r.searchRemote(ctx, l, query); rec != nil {
		return rec
	}
	if ok && !strings.EqualFold(translated, l.name) && ctx.Err() == nil {
		if rec := r.searchRemote(ctx, l, l.name); rec != nil {
			return rec
		}
		// Report the translated query, which is what a curator would fix.
		l.query = translated
	}
	return nil
}

func (r *Resolver) searchRemote(ctx context.Context, l *lookup, query string) *Record {
	l.query = query
	candidates, err := r.deps.Remote.Search(ctx, query, remoteSearchLimit)
	if err != nil {
		r.logger.Warn("remote step failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	best, ok := pickBest(candidates, query)
	if !ok {
		return nil
	}
	r.logger.Debug("remote match",
		zap.String("query", query),
		zap.String("match", best.Description),
		zap.Int("candidates", len(candidates)))
	return best.Record()
}

// reportMissing records a miss under its name, or under the barcode when the
// mention carried nothing else.
func (r *Resolver) reportMissing(ctx context.Context, l *lookup) {
	if r.deps.Missing == nil {
		return
	}
	name, query := l.name, l.query
	if name == "" {
		if l.barcode == "" {
			return
		}
		name, query = l.barcode, "barcode:"+l.barcode
	}
	if err := r.deps.Missing.RecordMissing(ctx, name, query); err != nil {
		r.logger.Error("failed to record missing food", zap.String("name", name), zap.Error(err))
		return
	}
	r.logger.Warn("food not found", zap.String("name", name), zap.String("query", query))
}

func (r *Resolver) record(ctx context.Context, source Source, latency time.Duration) {
	if r.deps.Recorder == nil {
		return
	}
	if err := r.deps.Recorder.RecordResolution(ctx, string(source), latency); err != nil {
		r.logger.Warn("failed to record resolution metric", zap.Error(err))
	}
}
