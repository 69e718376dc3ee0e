// Package loader fetches violation documents, normalizes them, enriches each
// one with a reverse-geocoded address and returns them ordered by case number.
package loader

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/violation-portal/internal/docstore"
	"github.com/sells-group/violation-portal/internal/model"
	"github.com/sells-group/violation-portal/pkg/geocode"
)

// LoadError reports a failed bulk fetch. Per-record enrichment failures never
// produce a LoadError.
type LoadError struct {
	Collection string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loader: load collection %q: %v", e.Collection, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Option configures a Loader.
type Option func(*Loader)

// WithCollection sets the collection to read.
func WithCollection(name string) Option {
	return func(l *Loader) {
		l.collection = name
	}
}

// WithConcurrency caps the number of in-flight enrichments.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithTaskTimeout bounds each record's enrichment.
func WithTaskTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.taskTimeout = d
		}
	}
}

// WithFetchTimeout bounds the bulk collection fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// WithFields sets the stored field names.
func WithFields(f Fields) Option {
	return func(l *Loader) {
		l.fields = f
	}
}

// Loader runs load cycles against one collection.
type Loader struct {
	store        docstore.Store
	geocoder     geocode.Reverser
	collection   string
	concurrency  int
	taskTimeout  time.Duration
	fetchTimeout time.Duration
	fields       Fields
}

// New creates a Loader over an already constructed store and geocoder. The
// Loader does not own either; the caller closes the store.
func New(store docstore.Store, geocoder geocode.Reverser, opts ...Option) *Loader {
	l := &Loader{
		store:        store,
		geocoder:     geocoder,
		collection:   "withoutlicencedrive",
		concurrency:  8,
		taskTimeout:  10 * time.Second,
		fetchTimeout: 30 * time.Second,
		fields:       DefaultFields(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Collection returns the collection this loader reads.
func (l *Loader) Collection() string {
	return l.collection
}

// Load runs one load cycle. The returned slice is fully enriched and sorted
// by case number descending, ties keeping store order. Only a failed bulk
// fetch (or cancellation of ctx) returns an error, always a *LoadError.
func (l *Loader) Load(ctx context.Context) ([]model.Violation, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("load_id", uuid.NewString()),
		zap.String("collection", l.collection),
	)

	fetchCtx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	docs, err := l.store.List(fetchCtx, l.collection)
	cancel()
	if err != nil {
		log.Error("loader: bulk fetch failed", zap.Error(err))
		return nil, &LoadError{Collection: l.collection, Err: err}
	}
	log.Debug("loader: fetched documents", zap.Int("count", len(docs)))

	records := make([]model.Violation, len(docs))
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			records[i] = l.enrich(ctx, doc, log)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Collection: l.collection, Err: err}
	}

	SortByCaseNumber(records)

	log.Info("loader: load complete",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

// enrich normalizes doc and resolves its location. It never fails: bad input
// and lookup errors become placeholder addresses.
func (l *Loader) enrich(ctx context.Context, doc model.Document, log *zap.Logger) model.Violation {
	v := normalize(doc, l.fields, log)
	if v.RawLocation == "" {
		return v
	}

	lat, lng, err := ParseLocation(v.RawLocation)
	if err != nil {
		log.Warn("loader: malformed location",
			zap.String("document_id", doc.ID),
			zap.String("raw_location", v.RawLocation),
			zap.Error(err),
		)
		v.Location = &model.ResolvedLocation{Address: geocode.PlaceholderInvalid, Malformed: true}
		return v
	}

	taskCtx, cancel := context.WithTimeout(ctx, l.taskTimeout)
	defer cancel()

	addr, ok := geocode.AddressOrPlaceholder(taskCtx, l.geocoder, lat, lng)
	v.Location = &model.ResolvedLocation{Address: addr, Lat: lat, Lng: lng, Resolved: ok}
	return v
}

// SortByCaseNumber orders records by case number, highest first. Equal case
// numbers keep their relative order.
func SortByCaseNumber(records []model.Violation) {
	slices.SortStableFunc(records, func(a, b model.Violation) int {
		return cmp.Compare(b.CaseNumber, a.CaseNumber)
	})
}
