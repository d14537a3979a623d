// Package resolver enriches extracted fields from external bibliographic
// registries: CrossRef by DOI and OpenAlex by title.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/papermeta/internal/crossref"
	"github.com/matsen/papermeta/internal/extract"
	"github.com/matsen/papermeta/internal/logging"
	"github.com/matsen/papermeta/internal/openalex"
	"github.com/matsen/papermeta/internal/reference"
	"github.com/matsen/papermeta/internal/storage"
)

const (
	// DefaultSimilarityThreshold is the minimum title similarity for
	// accepting a title-search candidate.
	DefaultSimilarityThreshold = 0.6

	// DefaultLookupTimeout bounds each external lookup.
	DefaultLookupTimeout = 8 * time.Second
)

var (
	// ErrNotFound indicates the registry has no matching record.
	ErrNotFound = errors.New("no matching record")

	// ErrLowSimilarity indicates a title-search candidate was rejected.
	ErrLowSimilarity = fmt.Errorf("%w: title similarity below threshold", ErrNotFound)
)

// IsNotFound reports whether err is a lookup miss rather than a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// WorkFetcher fetches a registry record by DOI.
type WorkFetcher interface {
	GetWork(ctx context.Context, doi string) (*crossref.Work, error)
}

// WorkSearcher searches works by free text.
type WorkSearcher interface {
	SearchWorks(ctx context.Context, query string, perPage int) ([]openalex.Work, error)
}

// Cache memoizes lookup results. storage.LookupCache implements it.
type Cache interface {
	Get(ctx context.Context, kind, key string) (reference.Metadata, bool, error)
	Put(ctx context.Context, kind, key string, m reference.Metadata) error
}

// Resolver looks up canonical metadata by DOI or by title.
type Resolver struct {
	works     WorkFetcher
	search    WorkSearcher
	cache     Cache
	logger    *zap.Logger
	threshold float64
	timeout   time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache memoizes successful lookups in c.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.OrNop(l)
	}
}

// WithSimilarityThreshold sets the minimum accepted title similarity.
func WithSimilarityThreshold(t float64) Option {
	return func(r *Resolver) {
		r.threshold = t
	}
}

// WithLookupTimeout bounds each external lookup. Zero disables the bound.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// New creates a Resolver over a DOI registry and a title-search index.
func New(works WorkFetcher, search WorkSearcher, opts ...Option) *Resolver {
	r := &Resolver{
		works:     works,
		search:    search,
		logger:    zap.NewNop(),
		threshold: DefaultSimilarityThreshold,
		timeout:   DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// ByDOI fetches canonical metadata for a DOI from the registry.
// The returned DOI is always the normalized input.
func (r *Resolver) ByDOI(ctx context.Context, doi string) (reference.Metadata, error) {
	doi = crossref.NormalizeDOI(doi)
	if doi == "" {
		return reference.Metadata{}, ErrNotFound
	}

	if m, ok := r.cached(ctx, storage.LookupDOI, doi); ok {
		return m, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	work, err := r.works.GetWork(ctx, doi)
	if err != nil {
		if crossref.IsNotFound(err) {
			return reference.Metadata{}, fmt.Errorf("%w: doi %s", ErrNotFound, doi)
		}
		return reference.Metadata{}, fmt.Errorf("fetching doi %s: %w", doi, err)
	}

	m := work.Metadata(doi)
	r.store(ctx, storage.LookupDOI, doi, m)
	return m, nil
}

// ByTitle searches for the best title match and accepts it only when the
// word-set similarity to the query clears the threshold.
func (r *Resolver) ByTitle(ctx context.Context, title string) (reference.Metadata, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return reference.Metadata{}, ErrNotFound
	}

	if m, ok := r.cached(ctx, storage.LookupTitle, title); ok {
		return m, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	works, err := r.search.SearchWorks(ctx, title, 1)
	if err != nil {
		return reference.Metadata{}, fmt.Errorf("searching title: %w", err)
	}
	if len(works) == 0 {
		return reference.Metadata{}, fmt.Errorf("%w: no results for title", ErrNotFound)
	}

	candidate := works[0]
	similarity := extract.Similarity(title, candidate.Title)
	if similarity < r.threshold {
		r.logger.Debug("rejected title match",
			zap.String("query", title),
			zap.String("candidate", candidate.Title),
			zap.Float64("similarity", similarity))
		return reference.Metadata{}, ErrLowSimilarity
	}

	m := candidate.Metadata()
	r.store(ctx, storage.LookupTitle, title, m)
	return m, nil
}

func (r *Resolver) cached(ctx context.Context, kind, key string) (reference.Metadata, bool) {
	if r.cache == nil {
		return reference.Metadata{}, false
	}
	m, ok, err := r.cache.Get(ctx, kind, key)
	if err != nil {
		r.logger.Warn("lookup cache read failed", zap.String("kind", kind), zap.Error(err))
		return reference.Metadata{}, false
	}
	if ok {
		r.logger.Debug("lookup cache hit", zap.String("kind", kind), zap.String("key", key))
	}
	return m, ok
}

func (r *Resolver) store(ctx context.Context, kind, key string, m reference.Metadata) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(ctx, kind, key, m); err != nil {
		r.logger.Warn("lookup cache write failed", zap.String("kind", kind), zap.Error(err))
	}
}
