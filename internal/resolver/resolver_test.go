package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matsen/papermeta/internal/crossref"
	"github.com/matsen/papermeta/internal/openalex"
	"github.com/matsen/papermeta/internal/reference"
)

type fakeFetcher struct {
	works map[string]*crossref.Work
	err   error
	calls []string
}

func (f *fakeFetcher) GetWork(ctx context.Context, doi string) (*crossref.Work, error) {
	f.calls = append(f.calls, doi)
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.works[doi]
	if !ok {
		return nil, fmt.Errorf("%w: %s", crossref.ErrNotFound, doi)
	}
	return w, nil
}

type fakeSearcher struct {
	results []openalex.Work
	err     error
	calls   int
}

func (f *fakeSearcher) SearchWorks(ctx context.Context, query string, perPage int) ([]openalex.Work, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type memCache struct {
	entries map[string]reference.Metadata
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]reference.Metadata)}
}

func (c *memCache) Get(ctx context.Context, kind, key string) (reference.Metadata, bool, error) {
	m, ok := c.entries[kind+"|"+key]
	return m, ok, nil
}

func (c *memCache) Put(ctx context.Context, kind, key string, m reference.Metadata) error {
	c.puts++
	c.entries[kind+"|"+key] = m
	return nil
}

func TestByDOI_Success(t *testing.T) {
	fetcher := &fakeFetcher{works: map[string]*crossref.Work{
		"10.1/x": {Title: []string{"Resolved Title"}, ContainerTitle: []string{"J"}},
	}}
	r := New(fetcher, &fakeSearcher{})

	m, err := r.ByDOI(context.Background(), "https://doi.org/10.1/x")
	if err != nil {
		t.Fatalf("ByDOI() error = %v", err)
	}
	if m.Title != "Resolved Title" || m.Journal != "J" || m.DOI != "10.1/x" {
		t.Errorf("ByDOI() = %+v", m)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "10.1/x" {
		t.Errorf("fetcher called with %v, want normalized doi", fetcher.calls)
	}
}

func TestByDOI_NotFoundAndFailure(t *testing.T) {
	r := New(&fakeFetcher{}, &fakeSearcher{})
	_, err := r.ByDOI(context.Background(), "10.1/missing")
	if !IsNotFound(err) {
		t.Errorf("ByDOI(missing) error = %v, want not found", err)
	}

	transport := errors.New("connection refused")
	r = New(&fakeFetcher{err: fmt.Errorf("%w: %v", crossref.ErrNetworkError, transport)}, &fakeSearcher{})
	_, err = r.ByDOI(context.Background(), "10.1/x")
	if err == nil || IsNotFound(err) {
		t.Errorf("ByDOI(transport failure) error = %v, want non-not-found error", err)
	}
	if !errors.Is(err, crossref.ErrNetworkError) {
		t.Errorf("ByDOI() error = %v, want wrapped ErrNetworkError", err)
	}

	if _, err := r.ByDOI(context.Background(), "   "); !IsNotFound(err) {
		t.Errorf("ByDOI(empty) error = %v, want not found", err)
	}
}

func TestByDOI_Cache(t *testing.T) {
	fetcher := &fakeFetcher{works: map[string]*crossref.Work{
		"10.1/x": {Title: []string{"Cached"}},
	}}
	cache := newMemCache()
	r := New(fetcher, &fakeSearcher{}, WithCache(cache))

	for i := 0; i < 2; i++ {
		m, err := r.ByDOI(context.Background(), "10.1/x")
		if err != nil {
			t.Fatalf("ByDOI() error = %v", err)
		}
		if m.Title != "Cached" {
			t.Errorf("ByDOI() title = %q", m.Title)
		}
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("fetcher called %d times, want 1", len(fetcher.calls))
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d, want 1", cache.puts)
	}
}

func TestByTitle_SimilarityGate(t *testing.T) {
	query := "Deep Learning for Protein Folding"

	tests := []struct {
		name      string
		candidate string
		wantErr   error
	}{
		{"unrelated rejected", "Completely Unrelated Subject Matter", ErrLowSimilarity},
		{"close match accepted", "Deep Learning for Protein Structure Folding", nil},
		{"exact match accepted", "deep learning for protein folding", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{results: []openalex.Work{{
				Title:           tt.candidate,
				PublicationYear: 2021,
				DOI:             "https://doi.org/10.5/abc",
			}}}
			r := New(&fakeFetcher{}, searcher)

			m, err := r.ByTitle(context.Background(), query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ByTitle() error = %v, want %v", err, tt.wantErr)
				}
				if !IsNotFound(err) {
					t.Errorf("rejection should classify as not found: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ByTitle() error = %v", err)
			}
			if m.DOI != "10.5/abc" || m.Year != 2021 || m.Title != tt.candidate {
				t.Errorf("ByTitle() = %+v", m)
			}
		})
	}
}

func TestByTitle_CustomThreshold(t *testing.T) {
	searcher := &fakeSearcher{results: []openalex.Work{{Title: "Deep Learning Methods"}}}

	// {deep, learning} shared out of {deep, learning, protein, folding, methods}: 0.4
	strict := New(&fakeFetcher{}, searcher)
	if _, err := strict.ByTitle(context.Background(), "Deep Learning Protein Folding"); !errors.Is(err, ErrLowSimilarity) {
		t.Errorf("default threshold: error = %v, want ErrLowSimilarity", err)
	}

	lenient := New(&fakeFetcher{}, searcher, WithSimilarityThreshold(0.4))
	if _, err := lenient.ByTitle(context.Background(), "Deep Learning Protein Folding"); err != nil {
		t.Errorf("threshold 0.4: error = %v, want accept", err)
	}
}

func TestByTitle_NoResultsAndErrors(t *testing.T) {
	r := New(&fakeFetcher{}, &fakeSearcher{})
	if _, err := r.ByTitle(context.Background(), "Some Long Enough Title"); !IsNotFound(err) {
		t.Errorf("ByTitle(no results) error = %v, want not found", err)
	}

	r = New(&fakeFetcher{}, &fakeSearcher{err: openalex.ErrNetworkError})
	_, err := r.ByTitle(context.Background(), "Some Long Enough Title")
	if err == nil || IsNotFound(err) {
		t.Errorf("ByTitle(transport failure) error = %v, want failure", err)
	}
}

func TestLookupTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	fetcher := fetcherFunc(func(ctx context.Context, doi string) (*crossref.Work, error) {
		deadline, hasDeadline = ctx.Deadline()
		return &crossref.Work{}, nil
	})

	r := New(fetcher, &fakeSearcher{}, WithLookupTimeout(time.Second))
	start := time.Now()
	if _, err := r.ByDOI(context.Background(), "10.1/x"); err != nil {
		t.Fatalf("ByDOI() error = %v", err)
	}
	if !hasDeadline {
		t.Fatal("lookup context has no deadline")
	}
	if deadline.Sub(start) > 2*time.Second {
		t.Errorf("deadline %v too far in the future", deadline.Sub(start))
	}
}

type fetcherFunc func(ctx context.Context, doi string) (*crossref.Work, error)

func (f fetcherFunc) GetWork(ctx context.Context, doi string) (*crossref.Work, error) {
	return f(ctx, doi)
}
