// Package importer turns uploaded PDF and EPUB files into normalized
// bibliographic metadata, enriching extracted fields from external registries.
package importer

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/papermeta/internal/crossref"
	"github.com/matsen/papermeta/internal/extract"
	"github.com/matsen/papermeta/internal/logging"
	"github.com/matsen/papermeta/internal/probe"
	"github.com/matsen/papermeta/internal/reference"
	"github.com/matsen/papermeta/internal/resolver"
)

// DefaultMinTitleLength is the title length a PDF title must exceed before
// a title search is attempted.
const DefaultMinTitleLength = 10

// DefaultConcurrency bounds ExtractAll when no limit is given.
const DefaultConcurrency = 4

// Resolver looks up canonical metadata. *resolver.Resolver implements it.
type Resolver interface {
	ByDOI(ctx context.Context, doi string) (reference.Metadata, error)
	ByTitle(ctx context.Context, title string) (reference.Metadata, error)
}

// File is an uploaded document.
type File struct {
	Name string
	Data []byte
}

// Result is the outcome of extracting one file.
type Result struct {
	File     string             `json:"file"`
	Kind     probe.Kind         `json:"kind,omitempty"`
	Metadata reference.Metadata `json:"metadata"`
	OK       bool               `json:"ok"`
}

// Importer extracts metadata from files. The zero value is not usable; use New.
type Importer struct {
	resolver       Resolver
	logger         *zap.Logger
	minTitleLength int
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) {
		im.logger = logging.OrNop(l)
	}
}

// WithMinTitleLength sets the title length a PDF title must exceed before
// falling back to a title search.
func WithMinTitleLength(n int) Option {
	return func(im *Importer) {
		im.minTitleLength = n
	}
}

// New creates an Importer. A nil resolver disables enrichment.
func New(r Resolver, opts ...Option) *Importer {
	im := &Importer{
		resolver:       r,
		logger:         zap.NewNop(),
		minTitleLength: DefaultMinTitleLength,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ExtractFromFile extracts normalized metadata from a PDF or EPUB file.
// It returns false for unsupported or unparsable files. Lookup failures
// degrade to the fields extracted from the file itself.
func (im *Importer) ExtractFromFile(ctx context.Context, f File) (reference.Metadata, bool) {
	kind, ok := probe.KindFromName(f.Name)
	if !ok {
		im.logger.Debug("unsupported file type", zap.String("file", f.Name))
		return reference.Metadata{}, false
	}

	p, err := probe.Read(f.Data, kind)
	if err != nil {
		im.logger.Warn("could not read document", zap.String("file", f.Name), zap.Error(err))
		return reference.Metadata{}, false
	}

	var raw reference.Metadata
	switch kind {
	case probe.KindPDF:
		raw = RawFromPDF(p)
	case probe.KindEPUB:
		raw = RawFromEPUB(p)
	}

	log := im.logger.With(zap.String("file", f.Name))

	if raw.DOI != "" {
		if m, ok := im.enrichByDOI(ctx, log, raw); ok {
			return m, true
		}
	}
	if kind == probe.KindPDF && utf8.RuneCountInString(raw.Title) > im.minTitleLength {
		if m, ok := im.enrichByTitle(ctx, log, raw); ok {
			return m, true
		}
	}

	return raw, true
}

// LookupDOI fetches registry metadata for a DOI on its own, for callers
// that offer an explicit "look up by DOI" action.
func (im *Importer) LookupDOI(ctx context.Context, doi string) (reference.Metadata, bool) {
	if im.resolver == nil {
		return reference.Metadata{}, false
	}
	m, err := im.resolver.ByDOI(ctx, doi)
	if err != nil {
		im.logLookupFailure(im.logger.With(zap.String("doi", doi)), "doi lookup", err)
		return reference.Metadata{}, false
	}
	return m, true
}

// ExtractAll extracts many files concurrently, at most concurrency at a
// time. Results are in input order.
func (im *Importer) ExtractAll(ctx context.Context, files []File, concurrency int) []Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, f := range files {
		g.Go(func() error {
			kind, _ := probe.KindFromName(f.Name)
			m, ok := im.ExtractFromFile(ctx, f)
			results[i] = Result{File: f.Name, Kind: kind, Metadata: m, OK: ok}
			return nil
		})
	}
	// Workers never return errors; failures are reported per result.
	_ = g.Wait()

	return results
}

func (im *Importer) enrichByDOI(ctx context.Context, log *zap.Logger, raw reference.Metadata) (reference.Metadata, bool) {
	if im.resolver == nil {
		return reference.Metadata{}, false
	}
	resolved, err := im.resolver.ByDOI(ctx, raw.DOI)
	if err != nil {
		im.logLookupFailure(log.With(zap.String("doi", raw.DOI)), "doi lookup", err)
		return reference.Metadata{}, false
	}
	m := raw.Merge(resolved)
	m.DOI = crossref.NormalizeDOI(raw.DOI)
	log.Debug("enriched by doi", zap.String("doi", m.DOI))
	return m, true
}

func (im *Importer) enrichByTitle(ctx context.Context, log *zap.Logger, raw reference.Metadata) (reference.Metadata, bool) {
	if im.resolver == nil {
		return reference.Metadata{}, false
	}
	resolved, err := im.resolver.ByTitle(ctx, raw.Title)
	if err != nil {
		im.logLookupFailure(log.With(zap.String("title", raw.Title)), "title lookup", err)
		return reference.Metadata{}, false
	}
	log.Debug("enriched by title", zap.String("doi", resolved.DOI))
	return raw.Merge(resolved), true
}

// logLookupFailure logs a miss at debug and anything else at warn.
func (im *Importer) logLookupFailure(log *zap.Logger, what string, err error) {
	if resolver.IsNotFound(err) {
		log.Debug(what+" found nothing", zap.Error(err))
		return
	}
	log.Warn(what+" failed", zap.Error(err))
}

// RawFromPDF builds the fields a PDF carries on its own.
func RawFromPDF(p *probe.Probe) reference.Metadata {
	sample := p.SampleText

	title := extract.CleanTitle(p.Field(probe.InfoTitle))
	if title == "" {
		title = extract.TitleFromText(sample)
	}

	year := extract.Year(p.Field(probe.InfoCreationDate))
	if year == 0 {
		year = extract.YearFromText(sample)
	}

	doi := extract.DOI(sample)
	if doi == "" {
		doi = extract.DOI(p.Field(probe.InfoSubject))
	}

	return reference.Metadata{
		Title:   title,
		Authors: extract.ParseAuthors(p.Field(probe.InfoAuthor)),
		Year:    year,
		DOI:     doi,
	}
}

// RawFromEPUB builds the fields an EPUB package document carries.
func RawFromEPUB(p *probe.Probe) reference.Metadata {
	return reference.Metadata{
		Title:   extract.CleanTitle(p.Field(probe.InfoTitle)),
		Authors: p.Field(probe.InfoAuthor),
		Year:    extract.Year(p.Field(probe.InfoDate)),
		DOI:     extract.DOI(p.Field(probe.InfoIdentifier)),
	}
}
