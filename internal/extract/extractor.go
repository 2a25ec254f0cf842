// Package extract implements the multi-strategy product extraction
// pipeline: site-specific selectors, the scoring ruleset, and Open Graph
// meta tags, tried in priority order.
//
// Every method is all-or-nothing: it returns either a fully populated
// product or nil. A nil result is never an error; the pipeline simply
// falls through to the next method. Errors are reserved for genuine
// configuration faults such as an unrecognized accessor kind.
package extract

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pricescout/pricescout/internal/dom"
	domain "github.com/pricescout/pricescout/pkg/types"
)

// Method is one extraction strategy.
type Method interface {
	Name() domain.ExtractionMethod
	// Extract returns a product with title, image, and price populated,
	// or nil when the page does not yield a complete result. A non-nil
	// error indicates a configuration fault, not a page mismatch.
	Extract(doc *dom.Document) (*domain.ExtractedProduct, error)
}

// Pipeline tries extraction methods in priority order and returns the
// first complete result. Extraction is synchronous and runs against one
// consistent document snapshot; a later invocation for the same page
// simply supersedes the earlier result.
type Pipeline struct {
	methods []Method
	tel     Telemetry
	log     *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTelemetry sets the telemetry sink.
func WithTelemetry(t Telemetry) PipelineOption {
	return func(p *Pipeline) {
		p.tel = t
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithClock sets the timestamp source for extracted products.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline creates a Pipeline trying methods in the given order.
func NewPipeline(methods []Method, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		methods: methods,
		log:     slog.Default(),
		tracer:  otel.Tracer("extract"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tel == nil {
		p.tel = NewLogTelemetry(p.log)
	}
	return p
}

// Extract runs the cascade against one document snapshot.
// It returns (nil, nil) when every method failed, and a non-nil error only
// for configuration faults.
func (p *Pipeline) Extract(
	ctx context.Context,
	doc *dom.Document,
) (*domain.ExtractedProduct, error) {
	_, span := p.tracer.Start(ctx, "pipeline.extract",
		trace.WithAttributes(attribute.String("page.url", doc.URL())),
	)
	defer span.End()

	p.tel.ExtractionStart(doc.URL())

	for _, m := range p.methods {
		result, err := m.Extract(doc)
		if err != nil {
			p.tel.ExtractionComplete(doc.URL(), m.Name(), false)
			return nil, err
		}
		if result == nil {
			continue
		}

		result.URL = doc.URL()
		result.Date = p.now().UTC()
		result.Method = m.Name()

		if !result.Complete() {
			continue
		}

		span.SetAttributes(attribute.String("extract.method", string(m.Name())))
		p.tel.ExtractionComplete(doc.URL(), m.Name(), true)
		return result, nil
	}

	p.tel.ExtractionComplete(doc.URL(), "", false)
	return nil, nil
}

// resolveURL resolves a possibly relative resource URL against the page URL.
func resolveURL(doc *dom.Document, raw string) string {
	if raw == "" {
		return ""
	}
	base, err := url.Parse(doc.URL())
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}
