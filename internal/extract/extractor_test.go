package extract_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescout/pricescout/internal/dom"
	"github.com/pricescout/pricescout/internal/extract"
	"github.com/pricescout/pricescout/pkg/money"
	"github.com/pricescout/pricescout/pkg/ruleset"
	domain "github.com/pricescout/pricescout/pkg/types"
)

type telemetryEvent struct {
	kind   string
	method domain.ExtractionMethod
	ok     bool
}

type fakeTelemetry struct {
	events []telemetryEvent
}

func (f *fakeTelemetry) ExtractionStart(_ string) {
	f.events = append(f.events, telemetryEvent{kind: "start"})
}

func (f *fakeTelemetry) ExtractionComplete(_ string, method domain.ExtractionMethod, ok bool) {
	f.events = append(f.events, telemetryEvent{kind: "complete", method: method, ok: ok})
}

func parse(t *testing.T, src, url string) *dom.Document {
	t.Helper()
	d, err := dom.Parse(strings.NewReader(src), url)
	require.NoError(t, err)
	return d
}

func newPipeline(tel extract.Telemetry) *extract.Pipeline {
	return extract.NewPipeline(
		[]extract.Method{
			extract.NewSiteSelector(extract.DefaultSelectorTable()),
			extract.NewRuleset(ruleset.DefaultConfig()),
			extract.NewOpenGraph(),
		},
		extract.WithTelemetry(tel),
		extract.WithClock(func() time.Time {
			return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		}),
	)
}

const amazonPage = `<html><body>
  <span id="productTitle"> Widget Pro 3000 </span>
  <img id="landingImage" src="/images/widget.jpg">
  <span id="priceblock_ourprice">$10<sup>99</sup></span>
</body></html>`

const openGraphPage = `<html><head>
  <meta property="og:title" content="Gadget Mini">
  <meta property="og:image" content="https://cdn.example.com/gadget.jpg">
  <meta property="og:price:amount" content="24.50">
</head><body></body></html>`

func TestPipelineSiteSelectorWins(t *testing.T) {
	t.Parallel()

	tel := &fakeTelemetry{}
	p := newPipeline(tel)

	doc := parse(t, amazonPage, "https://www.amazon.com/dp/B000")
	got, err := p.Extract(context.Background(), doc)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Widget Pro 3000", got.Title)
	assert.Equal(t, "https://www.amazon.com/images/widget.jpg", got.Image)
	assert.Equal(t, money.Cents(1099), got.Price)
	assert.Equal(t, "https://www.amazon.com/dp/B000", got.URL)
	assert.Equal(t, domain.MethodSiteSelector, got.Method)
	assert.False(t, got.Date.IsZero())
	assert.True(t, got.Complete())

	require.Len(t, tel.events, 2)
	assert.Equal(t, "start", tel.events[0].kind)
	assert.Equal(t, domain.MethodSiteSelector, tel.events[1].method)
	assert.True(t, tel.events[1].ok)
}

func TestPipelineFallsBackToOpenGraph(t *testing.T) {
	t.Parallel()

	tel := &fakeTelemetry{}
	p := newPipeline(tel)

	// Unknown hostname, no layout annotations: only Open Graph can win.
	doc := parse(t, openGraphPage, "https://tiny-shop.example.net/p/7")
	got, err := p.Extract(context.Background(), doc)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Gadget Mini", got.Title)
	assert.Equal(t, "https://cdn.example.com/gadget.jpg", got.Image)
	assert.Equal(t, money.Cents(2450), got.Price)
	assert.Equal(t, domain.MethodOpenGraph, got.Method)

	require.Len(t, tel.events, 2)
	assert.Equal(t, domain.MethodOpenGraph, tel.events[1].method)
	assert.True(t, tel.events[1].ok)
}

func TestPipelineExhaustionReturnsNil(t *testing.T) {
	t.Parallel()

	tel := &fakeTelemetry{}
	p := newPipeline(tel)

	doc := parse(t, `<html><body><p>just text</p></body></html>`,
		"https://nowhere.example.org/")
	got, err := p.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.Len(t, tel.events, 2)
	assert.Equal(t, domain.ExtractionMethod(""), tel.events[1].method)
	assert.False(t, tel.events[1].ok)
}

func TestPipelineIdempotentOnStaticDocument(t *testing.T) {
	t.Parallel()

	p := newPipeline(&fakeTelemetry{})
	doc := parse(t, amazonPage, "https://www.amazon.com/dp/B000")

	first, err := p.Extract(context.Background(), doc)
	require.NoError(t, err)
	second, err := p.Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipelinePropagatesConfigError(t *testing.T) {
	t.Parallel()

	table := extract.SelectorTable{
		"example.com": {
			Title: []extract.SelectorRule{{
				Selector: "h1",
				Accessor: extract.Accessor{Kind: extract.AccessorKind(99)},
			}},
			Image: []extract.SelectorRule{{
				Selector: "img",
				Accessor: extract.Accessor{Kind: extract.AccessorAttr, Attr: "src"},
			}},
			Price: []extract.SelectorRule{{
				Selector: "span",
				Accessor: extract.Accessor{Kind: extract.AccessorChildText},
			}},
		},
	}

	p := extract.NewPipeline(
		[]extract.Method{extract.NewSiteSelector(table)},
		extract.WithTelemetry(&fakeTelemetry{}),
	)

	doc := parse(t, `<html><body><h1>X</h1></body></html>`, "https://example.com/p")
	_, err := p.Extract(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized accessor kind")
}

func TestOpenGraphAllOrNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
	}{
		{
			name: "missing image",
			html: `<html><head>
  <meta property="og:title" content="X">
  <meta property="og:price:amount" content="10.00">
</head></html>`,
		},
		{
			name: "missing price",
			html: `<html><head>
  <meta property="og:title" content="X">
  <meta property="og:image" content="https://cdn.example.com/x.jpg">
</head></html>`,
		},
		{
			name: "unparseable price",
			html: `<html><head>
  <meta property="og:title" content="X">
  <meta property="og:image" content="https://cdn.example.com/x.jpg">
  <meta property="og:price:amount" content="call us">
</head></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := parse(t, tt.html, "https://example.com/")
			got, err := extract.NewOpenGraph().Extract(doc)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestSiteSelectorAllOrNothing(t *testing.T) {
	t.Parallel()

	// Recognized host but the price selector matches nothing.
	page := `<html><body>
  <span id="productTitle">Widget</span>
  <img id="landingImage" src="/w.jpg">
</body></html>`

	doc := parse(t, page, "https://www.amazon.com/dp/B001")
	got, err := extract.NewSiteSelector(extract.DefaultSelectorTable()).Extract(doc)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSiteSelectorUnknownHostIsNil(t *testing.T) {
	t.Parallel()

	doc := parse(t, amazonPage, "https://shop.unknown.example/")
	got, err := extract.NewSiteSelector(extract.DefaultSelectorTable()).Extract(doc)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRulesetMethodExtractsAnnotatedPage(t *testing.T) {
	t.Parallel()

	page := `<html data-scout-viewport="1200x800">
<body>
  <img id="hero" src="https://cdn.example.com/widget.jpg" data-scout-rect="100,120,400,400">
  <h1 data-scout-rect="520,130,400,40" data-scout-font="28">Widget Pro 3000</h1>
  <span class="product-price" data-scout-rect="520,200,120,32" data-scout-font="26">$59.99</span>
</body>
</html>`

	doc := parse(t, page, "https://shop.example.com/widget")
	got, err := extract.NewRuleset(ruleset.DefaultConfig()).Extract(doc)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Widget Pro 3000", got.Title)
	assert.Equal(t, "https://cdn.example.com/widget.jpg", got.Image)
	assert.Equal(t, money.Cents(5999), got.Price)
}
