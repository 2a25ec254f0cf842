package engine_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescout/pricescout/internal/dom"
	"github.com/pricescout/pricescout/internal/engine"
	"github.com/pricescout/pricescout/internal/extract"
	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/notify"
	"github.com/pricescout/pricescout/internal/store"
	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

type fakeLoader struct {
	pages map[string]string
	loads []string
}

func (f *fakeLoader) Load(_ context.Context, url string) (*dom.Document, error) {
	f.loads = append(f.loads, url)
	html, ok := f.pages[url]
	if !ok {
		return nil, errors.New("page unreachable")
	}
	return dom.Parse(strings.NewReader(html), url)
}

func productPage(title string, price string) string {
	return fmt.Sprintf(`<html><head>
  <meta property="og:title" content="%s">
  <meta property="og:image" content="https://cdn.example.com/p.jpg">
  <meta property="og:price:amount" content="%s">
</head><body></body></html>`, title, price)
}

func setupRecheck(t *testing.T, loader *fakeLoader) (*engine.Engine, *history.Engine, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	hist := history.NewEngine(st, notify.NewNoOpNotifier(slog.Default()), history.DefaultConfig())
	pipeline := extract.NewPipeline([]extract.Method{extract.NewOpenGraph()})

	eng := engine.NewEngine(st, loader, pipeline, hist,
		engine.WithRateLimit(1000, 10),
	)
	return eng, hist, st
}

func track(t *testing.T, hist *history.Engine, url string, amount money.Cents) *domain.Product {
	t.Helper()
	p, err := hist.Track(context.Background(), &domain.ExtractedProduct{
		Title: "Tracked",
		Image: "https://cdn.example.com/p.jpg",
		Price: amount,
		URL:   url,
		Date:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return p
}

func TestRunRecheckRecordsChangedPrices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	loader := &fakeLoader{pages: map[string]string{
		"https://example.com/widget": productPage("Widget", "85.00"),
		"https://example.com/gadget": productPage("Gadget", "40.00"),
	}}
	eng, hist, st := setupRecheck(t, loader)

	widget := track(t, hist, "https://example.com/widget", 10000)
	gadget := track(t, hist, "https://example.com/gadget", 4000)

	require.NoError(t, eng.RunRecheck(ctx))
	assert.Len(t, loader.loads, 2)

	// Widget dropped 15%: entry appended and alert raised.
	latest, err := st.LatestPriceEntry(ctx, widget.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(8500), latest.Amount)

	alert, err := st.ActiveAlert(ctx, widget.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(10000), alert.HighPriceAmount)

	// Gadget price unchanged: deduped, single entry, no alert.
	entries, err := st.ListPriceEntries(ctx, gadget.ID, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = st.ActiveAlert(ctx, gadget.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunRecheckContinuesPastFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	loader := &fakeLoader{pages: map[string]string{
		// First product's page is unreachable; second still gets rechecked.
		"https://example.com/ok": productPage("OK", "20.00"),
	}}
	eng, hist, st := setupRecheck(t, loader)

	track(t, hist, "https://example.com/broken", 5000)
	ok := track(t, hist, "https://example.com/ok", 3000)

	require.NoError(t, eng.RunRecheck(ctx))
	assert.Len(t, loader.loads, 2)

	latest, err := st.LatestPriceEntry(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(2000), latest.Amount)
}

func TestRunRecheckSkipsUnextractablePages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	loader := &fakeLoader{pages: map[string]string{
		"https://example.com/blank": `<html><body><p>nothing here</p></body></html>`,
	}}
	eng, hist, st := setupRecheck(t, loader)

	p := track(t, hist, "https://example.com/blank", 5000)

	require.NoError(t, eng.RunRecheck(ctx))

	entries, err := st.ListPriceEntries(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunRecheckHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{pages: map[string]string{}}
	eng, hist, _ := setupRecheck(t, loader)
	track(t, hist, "https://example.com/widget", 5000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := eng.RunRecheck(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchedulerRegistersRecheckJob(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{pages: map[string]string{}}
	eng, _, _ := setupRecheck(t, loader)

	s, err := engine.NewScheduler(eng, time.Hour, slog.Default())
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)
}
