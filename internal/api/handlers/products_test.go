package handlers_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescout/pricescout/internal/api/handlers"
	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/notify"
	"github.com/pricescout/pricescout/internal/store"
)

func newHistoryEngine(st store.Store) *history.Engine {
	return history.NewEngine(st, notify.NewNoOpNotifier(slog.Default()), history.DefaultConfig())
}

func trackInput(url string, amount int64) *handlers.TrackProductInput {
	input := &handlers.TrackProductInput{}
	input.Body.URL = url
	input.Body.Title = "Widget Deluxe"
	input.Body.Image = "https://www.example.com/widget.jpg"
	input.Body.Amount = amount
	return input
}

func TestProductsHandler_TrackAndGet(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	h := handlers.NewProductsHandler(st, newHistoryEngine(st))
	ctx := context.Background()

	tracked, err := h.Track(ctx, trackInput("https://www.example.com/widget", 1099))
	require.NoError(t, err)
	assert.Equal(t, "Widget Deluxe", tracked.Body.Title)
	assert.NotEmpty(t, tracked.Body.ID)

	got, err := h.Get(ctx, &handlers.GetProductInput{ID: tracked.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, tracked.Body.ID, got.Body.ID)

	// Tracking the same URL again maps to the same product.
	again, err := h.Track(ctx, trackInput("https://www.example.com/widget", 999))
	require.NoError(t, err)
	assert.Equal(t, tracked.Body.ID, again.Body.ID)

	list, err := h.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Body.Total)
}

func TestProductsHandler_GetNotFound(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	h := handlers.NewProductsHandler(st, newHistoryEngine(st))

	_, err := h.Get(context.Background(), &handlers.GetProductInput{ID: "missing"})
	require.Error(t, err)

	var status huma.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, 404, status.GetStatus())
}

func TestProductsHandler_Untrack(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	hist := newHistoryEngine(st)
	h := handlers.NewProductsHandler(st, hist)
	ctx := context.Background()

	tracked, err := h.Track(ctx, trackInput("https://www.example.com/widget", 1099))
	require.NoError(t, err)

	out, err := h.Untrack(ctx, &handlers.UntrackProductInput{ID: tracked.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, "deleted", out.Body.Status)

	_, err = h.Get(ctx, &handlers.GetProductInput{ID: tracked.Body.ID})
	require.Error(t, err)

	// History is gone with the product.
	_, err = st.LatestPriceEntry(ctx, tracked.Body.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProductsHandler_UntrackNotFound(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	h := handlers.NewProductsHandler(st, newHistoryEngine(st))

	_, err := h.Untrack(context.Background(), &handlers.UntrackProductInput{ID: "missing"})
	require.Error(t, err)

	var status huma.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, 404, status.GetStatus())
}

func TestProductsHandler_TrackRecordsFirstEntry(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	h := handlers.NewProductsHandler(st, newHistoryEngine(st))
	ctx := context.Background()

	tracked, err := h.Track(ctx, trackInput("https://www.example.com/widget", 1099))
	require.NoError(t, err)

	entry, err := st.LatestPriceEntry(ctx, tracked.Body.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1099, entry.Amount)
	assert.WithinDuration(t, time.Now().UTC(), entry.Date, time.Minute)
}
