package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescout/pricescout/internal/history"
	"github.com/pricescout/pricescout/internal/notify"
	"github.com/pricescout/pricescout/internal/store"
	"github.com/pricescout/pricescout/pkg/money"
	domain "github.com/pricescout/pricescout/pkg/types"
)

type recordingNotifier struct {
	drops []notify.PriceDropPayload
	err   error
}

func (r *recordingNotifier) SendPriceDrop(_ context.Context, drop notify.PriceDropPayload) error {
	if r.err != nil {
		return r.err
	}
	r.drops = append(r.drops, drop)
	return nil
}

func newEngine(t *testing.T) (*history.Engine, *store.MemoryStore, *recordingNotifier) {
	t.Helper()
	st := store.NewMemoryStore()
	n := &recordingNotifier{}
	e := history.NewEngine(st, n, history.DefaultConfig(),
		history.WithClock(func() time.Time {
			return time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
		}),
	)
	return e, st, n
}

func trackWidget(t *testing.T, e *history.Engine, amount money.Cents) *domain.Product {
	t.Helper()
	p, err := e.Track(context.Background(), &domain.ExtractedProduct{
		Title: "Widget Pro 3000",
		Image: "https://cdn.example.com/widget.jpg",
		Price: amount,
		URL:   "https://example.com/widget",
		Date:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return p
}

func TestTrackCreatesProductWithFirstEntry(t *testing.T) {
	t.Parallel()
	e, st, _ := newEngine(t)
	ctx := context.Background()

	p := trackWidget(t, e, 10000)
	assert.Equal(t, domain.ProductID("https://example.com/widget"), p.ID)

	entry, err := st.LatestPriceEntry(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(10000), entry.Amount)

	// Tracking never raises an alert: a single entry has no drop.
	_, err = st.ActiveAlert(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

type appendFailingStore struct {
	*store.MemoryStore
	appendErr error
}

func (s *appendFailingStore) AppendPriceEntry(ctx context.Context, e *domain.PriceEntry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.MemoryStore.AppendPriceEntry(ctx, e)
}

func TestTrackRollsBackProductWhenFirstEntryFails(t *testing.T) {
	t.Parallel()
	st := &appendFailingStore{
		MemoryStore: store.NewMemoryStore(),
		appendErr:   errors.New("connection reset"),
	}
	e := history.NewEngine(st, &recordingNotifier{}, history.DefaultConfig())
	ctx := context.Background()

	_, err := e.Track(ctx, &domain.ExtractedProduct{
		Title: "Widget Pro 3000",
		Image: "https://cdn.example.com/widget.jpg",
		Price: 10000,
		URL:   "https://example.com/widget",
		Date:  time.Now(),
	})
	require.Error(t, err)

	// The failed first observation must not leave an entry-less product.
	_, err = st.GetProduct(ctx, domain.ProductID("https://example.com/widget"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrackKeepsExistingProductWhenObservationFails(t *testing.T) {
	t.Parallel()
	st := &appendFailingStore{MemoryStore: store.NewMemoryStore()}
	e := history.NewEngine(st, &recordingNotifier{}, history.DefaultConfig())
	ctx := context.Background()

	extracted := &domain.ExtractedProduct{
		Title: "Widget Pro 3000",
		Image: "https://cdn.example.com/widget.jpg",
		Price: 10000,
		URL:   "https://example.com/widget",
		Date:  time.Now(),
	}
	_, err := e.Track(ctx, extracted)
	require.NoError(t, err)

	st.appendErr = errors.New("connection reset")
	extracted.Price = 9000
	_, err = e.Track(ctx, extracted)
	require.Error(t, err)

	p, err := st.GetProduct(ctx, domain.ProductID("https://example.com/widget"))
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro 3000", p.Title)

	entry, err := st.LatestPriceEntry(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(10000), entry.Amount)
}

func TestTrackRejectsPartialExtraction(t *testing.T) {
	t.Parallel()
	e, _, _ := newEngine(t)

	_, err := e.Track(context.Background(), &domain.ExtractedProduct{
		Title: "No price",
		Image: "https://cdn.example.com/x.jpg",
		Price: money.Invalid,
		URL:   "https://example.com/x",
		Date:  time.Now(),
	})
	require.Error(t, err)
}

func TestRecordObservationDedupsConsecutiveEqualAmounts(t *testing.T) {
	t.Parallel()
	e, st, _ := newEngine(t)
	ctx := context.Background()

	p := trackWidget(t, e, 10000)
	at := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	entry, err := e.RecordObservation(ctx, p.ID, 10000, at)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entries, err := st.ListPriceEntries(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// A changed amount appends, and the old amount appends again after that:
	// only consecutive duplicates are suppressed.
	_, err = e.RecordObservation(ctx, p.ID, 9900, at.Add(time.Hour))
	require.NoError(t, err)
	_, err = e.RecordObservation(ctx, p.ID, 10000, at.Add(2*time.Hour))
	require.NoError(t, err)

	entries, err = st.ListPriceEntries(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestAlertGatingRequiresBothThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		high      money.Cents
		next      money.Cents
		wantAlert bool
	}{
		{
			// 4% drop clears the absolute threshold but not the percent one.
			name:      "four percent drop does not alert",
			high:      10000,
			next:      9600,
			wantAlert: false,
		},
		{
			// 10% drop but only 100 cents, below the absolute threshold.
			name:      "large percent small absolute does not alert",
			high:      1000,
			next:      900,
			wantAlert: false,
		},
		{
			name:      "six percent drop clearing both thresholds alerts",
			high:      10000,
			next:      9400,
			wantAlert: true,
		},
		{
			// Exactly 5% and exactly 200 cents: thresholds are inclusive.
			name:      "exact thresholds alert",
			high:      4000,
			next:      3800,
			wantAlert: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := store.NewMemoryStore()
			n := &recordingNotifier{}
			e := history.NewEngine(st, n, history.Config{
				PercentThreshold:  0.05,
				AbsoluteThreshold: 200,
			})
			ctx := context.Background()

			p, err := e.Track(ctx, &domain.ExtractedProduct{
				Title: "Widget",
				Image: "https://cdn.example.com/w.jpg",
				Price: tt.high,
				URL:   "https://example.com/widget",
				Date:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)

			entry, err := e.RecordObservation(ctx, p.ID, tt.next,
				time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			require.NotNil(t, entry)

			active, err := st.ActiveAlert(ctx, p.ID)
			if !tt.wantAlert {
				assert.ErrorIs(t, err, store.ErrNotFound)
				assert.Empty(t, n.drops)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, entry.ID, active.PriceID)
			assert.Equal(t, tt.high, active.HighPriceAmount)
			assert.True(t, active.Shown, "delivered notification flips shown")

			require.Len(t, n.drops, 1)
			assert.Equal(t, tt.high, n.drops[0].HighAmount)
			assert.Equal(t, tt.next, n.drops[0].NewAmount)
		})
	}
}

func TestActiveAlertIsNeverDuplicated(t *testing.T) {
	t.Parallel()
	e, st, n := newEngine(t)
	ctx := context.Background()

	p := trackWidget(t, e, 10000)
	base := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	_, err := e.RecordObservation(ctx, p.ID, 9000, base)
	require.NoError(t, err)

	// A further qualifying drop while the alert is active stays silent.
	_, err = e.RecordObservation(ctx, p.ID, 8000, base.Add(time.Hour))
	require.NoError(t, err)

	all, err := st.ListAlerts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Len(t, n.drops, 1)
}

func TestAcknowledgedAlertReopensOnlyOnNewQualifyingDrop(t *testing.T) {
	t.Parallel()
	e, st, n := newEngine(t)
	ctx := context.Background()

	p := trackWidget(t, e, 10000)
	base := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	_, err := e.RecordObservation(ctx, p.ID, 9000, base)
	require.NoError(t, err)

	active, err := st.ActiveAlert(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, e.AcknowledgeAlert(ctx, active.ID))

	_, err = st.ActiveAlert(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The old 10000 high predates the deactivation, so a price near the
	// post-acknowledgement level does not retrigger off the stale high.
	_, err = e.RecordObservation(ctx, p.ID, 8900, base.Add(24*time.Hour))
	require.NoError(t, err)
	_, err = st.ActiveAlert(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A price rise followed by a fresh qualifying drop reopens.
	_, err = e.RecordObservation(ctx, p.ID, 9500, base.Add(48*time.Hour))
	require.NoError(t, err)
	_, err = e.RecordObservation(ctx, p.ID, 8500, base.Add(72*time.Hour))
	require.NoError(t, err)

	reopened, err := st.ActiveAlert(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(9500), reopened.HighPriceAmount)
	assert.Len(t, n.drops, 2)
}

func TestNotifierFailureLeavesAlertUnshown(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	n := &recordingNotifier{err: errors.New("webhook down")}
	e := history.NewEngine(st, n, history.DefaultConfig())
	ctx := context.Background()

	p, err := e.Track(ctx, &domain.ExtractedProduct{
		Title: "Widget",
		Image: "https://cdn.example.com/w.jpg",
		Price: 10000,
		URL:   "https://example.com/widget",
		Date:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = e.RecordObservation(ctx, p.ID, 9000,
		time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	active, err := st.ActiveAlert(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, active.Shown)
}

func TestRecordObservationRejectsInvalidAmount(t *testing.T) {
	t.Parallel()
	e, _, _ := newEngine(t)

	_, err := e.RecordObservation(context.Background(),
		domain.ProductID("https://example.com/widget"), money.Invalid, time.Now())
	require.Error(t, err)
}

func TestUntrackRemovesHistory(t *testing.T) {
	t.Parallel()
	e, st, _ := newEngine(t)
	ctx := context.Background()

	p := trackWidget(t, e, 10000)
	require.NoError(t, e.Untrack(ctx, p.ID))

	_, err := st.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
