package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabwarden/tabwarden/internal/host"
	"github.com/tabwarden/tabwarden/internal/host/hosttest"
	"github.com/tabwarden/tabwarden/internal/logging"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/store"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTracker(t *testing.T, tabs host.Tabs) *Tracker {
	t.Helper()
	st := store.NewMemoryStore()
	trk := New(st, tabs, logging.NewNop(), nil)
	trk.SetClock(func() time.Time { return baseTime })
	return trk
}

func snapshot(t *testing.T, trk *Tracker) map[int]types.TabActivity {
	t.Helper()
	snap, err := trk.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestOnActivatedCreatesRecord(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()

	err := trk.OnActivated(ctx, host.TabInfo{
		ID: 1, WindowID: 7, URL: "https://example.com/page", Title: "Example",
	})
	require.NoError(t, err)

	snap := snapshot(t, trk)
	require.Len(t, snap, 1)
	rec := snap[1]
	assert.Equal(t, 1, rec.VisitCount)
	assert.Equal(t, 7, rec.WindowID)
	assert.Equal(t, baseTime.UnixMilli(), rec.LastActiveAt)
	assert.Equal(t, int64(0), rec.TotalActiveTime)
}

func TestOnActivatedIncrementsVisits(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()
	tab := host.TabInfo{ID: 1, URL: "https://example.com"}

	require.NoError(t, trk.OnActivated(ctx, tab))

	trk.SetClock(func() time.Time { return baseTime.Add(2 * time.Minute) })
	require.NoError(t, trk.OnActivated(ctx, tab))

	rec := snapshot(t, trk)[1]
	assert.Equal(t, 2, rec.VisitCount)
	assert.Equal(t, (2 * time.Minute).Milliseconds(), rec.TotalActiveTime)
}

func TestActiveTimeAccrualCapped(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()
	tab := host.TabInfo{ID: 1, URL: "https://example.com"}

	require.NoError(t, trk.OnActivated(ctx, tab))

	// A three hour gap is idle time, not active time.
	trk.SetClock(func() time.Time { return baseTime.Add(3 * time.Hour) })
	require.NoError(t, trk.OnActivated(ctx, tab))

	rec := snapshot(t, trk)[1]
	assert.Equal(t, maxAccrual.Milliseconds(), rec.TotalActiveTime)
}

func TestPrivilegedSchemesNeverTracked(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()

	for _, url := range []string{
		"chrome://settings",
		"chrome-extension://abc/popup.html",
		"about:blank",
		"devtools://devtools/bundled",
		"view-source:https://example.com",
		"",
	} {
		require.NoError(t, trk.OnActivated(ctx, host.TabInfo{ID: 9, URL: url}))
	}

	assert.Empty(t, snapshot(t, trk))
}

func TestOnUpdatedDroppedWithoutRecord(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()

	// A background tab that was never focused stays untracked.
	require.NoError(t, trk.OnUpdated(ctx, 5, "https://example.com", "Example"))
	assert.Empty(t, snapshot(t, trk))
}

func TestOnUpdatedNoopWhenUnchanged(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()
	tab := host.TabInfo{ID: 1, URL: "https://example.com", Title: "Example"}
	require.NoError(t, trk.OnActivated(ctx, tab))
	before := snapshot(t, trk)[1]

	trk.SetClock(func() time.Time { return baseTime.Add(time.Minute) })
	require.NoError(t, trk.OnUpdated(ctx, 1, "https://example.com", "Example"))

	after := snapshot(t, trk)[1]
	assert.Equal(t, before, after)
}

func TestOnUpdatedNavigationRefreshesActivity(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()
	require.NoError(t, trk.OnActivated(ctx, host.TabInfo{ID: 1, URL: "https://example.com", Title: "Example"}))

	trk.SetClock(func() time.Time { return baseTime.Add(time.Minute) })
	require.NoError(t, trk.OnUpdated(ctx, 1, "https://example.com/docs", "Docs"))

	rec := snapshot(t, trk)[1]
	assert.Equal(t, "https://example.com/docs", rec.URL)
	assert.Equal(t, "Docs", rec.Title)
	assert.Equal(t, baseTime.Add(time.Minute).UnixMilli(), rec.LastActiveAt)
	assert.Equal(t, 1, rec.VisitCount)
}

func TestOnRemovedDeletesRecord(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()
	require.NoError(t, trk.OnActivated(ctx, host.TabInfo{ID: 1, URL: "https://example.com"}))

	require.NoError(t, trk.OnRemoved(ctx, 1))
	assert.Empty(t, snapshot(t, trk))

	// Removing an unknown tab is a no-op.
	require.NoError(t, trk.OnRemoved(ctx, 99))
}

func TestRemovalWinsOverLateUpdate(t *testing.T) {
	trk := newTracker(t, hosttest.NewFakeTabs())
	ctx := context.Background()
	require.NoError(t, trk.OnActivated(ctx, host.TabInfo{ID: 1, URL: "https://example.com"}))

	// Removal followed by a straggler update event for the same tab: the
	// record must stay absent because updates never create records.
	require.NoError(t, trk.OnRemoved(ctx, 1))
	require.NoError(t, trk.OnUpdated(ctx, 1, "https://example.com/late", "Late"))

	assert.Empty(t, snapshot(t, trk))
}

func TestResyncReconciles(t *testing.T) {
	fake := hosttest.NewFakeTabs(
		host.TabInfo{ID: 1, URL: "https://example.com"},
		host.TabInfo{ID: 2, URL: "https://news.site/story"},
		host.TabInfo{ID: 3, URL: "chrome://extensions"},
	)
	trk := newTracker(t, fake)
	ctx := context.Background()

	// Pre-existing record for a tab that is no longer open.
	require.NoError(t, trk.OnActivated(ctx, host.TabInfo{ID: 42, URL: "https://gone.example"}))

	require.NoError(t, trk.Resync(ctx))

	snap := snapshot(t, trk)
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, 1)
	assert.Contains(t, snap, 2)
	assert.NotContains(t, snap, 42, "closed tab must be pruned")
	assert.NotContains(t, snap, 3, "privileged tab must not be created")
	assert.Equal(t, 1, snap[1].VisitCount)
}

func TestResyncPreservesExistingRecords(t *testing.T) {
	fake := hosttest.NewFakeTabs(host.TabInfo{ID: 1, URL: "https://example.com"})
	trk := newTracker(t, fake)
	ctx := context.Background()

	require.NoError(t, trk.OnActivated(ctx, host.TabInfo{ID: 1, URL: "https://example.com"}))
	require.NoError(t, trk.OnActivated(ctx, host.TabInfo{ID: 1, URL: "https://example.com"}))

	require.NoError(t, trk.Resync(ctx))
	assert.Equal(t, 2, snapshot(t, trk)[1].VisitCount)
}

func TestResyncDisconnectedHost(t *testing.T) {
	fake := hosttest.NewFakeTabs()
	fake.Disconnected = true
	trk := newTracker(t, fake)

	assert.Error(t, trk.Resync(context.Background()))
}

func TestTrackable(t *testing.T) {
	assert.True(t, Trackable("https://example.com"))
	assert.True(t, Trackable("http://localhost:3000"))
	assert.False(t, Trackable("chrome://newtab"))
	assert.False(t, Trackable("About:Blank"))
	assert.False(t, Trackable(""))
}
