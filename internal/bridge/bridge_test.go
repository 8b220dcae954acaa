package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabwarden/tabwarden/internal/host"
	"github.com/tabwarden/tabwarden/internal/logging"
)

// recorder captures forwarded lifecycle events.
type recorder struct {
	activated []host.TabInfo
	updated   []int
	removed   []int
	resyncs   int
}

func (r *recorder) OnActivated(_ context.Context, tab host.TabInfo) error {
	r.activated = append(r.activated, tab)
	return nil
}

func (r *recorder) OnUpdated(_ context.Context, tabID int, _, _ string) error {
	r.updated = append(r.updated, tabID)
	return nil
}

func (r *recorder) OnRemoved(_ context.Context, tabID int) error {
	r.removed = append(r.removed, tabID)
	return nil
}

func (r *recorder) Resync(context.Context) error {
	r.resyncs++
	return nil
}

func newBridge(events Events) *Bridge {
	b := New(logging.NewNop(), nil)
	if events != nil {
		b.Bind(events)
	}
	b.connected = true
	return b
}

func TestSnapshotReplacesInventory(t *testing.T) {
	rec := &recorder{}
	b := newBridge(rec)
	b.handleEvent(context.Background(), event{Type: evtTabActivated, TabID: 99, URL: "https://stale.example"})

	b.handleEvent(context.Background(), event{Type: evtSnapshot, Tabs: []host.TabInfo{
		{ID: 2, URL: "https://b.example"},
		{ID: 1, URL: "https://a.example"},
	}})

	tabs, err := b.Query(context.Background())
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, 1, tabs[0].ID, "query is sorted by id")
	assert.Equal(t, 2, tabs[1].ID)
	assert.Equal(t, 1, rec.resyncs)
}

func TestActivationAndRemovalMaintainInventory(t *testing.T) {
	rec := &recorder{}
	b := newBridge(rec)

	b.handleEvent(context.Background(), event{
		Type: evtTabActivated, TabID: 1, WindowID: 3,
		URL: "https://a.example", Title: "A",
	})
	tabs, err := b.Query(context.Background())
	require.NoError(t, err)
	require.Len(t, tabs, 1)
	assert.Equal(t, 3, tabs[0].WindowID)
	require.Len(t, rec.activated, 1)
	assert.Equal(t, "https://a.example", rec.activated[0].URL)

	b.handleEvent(context.Background(), event{Type: evtTabRemoved, TabID: 1})
	tabs, err = b.Query(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tabs)
	assert.Equal(t, []int{1}, rec.removed)
}

func TestUpdateMergesKnownTabOnly(t *testing.T) {
	rec := &recorder{}
	b := newBridge(rec)
	b.handleEvent(context.Background(), event{
		Type: evtTabActivated, TabID: 1,
		URL: "https://a.example", Title: "A", FaviconURL: "https://a.example/icon",
	})

	// Title-only update keeps the rest of the tab state.
	b.handleEvent(context.Background(), event{Type: evtTabUpdated, TabID: 1, Title: "A2"})
	tabs, err := b.Query(context.Background())
	require.NoError(t, err)
	require.Len(t, tabs, 1)
	assert.Equal(t, "A2", tabs[0].Title)
	assert.Equal(t, "https://a.example", tabs[0].URL)
	assert.Equal(t, "https://a.example/icon", tabs[0].FaviconURL)

	// Updates for unknown tabs do not invent inventory entries.
	b.handleEvent(context.Background(), event{Type: evtTabUpdated, TabID: 7, URL: "https://x.example"})
	tabs, err = b.Query(context.Background())
	require.NoError(t, err)
	assert.Len(t, tabs, 1)

	assert.Equal(t, []int{1, 7}, rec.updated, "tracker still sees every update")
}

func TestUnknownEventIgnored(t *testing.T) {
	b := newBridge(&recorder{})
	b.handleEvent(context.Background(), event{Type: "mystery"})

	tabs, err := b.Query(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tabs)
}

func TestQueryDisconnected(t *testing.T) {
	b := New(logging.NewNop(), nil)
	_, err := b.Query(context.Background())
	assert.ErrorIs(t, err, host.ErrDisconnected)
}

func TestCommandsDisconnected(t *testing.T) {
	b := New(logging.NewNop(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, b.Close(ctx, []int{1}), host.ErrDisconnected)
	assert.ErrorIs(t, b.Create(ctx, []string{"https://a.example"}), host.ErrDisconnected)
	assert.ErrorIs(t, b.SetText(ctx, "3"), host.ErrDisconnected)
}

func TestCmdResultResolvesPending(t *testing.T) {
	b := New(logging.NewNop(), nil)
	ch := make(chan reply, 1)
	b.pending["cmd-1"] = ch

	b.handleEvent(context.Background(), event{Type: evtCmdResult, ID: "cmd-1", OK: true})

	rep := <-ch
	assert.True(t, rep.ok)
	assert.Empty(t, b.pending)

	// A stray ack with no waiter is dropped quietly.
	b.handleEvent(context.Background(), event{Type: evtCmdResult, ID: "cmd-404", OK: false, Error: "nope"})
}

func TestDefaultEventSinkIsInert(t *testing.T) {
	b := newBridge(nil)
	b.handleEvent(context.Background(), event{Type: evtSnapshot, Tabs: []host.TabInfo{{ID: 1}}})

	tabs, err := b.Query(context.Background())
	require.NoError(t, err)
	assert.Len(t, tabs, 1)
}
