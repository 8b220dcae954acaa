// Package tracker maintains one activity record per open tab, driven by
// tab focus, navigation, and removal events from the browser bridge.
//
// The tracker holds no state between calls: every entry point reloads the
// activity map from the store, mutates it, and writes it back. Concurrent
// handlers may interleave between the read and the write; losing an
// increment under that race is acceptable, losing a removal is not, which
// is why deletions always run against a freshly read map.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tabwarden/tabwarden/internal/host"
	"github.com/tabwarden/tabwarden/internal/logging"
	"github.com/tabwarden/tabwarden/internal/monitoring"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/store"
	"go.uber.org/zap"
)

// Active time accrues only across gaps shorter than this; longer gaps are
// treated as idle time.
const maxAccrual = 5 * time.Minute

var privilegedSchemes = []string{
	"chrome:", "chrome-extension:", "about:", "edge:", "brave:",
	"devtools:", "view-source:",
}

// Trackable reports whether a URL belongs in the activity map. Internal
// and privileged pages never enter the store.
func Trackable(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, scheme := range privilegedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}

// Tracker owns the tab_activity store key.
type Tracker struct {
	store   store.Store
	tabs    host.Tabs
	log     *logging.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
}

// New creates a tracker. metrics may be nil.
func New(st store.Store, tabs host.Tabs, log *logging.Logger, metrics *monitoring.Metrics) *Tracker {
	return &Tracker{
		store:   st,
		tabs:    tabs,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// OnActivated handles a tab gaining focus. Creates the record on first
// observation, otherwise bumps the visit count and refreshes page state.
func (t *Tracker) OnActivated(ctx context.Context, tab host.TabInfo) error {
	if !Trackable(tab.URL) {
		return nil
	}

	activity, err := t.load(ctx)
	if err != nil {
		return err
	}

	now := t.now().UnixMilli()
	rec, exists := activity[tab.ID]
	if exists {
		rec.TotalActiveTime += accrual(now, rec.LastActiveAt)
		rec.VisitCount++
	} else {
		rec = types.TabActivity{TabID: tab.ID, VisitCount: 1}
	}
	rec.URL = tab.URL
	rec.Title = tab.Title
	rec.FaviconURL = tab.FaviconURL
	rec.WindowID = tab.WindowID
	rec.LastActiveAt = now
	activity[tab.ID] = rec

	return t.save(ctx, activity)
}

// OnUpdated handles a navigation or title change. Updates are dropped for
// tabs without an existing record: only activation or resync create one,
// which keeps never-focused background tabs out of the store.
func (t *Tracker) OnUpdated(ctx context.Context, tabID int, rawURL, title string) error {
	if rawURL != "" && !Trackable(rawURL) {
		return nil
	}

	activity, err := t.load(ctx)
	if err != nil {
		return err
	}

	rec, exists := activity[tabID]
	if !exists {
		return nil
	}
	urlChanged := rawURL != "" && rawURL != rec.URL
	titleChanged := title != "" && title != rec.Title
	if !urlChanged && !titleChanged {
		return nil
	}

	if urlChanged {
		// Navigation counts as activity in the focused tab.
		now := t.now().UnixMilli()
		rec.TotalActiveTime += accrual(now, rec.LastActiveAt)
		rec.LastActiveAt = now
		rec.URL = rawURL
	}
	if titleChanged {
		rec.Title = title
	}
	activity[tabID] = rec

	return t.save(ctx, activity)
}

// OnRemoved deletes the record for a closed tab.
func (t *Tracker) OnRemoved(ctx context.Context, tabID int) error {
	activity, err := t.load(ctx)
	if err != nil {
		return err
	}
	if _, exists := activity[tabID]; !exists {
		return nil
	}
	delete(activity, tabID)
	return t.save(ctx, activity)
}

// Resync reconciles the activity map against the live tab set: a record is
// created for every open trackable tab that lacks one, and records for tabs
// no longer open are deleted. This is the sole repair mechanism for drift
// accumulated while the tracker was not running.
func (t *Tracker) Resync(ctx context.Context) error {
	open, err := t.tabs.Query(ctx)
	if err != nil {
		return fmt.Errorf("query tabs: %w", err)
	}

	activity, err := t.load(ctx)
	if err != nil {
		return err
	}

	now := t.now().UnixMilli()
	live := make(map[int]bool, len(open))
	changed := false
	for _, tab := range open {
		if !Trackable(tab.URL) {
			continue
		}
		live[tab.ID] = true
		if _, exists := activity[tab.ID]; exists {
			continue
		}
		activity[tab.ID] = types.TabActivity{
			TabID:        tab.ID,
			URL:          tab.URL,
			Title:        tab.Title,
			FaviconURL:   tab.FaviconURL,
			WindowID:     tab.WindowID,
			LastActiveAt: now,
			VisitCount:   1,
		}
		changed = true
	}
	for id := range activity {
		if !live[id] {
			delete(activity, id)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	t.log.Info("resynced activity records", zap.Int("tracked", len(activity)))
	return t.save(ctx, activity)
}

// Snapshot returns a copy of the activity map for read-only consumers.
func (t *Tracker) Snapshot(ctx context.Context) (map[int]types.TabActivity, error) {
	return t.load(ctx)
}

func (t *Tracker) load(ctx context.Context) (map[int]types.TabActivity, error) {
	activity := make(map[int]types.TabActivity)
	if _, err := t.store.Get(ctx, store.KeyTabActivity, &activity); err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	return activity, nil
}

func (t *Tracker) save(ctx context.Context, activity map[int]types.TabActivity) error {
	if err := t.store.Set(ctx, store.KeyTabActivity, activity); err != nil {
		return fmt.Errorf("save activity: %w", err)
	}
	if t.metrics != nil {
		t.metrics.TrackedTabs.Set(float64(len(activity)))
	}
	return nil
}

func accrual(now, last int64) int64 {
	delta := now - last
	if delta <= 0 {
		return 0
	}
	if max := maxAccrual.Milliseconds(); delta > max {
		return max
	}
	return delta
}
