// Package stale flags tabs inactive beyond the user's threshold. Each run
// recomputes the stale list wholesale and refreshes the badge counter;
// consumers always see a complete, current snapshot.
package stale

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tabwarden/tabwarden/internal/host"
	"github.com/tabwarden/tabwarden/internal/logging"
	"github.com/tabwarden/tabwarden/internal/monitoring"
	"github.com/tabwarden/tabwarden/internal/settings"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/store"
	"go.uber.org/zap"
)

const msPerHour = 3_600_000

// AlarmName is the scheduler entry for the periodic scan.
const AlarmName = "stale-scan"

// Detector runs the staleness scan.
type Detector struct {
	store    store.Store
	tabs     host.Tabs
	badge    host.Badge
	settings *settings.Manager
	log      *logging.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// New creates a detector. badge and metrics may be nil.
func New(st store.Store, tabs host.Tabs, badge host.Badge, sm *settings.Manager, log *logging.Logger, metrics *monitoring.Metrics) *Detector {
	return &Detector{
		store:    st,
		tabs:     tabs,
		badge:    badge,
		settings: sm,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (d *Detector) SetClock(now func() time.Time) {
	d.now = now
}

// Run scans all activity records and replaces the stale_tabs key with the
// current candidate set. Records for tabs the host no longer reports open
// are pruned instead of reported (lazy cleanup). Idempotent: re-running on
// the same state yields the same list.
func (d *Detector) Run(ctx context.Context) ([]types.StaleTab, error) {
	userSettings, err := d.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	thresholdMs := int64(userSettings.InactiveThresholdHours) * msPerHour

	activity := make(map[int]types.TabActivity)
	if _, err := d.store.Get(ctx, store.KeyTabActivity, &activity); err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}

	// Without a live tab list we cannot tell closed tabs from open ones,
	// so skip verification and pruning rather than deleting everything.
	live, verified := map[int]bool{}, true
	open, err := d.tabs.Query(ctx)
	switch {
	case errors.Is(err, host.ErrDisconnected):
		verified = false
	case err != nil:
		return nil, fmt.Errorf("query tabs: %w", err)
	default:
		for _, tab := range open {
			live[tab.ID] = true
		}
	}

	now := d.now().UnixMilli()
	staleTabs := []types.StaleTab{}
	pruned := 0
	for id, rec := range activity {
		if verified && !live[id] {
			delete(activity, id)
			pruned++
			continue
		}
		inactiveMs := now - rec.LastActiveAt
		if inactiveMs <= thresholdMs {
			continue
		}
		staleTabs = append(staleTabs, types.StaleTab{
			TabID:         rec.TabID,
			URL:           rec.URL,
			Title:         rec.Title,
			FaviconURL:    rec.FaviconURL,
			InactiveHours: int(inactiveMs / msPerHour),
		})
	}
	sort.Slice(staleTabs, func(i, j int) bool {
		if staleTabs[i].InactiveHours != staleTabs[j].InactiveHours {
			return staleTabs[i].InactiveHours > staleTabs[j].InactiveHours
		}
		return staleTabs[i].TabID < staleTabs[j].TabID
	})

	if pruned > 0 {
		if err := d.store.Set(ctx, store.KeyTabActivity, activity); err != nil {
			return nil, fmt.Errorf("prune activity: %w", err)
		}
		d.log.Info("pruned orphaned activity records", zap.Int("count", pruned))
	}

	if err := d.store.Set(ctx, store.KeyStaleTabs, staleTabs); err != nil {
		return nil, fmt.Errorf("save stale tabs: %w", err)
	}

	d.updateBadge(ctx, len(staleTabs))
	if d.metrics != nil {
		d.metrics.StaleScans.Inc()
		d.metrics.StaleTabs.Set(float64(len(staleTabs)))
	}
	d.log.Debug("stale scan complete",
		zap.Int("stale", len(staleTabs)),
		zap.Int("tracked", len(activity)))
	return staleTabs, nil
}

// Task adapts Run for the alarm scheduler.
func (d *Detector) Task() func(ctx context.Context) {
	return func(ctx context.Context) {
		if _, err := d.Run(ctx); err != nil {
			d.log.Warn("stale scan failed", zap.Error(err))
		}
	}
}

func (d *Detector) updateBadge(ctx context.Context, count int) {
	if d.badge == nil {
		return
	}
	text := ""
	if count > 0 {
		text = strconv.Itoa(count)
	}
	if err := d.badge.SetText(ctx, text); err != nil {
		d.log.Warn("badge update failed", zap.Error(err))
	}
}
