// Package folders manages user-curated folders and saved tab snapshots,
// and queues their mutations for the external sync agent when the user
// enabled sync. The core never transmits the queue.
package folders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tabwarden/tabwarden/internal/host"
	"github.com/tabwarden/tabwarden/internal/logging"
	"github.com/tabwarden/tabwarden/internal/monitoring"
	"github.com/tabwarden/tabwarden/internal/settings"
	"github.com/tabwarden/tabwarden/internal/shared/id"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/store"
	"go.uber.org/zap"
)

// Manager owns the folders, saved_tabs, and sync_queue store keys.
type Manager struct {
	store    store.Store
	tabs     host.Tabs
	settings *settings.Manager
	log      *logging.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// NewManager creates a manager. metrics may be nil.
func NewManager(st store.Store, tabs host.Tabs, sm *settings.Manager, log *logging.Logger, metrics *monitoring.Metrics) *Manager {
	return &Manager{
		store:    st,
		tabs:     tabs,
		settings: sm,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Folders lists all folders with tab counts recomputed from the saved set.
func (m *Manager) Folders(ctx context.Context) ([]types.Folder, error) {
	folders, err := m.loadFolders(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := m.loadSaved(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, tab := range saved {
		if tab.FolderID != nil {
			counts[*tab.FolderID]++
		}
	}
	for i := range folders {
		folders[i].TabCount = counts[folders[i].ID]
	}
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].CreatedAt < folders[j].CreatedAt
	})
	return folders, nil
}

// CreateFolder adds a folder.
func (m *Manager) CreateFolder(ctx context.Context, name, color string) (types.Folder, error) {
	if name == "" {
		return types.Folder{}, fmt.Errorf("folder name required")
	}
	folders, err := m.loadFolders(ctx)
	if err != nil {
		return types.Folder{}, err
	}

	folder := types.Folder{
		ID:        id.NewFolderID(),
		Name:      name,
		Color:     color,
		CreatedAt: m.now().UnixMilli(),
	}
	folders = append(folders, folder)
	if err := m.store.Set(ctx, store.KeyFolders, folders); err != nil {
		return types.Folder{}, fmt.Errorf("save folders: %w", err)
	}
	m.enqueueSync(ctx, "create", "folder", folder)
	return folder, nil
}

// UpdateFolder renames or recolors a folder. Empty fields are left as-is.
func (m *Manager) UpdateFolder(ctx context.Context, folderID, name, color string) (types.Folder, error) {
	folders, err := m.loadFolders(ctx)
	if err != nil {
		return types.Folder{}, err
	}
	for i := range folders {
		if folders[i].ID != folderID {
			continue
		}
		if name != "" {
			folders[i].Name = name
		}
		if color != "" {
			folders[i].Color = color
		}
		if err := m.store.Set(ctx, store.KeyFolders, folders); err != nil {
			return types.Folder{}, fmt.Errorf("save folders: %w", err)
		}
		m.enqueueSync(ctx, "update", "folder", folders[i])
		return folders[i], nil
	}
	return types.Folder{}, fmt.Errorf("folder not found: %s", folderID)
}

// DeleteFolder removes a folder. Saved tabs inside it are kept and
// detached rather than deleted.
func (m *Manager) DeleteFolder(ctx context.Context, folderID string) error {
	folders, err := m.loadFolders(ctx)
	if err != nil {
		return err
	}
	kept := folders[:0]
	found := false
	for _, f := range folders {
		if f.ID == folderID {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return fmt.Errorf("folder not found: %s", folderID)
	}
	if err := m.store.Set(ctx, store.KeyFolders, kept); err != nil {
		return fmt.Errorf("save folders: %w", err)
	}

	saved, err := m.loadSaved(ctx)
	if err != nil {
		return err
	}
	changed := false
	for i := range saved {
		if saved[i].FolderID != nil && *saved[i].FolderID == folderID {
			saved[i].FolderID = nil
			changed = true
		}
	}
	if changed {
		if err := m.store.Set(ctx, store.KeySavedTabs, saved); err != nil {
			return fmt.Errorf("save tabs: %w", err)
		}
	}
	m.enqueueSync(ctx, "delete", "folder", map[string]string{"id": folderID})
	return nil
}

// SavedTabs lists all saved tabs, most recently saved first.
func (m *Manager) SavedTabs(ctx context.Context) ([]types.SavedTab, error) {
	saved, err := m.loadSaved(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(saved, func(i, j int) bool {
		return saved[i].SavedAt > saved[j].SavedAt
	})
	return saved, nil
}

// SaveTabs snapshots the given live tabs into the saved set. Tab state
// comes from the activity map, falling back to the live inventory for
// never-focused tabs; ids known to neither are skipped.
func (m *Manager) SaveTabs(ctx context.Context, tabIDs []int, folderID *string) (int, error) {
	activity := make(map[int]types.TabActivity)
	if _, err := m.store.Get(ctx, store.KeyTabActivity, &activity); err != nil {
		return 0, fmt.Errorf("load activity: %w", err)
	}

	var live map[int]host.TabInfo
	if open, err := m.tabs.Query(ctx); err == nil {
		live = make(map[int]host.TabInfo, len(open))
		for _, tab := range open {
			live[tab.ID] = tab
		}
	}

	saved, err := m.loadSaved(ctx)
	if err != nil {
		return 0, err
	}

	now := m.now().UnixMilli()
	count := 0
	for _, tabID := range tabIDs {
		var url, title, favicon string
		if rec, ok := activity[tabID]; ok {
			url, title, favicon = rec.URL, rec.Title, rec.FaviconURL
		} else if tab, ok := live[tabID]; ok {
			url, title, favicon = tab.URL, tab.Title, tab.FaviconURL
		} else {
			m.log.Debug("skipping unknown tab", zap.Int("tab_id", tabID))
			continue
		}
		tab := types.SavedTab{
			ID:         id.NewSavedTabID(),
			TabID:      tabID,
			URL:        url,
			Title:      title,
			FaviconURL: favicon,
			FolderID:   folderID,
			SavedAt:    now,
		}
		saved = append(saved, tab)
		m.enqueueSync(ctx, "create", "saved_tab", tab)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if err := m.store.Set(ctx, store.KeySavedTabs, saved); err != nil {
		return 0, fmt.Errorf("save tabs: %w", err)
	}
	return count, nil
}

// DeleteSavedTab removes one saved tab.
func (m *Manager) DeleteSavedTab(ctx context.Context, savedID string) error {
	saved, err := m.loadSaved(ctx)
	if err != nil {
		return err
	}
	kept := saved[:0]
	found := false
	for _, tab := range saved {
		if tab.ID == savedID {
			found = true
			continue
		}
		kept = append(kept, tab)
	}
	if !found {
		return fmt.Errorf("saved tab not found: %s", savedID)
	}
	if err := m.store.Set(ctx, store.KeySavedTabs, kept); err != nil {
		return fmt.Errorf("save tabs: %w", err)
	}
	m.enqueueSync(ctx, "delete", "saved_tab", map[string]string{"id": savedID})
	return nil
}

// RestoreTabs reopens saved tabs in the browser. The saved entries are
// retained; the user deletes them explicitly if wanted.
func (m *Manager) RestoreTabs(ctx context.Context, savedIDs []string) (int, error) {
	saved, err := m.loadSaved(ctx)
	if err != nil {
		return 0, err
	}
	wanted := make(map[string]bool, len(savedIDs))
	for _, sid := range savedIDs {
		wanted[sid] = true
	}

	var urls []string
	for _, tab := range saved {
		if wanted[tab.ID] {
			urls = append(urls, tab.URL)
		}
	}
	if len(urls) == 0 {
		return 0, nil
	}
	if err := m.tabs.Create(ctx, urls); err != nil {
		return 0, fmt.Errorf("restore tabs: %w", err)
	}
	return len(urls), nil
}

func (m *Manager) loadFolders(ctx context.Context) ([]types.Folder, error) {
	folders := []types.Folder{}
	if _, err := m.store.Get(ctx, store.KeyFolders, &folders); err != nil {
		return nil, fmt.Errorf("load folders: %w", err)
	}
	return folders, nil
}

func (m *Manager) loadSaved(ctx context.Context) ([]types.SavedTab, error) {
	saved := []types.SavedTab{}
	if _, err := m.store.Get(ctx, store.KeySavedTabs, &saved); err != nil {
		return nil, fmt.Errorf("load saved tabs: %w", err)
	}
	return saved, nil
}

// enqueueSync appends a mutation record for the external sync agent.
// Queue failures are logged, never surfaced: sync is advisory.
func (m *Manager) enqueueSync(ctx context.Context, op, entity string, payload interface{}) {
	userSettings, err := m.settings.Get(ctx)
	if err != nil || !userSettings.SyncEnabled {
		return
	}

	queue := []types.SyncRecord{}
	if _, err := m.store.Get(ctx, store.KeySyncQueue, &queue); err != nil {
		m.log.Warn("sync queue read failed", zap.Error(err))
		return
	}
	queue = append(queue, types.SyncRecord{
		Op:       op,
		Entity:   entity,
		Payload:  payload,
		QueuedAt: m.now().UnixMilli(),
	})
	if err := m.store.Set(ctx, store.KeySyncQueue, queue); err != nil {
		m.log.Warn("sync queue write failed", zap.Error(err))
		return
	}
	if m.metrics != nil {
		m.metrics.SyncQueueLen.Set(float64(len(queue)))
	}
}
