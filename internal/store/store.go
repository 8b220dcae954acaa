// Package store provides the persistent key-value store backing all
// activity, stale-tab, folder, and settings state. Values are JSON
// documents; there is no transactional guarantee across keys, so
// read-modify-write callers follow a last-writer-wins discipline.
package store

import "context"

// Well-known keys.
const (
	KeyTabActivity = "tab_activity"
	KeyStaleTabs   = "stale_tabs"
	KeySettings    = "user_settings"
	KeySavedTabs   = "saved_tabs"
	KeyFolders     = "folders"
	KeySessions    = "sessions"
	KeySyncQueue   = "sync_queue"
)

// Store is an asynchronous JSON key-value store. Get reports whether the
// key existed; a missing key leaves out untouched and returns (false, nil).
type Store interface {
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
