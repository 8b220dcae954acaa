// Package host defines the contracts for the browser-side collaborators:
// the live tab inventory, tab creation/removal, and the badge indicator.
// Implementations live in the websocket bridge; tests use fakes.
package host

import (
	"context"
	"errors"
)

// ErrDisconnected reports that no browser is currently attached. Callers
// that prune state against the live tab list must skip pruning on this
// error rather than treat every tab as closed.
var ErrDisconnected = errors.New("host: browser not connected")

// TabInfo is the host's view of one open tab.
type TabInfo struct {
	ID         int    `json:"tab_id"`
	WindowID   int    `json:"window_id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	FaviconURL string `json:"favicon_url"`
}

// Tabs is the live tab inventory and lifecycle API.
type Tabs interface {
	// Query returns every currently open tab.
	Query(ctx context.Context) ([]TabInfo, error)
	// Close removes the given tabs. Unknown ids are ignored by the host.
	Close(ctx context.Context, ids []int) error
	// Create opens one tab per URL.
	Create(ctx context.Context, urls []string) error
}

// Badge is the extension action badge.
type Badge interface {
	// SetText sets the badge label; empty text clears it.
	SetText(ctx context.Context, text string) error
}
