// Package bridge links the service to the browser extension over a single
// WebSocket. Inbound traffic is tab lifecycle events and full snapshots;
// outbound traffic is commands (close tabs, create tabs, set badge) with
// correlated acks. The bridge maintains the live tab inventory from the
// snapshot plus deltas, so host queries answer without a browser round
// trip, and it implements both host.Tabs and host.Badge.
package bridge

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tabwarden/tabwarden/internal/host"
	"github.com/tabwarden/tabwarden/internal/logging"
	"github.com/tabwarden/tabwarden/internal/monitoring"
	"go.uber.org/zap"
)

const replyTimeout = 10 * time.Second

// Inbound event types.
const (
	evtSnapshot     = "snapshot"
	evtTabActivated = "tab_activated"
	evtTabUpdated   = "tab_updated"
	evtTabRemoved   = "tab_removed"
	evtCmdResult    = "cmd_result"
)

// Outbound command types.
const (
	cmdCloseTabs = "close_tabs"
	cmdCreateTab = "create_tab"
	cmdSetBadge  = "set_badge"
)

// Events receives tab lifecycle notifications. The activity tracker
// satisfies this directly.
type Events interface {
	OnActivated(ctx context.Context, tab host.TabInfo) error
	OnUpdated(ctx context.Context, tabID int, url, title string) error
	OnRemoved(ctx context.Context, tabID int) error
	Resync(ctx context.Context) error
}

type event struct {
	Type       string         `json:"type"`
	TabID      int            `json:"tab_id,omitempty"`
	WindowID   int            `json:"window_id,omitempty"`
	URL        string         `json:"url,omitempty"`
	Title      string         `json:"title,omitempty"`
	FaviconURL string         `json:"favicon_url,omitempty"`
	Tabs       []host.TabInfo `json:"tabs,omitempty"`

	// cmd_result fields
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

type command struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	TabIDs []int    `json:"tab_ids,omitempty"`
	URLs   []string `json:"urls,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type reply struct {
	ok  bool
	err string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The extension connects from an extension origin.
		return true
	},
}

// Bridge is the extension link. One extension at a time; a new connection
// replaces the previous one.
type Bridge struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	events  Events

	mu        sync.RWMutex
	conn      *websocket.Conn
	inventory map[int]host.TabInfo
	connected bool

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan reply

	seq atomic.Int64
}

// New creates a disconnected bridge with no event sink. metrics may be
// nil. Bind must be called before the first connection.
func New(log *logging.Logger, metrics *monitoring.Metrics) *Bridge {
	return &Bridge{
		log:       log,
		metrics:   metrics,
		events:    nopEvents{},
		inventory: make(map[int]host.TabInfo),
		pending:   make(map[string]chan reply),
	}
}

type nopEvents struct{}

func (nopEvents) OnActivated(context.Context, host.TabInfo) error      { return nil }
func (nopEvents) OnUpdated(context.Context, int, string, string) error { return nil }
func (nopEvents) OnRemoved(context.Context, int) error                 { return nil }
func (nopEvents) Resync(context.Context) error                         { return nil }

// Bind attaches the event sink. The tracker queries tabs through the
// bridge and the bridge feeds events to the tracker; binding after
// construction breaks that cycle.
func (b *Bridge) Bind(events Events) {
	b.events = events
}

// HandleConnection upgrades an extension request and pumps its events
// until it disconnects.
func (b *Bridge) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	b.attach(conn)
	defer b.detach(conn)

	ctx := c.Request.Context()
	for {
		var evt event
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Warn("extension read failed", zap.Error(err))
			}
			return
		}
		b.handleEvent(ctx, evt)
	}
}

func (b *Bridge) attach(conn *websocket.Conn) {
	b.mu.Lock()
	if b.conn != nil {
		b.conn.Close()
	}
	b.conn = conn
	b.connected = true
	b.inventory = make(map[int]host.TabInfo)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.BridgeConnections.Set(1)
	}
	b.log.Info("extension connected")
}

func (b *Bridge) detach(conn *websocket.Conn) {
	conn.Close()

	b.mu.Lock()
	// Only forget state for the active connection; a replaced connection
	// dying later must not wipe the replacement's inventory.
	if b.conn != conn {
		b.mu.Unlock()
		return
	}
	b.conn = nil
	b.connected = false
	b.inventory = make(map[int]host.TabInfo)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.BridgeConnections.Set(0)
	}
	b.log.Info("extension disconnected")
}

// handleEvent applies one inbound event to the inventory and forwards it
// to the tracker. Tracker errors are logged, never returned to the
// browser.
func (b *Bridge) handleEvent(ctx context.Context, evt event) {
	if b.metrics != nil && evt.Type != evtCmdResult {
		b.metrics.BridgeEvents.WithLabelValues(evt.Type).Inc()
	}

	switch evt.Type {
	case evtSnapshot:
		b.mu.Lock()
		b.inventory = make(map[int]host.TabInfo, len(evt.Tabs))
		for _, tab := range evt.Tabs {
			b.inventory[tab.ID] = tab
		}
		b.mu.Unlock()
		if err := b.events.Resync(ctx); err != nil {
			b.log.Warn("resync failed", zap.Error(err))
		}

	case evtTabActivated:
		tab := host.TabInfo{
			ID:         evt.TabID,
			WindowID:   evt.WindowID,
			URL:        evt.URL,
			Title:      evt.Title,
			FaviconURL: evt.FaviconURL,
		}
		b.mu.Lock()
		b.inventory[tab.ID] = tab
		b.mu.Unlock()
		if err := b.events.OnActivated(ctx, tab); err != nil {
			b.log.Warn("activation event failed", zap.Int("tab_id", evt.TabID), zap.Error(err))
		}

	case evtTabUpdated:
		b.mu.Lock()
		if tab, ok := b.inventory[evt.TabID]; ok {
			if evt.URL != "" {
				tab.URL = evt.URL
			}
			if evt.Title != "" {
				tab.Title = evt.Title
			}
			if evt.FaviconURL != "" {
				tab.FaviconURL = evt.FaviconURL
			}
			b.inventory[evt.TabID] = tab
		}
		b.mu.Unlock()
		if err := b.events.OnUpdated(ctx, evt.TabID, evt.URL, evt.Title); err != nil {
			b.log.Warn("update event failed", zap.Int("tab_id", evt.TabID), zap.Error(err))
		}

	case evtTabRemoved:
		b.mu.Lock()
		delete(b.inventory, evt.TabID)
		b.mu.Unlock()
		if err := b.events.OnRemoved(ctx, evt.TabID); err != nil {
			b.log.Warn("removal event failed", zap.Int("tab_id", evt.TabID), zap.Error(err))
		}

	case evtCmdResult:
		b.pendingMu.Lock()
		ch, ok := b.pending[evt.ID]
		delete(b.pending, evt.ID)
		b.pendingMu.Unlock()
		if ok {
			ch <- reply{ok: evt.OK, err: evt.Error}
		}

	default:
		b.log.Debug("ignoring unknown event", zap.String("type", evt.Type))
	}
}

// Query implements host.Tabs from the maintained inventory.
func (b *Bridge) Query(ctx context.Context) ([]host.TabInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, host.ErrDisconnected
	}
	out := make([]host.TabInfo, 0, len(b.inventory))
	for _, tab := range b.inventory {
		out = append(out, tab)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close implements host.Tabs.
func (b *Bridge) Close(ctx context.Context, ids []int) error {
	return b.send(ctx, command{Type: cmdCloseTabs, TabIDs: ids})
}

// Create implements host.Tabs.
func (b *Bridge) Create(ctx context.Context, urls []string) error {
	return b.send(ctx, command{Type: cmdCreateTab, URLs: urls})
}

// SetText implements host.Badge.
func (b *Bridge) SetText(ctx context.Context, text string) error {
	return b.send(ctx, command{Type: cmdSetBadge, Text: text})
}

// send issues a command and waits for its ack, bounded by the caller's
// context and a fixed timeout.
func (b *Bridge) send(ctx context.Context, cmd command) error {
	b.mu.RLock()
	conn := b.conn
	connected := b.connected
	b.mu.RUnlock()
	if !connected || conn == nil {
		return host.ErrDisconnected
	}

	cmd.ID = fmt.Sprintf("cmd-%d", b.seq.Add(1))
	ch := make(chan reply, 1)
	b.pendingMu.Lock()
	b.pending[cmd.ID] = ch
	b.pendingMu.Unlock()

	b.writeMu.Lock()
	err := conn.WriteJSON(cmd)
	b.writeMu.Unlock()
	if err != nil {
		b.forget(cmd.ID)
		return fmt.Errorf("send %s: %w", cmd.Type, err)
	}

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		b.forget(cmd.ID)
		return ctx.Err()
	case <-timer.C:
		b.forget(cmd.ID)
		return fmt.Errorf("send %s: ack timeout", cmd.Type)
	case rep := <-ch:
		if !rep.ok {
			return fmt.Errorf("%s rejected: %s", cmd.Type, rep.err)
		}
		return nil
	}
}

func (b *Bridge) forget(cmdID string) {
	b.pendingMu.Lock()
	delete(b.pending, cmdID)
	b.pendingMu.Unlock()
}
