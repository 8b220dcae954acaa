package types

// TabActivity is the per-tab usage record. One record per live tab, keyed
// by tab id; created on first activation, mutated on every activation or
// navigation, deleted when the tab closes.
type TabActivity struct {
	TabID           int    `json:"tab_id"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	FaviconURL      string `json:"favicon_url"`
	LastActiveAt    int64  `json:"last_active_at"` // unix milliseconds
	TotalActiveTime int64  `json:"total_active_time_ms"`
	VisitCount      int    `json:"visit_count"`
	WindowID        int    `json:"window_id"`
}

// StaleTab is a derived projection of a tab inactive beyond the configured
// threshold. Recomputed wholesale on every detector run.
type StaleTab struct {
	TabID         int    `json:"tab_id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	FaviconURL    string `json:"favicon_url"`
	InactiveHours int    `json:"inactive_hours"`
}

// SessionTab is a member of a SmartSession.
type SessionTab struct {
	TabID       int    `json:"tab_id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	FaviconURL  string `json:"favicon_url"`
	FirstSeenAt int64  `json:"first_seen_at"`
	LastActive  int64  `json:"last_active_at"`
}

// SmartSession is a time-windowed cluster of tabs inferred to belong to one
// browsing episode. Computed fresh on each request.
type SmartSession struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Tabs           []SessionTab `json:"tabs"`
	StartTime      int64        `json:"start_time"`
	EndTime        int64        `json:"end_time"`
	AutoGenerated  bool         `json:"auto_generated"`
	TopicTags      []string     `json:"topic_tags"`
	DominantDomain string       `json:"dominant_domain,omitempty"`
}

// TabGroup is a non-temporal cluster of open tabs sharing an origin or
// project context.
type TabGroup struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Domain   string        `json:"domain"`
	Tabs     []TabActivity `json:"tabs"`
	TabCount int           `json:"tab_count"`
	Color    string        `json:"color"`
}

// Folder is a user-curated container for saved tabs.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt int64  `json:"created_at"`
	TabCount  int    `json:"tab_count"`
}

// SavedTab is a snapshot of a live tab archived by the user.
type SavedTab struct {
	ID         string  `json:"id"`
	TabID      int     `json:"tab_id"`
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	FaviconURL string  `json:"favicon_url"`
	FolderID   *string `json:"folder_id,omitempty"`
	SavedAt    int64   `json:"saved_at"`
}

// Settings holds user-tunable behavior.
type Settings struct {
	InactiveThresholdHours int    `json:"inactive_threshold_hours"`
	AutoArchiveDays        int    `json:"auto_archive_days"`
	NotificationEnabled    bool   `json:"notification_enabled"`
	Theme                  string `json:"theme"`
	SyncEnabled            bool   `json:"sync_enabled"`
}

// SyncRecord is a queued mutation awaiting an external sync agent. The core
// only appends; it never transmits.
type SyncRecord struct {
	Op       string      `json:"op"`
	Entity   string      `json:"entity"`
	Payload  interface{} `json:"payload"`
	QueuedAt int64       `json:"queued_at"`
}
