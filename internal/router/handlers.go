package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tabwarden/tabwarden/internal/folders"
	"github.com/tabwarden/tabwarden/internal/groups"
	"github.com/tabwarden/tabwarden/internal/heuristics"
	"github.com/tabwarden/tabwarden/internal/host"
	"github.com/tabwarden/tabwarden/internal/sessions"
	"github.com/tabwarden/tabwarden/internal/settings"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/stale"
	"github.com/tabwarden/tabwarden/internal/store"
	"github.com/tabwarden/tabwarden/internal/tracker"
)

// Deps are the collaborators the standard handler set dispatches to.
type Deps struct {
	Store        store.Store
	Tabs         host.Tabs
	Tracker      *tracker.Tracker
	Stale        *stale.Detector
	Folders      *folders.Manager
	Settings     *settings.Manager
	Tables       *heuristics.Tables
	MinGroupSize int
}

// Register installs every request type on r. The detectors run over the
// current store snapshot; none of these handlers mutates activity state.
func Register(r *Router, deps Deps) {
	r.Handle(types.MsgGetTabActivity, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return deps.Tracker.Snapshot(ctx)
	})

	r.Handle(types.MsgGetStaleTabs, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return deps.Stale.Run(ctx)
	})

	r.Handle(types.MsgSaveTabs, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var req struct {
			TabIDs   []int   `json:"tabIds"`
			FolderID *string `json:"folderId"`
		}
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		if len(req.TabIDs) == 0 {
			return nil, fmt.Errorf("tabIds required")
		}
		saved, err := deps.Folders.SaveTabs(ctx, req.TabIDs, req.FolderID)
		if err != nil {
			return nil, err
		}
		return map[string]int{"saved": saved}, nil
	})

	r.Handle(types.MsgCloseTabs, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var tabIDs []int
		if err := decode(payload, &tabIDs); err != nil {
			return nil, err
		}
		if len(tabIDs) == 0 {
			return nil, fmt.Errorf("tab ids required")
		}
		if err := deps.Tabs.Close(ctx, tabIDs); err != nil {
			return nil, fmt.Errorf("close tabs: %w", err)
		}
		return map[string]int{"closed": len(tabIDs)}, nil
	})

	r.Handle(types.MsgGetFolders, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return deps.Folders.Folders(ctx)
	})

	r.Handle(types.MsgCreateFolder, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var req struct {
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return deps.Folders.CreateFolder(ctx, req.Name, req.Color)
	})

	r.Handle(types.MsgUpdateFolder, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var req struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Color string `json:"color"`
		}
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, fmt.Errorf("folder id required")
		}
		return deps.Folders.UpdateFolder(ctx, req.ID, req.Name, req.Color)
	})

	r.Handle(types.MsgDeleteFolder, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var req struct {
			ID string `json:"id"`
		}
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, fmt.Errorf("folder id required")
		}
		if err := deps.Folders.DeleteFolder(ctx, req.ID); err != nil {
			return nil, err
		}
		return map[string]bool{"deleted": true}, nil
	})

	r.Handle(types.MsgGetSavedTabs, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return deps.Folders.SavedTabs(ctx)
	})

	r.Handle(types.MsgDeleteSavedTab, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var req struct {
			ID string `json:"id"`
		}
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, fmt.Errorf("saved tab id required")
		}
		if err := deps.Folders.DeleteSavedTab(ctx, req.ID); err != nil {
			return nil, err
		}
		return map[string]bool{"deleted": true}, nil
	})

	r.Handle(types.MsgRestoreTabs, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		if len(req.IDs) == 0 {
			return nil, fmt.Errorf("saved tab ids required")
		}
		restored, err := deps.Folders.RestoreTabs(ctx, req.IDs)
		if err != nil {
			return nil, err
		}
		return map[string]int{"restored": restored}, nil
	})

	r.Handle(types.MsgGetSmartSessions, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		snapshot, err := deps.Tracker.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		detected := sessions.Detect(snapshot, deps.Tables)
		// Cached for UI reads that want the last computed set without
		// re-running detection.
		if err := deps.Store.Set(ctx, store.KeySessions, detected); err != nil {
			return nil, fmt.Errorf("cache sessions: %w", err)
		}
		return detected, nil
	})

	r.Handle(types.MsgGetTabGroups, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		snapshot, err := deps.Tracker.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return groups.Detect(snapshot, deps.Tables, deps.MinGroupSize), nil
	})

	r.Handle(types.MsgGetSettings, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return deps.Settings.Get(ctx)
	})

	r.Handle(types.MsgUpdateSettings, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		if len(payload) == 0 {
			return nil, fmt.Errorf("settings payload required")
		}
		return deps.Settings.Update(ctx, payload)
	})
}

func decode(payload json.RawMessage, out interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload required")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
