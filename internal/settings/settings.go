// Package settings manages the user_settings store key.
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/store"
)

// Defaults returns the out-of-the-box settings.
func Defaults() types.Settings {
	return types.Settings{
		InactiveThresholdHours: 8,
		AutoArchiveDays:        30,
		NotificationEnabled:    true,
		Theme:                  "system",
		SyncEnabled:            false,
	}
}

// Manager reads and updates user settings.
type Manager struct {
	store store.Store
}

func NewManager(st store.Store) *Manager {
	return &Manager{store: st}
}

// Get returns stored settings, or defaults when none were saved yet.
func (m *Manager) Get(ctx context.Context) (types.Settings, error) {
	s := Defaults()
	if _, err := m.store.Get(ctx, store.KeySettings, &s); err != nil {
		return types.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// Update applies a partial JSON patch over the current settings. Fields
// absent from the patch keep their current value.
func (m *Manager) Update(ctx context.Context, patch json.RawMessage) (types.Settings, error) {
	current, err := m.Get(ctx)
	if err != nil {
		return types.Settings{}, err
	}
	if err := json.Unmarshal(patch, &current); err != nil {
		return types.Settings{}, fmt.Errorf("decode settings patch: %w", err)
	}
	if current.InactiveThresholdHours <= 0 {
		return types.Settings{}, fmt.Errorf("inactive_threshold_hours must be positive")
	}
	if err := m.store.Set(ctx, store.KeySettings, current); err != nil {
		return types.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return current, nil
}
