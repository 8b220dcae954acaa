// Package hosttest provides in-memory host fakes shared by unit tests.
package hosttest

import (
	"context"
	"sync"

	"github.com/tabwarden/tabwarden/internal/host"
)

// FakeTabs is an in-memory host.Tabs.
type FakeTabs struct {
	mu           sync.Mutex
	tabs         map[int]host.TabInfo
	Disconnected bool
	Closed       []int
	Created      []string
}

func NewFakeTabs(tabs ...host.TabInfo) *FakeTabs {
	f := &FakeTabs{tabs: make(map[int]host.TabInfo)}
	for _, t := range tabs {
		f.tabs[t.ID] = t
	}
	return f
}

// Add inserts or replaces a tab.
func (f *FakeTabs) Add(t host.TabInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tabs[t.ID] = t
}

// Remove drops a tab from the inventory.
func (f *FakeTabs) Remove(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tabs, id)
}

func (f *FakeTabs) Query(ctx context.Context) ([]host.TabInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Disconnected {
		return nil, host.ErrDisconnected
	}
	out := make([]host.TabInfo, 0, len(f.tabs))
	for _, t := range f.tabs {
		out = append(out, t)
	}
	return out, nil
}

func (f *FakeTabs) Close(ctx context.Context, ids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Disconnected {
		return host.ErrDisconnected
	}
	for _, id := range ids {
		delete(f.tabs, id)
	}
	f.Closed = append(f.Closed, ids...)
	return nil
}

func (f *FakeTabs) Create(ctx context.Context, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Disconnected {
		return host.ErrDisconnected
	}
	f.Created = append(f.Created, urls...)
	return nil
}

// FakeBadge records badge text updates.
type FakeBadge struct {
	mu   sync.Mutex
	Text string
	Sets int
}

func (f *FakeBadge) SetText(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Text = text
	f.Sets++
	return nil
}

// Last returns the most recent badge text.
func (f *FakeBadge) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Text
}
