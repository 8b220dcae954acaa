// Package id provides ULID generation with type prefixes for the records
// the service mints itself (folders, saved tabs, request tracing). Session
// identifiers are not minted here: they derive deterministically from the
// session's start timestamp.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// FolderID identifies a folder.
type FolderID = string

// SavedTabID identifies a saved tab snapshot.
type SavedTabID = string

const (
	folderPrefix   = "fld"
	savedTabPrefix = "stab"
	requestPrefix  = "req"
)

// Generator generates ULIDs from a guarded entropy source.
type Generator struct {
	entropy io.Reader
	mu      sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = &Generator{entropy: rand.Reader}
	})
	return defaultGenerator
}

// Generate creates a new ULID string.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

func (g *Generator) withPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

// NewFolderID mints a folder ID.
func NewFolderID() FolderID {
	return Default().withPrefix(folderPrefix)
}

// NewSavedTabID mints a saved-tab ID.
func NewSavedTabID() SavedTabID {
	return Default().withPrefix(savedTabPrefix)
}

// NewRequestID mints a request tracing ID.
func NewRequestID() string {
	return Default().withPrefix(requestPrefix)
}
