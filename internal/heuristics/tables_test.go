package heuristics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, tables.Topics)
	assert.NotEmpty(t, tables.Domains)
	assert.NotEmpty(t, tables.Palette)
	assert.Equal(t, "github.com", tables.ProjectHost)
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := `
topics:
  - topic: cooking
    keywords: [recipe, oven]
project_host: forge.example
domains:
  - domain: forge.example
    name: Forge
    color: "#123456"
palette:
  - "#111111"
  - "#222222"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tables, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "forge.example", tables.ProjectHost)
	assert.Equal(t, []string{"cooking"}, tables.TopicsFor("a recipe for bread"))
	assert.Equal(t, "Forge", tables.DisplayName("forge.example"))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsEmptyPalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("topics: []\n"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "palette")
}

func TestTopicsForMatchesInTableOrder(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	topics := tables.TopicsFor("github issue about the api docs")
	assert.Equal(t, []string{"documentation", "development"}, topics)
	assert.Empty(t, tables.TopicsFor("nothing of note"))
}

func TestTopicIndex(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, tables.TopicIndex(tables.Topics[0].Topic))
	assert.Equal(t, len(tables.Topics), tables.TopicIndex("no-such-topic"))
}

func TestDisplayNameFallsBackToDomain(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "GitHub", tables.DisplayName("github.com"))
	assert.Equal(t, "obscure.example", tables.DisplayName("obscure.example"))
}

func TestColorForStableHash(t *testing.T) {
	tables, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "#ff4500", tables.ColorFor("reddit.com"))

	hashed := tables.ColorFor("obscure.example")
	assert.Equal(t, hashed, tables.ColorFor("obscure.example"))
	assert.Contains(t, tables.Palette, hashed)
}
