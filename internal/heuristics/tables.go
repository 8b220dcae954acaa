// Package heuristics loads the declarative keyword and domain tables used
// by the session and group detectors. The vocabulary lives in YAML so the
// clustering logic stays independent of it.
package heuristics

import (
	_ "embed"
	"fmt"
	"hash/fnv"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed tables.yaml
var defaultTables []byte

// TopicRule maps keyword tokens to a topic label. Rule order is
// significant: it breaks ties when topics tally equal counts.
type TopicRule struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
}

// DomainRule assigns a display name and fixed color to a well-known domain.
type DomainRule struct {
	Domain string `yaml:"domain"`
	Name   string `yaml:"name"`
	Color  string `yaml:"color"`
}

// Tables holds every heuristic table.
type Tables struct {
	Topics      []TopicRule  `yaml:"topics"`
	ProjectHost string       `yaml:"project_host"`
	Domains     []DomainRule `yaml:"domains"`
	Palette     []string     `yaml:"palette"`

	byDomain map[string]DomainRule
}

// Load parses the embedded default tables.
func Load() (*Tables, error) {
	return parse(defaultTables)
}

// LoadFile parses tables from an override file.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	if len(t.Palette) == 0 {
		return nil, fmt.Errorf("parse tables: empty palette")
	}
	t.byDomain = make(map[string]DomainRule, len(t.Domains))
	for _, d := range t.Domains {
		t.byDomain[d.Domain] = d
	}
	return &t, nil
}

// TopicsFor returns the topics whose keywords appear in text, in table
// order. text is matched as-is; callers lowercase it first.
func (t *Tables) TopicsFor(text string) []string {
	var topics []string
	for _, rule := range t.Topics {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				topics = append(topics, rule.Topic)
				break
			}
		}
	}
	return topics
}

// TopicIndex returns the table position of a topic, for tie-breaking.
func (t *Tables) TopicIndex(topic string) int {
	for i, rule := range t.Topics {
		if rule.Topic == topic {
			return i
		}
	}
	return len(t.Topics)
}

// DisplayName returns the configured display name for a domain, or the
// domain itself.
func (t *Tables) DisplayName(domain string) string {
	if d, ok := t.byDomain[domain]; ok {
		return d.Name
	}
	return domain
}

// ColorFor returns the fixed color for a well-known domain, or a palette
// color chosen by hashing the domain. Pure function of the domain string.
func (t *Tables) ColorFor(domain string) string {
	if d, ok := t.byDomain[domain]; ok && d.Color != "" {
		return d.Color
	}
	h := fnv.New32a()
	h.Write([]byte(domain))
	return t.Palette[int(h.Sum32())%len(t.Palette)]
}
