// Package groups clusters open tabs by shared origin or shared project
// context, independent of recency. Detection is a pure function over an
// activity snapshot.
package groups

import (
	"fmt"
	"sort"

	"github.com/tabwarden/tabwarden/internal/heuristics"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/shared/urlx"
)

// DefaultMinGroupSize is the smallest bucket worth emitting.
const DefaultMinGroupSize = 2

// Detect buckets tabs by normalized hostname, and for the configured
// code-hosting domain by owner/repository path. Project groups take
// priority: when any exist for that domain, the whole-domain bucket is
// suppressed. The result is sorted by descending tab count.
func Detect(activity map[int]types.TabActivity, tables *heuristics.Tables, minGroupSize int) []types.TabGroup {
	if minGroupSize < 1 {
		minGroupSize = DefaultMinGroupSize
	}

	byDomain := make(map[string][]types.TabActivity)
	byProject := make(map[string][]types.TabActivity)

	ids := make([]int, 0, len(activity))
	for id := range activity {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		rec := activity[id]
		domain := urlx.Hostname(rec.URL)
		byDomain[domain] = append(byDomain[domain], rec)

		if domain == tables.ProjectHost {
			if project := projectKey(rec.URL); project != "" {
				byProject[project] = append(byProject[project], rec)
			}
		}
	}

	result := []types.TabGroup{}
	projectGroups := 0
	for project, tabs := range byProject {
		if len(tabs) < minGroupSize {
			continue
		}
		projectGroups++
		result = append(result, types.TabGroup{
			ID:       fmt.Sprintf("group-%s-%s", tables.ProjectHost, project),
			Name:     project,
			Domain:   tables.ProjectHost,
			Tabs:     tabs,
			TabCount: len(tabs),
			Color:    tables.ColorFor(tables.ProjectHost),
		})
	}

	for domain, tabs := range byDomain {
		if len(tabs) < minGroupSize {
			continue
		}
		if domain == tables.ProjectHost && projectGroups > 0 {
			continue
		}
		result = append(result, types.TabGroup{
			ID:       "group-" + domain,
			Name:     tables.DisplayName(domain),
			Domain:   domain,
			Tabs:     tabs,
			TabCount: len(tabs),
			Color:    tables.ColorFor(domain),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TabCount != result[j].TabCount {
			return result[i].TabCount > result[j].TabCount
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// projectKey extracts the "owner/repository" pair from a code-hosting URL
// path, or "" when the path has no such pair.
func projectKey(rawURL string) string {
	segments := urlx.PathSegments(rawURL)
	if len(segments) < 2 {
		return ""
	}
	return segments[0] + "/" + segments[1]
}
