// Package sessions partitions activity records into time-bounded browsing
// sessions and names them from topic and domain heuristics. Detection is a
// pure function over a snapshot: same input, same output.
package sessions

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tabwarden/tabwarden/internal/heuristics"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/shared/urlx"
)

const (
	// Gap is the inactivity window that closes a session.
	Gap = 30 * time.Minute

	// minSessionSize drops singleton sessions; they carry no
	// organizational value.
	minSessionSize = 2

	maxTopicTags = 3
)

// Detect clusters the activity snapshot into smart sessions, most recent
// first.
func Detect(activity map[int]types.TabActivity, tables *heuristics.Tables) []types.SmartSession {
	if len(activity) == 0 {
		return []types.SmartSession{}
	}

	records := make([]types.TabActivity, 0, len(activity))
	for _, rec := range activity {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].LastActiveAt != records[j].LastActiveAt {
			return records[i].LastActiveAt < records[j].LastActiveAt
		}
		return records[i].TabID < records[j].TabID
	})

	gapMs := Gap.Milliseconds()
	var clusters [][]types.TabActivity
	current := []types.TabActivity{records[0]}
	for _, rec := range records[1:] {
		if rec.LastActiveAt-current[len(current)-1].LastActiveAt > gapMs {
			clusters = append(clusters, current)
			current = nil
		}
		current = append(current, rec)
	}
	clusters = append(clusters, current)

	sessions := []types.SmartSession{}
	for _, cluster := range clusters {
		if len(cluster) < minSessionSize {
			continue
		}
		sessions = append(sessions, build(cluster, tables))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime > sessions[j].StartTime
	})
	return sessions
}

func build(cluster []types.TabActivity, tables *heuristics.Tables) types.SmartSession {
	start := cluster[0].LastActiveAt
	end := cluster[len(cluster)-1].LastActiveAt

	tabs := make([]types.SessionTab, 0, len(cluster))
	for _, rec := range cluster {
		tabs = append(tabs, types.SessionTab{
			TabID:       rec.TabID,
			URL:         rec.URL,
			Title:       rec.Title,
			FaviconURL:  rec.FaviconURL,
			FirstSeenAt: rec.LastActiveAt - rec.TotalActiveTime,
			LastActive:  rec.LastActiveAt,
		})
	}

	topics := topicTags(cluster, tables)
	domain := dominantDomain(cluster)

	return types.SmartSession{
		ID:             fmt.Sprintf("session-%d", start),
		Name:           sessionName(start, topics, domain),
		Tabs:           tabs,
		StartTime:      start,
		EndTime:        end,
		AutoGenerated:  true,
		TopicTags:      topics,
		DominantDomain: domain,
	}
}

// topicTags tallies topic matches over each tab's lowercased URL and title
// and keeps the top three, ties broken by table order.
func topicTags(cluster []types.TabActivity, tables *heuristics.Tables) []string {
	counts := make(map[string]int)
	for _, rec := range cluster {
		text := strings.ToLower(rec.URL + " " + rec.Title)
		for _, topic := range tables.TopicsFor(text) {
			counts[topic]++
		}
	}
	if len(counts) == 0 {
		return []string{}
	}

	topics := make([]string, 0, len(counts))
	for topic := range counts {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return tables.TopicIndex(topics[i]) < tables.TopicIndex(topics[j])
	})
	if len(topics) > maxTopicTags {
		topics = topics[:maxTopicTags]
	}
	return topics
}

// dominantDomain returns the most frequent hostname in the cluster, but
// only when it occurs at least twice. Ties keep the domain seen first.
func dominantDomain(cluster []types.TabActivity) string {
	counts := make(map[string]int)
	var order []string
	for _, rec := range cluster {
		domain := urlx.Hostname(rec.URL)
		if counts[domain] == 0 {
			order = append(order, domain)
		}
		counts[domain]++
	}

	best, bestCount := "", 0
	for _, domain := range order {
		if counts[domain] > bestCount {
			best, bestCount = domain, counts[domain]
		}
	}
	if bestCount < 2 {
		return ""
	}
	return best
}

func sessionName(startMs int64, topics []string, domain string) string {
	label := timeOfDay(time.UnixMilli(startMs).Hour())

	switch {
	case len(topics) > 0:
		return label + " " + capitalize(topics[0])
	case domain != "":
		first, _, _ := strings.Cut(domain, ".")
		return label + " " + capitalize(first)
	default:
		return label + " Session"
	}
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Morning"
	case hour >= 12 && hour < 17:
		return "Afternoon"
	case hour >= 17 && hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
