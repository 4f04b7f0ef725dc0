// Package analytics aggregates a day of readings and misses for the operator digest.
package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"dream-oracle/internal/storage"
)

const topKeywords = 5

// KeywordCount is a keyword with how often it appeared.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// DailyStats is one day of activity.
type DailyStats struct {
	Date             string         `json:"date"`
	TotalReadings    int            `json:"total_readings"`
	UniqueRequesters int            `json:"unique_requesters"`
	MissedReadings   int            `json:"missed_readings"`
	Emotions         map[string]int `json:"emotions"`
	TopKeywords      []KeywordCount `json:"top_keywords"`
	MissedKeywords   []KeywordCount `json:"missed_keywords"`
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func within(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

// AnalyzeDaily counts the entries and misses that fall on day, in day's location.
func AnalyzeDaily(entries []storage.Entry, misses []storage.Miss, day time.Time) *DailyStats {
	start, end := dayBounds(day)
	stats := &DailyStats{
		Date:     start.Format("2006-01-02"),
		Emotions: make(map[string]int),
	}

	requesters := make(map[string]bool)
	keywords := make(map[string]int)
	for _, e := range entries {
		if !within(e.Timestamp, start, end) {
			continue
		}
		stats.TotalReadings++
		if e.RequesterID != "" {
			requesters[e.RequesterID] = true
		}
		stats.Emotions[e.Emotion]++
		keywords[e.Keyword]++
	}
	stats.UniqueRequesters = len(requesters)

	missed := make(map[string]int)
	for _, m := range misses {
		if !within(m.Timestamp, start, end) {
			continue
		}
		stats.MissedReadings++
		missed[m.Keyword]++
	}

	stats.TopKeywords = ranked(keywords, topKeywords)
	stats.MissedKeywords = ranked(missed, 0)
	return stats
}

// ranked orders by count desc then keyword; limit 0 keeps everything.
func ranked(counts map[string]int, limit int) []KeywordCount {
	out := make([]KeywordCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, KeywordCount{Keyword: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summary renders the digest pushed to the operator.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Dream Oracle 每日摘要 %s\n", ds.Date)
	fmt.Fprintf(&b, "- 解夢次數：%d\n", ds.TotalReadings)
	fmt.Fprintf(&b, "- 使用者數：%d\n", ds.UniqueRequesters)
	fmt.Fprintf(&b, "- 查無資料：%d\n", ds.MissedReadings)

	if len(ds.Emotions) > 0 {
		labels := make([]string, 0, len(ds.Emotions))
		for l := range ds.Emotions {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		b.WriteString("\n🎭 情緒分布：\n")
		for _, l := range labels {
			fmt.Fprintf(&b, "- %s：%d\n", l, ds.Emotions[l])
		}
	}
	if len(ds.TopKeywords) > 0 {
		b.WriteString("\n🔥 熱門關鍵字：\n")
		for _, k := range ds.TopKeywords {
			fmt.Fprintf(&b, "- %s：%d\n", k.Keyword, k.Count)
		}
	}
	if len(ds.MissedKeywords) > 0 {
		b.WriteString("\n🛑 待補關鍵字：\n")
		for _, k := range ds.MissedKeywords {
			fmt.Fprintf(&b, "- %s：%d\n", k.Keyword, k.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Empty reports whether nothing happened that day.
func (ds *DailyStats) Empty() bool {
	return ds.TotalReadings == 0 && ds.MissedReadings == 0
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
