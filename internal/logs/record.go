package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one parsed JSON log line.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	Category  string
	Item      string
	Stage     string
	EventType string
	// Fields holds every other attribute.
	Fields map[string]any
}

var knownKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {}, "component": {}, "run_id": {},
	"category": {}, "item": {}, "stage": {}, "event_type": {}, "source": {},
}

// ParseRecord decodes one log line. Non-JSON lines are rejected.
func ParseRecord(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Record{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	str := func(key string) string {
		if v, ok := raw[key].(string); ok {
			return v
		}
		return ""
	}
	rec := Record{
		Level:     strings.ToLower(str("level")),
		Message:   str("msg"),
		Component: str("component"),
		RunID:     str("run_id"),
		Category:  str("category"),
		Item:      str("item"),
		Stage:     str("stage"),
		EventType: str("event_type"),
	}
	if ts, err := time.Parse(time.RFC3339, str("ts")); err == nil {
		rec.Time = ts
	}
	for key, value := range raw {
		if _, ok := knownKeys[key]; ok {
			continue
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]any)
		}
		rec.Fields[key] = value
	}
	return rec, true
}

// Filter selects records. Empty fields match everything.
type Filter struct {
	RunID    string
	Category string
	Item     string
	MinLevel string
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
		return false
	}
	if f.Item != "" && !strings.Contains(strings.ToLower(r.Item), strings.ToLower(f.Item)) {
		return false
	}
	return levelRank(r.Level) >= levelRank(f.MinLevel)
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "", "info":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return 1
	}
}

// Format renders r on one line in the console layout.
func (r Record) Format() string {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(r.Level))
	if r.Component != "" {
		fmt.Fprintf(&b, " [%s]", r.Component)
	}
	subject := r.Category
	if r.Item != "" {
		if subject != "" {
			subject += "/"
		}
		subject += r.Item
	}
	if subject != "" {
		b.WriteString(" " + subject + ":")
	}
	b.WriteString(" " + r.Message)

	keys := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, r.Fields[key])
	}
	return b.String()
}
