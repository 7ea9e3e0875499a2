package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const startTimeLayout = "01/02/2006, 15:04:05"

// formatDuration renders seconds as "1h 02m 03s", "4m 05s" or "42s".
func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// formatStartTime renders an ISO-8601 timestamp in loc. Unparseable input is
// returned unchanged.
func formatStartTime(iso string, loc *time.Location) string {
	parsed, err := parseISO(iso)
	if err != nil {
		return strings.TrimSpace(iso)
	}
	if loc == nil {
		loc = time.Local
	}
	return parsed.In(loc).Format(startTimeLayout)
}

func parseISO(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("empty")
	}
	parsed, err := time.Parse(time.RFC3339Nano, trimmed)
	if err == nil {
		return parsed, nil
	}
	// Naive timestamps carry no zone; the backend stores them in UTC.
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if parsed, naiveErr := time.ParseInLocation(layout, trimmed, time.UTC); naiveErr == nil {
			return parsed, nil
		}
	}
	return time.Time{}, err
}

func partyNames(names []string, limit int) string {
	if len(names) == 0 {
		return "n/a"
	}
	if limit > 0 && len(names) > limit {
		return strings.Join(names[:limit], ", ") + fmt.Sprintf(" +%d more", len(names)-limit)
	}
	return strings.Join(names, ", ")
}

func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			wrapped = append(wrapped, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if len(current)+1+len(word) <= width {
				current += " " + word
				continue
			}
			wrapped = append(wrapped, current)
			current = word
		}
		wrapped = append(wrapped, current)
	}
	return strings.Join(wrapped, "\n")
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	if limit <= 3 {
		return text[:limit]
	}
	return text[:limit-3] + "..."
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	return truncate(compact, limit)
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
