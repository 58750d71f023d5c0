package migration

import (
	"database/sql"
	"regexp"
	"strings"
)

var (
	upMarkerRx   = regexp.MustCompile(`(?i)^\s*--\s*@UP\s*$`)
	downMarkerRx = regexp.MustCompile(`(?i)^\s*--\s*@DOWN\s*$`)
)

// Changes are the forward and backward changes of a single migration. A change
// is invalid if its annotation is missing from the source, and valid but empty
// if the annotation exists without a body.
type Changes struct {
	Up   sql.Null[string]
	Down sql.Null[string]
}

// Parse splits the migration source into its up and down changes. Only lines
// that consist entirely of a marker are considered, and if a marker appears
// more than once, the last occurrence is used.
func Parse(src string) Changes {
	var upLine, downLine sql.Null[int]

	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if upMarkerRx.MatchString(line) {
			upLine = sql.Null[int]{V: i, Valid: true}
		}
		if downMarkerRx.MatchString(line) {
			downLine = sql.Null[int]{V: i, Valid: true}
		}
	}

	var changes Changes
	if upLine.Valid {
		end := len(lines)
		if downLine.Valid {
			end = downLine.V
		}
		changes.Up = sql.Null[string]{V: joinLines(lines, upLine.V+1, end), Valid: true}
	}
	if downLine.Valid {
		changes.Down = sql.Null[string]{V: joinLines(lines, downLine.V+1, len(lines)), Valid: true}
	}

	return changes
}

// joinLines joins lines[start:end] and trims the result. An inverted range
// yields an empty string.
func joinLines(lines []string, start, end int) string {
	if start >= end {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}
