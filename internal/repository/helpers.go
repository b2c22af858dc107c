package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/domain"
)

// parseNullableTime returns nil for NULL, empty or unparseable values.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString maps nil to SQL NULL.
func nullableTimeToString(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// joinPyramid stores pyramid levels as a comma separated list.
func joinPyramid(levels []domain.PyramidLevel) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ",")
}

func splitPyramid(s string) []domain.PyramidLevel {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	levels := make([]domain.PyramidLevel, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			levels = append(levels, domain.PyramidLevel(p))
		}
	}
	return levels
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// parseTimestamps parses the created_at/updated_at pair every table carries.
func parseTimestamps(created, updated string) (time.Time, time.Time, error) {
	c, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	u, err := time.Parse(time.RFC3339, updated)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, u, nil
}
