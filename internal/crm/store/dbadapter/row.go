package dbadapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Drivers hand back different Go types for the same column: modernc returns
// int64 and string (or time.Time for DATETIME columns), lib/pq returns int64,
// string and time.Time. The accessors below absorb the difference.

// Int64 returns the column as an integer, zero when NULL or absent.
func (r Row) Int64(col string) int64 {
	v, _ := toInt64(r[col])
	return v
}

// String returns the column as text, "" when NULL or absent.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// Time returns the column as a UTC time, the zero time when NULL or unparseable.
func (r Row) Time(col string) time.Time {
	t, _ := toTime(r[col])
	return t
}

// TimePtr is Time with NULL mapped to nil.
func (r Row) TimePtr(col string) *time.Time {
	t, ok := toTime(r[col])
	if !ok {
		return nil
	}
	return &t
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02",
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case int64:
		return time.Unix(t, 0).UTC(), true
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	default:
		return time.Time{}, false
	}
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
