package domain

import (
	"strings"
	"time"
)

// dueDatetimeLayouts are tried in order. The bare layouts carry no zone
// information; time.Parse yields them in UTC, which is exactly the policy:
// a timezone-less timestamp keeps its literal clock reading in UTC rather
// than being reinterpreted into the server's local zone.
var dueDatetimeLayouts = []string{
	time.RFC3339,                  // 2006-01-02T15:04:05+07:00 or ...Z
	"2006-01-02T15:04:05.999999",  // bare, fractional seconds
	"2006-01-02T15:04:05",         // bare
	"2006-01-02T15:04",            // bare, HTML datetime-local
	"2006-01-02 15:04:05",         // bare, space separator
}

// ParseDueDatetime resolves a raw due-datetime string into a canonical
// instant. Timezone-qualified input is honored as given; bare input is
// treated as already being in UTC so "2:35 PM" stays "2:35 PM" regardless
// of server locale.
func ParseDueDatetime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueDatetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "due_datetime", Message: "due_datetime is not a recognized timestamp"}
}
