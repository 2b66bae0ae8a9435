package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// isoLayout matches the millisecond ISO-8601 strings found in existing exports.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant with millisecond precision that serializes as
// an ISO-8601 string.
type Timestamp struct {
	time.Time
}

// At truncates t to milliseconds and converts it to UTC.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// String returns the ISO-8601 form, e.g. 2024-03-01T09:30:00.000Z.
func (t Timestamp) String() string {
	return t.UTC().Format(isoLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler. It accepts any RFC 3339 string.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = At(parsed)
	return nil
}
