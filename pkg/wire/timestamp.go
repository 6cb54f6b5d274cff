package wire

import (
	"time"
)

// timestampLayout is the wire form of a protocol timestamp: local-free
// ISO 8601 with millisecond precision and no zone designator.
const timestampLayout = "2006-01-02T15:04:05.000"

// Timestamp is a protocol timestamp. The wire form carries no zone;
// values are interpreted as UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp builds a Timestamp from a time value.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses the wire form of a timestamp. The zone-free
// text is read as UTC; fractional seconds are optional.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339, s+"Z")
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Time: t.UTC()}, nil
}

// String returns the wire form of the timestamp.
func (t Timestamp) String() string {
	return t.Time.UTC().Format(timestampLayout)
}
