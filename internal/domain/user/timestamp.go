package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a point in time expressed as epoch milliseconds. Zero means unset.
//
// It decodes from a plain JSON number or from a store-native timestamp object
// carrying a seconds component, e.g. {"_seconds": 1700000000, "_nanoseconds": 0}.
// It always encodes as a number.
type Timestamp int64

// TimestampFromTime converts t to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// TimestampFromSeconds converts a seconds component to a Timestamp.
func TimestampFromSeconds(seconds int64) Timestamp {
	return Timestamp(seconds * 1000)
}

// Millis returns the epoch milliseconds.
func (t Timestamp) Millis() int64 {
	return int64(t)
}

// Time returns t as a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool {
	return t == 0
}

type secondsObject struct {
	UnderscoreSeconds *float64 `json:"_seconds"`
	Seconds           *float64 `json:"seconds"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}

	switch data[0] {
	case '{':
		var obj secondsObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("invalid timestamp object: %w", err)
		}
		switch {
		case obj.UnderscoreSeconds != nil:
			*t = TimestampFromSeconds(int64(*obj.UnderscoreSeconds))
		case obj.Seconds != nil:
			*t = TimestampFromSeconds(int64(*obj.Seconds))
		default:
			*t = 0
		}
		return nil
	default:
		var millis float64
		if err := json.Unmarshal(data, &millis); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		*t = Timestamp(int64(millis))
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(t))
}
