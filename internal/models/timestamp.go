package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Millis - время, передаваемое по сети как миллисекунды Unix.
// При разборе принимается также строка RFC3339.
type Millis struct {
	time.Time
}

// NewMillis оборачивает time.Time
func NewMillis(t time.Time) Millis {
	return Millis{Time: t}
}

func (m Millis) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(m.UnixMilli())
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		m.Time = t
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	m.Time = time.UnixMilli(int64(ms))
	return nil
}
