package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PriceRecord is one observation written to the history file.
type PriceRecord struct {
	Price     int64     `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Older history files carry ISO-8601 timestamps without a zone offset.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (r *PriceRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Price     *int64 `json:"price"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Price == nil {
		return errors.New("record has no price")
	}
	if *raw.Price < 0 {
		return fmt.Errorf("record has negative price %d", *raw.Price)
	}
	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}

	r.Price = *raw.Price
	r.Timestamp = ts
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("record has no timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
