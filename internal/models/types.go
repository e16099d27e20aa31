package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Timestamp accepts both BSON datetimes and ISO-8601 strings; ingestion has
// written both over time. The zero value encodes as JSON null.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t *Timestamp) UnmarshalBSONValue(typ byte, data []byte) error {
	rv := bson.RawValue{Type: bson.Type(typ), Value: data}
	switch rv.Type {
	case bson.TypeDateTime:
		ms, ok := rv.DateTimeOK()
		if !ok {
			return fmt.Errorf("malformed datetime value")
		}
		t.Time = time.UnixMilli(ms).UTC()
	case bson.TypeString:
		s, ok := rv.StringValueOK()
		if !ok {
			return fmt.Errorf("malformed string value")
		}
		t.parse(s)
	default:
		// null, undefined and anything unexpected read as "unknown"
		t.Time = time.Time{}
	}
	return nil
}

// timestampLayouts are tried in order; naive layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parse never fails: an unparseable string reads as "unknown", like any
// other unexpected value, so one bad document cannot fail a whole page.
func (t *Timestamp) parse(s string) {
	t.Time = time.Time{}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return
		}
	}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.parse(s)
	return nil
}

// StringList decodes a BSON array of strings. Missing or non-array values
// decode as an empty list and non-string elements are skipped.
type StringList []string

func (l *StringList) UnmarshalBSONValue(typ byte, data []byte) error {
	if bson.Type(typ) != bson.TypeArray {
		*l = nil
		return nil
	}
	values, err := bson.RawArray(data).Values()
	if err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	out := make(StringList, 0, len(values))
	for _, v := range values {
		if s, ok := v.StringValueOK(); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	items, ok := raw.([]any)
	if !ok {
		*l = nil
		return nil
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}
