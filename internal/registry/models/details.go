package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FreeTextKey is the key the raw text of an unstructured payload is stored
// under.
const FreeTextKey = "descricao"

// EventDetails is the payload attached to an event: either a structured
// key/value object or a single free-text note. Exactly one branch is set.
type EventDetails struct {
	Structured map[string]any
	FreeText   string
}

// ParseDetails converts a raw submitted payload into EventDetails. The rule
// is strict: input that unmarshals as a JSON object is kept structured, a
// JSON string contributes its value as free text, and anything else —
// including truncated object-looking syntax — is taken literally as free
// text. Conversion is total and never fails.
func ParseDetails(raw string) EventDetails {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err == nil && m != nil {
		return EventDetails{Structured: m}
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return EventDetails{FreeText: s}
	}
	return EventDetails{FreeText: raw}
}

// AsMap returns the canonical object form: the structured map itself, or the
// free text wrapped under FreeTextKey.
func (d EventDetails) AsMap() map[string]any {
	if d.Structured != nil {
		return d.Structured
	}
	if d.FreeText == "" {
		return map[string]any{}
	}
	return map[string]any{FreeTextKey: d.FreeText}
}

// MarshalJSON emits the canonical object form.
func (d EventDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.AsMap())
}

// UnmarshalJSON accepts any JSON value under the ParseDetails rule.
func (d *EventDetails) UnmarshalJSON(data []byte) error {
	*d = ParseDetails(string(data))
	return nil
}

// Value stores the canonical object form as a JSON column.
func (d EventDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d.AsMap())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan restores the stored object form. Stored payloads are always objects,
// so the structured branch is set on load; a free-text payload comes back as
// its wrapped form, identically to how it was stored.
func (d *EventDetails) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*d = EventDetails{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported details column type %T", src)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("corrupt details column: %w", err)
	}
	*d = EventDetails{Structured: m}
	return nil
}
