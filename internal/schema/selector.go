package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Selector is a tagged variant over the supported input types. Exactly one
// pointer is non-nil.
type Selector struct {
	Text    *TextSelector
	Boolean *BooleanSelector
	Time    *TimeSelector
	Number  *NumberSelector
	Select  *SelectSelector
}

// TextSelector accepts any string. Multiline is a UI hint only.
type TextSelector struct {
	Multiline bool
}

// BooleanSelector accepts values coercible to true/false.
type BooleanSelector struct{}

// TimeSelector accepts ISO-8601 times of day, dates, and timestamps.
type TimeSelector struct{}

// NumberSelector accepts numeric values within [Min, Max] inclusive when
// bounds are present. Step and Mode are UI hints only.
type NumberSelector struct {
	Min  *float64
	Max  *float64
	Step *float64
	Mode string
}

// SelectSelector accepts one of the declared options.
type SelectSelector struct {
	Options []string
}

// Kind returns the variant name, e.g. "number".
func (s Selector) Kind() string {
	switch {
	case s.Text != nil:
		return "text"
	case s.Boolean != nil:
		return "boolean"
	case s.Time != nil:
		return "time"
	case s.Number != nil:
		return "number"
	case s.Select != nil:
		return "select"
	}
	return ""
}

// timeLayouts are the accepted shapes for time selector values, tried in
// order: full timestamps first, then date-only and time-of-day forms.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

// check validates value against the selector and returns it in canonical
// form. On failure it returns the error kind and a human-readable reason.
func (s Selector) check(value any) (any, Kind, string) {
	switch {
	case s.Text != nil:
		str, ok := value.(string)
		if !ok {
			return nil, TypeMismatch, fmt.Sprintf("expected a string, got %T", value)
		}
		return str, "", ""

	case s.Boolean != nil:
		switch v := value.(type) {
		case bool:
			return v, "", ""
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, TypeMismatch, fmt.Sprintf("cannot coerce %q to a boolean", v)
			}
			return b, "", ""
		}
		return nil, TypeMismatch, fmt.Sprintf("expected a boolean, got %T", value)

	case s.Time != nil:
		switch v := value.(type) {
		case time.Time:
			return v.Format(time.RFC3339), "", ""
		case string:
			for _, layout := range timeLayouts {
				if _, err := time.Parse(layout, v); err == nil {
					return v, "", ""
				}
			}
			return nil, TypeMismatch, fmt.Sprintf("cannot parse %q as a time or timestamp", v)
		}
		return nil, TypeMismatch, fmt.Sprintf("expected a time string, got %T", value)

	case s.Number != nil:
		f, ok := coerceNumber(value)
		if !ok {
			return nil, TypeMismatch, fmt.Sprintf("cannot coerce %v (%T) to a number", value, value)
		}
		if s.Number.Min != nil && f < *s.Number.Min {
			return nil, OutOfRange, fmt.Sprintf("%v is below the minimum %v", f, *s.Number.Min)
		}
		if s.Number.Max != nil && f > *s.Number.Max {
			return nil, OutOfRange, fmt.Sprintf("%v is above the maximum %v", f, *s.Number.Max)
		}
		return f, "", ""

	case s.Select != nil:
		str, ok := value.(string)
		if !ok {
			return nil, TypeMismatch, fmt.Sprintf("expected a string option, got %T", value)
		}
		for _, opt := range s.Select.Options {
			if strings.EqualFold(opt, str) {
				// Canonicalize to the declared casing.
				return opt, "", ""
			}
		}
		return nil, InvalidOption, fmt.Sprintf("%q is not one of %v", str, s.Select.Options)
	}

	return nil, TypeMismatch, "field has no selector"
}

// coerceNumber converts the numeric shapes seen in decoded JSON and YAML
// payloads to float64.
func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
