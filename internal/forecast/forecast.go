// Package forecast decodes Open-Meteo forecast documents without trusting their shape.
// The decoded document is kept as raw JSON so that it can be passed through unchanged;
// only the fields the gateway depends on are surfaced through named presence checks.
package forecast

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

var (
	// ErrDecode is returned when the upstream body is not a usable JSON document.
	ErrDecode = errors.New("decode forecast")
	// ErrMissingHourly is returned when hourly, hourly.time or hourly.temperature_2m is absent.
	ErrMissingHourly = errors.New("missing hourly data")
)

// Hourly holds the raw hourly series the gateway requires.
type Hourly struct {
	Time          json.RawMessage
	Temperature2m json.RawMessage
}

// Forecast is a decoded upstream document.
type Forecast struct {
	raw    json.RawMessage
	hourly *Hourly // nil when hourly is absent, falsy, or not an object
}

// Decode parses body as JSON. Invalid UTF-8 sequences are replaced with U+FFFD
// first, then the document must pass the strict RFC 8259 grammar: leading-zero
// numbers and raw control characters in strings are decode errors. A literal
// null document is a decode error because nothing can be read from it; any
// other valid JSON value decodes successfully and is left to Validate.
func Decode(body []byte) (*Forecast, error) {
	body = replaceInvalidUTF8(body)
	if err := stdjson.Unmarshal(body, new(stdjson.RawMessage)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is null", ErrDecode)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	f := &Forecast{raw: buf.Bytes()}

	if _, ok := doc.(map[string]any); !ok {
		return f, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(f.raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	f.hourly = decodeHourly(top["hourly"])
	return f, nil
}

// replaceInvalidUTF8 substitutes U+FFFD for every byte that does not start a
// valid UTF-8 sequence. Valid input is returned unchanged.
func replaceInvalidUTF8(b []byte) []byte {
	if utf8.Valid(b) {
		return b
	}
	out := make([]byte, 0, len(b)+8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
		} else {
			out = append(out, b[:size]...)
		}
		b = b[size:]
	}
	return out
}

func decodeHourly(raw json.RawMessage) *Hourly {
	if !truthy(raw) || raw[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return &Hourly{
		Time:          fields["time"],
		Temperature2m: fields["temperature_2m"],
	}
}

// Hourly returns the hourly block, or nil when it is missing.
func (f *Forecast) Hourly() *Hourly {
	return f.hourly
}

// HasHourly reports whether an hourly object is present.
func (f *Forecast) HasHourly() bool { return f.hourly != nil }

// HasTime reports whether hourly.time is present.
func (f *Forecast) HasTime() bool { return f.hourly != nil && truthy(f.hourly.Time) }

// HasTemperature reports whether hourly.temperature_2m is present.
func (f *Forecast) HasTemperature() bool {
	return f.hourly != nil && truthy(f.hourly.Temperature2m)
}

// Validate returns ErrMissingHourly unless all required hourly fields are present.
func (f *Forecast) Validate() error {
	switch {
	case !f.HasHourly():
		return fmt.Errorf("%w: hourly", ErrMissingHourly)
	case !f.HasTime():
		return fmt.Errorf("%w: hourly.time", ErrMissingHourly)
	case !f.HasTemperature():
		return fmt.Errorf("%w: hourly.temperature_2m", ErrMissingHourly)
	}
	return nil
}

// Raw returns the document with insignificant whitespace removed. Key order
// and value text are exactly as received.
func (f *Forecast) Raw() json.RawMessage {
	return f.raw
}

// truthy treats missing, null, false, 0 and "" as absent. Empty arrays and
// objects count as present.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	if c := raw[0]; c == '-' || (c >= '0' && c <= '9') {
		n, err := strconv.ParseFloat(string(raw), 64)
		return err != nil || n != 0
	}
	return true
}
