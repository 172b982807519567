package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrEmptyPayload is returned when a payload carries neither form.
var ErrEmptyPayload = errors.New("empty analysis payload")

// Payload is an analysis result as it arrives on the wire: either a JSON
// document serialized into a string (Raw) or an object (Parsed).
type Payload struct {
	Raw    string
	Parsed *AnalysisResult

	// doc is the object as received, kept so Document reports what the
	// server sent rather than a re-encoding with zero values filled in.
	doc []byte
}

// RawPayload wraps a serialized analysis document.
func RawPayload(s string) Payload { return Payload{Raw: s} }

// ParsedPayload wraps an already decoded analysis.
func ParsedPayload(r AnalysisResult) Payload { return Payload{Parsed: &r} }

// Resolve returns the structured analysis, decoding Raw if needed.
func (p Payload) Resolve() (AnalysisResult, error) {
	if p.Parsed != nil {
		return *p.Parsed, nil
	}
	raw := strings.TrimSpace(p.Raw)
	if raw == "" || raw == "null" {
		return AnalysisResult{}, ErrEmptyPayload
	}
	var r AnalysisResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return AnalysisResult{}, err
	}
	return r, nil
}

// Document returns the payload as JSON bytes regardless of its form.
func (p Payload) Document() ([]byte, error) {
	if len(p.doc) > 0 {
		return p.doc, nil
	}
	if p.Parsed != nil {
		return json.Marshal(p.Parsed)
	}
	raw := strings.TrimSpace(p.Raw)
	if raw == "" {
		return nil, ErrEmptyPayload
	}
	return []byte(raw), nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Payload{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &p.Raw)
	}
	var r AnalysisResult
	if err := json.Unmarshal(data, &r); err != nil {
		// keep the document so callers can report the decode failure
		p.Raw = string(data)
		return nil
	}
	p.Parsed = &r
	p.doc = append([]byte(nil), data...)
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Parsed != nil {
		return json.Marshal(p.Parsed)
	}
	return json.Marshal(p.Raw)
}
