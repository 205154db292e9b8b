// Package transcript defines the earnings-call transcript vocabulary shared by
// the search client, the result cache and the renderers.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Section identifies which part of an earnings call a snippet came from.
type Section string

// Known sections. The zero value means "any section".
const (
	SectionAny             Section = ""
	SectionPreparedRemarks Section = "prepared_remarks"
	SectionQA              Section = "qa"
)

// ErrInvalidSection is returned by ParseSection for unknown values.
var ErrInvalidSection = errors.New("section must be prepared_remarks or qa")

// ParseSection normalizes user input into a Section. Empty input is SectionAny.
// "q&a" and "prepared" are accepted as shorthands.
func ParseSection(s string) (Section, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SectionAny, nil
	case "prepared_remarks", "prepared", "remarks":
		return SectionPreparedRemarks, nil
	case "qa", "q&a":
		return SectionQA, nil
	default:
		return SectionAny, fmt.Errorf("%w: got %q", ErrInvalidSection, s)
	}
}

// Label returns a human-readable name for the section.
func (s Section) Label() string {
	switch s {
	case SectionPreparedRemarks:
		return "Prepared remarks"
	case SectionQA:
		return "Q&A"
	case SectionAny:
		return "Any section"
	default:
		return string(s)
	}
}

// Snippet is a single supporting excerpt from a source transcript.
type Snippet struct {
	Text      string            `json:"text"`
	Speakers  map[string]string `json:"speakers"`
	Company   string            `json:"company"`
	Quarter   int               `json:"quarter"`
	Year      int               `json:"year"`
	Section   Section           `json:"section"`
	SourceURL string            `json:"source_url"`
}

// UnmarshalJSON accepts quarter and year as JSON numbers or as numeric
// strings ("1", "2024", "1.0"); the search service sends strings.
func (s *Snippet) UnmarshalJSON(data []byte) error {
	type plain Snippet
	aux := struct {
		*plain
		Quarter looseInt `json:"quarter"`
		Year    looseInt `json:"year"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Quarter = int(aux.Quarter)
	s.Year = int(aux.Year)
	return nil
}

// looseInt decodes an integer written as a number or a string.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid integer %s", data)
	}
	*n = looseInt(f)
	return nil
}

// Period renders the snippet's fiscal period as "Q1 2024".
func (s Snippet) Period() string {
	if s.Quarter == 0 && s.Year == 0 {
		return ""
	}
	return Quarter{Number: s.Quarter, Year: s.Year}.String()
}

// Clone returns a deep copy of s.
func (s Snippet) Clone() Snippet {
	out := s
	if s.Speakers != nil {
		out.Speakers = make(map[string]string, len(s.Speakers))
		for name, role := range s.Speakers {
			out.Speakers[name] = role
		}
	}
	return out
}

// CloneSnippets deep-copies a snippet slice, preserving nil.
func CloneSnippets(in []Snippet) []Snippet {
	if in == nil {
		return nil
	}
	out := make([]Snippet, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
