package transcript

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	tests := []struct {
		in      string
		want    Section
		wantErr bool
	}{
		{"", SectionAny, false},
		{"  ", SectionAny, false},
		{"qa", SectionQA, false},
		{"Q&A", SectionQA, false},
		{"prepared_remarks", SectionPreparedRemarks, false},
		{"Prepared", SectionPreparedRemarks, false},
		{"closing", SectionAny, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSection(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuarter(t *testing.T) {
	q, err := ParseQuarter("Q1 2024")
	require.NoError(t, err)
	assert.Equal(t, Quarter{Number: 1, Year: 2024}, q)
	assert.Equal(t, "Q1 2024", q.String())

	q, err = ParseQuarter(" q4   2023 ")
	require.NoError(t, err)
	assert.Equal(t, "Q4 2023", q.String())

	for _, bad := range []string{"", "Q5 2024", "2024 Q1", "Q1", "Q1-2024"} {
		_, err := ParseQuarter(bad)
		assert.ErrorIs(t, err, ErrInvalidQuarter, bad)
	}
}

func TestSnippetClone(t *testing.T) {
	s := Snippet{
		Text:     "Revenue grew 12%",
		Speakers: map[string]string{"Tim Cook": "CEO"},
		Quarter:  1,
		Year:     2024,
	}
	c := s.Clone()
	c.Speakers["Tim Cook"] = "changed"
	assert.Equal(t, "CEO", s.Speakers["Tim Cook"])
	assert.Equal(t, "Q1 2024", s.Period())
	assert.Empty(t, Snippet{}.Period())

	assert.Nil(t, CloneSnippets(nil))
	assert.Len(t, CloneSnippets([]Snippet{s}), 1)
}

func TestSnippetUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		quarter int
		year    int
		wantErr bool
	}{
		{name: "numbers", body: `{"quarter":3,"year":2023}`, quarter: 3, year: 2023},
		{name: "strings", body: `{"quarter":"3","year":"2023"}`, quarter: 3, year: 2023},
		{name: "float strings", body: `{"quarter":"3.0","year":"2023.0"}`, quarter: 3, year: 2023},
		{name: "floats", body: `{"quarter":3.0,"year":2023.0}`, quarter: 3, year: 2023},
		{name: "null and empty", body: `{"quarter":null,"year":""}`},
		{name: "missing", body: `{"text":"hi"}`},
		{name: "fractional", body: `{"quarter":"1.5"}`, wantErr: true},
		{name: "not a number", body: `{"year":"FY24"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Snippet
			err := json.Unmarshal([]byte(tt.body), &s)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.quarter, s.Quarter)
			assert.Equal(t, tt.year, s.Year)
		})
	}
}

func TestSnippetUnmarshalJSON_KeepsOtherFields(t *testing.T) {
	var s Snippet
	err := json.Unmarshal([]byte(`{"text":"Revenue grew.","speakers":{"Tim Cook":"CEO"},`+
		`"company":"apple","quarter":"4","year":"2023","section":"qa","source_url":"https://example.com/t"}`), &s)
	require.NoError(t, err)
	assert.Equal(t, Snippet{
		Text:      "Revenue grew.",
		Speakers:  map[string]string{"Tim Cook": "CEO"},
		Company:   "apple",
		Quarter:   4,
		Year:      2023,
		Section:   SectionQA,
		SourceURL: "https://example.com/t",
	}, s)
}

func TestSectionLabel(t *testing.T) {
	assert.Equal(t, "Q&A", SectionQA.Label())
	assert.Equal(t, "Prepared remarks", SectionPreparedRemarks.Label())
	assert.Equal(t, "Any section", SectionAny.Label())
}
