package devserver

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/needle/internal/transcript"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// ErrNoDocuments is returned for a fixture file without any documents.
var ErrNoDocuments = errors.New("fixtures contain no documents")

// Fixtures is the canned corpus served by the dev server.
type Fixtures struct {
	Version   string            `yaml:"version"`
	Companies map[string]string `yaml:"companies"`
	Quarters  []string          `yaml:"quarters"`
	Documents []Document        `yaml:"documents"`
}

// Document is one canned answer. It is chosen when the query contains the
// most of its keywords and at least one of its passages survives the filters.
type Document struct {
	Keywords []string  `yaml:"keywords"`
	Answer   string    `yaml:"answer"`
	Passages []Passage `yaml:"passages"`
}

// Passage is a transcript excerpt in fixture form.
type Passage struct {
	Text      string            `yaml:"text"`
	Speakers  map[string]string `yaml:"speakers"`
	Company   string            `yaml:"company"`
	Ticker    string            `yaml:"ticker"`
	Quarter   string            `yaml:"quarter"`
	Section   string            `yaml:"section"`
	SourceURL string            `yaml:"source_url"`

	period transcript.Quarter
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures %s: %w", path, err)
	}
	f, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("fixtures %s: %w", path, err)
	}
	return f, nil
}

// DefaultFixtures returns the built-in corpus.
func DefaultFixtures() *Fixtures {
	f, err := ParseFixtures(defaultFixtures)
	if err != nil {
		panic(fmt.Sprintf("built-in fixtures are invalid: %v", err))
	}
	return f
}

// ParseFixtures decodes and validates fixture YAML.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	if len(f.Documents) == 0 {
		return nil, ErrNoDocuments
	}
	if f.Companies == nil {
		f.Companies = map[string]string{}
	}
	for i := range f.Documents {
		doc := &f.Documents[i]
		for k, kw := range doc.Keywords {
			doc.Keywords[k] = strings.ToLower(strings.TrimSpace(kw))
		}
		for j := range doc.Passages {
			p := &doc.Passages[j]
			period, err := transcript.ParseQuarter(p.Quarter)
			if err != nil {
				return nil, fmt.Errorf("document %d passage %d: %w", i, j, err)
			}
			section, err := transcript.ParseSection(p.Section)
			if err != nil {
				return nil, fmt.Errorf("document %d passage %d: %w", i, j, err)
			}
			p.period = period
			p.Section = string(section)
			p.Ticker = strings.ToUpper(p.Ticker)
		}
	}
	return &f, nil
}

func (p Passage) snippet() transcript.Snippet {
	speakers := make(map[string]string, len(p.Speakers))
	for name, role := range p.Speakers {
		speakers[name] = role
	}
	return transcript.Snippet{
		Text:      p.Text,
		Speakers:  speakers,
		Company:   p.Company,
		Quarter:   p.period.Number,
		Year:      p.period.Year,
		Section:   transcript.Section(p.Section),
		SourceURL: p.SourceURL,
	}
}
