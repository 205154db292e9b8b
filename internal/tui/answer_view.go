package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/needle/internal/engine"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/transcript"
)

const (
	minTruncateLen = 3
	minWrapWidth   = 20
)

// RenderFilters renders the active filters as a one-line summary.
func RenderFilters(f cache.Filters) string {
	return labelStyle.Render("Company: ") + valueStyle.Render(orAny(f.Ticker)) + "  " +
		labelStyle.Render("Quarter: ") + valueStyle.Render(orAny(f.Quarter)) + "  " +
		labelStyle.Render("Section: ") + valueStyle.Render(transcript.Section(f.Section).Label())
}

// RenderStatus renders the one-line summary of a search state.
func RenderStatus(st engine.SearchState) string {
	switch st.Kind {
	case engine.StateLoading:
		return RenderLoadingIndicator()
	case engine.StateSuccess:
		source := "live"
		if st.FromCache {
			source = "cached"
		}
		return successStyle.Render(fmt.Sprintf("%d snippet(s)", len(st.Snippets))) +
			mutedStyle.Render(" · "+source)
	case engine.StateError:
		return errorStyle.Render(st.Message)
	default:
		return mutedStyle.Render("Type a question and press Enter.")
	}
}

// RenderLoadingIndicator renders the static loading line.
func RenderLoadingIndicator() string {
	return lipgloss.NewStyle().Foreground(ColorSpinner).Bold(true).Render("Searching transcripts...")
}

// RenderAnswer renders the answer text wrapped to width inside a box.
func RenderAnswer(answer string, width int) string {
	inner := max(width-4, minWrapWidth)
	return answerBox.Width(inner).Render(answer)
}

// RenderSnippet renders one snippet: attribution line, then the excerpt.
func RenderSnippet(s transcript.Snippet, selected bool, width int) string {
	marker := "  "
	head := titleStyle
	if selected {
		marker = selectedStyle.Render("▸ ")
		head = selectedStyle
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString(head.Render(SnippetHeading(s)))
	if sp := SpeakerLine(s); sp != "" {
		b.WriteString("\n  ")
		b.WriteString(labelStyle.Render(truncate(sp, max(width-2, minWrapWidth))))
	}
	b.WriteString("\n  ")
	b.WriteString(lipgloss.NewStyle().Width(max(width-2, minWrapWidth)).Render(s.Text))
	if s.SourceURL != "" {
		b.WriteString("\n  ")
		b.WriteString(mutedStyle.Render(s.SourceURL))
	}
	return b.String()
}

// SnippetHeading returns "Company · Q1 2024 · Section".
func SnippetHeading(s transcript.Snippet) string {
	parts := []string{}
	if s.Company != "" {
		parts = append(parts, s.Company)
	}
	if p := s.Period(); p != "" {
		parts = append(parts, p)
	}
	if s.Section != transcript.SectionAny {
		parts = append(parts, s.Section.Label())
	}
	return strings.Join(parts, " · ")
}

// SpeakerLine lists speakers as "Name (Role)", sorted by name.
func SpeakerLine(s transcript.Snippet) string {
	if len(s.Speakers) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.Speakers))
	for name := range s.Speakers {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		if role := s.Speakers[name]; role != "" {
			out = append(out, fmt.Sprintf("%s (%s)", name, role))
		} else {
			out = append(out, name)
		}
	}
	return strings.Join(out, ", ")
}

// RenderResult renders a terminal state for styled, non-interactive output.
func RenderResult(st engine.SearchState, width int) string {
	var b strings.Builder
	b.WriteString(RenderStatus(st))
	b.WriteString("\n")
	if st.Kind != engine.StateSuccess {
		return b.String()
	}
	b.WriteString(RenderAnswer(st.Answer, width))
	b.WriteString("\n")
	for i, s := range st.Snippets {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("[%d] ", i+1)))
		b.WriteString(RenderSnippet(s, false, width))
		b.WriteString("\n")
	}
	return b.String()
}

func orAny(s string) string {
	if s == "" {
		return "Any"
	}
	return s
}

// truncate shortens s to maxLen runes with an ellipsis.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= minTruncateLen {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-minTruncateLen]) + "..."
}
