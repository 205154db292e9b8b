package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/needle/internal/engine"
	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/transcript"
	listview "github.com/rshade/needle/internal/tui/list"
)

// Default dimensions before the first WindowSizeMsg.
const (
	searchDefaultWidth  = 100
	searchDefaultHeight = 30
	answerPaneHeight    = 8
	chromeHeight        = 8
	snippetRowHeight    = 5
)

type focusArea int

const (
	focusInput focusArea = iota
	focusResults
)

// Callbacks wires the model to the search stack. When Relay is set the
// screen follows the orchestrator's transitions instead of tracking its own
// Loading state.
type Callbacks struct {
	Submit     func(ctx context.Context, q engine.Query) (engine.SearchState, error)
	Vocabulary func(ctx context.Context) (*engine.Vocabulary, error)
	ClearCache func() error
	Relay      *StateRelay
}

type searchResultMsg struct {
	state engine.SearchState
	err   error
}

type vocabularyMsg struct {
	vocab *engine.Vocabulary
	err   error
}

type cacheClearedMsg struct {
	err error
}

type searchKeyMap struct {
	Submit     key.Binding
	Quit       key.Binding
	Focus      key.Binding
	Company    key.Binding
	Quarter    key.Binding
	Section    key.Binding
	ClearCache key.Binding
}

func defaultSearchKeys() searchKeyMap {
	return searchKeyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
		Focus:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "results")),
		Company:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("^t", "company")),
		Quarter:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("^p", "quarter")),
		Section:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("^s", "section")),
		ClearCache: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("^x", "clear cache")),
	}
}

//nolint:gochecknoglobals // Fixed cycle order for the section filter.
var sectionCycle = []transcript.Section{
	transcript.SectionAny,
	transcript.SectionPreparedRemarks,
	transcript.SectionQA,
}

// SearchModel is the interactive search screen.
type SearchModel struct {
	ctx  context.Context
	cb   Callbacks
	keys searchKeyMap

	input    textinput.Model
	spinner  spinner.Model
	answer   viewport.Model
	snippets *listview.Model[transcript.Snippet]
	focus    focusArea

	vocab      *engine.Vocabulary
	companyIdx int // 0 = any, i = vocab.Companies[i-1]
	quarterIdx int // 0 = any, i = vocab.Quarters[i-1]
	sectionIdx int

	state  engine.SearchState
	notice string

	width  int
	height int
}

// NewSearchModel creates the search screen. initial pre-fills the query.
func NewSearchModel(ctx context.Context, cb Callbacks, initial string) *SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about earnings calls, e.g. how did gross margin trend?"
	ti.Prompt = titleStyle.Render("? ")
	ti.CharLimit = 500
	ti.SetValue(initial)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	m := &SearchModel{
		ctx:     ctx,
		cb:      cb,
		keys:    defaultSearchKeys(),
		input:   ti,
		spinner: sp,
		answer:  viewport.New(searchDefaultWidth, answerPaneHeight),
		width:   searchDefaultWidth,
		height:  searchDefaultHeight,
		state:   engine.SearchState{Kind: engine.StateIdle},
	}
	m.snippets = listview.New[transcript.Snippet](nil, m.snippetWindow(), m.width, RenderSnippet)
	return m
}

// Init starts the cursor blink and the vocabulary fetch.
func (m *SearchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.cb.Vocabulary != nil {
		cmds = append(cmds, m.loadVocabulary())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case vocabularyMsg:
		if msg.err != nil {
			m.notice = "Filters unavailable: " + msg.err.Error()
			return m, nil
		}
		m.vocab = msg.vocab
		return m, nil

	case stateMsg:
		return m.handleTransition(msg.state)

	case searchResultMsg:
		return m.handleResult(msg)

	case cacheClearedMsg:
		if msg.err != nil {
			m.notice = "Cache clear failed: " + msg.err.Error()
		} else {
			m.notice = "Cache cleared."
		}
		return m, nil

	case spinner.TickMsg:
		if m.state.Kind == engine.StateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keys.Company):
		m.cycleCompany()
		return m, nil
	case key.Matches(msg, m.keys.Quarter):
		m.cycleQuarter()
		return m, nil
	case key.Matches(msg, m.keys.Section):
		m.sectionIdx = (m.sectionIdx + 1) % len(sectionCycle)
		return m, nil
	case key.Matches(msg, m.keys.ClearCache):
		return m, m.clearCache()
	}

	if m.focus == focusResults {
		switch msg.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.answer, cmd = m.answer.Update(msg)
			return m, cmd
		}
		m.snippets.Update(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *SearchModel) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.cb.Submit == nil {
		return nil
	}
	q := engine.Query{Text: text, Filters: m.Filters()}
	m.notice = ""

	ctx, submit := m.ctx, m.cb.Submit
	run := func() tea.Msg {
		st, err := submit(ctx, q)
		return searchResultMsg{state: st, err: err}
	}
	if m.cb.Relay != nil {
		return run
	}
	m.state = engine.SearchState{Kind: engine.StateLoading, Query: q.Normalized()}
	return tea.Batch(run, m.spinner.Tick)
}

// handleTransition applies a state published by the orchestrator.
func (m *SearchModel) handleTransition(st engine.SearchState) (tea.Model, tea.Cmd) {
	if st.Generation < m.state.Generation {
		return m, nil
	}
	if st.Kind == engine.StateLoading {
		wasLoading := m.state.Kind == engine.StateLoading
		m.state = st
		if wasLoading {
			return m, nil
		}
		return m, m.spinner.Tick
	}
	m.apply(st)
	return m, nil
}

func (m *SearchModel) handleResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, engine.ErrSuperseded):
		return m, nil
	case errors.Is(msg.err, engine.ErrEmptyQuery):
		m.state = engine.SearchState{Kind: engine.StateIdle}
		return m, nil
	case msg.err != nil:
		m.state = engine.SearchState{Kind: engine.StateError, Message: engine.MessageRetrievalFailed, Err: msg.err}
		return m, nil
	}

	if m.cb.Relay != nil && msg.state.Generation == m.state.Generation && msg.state.Kind == m.state.Kind {
		return m, nil
	}
	m.apply(msg.state)
	return m, nil
}

func (m *SearchModel) apply(st engine.SearchState) {
	m.state = st
	if m.state.Kind == engine.StateSuccess {
		m.answer.SetContent(lipgloss.NewStyle().Width(max(m.width-2, minWrapWidth)).Render(m.state.Answer))
		m.answer.GotoTop()
		m.snippets.SetItems(m.state.Snippets)
	} else {
		m.answer.SetContent("")
		m.snippets.SetItems(nil)
	}
}

func (m *SearchModel) clearCache() tea.Cmd {
	if m.cb.ClearCache == nil {
		return nil
	}
	clearFn := m.cb.ClearCache
	return func() tea.Msg {
		return cacheClearedMsg{err: clearFn()}
	}
}

func (m *SearchModel) loadVocabulary() tea.Cmd {
	ctx, load := m.ctx, m.cb.Vocabulary
	return func() tea.Msg {
		v, err := load(ctx)
		return vocabularyMsg{vocab: v, err: err}
	}
}

func (m *SearchModel) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusResults
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

func (m *SearchModel) cycleCompany() {
	if m.vocab == nil || len(m.vocab.Companies) == 0 {
		m.notice = "No company list loaded."
		return
	}
	m.companyIdx = (m.companyIdx + 1) % (len(m.vocab.Companies) + 1)
}

func (m *SearchModel) cycleQuarter() {
	if m.vocab == nil || len(m.vocab.Quarters) == 0 {
		m.notice = "No quarter list loaded."
		return
	}
	m.quarterIdx = (m.quarterIdx + 1) % (len(m.vocab.Quarters) + 1)
}

// Filters returns the filters currently selected.
func (m *SearchModel) Filters() cache.Filters {
	var f cache.Filters
	if m.vocab != nil {
		if m.companyIdx > 0 && m.companyIdx <= len(m.vocab.Companies) {
			f.Ticker = m.vocab.Companies[m.companyIdx-1].Ticker
		}
		if m.quarterIdx > 0 && m.quarterIdx <= len(m.vocab.Quarters) {
			f.Quarter = m.vocab.Quarters[m.quarterIdx-1]
		}
	}
	f.Section = string(sectionCycle[m.sectionIdx])
	return f.Canonical()
}

// State returns the last state shown.
func (m *SearchModel) State() engine.SearchState {
	return m.state
}

func (m *SearchModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-4, minWrapWidth)
	m.answer.Width = width
	m.answer.Height = answerPaneHeight
	m.snippets.SetSize(m.snippetWindow(), width)
}

func (m *SearchModel) snippetWindow() int {
	return max((m.height-chromeHeight-answerPaneHeight)/snippetRowHeight, 1)
}

// View renders the screen.
func (m *SearchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("needle"))
	b.WriteString(mutedStyle.Render("  earnings call search"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(RenderFilters(m.Filters()))
	b.WriteString("\n\n")

	if m.state.Kind == engine.StateLoading {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
	}
	b.WriteString(RenderStatus(m.state))
	if m.notice != "" {
		b.WriteString("  ")
		b.WriteString(mutedStyle.Render(m.notice))
	}
	b.WriteString("\n")

	if m.state.Kind == engine.StateSuccess {
		b.WriteString(answerBox.Width(max(m.width-4, minWrapWidth)).Render(m.answer.View()))
		b.WriteString("\n")
		b.WriteString(m.snippets.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m *SearchModel) helpView() string {
	bindings := []key.Binding{
		m.keys.Submit, m.keys.Focus, m.keys.Company, m.keys.Quarter,
		m.keys.Section, m.keys.ClearCache, m.keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " | "))
}

// Run starts the interactive program on the alternate screen.
func Run(ctx context.Context, cb Callbacks, initial string) error {
	p := tea.NewProgram(NewSearchModel(ctx, cb, initial), tea.WithAltScreen(), tea.WithContext(ctx))
	if cb.Relay != nil {
		cb.Relay.attach(p)
		defer cb.Relay.attach(nil)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
