package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/needle/internal/engine"
)

// StateRelay forwards orchestrator transitions into a running program.
// Register Observe with engine.WithObserver and pass the relay in Callbacks;
// Run attaches the program. Transitions before Run are dropped.
type StateRelay struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewStateRelay creates an unattached relay.
func NewStateRelay() *StateRelay {
	return &StateRelay{}
}

// Observe is an engine.Observer. It blocks until the program receives the
// transition or exits, which keeps transitions ahead of the Submit result.
func (r *StateRelay) Observe(st engine.SearchState) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(stateMsg{state: st})
	}
}

func (r *StateRelay) attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

// stateMsg carries an orchestrator transition.
type stateMsg struct {
	state engine.SearchState
}
