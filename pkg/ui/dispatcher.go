package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// dispatchMsg carries a function posted from a worker goroutine. Update runs
// it on the program goroutine.
type dispatchMsg struct {
	fn func()
}

// ProgramDispatcher implements viewmodel.Dispatcher on top of a running
// tea.Program, making the program's event loop the control goroutine.
//
// Posts made before Attach are held and delivered once a program is attached.
type ProgramDispatcher struct {
	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

// NewProgramDispatcher returns an unattached dispatcher.
func NewProgramDispatcher() *ProgramDispatcher {
	return &ProgramDispatcher{}
}

// Attach binds the dispatcher to p and flushes held posts.
func (d *ProgramDispatcher) Attach(p *tea.Program) {
	d.mu.Lock()
	d.program = p
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range pending {
		go p.Send(dispatchMsg{fn: fn})
	}
}

// Post implements viewmodel.Dispatcher. It may block until the event loop
// accepts the message; after the program exits the function is dropped.
func (d *ProgramDispatcher) Post(fn func()) {
	d.mu.Lock()
	p := d.program
	if p == nil {
		d.pending = append(d.pending, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	p.Send(dispatchMsg{fn: fn})
}
