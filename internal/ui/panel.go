package ui

import "sync"

// ErrorPanel is a dismissible error message. It has a single dismiss
// handler: OnDismiss replaces the previous one.
type ErrorPanel struct {
	mu        sync.Mutex
	visible   bool
	message   string
	onDismiss func()
	hides     int
}

// Show opens the panel with message.
func (p *ErrorPanel) Show(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = true
	p.message = message
}

// Hide closes the panel without running the dismiss handler.
func (p *ErrorPanel) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = false
}

// OnDismiss sets the handler run when the user dismisses the panel.
func (p *ErrorPanel) OnDismiss(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDismiss = f
}

// Dismiss is the user closing the panel. A hidden panel ignores it.
func (p *ErrorPanel) Dismiss() {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return
	}
	p.visible = false
	p.hides++
	f := p.onDismiss
	p.mu.Unlock()

	if f != nil {
		f()
	}
}

// Visible reports whether the panel is open.
func (p *ErrorPanel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Message returns the last message shown.
func (p *ErrorPanel) Message() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.message
}

// Hides counts user dismissals.
func (p *ErrorPanel) Hides() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hides
}
