package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/terratrac/terratrac-go/internal/upload"
)

// Sender delivers messages to a running program.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramView forwards view updates into a bubbletea program.
type ProgramView struct {
	s Sender
}

// NewProgramView creates a view that drives s.
func NewProgramView(s Sender) *ProgramView {
	return &ProgramView{s: s}
}

func (v *ProgramView) SetControlDisabled(c upload.Control, disabled bool) {
	v.s.Send(controlMsg{control: c, disabled: disabled})
}

func (v *ProgramView) SetProgressVisible(visible bool) { v.s.Send(progressVisibleMsg(visible)) }
func (v *ProgramView) SetProgressText(text string)     { v.s.Send(statusMsg(text)) }
func (v *ProgramView) SetProgressPercent(pct float64)  { v.s.Send(percentMsg(pct)) }
func (v *ProgramView) ShowError(message string)        { v.s.Send(errorMsg(message)) }
func (v *ProgramView) HideError()                      { v.s.Send(hideErrorMsg{}) }
func (v *ProgramView) Navigate(target string)          { v.s.Send(navigateMsg(target)) }

func (v *ProgramView) ShowToast(text string, d time.Duration) {
	v.s.Send(toastMsg{text: text, d: d})
}

// PlainView writes the session as log lines, for pipes and CI.
type PlainView struct {
	mu      sync.Mutex
	w       io.Writer
	text    string
	decile  int
	visible bool
	target  string
}

// NewPlainView creates a view writing to w.
func NewPlainView(w io.Writer) *PlainView {
	return &PlainView{w: w, decile: -1}
}

func (v *PlainView) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(v.w, format, args...)
}

// SetControlDisabled is a no-op: there are no controls on a pipe.
func (v *PlainView) SetControlDisabled(upload.Control, bool) {}

func (v *PlainView) SetProgressVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = visible
	if visible {
		v.decile = -1
	}
}

func (v *PlainView) SetProgressText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == v.text {
		return
	}
	v.text = text
	v.printf("%s\n", text)
}

// SetProgressPercent prints at most one line per 10%.
func (v *PlainView) SetProgressPercent(pct float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	d := int(pct * 10)
	if d <= v.decile {
		return
	}
	v.decile = d
	v.printf("[%3d%%]\n", d*10)
}

func (v *PlainView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.printf("Error: %s\n", message)
}

func (v *PlainView) HideError() {}

func (v *PlainView) ShowToast(text string, _ time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.printf("✓ %s\n", text)
}

func (v *PlainView) Navigate(target string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.target = target
	v.printf("Review: %s\n", target)
}

// Target returns the last navigation target.
func (v *PlainView) Target() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.target
}

// UploadResult is how an interactive upload ended.
type UploadResult struct {
	Outcome *upload.Outcome
	Err     error
	Target  string
	Aborted bool
}

// RunUpload shows the interactive upload screen while run submits the file.
// The context passed to run is cancelled when the screen exits, and RunUpload
// waits for run to return.
func RunUpload(ctx context.Context, fileName string, run func(ctx context.Context, v upload.View) (upload.Outcome, error)) (UploadResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		inflight int
		idle     = sync.NewCond(&mu)
		last     UploadResult
	)
	view := &ProgramView{}
	model := newUploadModel(fileName, func() (upload.Outcome, error) {
		mu.Lock()
		inflight++
		mu.Unlock()

		out, err := run(runCtx, view)

		mu.Lock()
		inflight--
		last.Outcome, last.Err = &out, err
		idle.Broadcast()
		mu.Unlock()
		return out, err
	})

	p := tea.NewProgram(model, tea.WithContext(runCtx))
	view.s = p

	final, err := p.Run()
	cancel()

	mu.Lock()
	for inflight > 0 {
		idle.Wait()
	}
	res := last
	mu.Unlock()

	if err != nil && ctx.Err() == nil {
		return UploadResult{}, fmt.Errorf("upload UI error: %w", err)
	}
	if m, ok := final.(uploadModel); ok {
		res.Target = m.target
		res.Aborted = m.aborted
	}
	if ctx.Err() != nil {
		res.Aborted = true
	}
	return res, nil
}
