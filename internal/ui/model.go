package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/terratrac/terratrac-go/internal/upload"
)

// Messages sent by ProgramView into the running program.
type (
	statusMsg          string
	percentMsg         float64
	progressVisibleMsg bool
	errorMsg           string
	hideErrorMsg       struct{}
	navigateMsg        string
	controlMsg         struct {
		control  upload.Control
		disabled bool
	}
	toastMsg struct {
		text string
		d    time.Duration
	}
	toastExpiredMsg int
	finishedMsg     struct {
		outcome upload.Outcome
		err     error
	}
)

// SubmitFunc runs one submission against the view.
type SubmitFunc func() (upload.Outcome, error)

// uploadModel is the bubbletea model for an upload session.
type uploadModel struct {
	theme    Theme
	fileName string
	submit   SubmitFunc

	status       string
	pct          float64
	progress     progress.Model
	showProgress bool
	disabled     map[upload.Control]bool
	panel        *ErrorPanel
	dismissals   *int
	toast        string
	toastSeq     int

	target   string
	outcome  *upload.Outcome
	err      error
	aborted  bool
	closed   bool
	attempts int
}

func newUploadModel(fileName string, submit SubmitFunc) uploadModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return uploadModel{
		theme:      DefaultTheme,
		fileName:   fileName,
		submit:     submit,
		progress:   prog,
		disabled:   make(map[upload.Control]bool),
		panel:      &ErrorPanel{},
		dismissals: new(int),
	}
}

// Init starts the first submission.
func (m uploadModel) Init() tea.Cmd {
	return tea.Batch(m.progress.Init(), m.submitCmd())
}

func (m uploadModel) submitCmd() tea.Cmd {
	if m.submit == nil {
		return nil
	}
	submit := m.submit
	return func() tea.Msg {
		out, err := submit()
		return finishedMsg{outcome: out, err: err}
	}
}

// Update handles messages and returns the updated model.
func (m uploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		case "q", "esc":
			if m.disabled[upload.ControlClose] {
				return m, nil
			}
			m.closed = true
			return m, tea.Quit
		case "enter":
			if m.outcome == nil || m.disabled[upload.ControlSave] || m.succeeded() {
				return m, nil
			}
			m.outcome = nil
			m.attempts++
			return m, m.submitCmd()
		case "x":
			m.panel.Dismiss()
		}

	case statusMsg:
		m.status = string(msg)
	case percentMsg:
		m.pct = float64(msg)
	case progressVisibleMsg:
		m.showProgress = bool(msg)
	case controlMsg:
		m.disabled[msg.control] = msg.disabled
	case errorMsg:
		// One listener per failure; a later error replaces the earlier one.
		text, file, dismissals := string(msg), m.fileName, m.dismissals
		m.panel.OnDismiss(func() {
			*dismissals++
			slog.Debug("error dismissed", "file", file, "message", text)
		})
		m.panel.Show(text)
	case hideErrorMsg:
		m.panel.Hide()

	case toastMsg:
		m.toastSeq++
		m.toast = msg.text
		seq := m.toastSeq
		return m, tea.Tick(msg.d, func(time.Time) tea.Msg {
			return toastExpiredMsg(seq)
		})
	case toastExpiredMsg:
		if int(msg) == m.toastSeq {
			m.toast = ""
		}

	case navigateMsg:
		m.target = string(msg)
		return m, tea.Quit

	case finishedMsg:
		if errors.Is(msg.err, upload.ErrSessionActive) {
			return m, nil
		}
		out := msg.outcome
		m.outcome = &out
		m.err = msg.err
		if msg.err != nil || m.succeeded() {
			return m, tea.Quit
		}

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m uploadModel) succeeded() bool {
	return m.outcome != nil && m.outcome.Kind == upload.Success
}

// View renders the upload screen.
func (m uploadModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m uploadModel) renderContent() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Uploading %s\n", m.fileName)
	if m.showProgress {
		status := m.theme.statusStyle().Render(m.status)
		fmt.Fprintf(&b, "%s %3.0f%% %s\n", m.progress.ViewAs(m.pct), m.pct*100, status)
	}
	if m.toast != "" {
		b.WriteString(m.theme.successStyle().Render("✓ "+m.toast) + "\n")
	}
	if m.panel.Visible() {
		b.WriteString(m.theme.panelStyle().Render(m.theme.errorStyle().Render(m.panel.Message())) + "\n")
	}
	if m.target != "" {
		fmt.Fprintf(&b, "Review: %s\n", m.target)
	}
	b.WriteString(m.theme.hintStyle().Render(m.hints()) + "\n")
	return b.String()
}

func (m uploadModel) hints() string {
	var hints []string
	if !m.disabled[upload.ControlSave] && !m.succeeded() && m.outcome != nil {
		hints = append(hints, "enter retry")
	}
	if m.panel.Visible() {
		hints = append(hints, "x dismiss")
	}
	if !m.disabled[upload.ControlClose] {
		hints = append(hints, "q close")
	}
	hints = append(hints, "ctrl+c abort")
	return strings.Join(hints, " • ")
}
