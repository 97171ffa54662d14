package ui

import (
	"bytes"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terratrac/terratrac-go/internal/upload"
)

func key(code rune, mod tea.KeyMod) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code, Mod: mod}
}

func update(t *testing.T, m uploadModel, msg tea.Msg) (uploadModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	um, ok := next.(uploadModel)
	require.True(t, ok)
	return um, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestUploadModel_CloseRespectsLock(t *testing.T) {
	m := newUploadModel("farms.csv", nil)

	m, _ = update(t, m, controlMsg{control: upload.ControlClose, disabled: true})
	m, cmd := update(t, m, key('q', 0))
	assert.Nil(t, cmd)
	assert.False(t, m.closed)

	m, _ = update(t, m, controlMsg{control: upload.ControlClose, disabled: false})
	m, cmd = update(t, m, key('q', 0))
	assert.True(t, isQuit(cmd))
	assert.True(t, m.closed)
}

func TestUploadModel_CtrlCAborts(t *testing.T) {
	m := newUploadModel("farms.csv", nil)
	m, _ = update(t, m, controlMsg{control: upload.ControlClose, disabled: true})

	m, cmd := update(t, m, key('c', tea.ModCtrl))
	assert.True(t, isQuit(cmd))
	assert.True(t, m.aborted)
}

func TestUploadModel_ProgressAndError(t *testing.T) {
	m := newUploadModel("farms.csv", nil)

	m, _ = update(t, m, progressVisibleMsg(true))
	m, _ = update(t, m, statusMsg(upload.DefaultMessages[0]))
	m, _ = update(t, m, percentMsg(0.5))
	assert.Contains(t, m.renderContent(), upload.DefaultMessages[0])
	assert.Contains(t, m.renderContent(), "50%")

	m, _ = update(t, m, errorMsg("bad geometry"))
	assert.True(t, m.panel.Visible())
	assert.Contains(t, m.renderContent(), "bad geometry")
	assert.Contains(t, m.renderContent(), "x dismiss")

	m, _ = update(t, m, key('x', 0))
	assert.False(t, m.panel.Visible())
	assert.Equal(t, 1, m.panel.Hides())
	assert.Equal(t, 1, *m.dismissals)
	assert.NotContains(t, m.renderContent(), "bad geometry")
}

func TestUploadModel_RepeatedErrorsDismissOnce(t *testing.T) {
	m := newUploadModel("farms.csv", nil)

	m, _ = update(t, m, errorMsg("bad geometry"))
	m, _ = update(t, m, errorMsg("duplicate farm"))
	assert.Contains(t, m.renderContent(), "duplicate farm")

	m, _ = update(t, m, key('x', 0))
	assert.Equal(t, 1, *m.dismissals, "the listener runs once per click")
	assert.Equal(t, 1, m.panel.Hides())

	// a second click on the hidden panel is ignored
	m, _ = update(t, m, key('x', 0))
	assert.Equal(t, 1, *m.dismissals)
	assert.Equal(t, 1, m.panel.Hides())
}

func TestUploadModel_RetryAfterFailure(t *testing.T) {
	calls := 0
	m := newUploadModel("farms.csv", func() (upload.Outcome, error) {
		calls++
		return upload.Outcome{Kind: upload.ValidationFailed, Message: "bad"}, nil
	})

	// nothing finished yet
	m, cmd := update(t, m, key(tea.KeyEnter, 0))
	assert.Nil(t, cmd)

	m, cmd = update(t, m, finishedMsg{outcome: upload.Outcome{Kind: upload.ValidationFailed}})
	assert.Nil(t, cmd)
	assert.Contains(t, m.renderContent(), "enter retry")

	m, _ = update(t, m, controlMsg{control: upload.ControlSave, disabled: true})
	_, cmd = update(t, m, key(tea.KeyEnter, 0))
	assert.Nil(t, cmd)

	m, _ = update(t, m, controlMsg{control: upload.ControlSave, disabled: false})
	m, cmd = update(t, m, key(tea.KeyEnter, 0))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m.attempts)
	assert.IsType(t, finishedMsg{}, msg)
}

func TestUploadModel_SuccessQuits(t *testing.T) {
	m := newUploadModel("farms.csv", nil)

	m, cmd := update(t, m, toastMsg{text: upload.SuccessMessage, d: time.Millisecond})
	require.NotNil(t, cmd)
	assert.Contains(t, m.renderContent(), upload.SuccessMessage)

	m, cmd = update(t, m, navigateMsg("http://x/validator/?file-id=42"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, "http://x/validator/?file-id=42", m.target)

	_, cmd = update(t, m, finishedMsg{outcome: upload.Outcome{Kind: upload.Success, FileID: "42"}})
	assert.True(t, isQuit(cmd))
}

func TestUploadModel_ToastExpiry(t *testing.T) {
	m := newUploadModel("farms.csv", nil)
	m, _ = update(t, m, toastMsg{text: "one", d: time.Second})
	m, _ = update(t, m, toastMsg{text: "two", d: time.Second})

	m, _ = update(t, m, toastExpiredMsg(1))
	assert.Equal(t, "two", m.toast)
	m, _ = update(t, m, toastExpiredMsg(2))
	assert.Empty(t, m.toast)
}

func TestUploadModel_IgnoresBusySubmit(t *testing.T) {
	m := newUploadModel("farms.csv", nil)
	m, cmd := update(t, m, finishedMsg{err: upload.ErrSessionActive})
	assert.Nil(t, cmd)
	assert.Nil(t, m.outcome)
}

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestProgramView_SendsMessages(t *testing.T) {
	s := &recordingSender{}
	v := NewProgramView(s)

	v.SetControlDisabled(upload.ControlSave, true)
	v.SetProgressText("hi")
	v.SetProgressPercent(0.3)
	v.ShowError("boom")
	v.Navigate("http://x")

	assert.Equal(t, []tea.Msg{
		controlMsg{control: upload.ControlSave, disabled: true},
		statusMsg("hi"),
		percentMsg(0.3),
		errorMsg("boom"),
		navigateMsg("http://x"),
	}, s.msgs)
}

func TestPlainView(t *testing.T) {
	var buf bytes.Buffer
	v := NewPlainView(&buf)

	v.SetProgressVisible(true)
	v.SetProgressPercent(0)
	v.SetProgressText("Processing now... please wait")
	v.SetProgressText("Processing now... please wait")
	v.SetProgressPercent(0.45)
	v.SetProgressPercent(0.46)
	v.SetProgressPercent(1)
	v.ShowToast(upload.SuccessMessage, time.Second)
	v.Navigate("http://x/validator/?file-id=1")

	assert.Equal(t, "[  0%]\nProcessing now... please wait\n[ 40%]\n[100%]\n✓ Data were processed successfully!!!\nReview: http://x/validator/?file-id=1\n", buf.String())
	assert.Equal(t, "http://x/validator/?file-id=1", v.Target())
}
