// Package upload runs the upload-and-ingest workflow: it locks the upload
// controls, narrates progress while the server processes the file, classifies
// the reply and sends the user on to the review view.
package upload

import "time"

// Control is one of the inputs locked while a session is active.
type Control string

const (
	ControlSave      Control = "save"
	ControlClose     Control = "close"
	ControlFileInput Control = "file-input"
	ControlFormat    Control = "format-dropdown"
)

// LockedControls is the control set disabled for the life of a session.
var LockedControls = []Control{ControlSave, ControlClose, ControlFileInput, ControlFormat}

// User-facing messages.
const (
	FinishingMessage         = "Finishing up..."
	SuccessMessage           = "Data were processed successfully!!!"
	GenericRetryMessage      = "Error while uploading data. please try again"
	GenericValidationMessage = "The uploaded file failed validation"
)

// View is the surface a session drives. Implementations must be safe for
// use from multiple goroutines.
type View interface {
	SetControlDisabled(c Control, disabled bool)
	SetProgressVisible(visible bool)
	SetProgressText(text string)
	// SetProgressPercent takes a fraction in [0, 1].
	SetProgressPercent(pct float64)
	// ShowError opens the error panel. The panel stays until dismissed.
	ShowError(message string)
	HideError()
	// ShowToast shows a notification that dismisses itself after d.
	ShowToast(text string, d time.Duration)
	Navigate(target string)
}

// Timings holds the UX pacing delays. None of them affect correctness.
type Timings struct {
	NarratorInterval time.Duration
	SettleDelay      time.Duration
	ToastDuration    time.Duration
	RedirectDelay    time.Duration
}

// DefaultTimings returns the portal's pacing.
func DefaultTimings() Timings {
	return Timings{
		NarratorInterval: 10 * time.Second,
		SettleDelay:      2 * time.Second,
		ToastDuration:    3 * time.Second,
		RedirectDelay:    2 * time.Second,
	}
}
