package upload

import (
	"context"
	"net/url"
	"strings"
)

// ReviewPath is the validator view a successful upload lands on.
const ReviewPath = "/validator/"

// ReviewURL returns the review view for an uploaded file.
func ReviewURL(baseURL, fileID string) string {
	return strings.TrimRight(baseURL, "/") + ReviewPath + "?" + url.Values{"file-id": {fileID}}.Encode()
}

// Redirector announces a successful upload and then moves to its review view.
type Redirector struct {
	BaseURL string
	Timings Timings
}

// Run shows the success toast, waits RedirectDelay and navigates. Both
// timers start when Run is called. A cancelled ctx skips the navigation.
func (r Redirector) Run(ctx context.Context, view View, fileID string) error {
	view.ShowToast(SuccessMessage, r.Timings.ToastDuration)
	if err := sleep(ctx, r.Timings.RedirectDelay); err != nil {
		return err
	}
	view.Navigate(ReviewURL(r.BaseURL, fileID))
	return nil
}
