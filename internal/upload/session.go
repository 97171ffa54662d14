package upload

import (
	"context"
	"time"
)

// Phase is the lifecycle state of an upload session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseParsing   Phase = "parsing"
	PhaseUploading Phase = "uploading"
	PhaseFinishing Phase = "finishing"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)

// Session is the state of one in-flight submission.
type Session struct {
	ID        string
	FileName  string
	Phase     Phase
	StartedAt time.Time

	narrator *Narrator
}

// SessionInfo is a read-only view of the active session.
type SessionInfo struct {
	ID           string
	FileName     string
	Phase        Phase
	MessageIndex int
	StartedAt    time.Time
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
