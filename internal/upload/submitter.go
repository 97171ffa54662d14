package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terratrac/terratrac-go/internal/client"
	"github.com/terratrac/terratrac-go/internal/metrics"
	"github.com/terratrac/terratrac-go/internal/parser"
)

// Sentinel errors for submissions that never reach the network.
var (
	ErrSessionActive = errors.New("an upload is already in progress")
	ErrNoFile        = errors.New("no file selected")
)

// uploadShare is the part of the progress bar driven by bytes sent. The
// rest is filled when the server replies.
const uploadShare = 0.9

// Ingester sends a file to the ingestion endpoint.
type Ingester interface {
	AddFarmData(ctx context.Context, in client.UploadRequest) (*client.Response, error)
}

// Options configures a Submitter.
type Options struct {
	// BaseURL is the portal the review redirect points at.
	BaseURL string
	Timings Timings
	Logger  *slog.Logger
	Metrics *metrics.Collector

	narratorOpts []NarratorOption
}

// Submitter runs upload sessions against one view. It allows a single
// active session at a time.
type Submitter struct {
	api     Ingester
	view    View
	baseURL string
	timings Timings
	logger  *slog.Logger
	metrics *metrics.Collector

	narratorOpts []NarratorOption

	mu      sync.Mutex
	session *Session
}

// NewSubmitter creates a Submitter. Zero timings fall back to DefaultTimings.
func NewSubmitter(api Ingester, view View, opts Options) *Submitter {
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Submitter{
		api:          api,
		view:         view,
		baseURL:      opts.BaseURL,
		timings:      opts.Timings,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		narratorOpts: opts.narratorOpts,
	}
}

// Current returns the active session, if any.
func (s *Submitter) Current() (SessionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return SessionInfo{}, false
	}
	info := SessionInfo{
		ID:        s.session.ID,
		FileName:  s.session.FileName,
		Phase:     s.session.Phase,
		StartedAt: s.session.StartedAt,
	}
	if s.session.narrator != nil {
		info.MessageIndex = s.session.narrator.Index()
	}
	return info, true
}

// SubmitFile parses path and submits it. Parse failures are returned as
// errors wrapping parser.ErrUnsupportedFormat and nothing is sent. The
// controls stay locked while the file is parsed.
func (s *Submitter) SubmitFile(ctx context.Context, path string) (Outcome, error) {
	sess, err := s.begin(path, PhaseParsing)
	if err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	rec, err := parser.ParseFile(path)
	s.metrics.RecordTiming(metrics.OpParse, time.Since(start))
	if err != nil {
		s.end(sess)
		s.logger.Warn("file rejected", "session_id", sess.ID, "path", path, "error", err)
		return Outcome{}, err
	}

	return s.run(ctx, sess, rec)
}

// Submit uploads an already parsed record. The returned error is set only
// when the submission could not start; server and transport failures are
// reported through the Outcome.
func (s *Submitter) Submit(ctx context.Context, rec *parser.UploadRecord) (Outcome, error) {
	if rec == nil || len(rec.Content) == 0 {
		return Outcome{}, ErrNoFile
	}
	sess, err := s.begin(rec.UploadName(), PhaseUploading)
	if err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, sess, rec)
}

// begin claims the submitter and locks the controls in one step, so an
// active session never coexists with enabled controls.
func (s *Submitter) begin(name string, phase Phase) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return nil, ErrSessionActive
	}
	s.session = &Session{
		ID:        uuid.NewString()[:8],
		FileName:  name,
		Phase:     phase,
		StartedAt: time.Now(),
	}
	s.setControlsDisabled(true)
	return s.session, nil
}

// end unlocks the controls and clears the session.
func (s *Submitter) end(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != sess {
		return
	}
	s.setControlsDisabled(false)
	s.session = nil
}

func (s *Submitter) setControlsDisabled(disabled bool) {
	for _, c := range LockedControls {
		s.view.SetControlDisabled(c, disabled)
	}
}

func (s *Submitter) setPhase(sess *Session, phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Phase = phase
}

func (s *Submitter) run(ctx context.Context, sess *Session, rec *parser.UploadRecord) (Outcome, error) {
	logger := s.logger.With("session_id", sess.ID, "file", rec.UploadName())

	s.mu.Lock()
	sess.FileName = rec.UploadName()
	sess.Phase = PhaseUploading
	sess.narrator = NewNarrator(s.view.SetProgressText,
		append([]NarratorOption{WithInterval(s.timings.NarratorInterval)}, s.narratorOpts...)...)
	narrator := sess.narrator
	s.mu.Unlock()

	s.view.HideError()
	s.view.SetProgressVisible(true)
	s.view.SetProgressPercent(0)

	var once sync.Once
	release := func() {
		once.Do(func() {
			narrator.Stop()
			s.view.SetProgressVisible(false)
			s.end(sess)
		})
	}
	defer release()

	narrator.Start()
	logger.Info("upload started", "format", rec.Format, "bytes", len(rec.Content))

	start := time.Now()
	resp, err := s.api.AddFarmData(ctx, client.UploadRequest{
		FileName: rec.FileName,
		Format:   string(rec.Format),
		Upload:   rec.UploadName(),
		Content:  rec.Content,
		OnProgress: func(sent, total int64) {
			if total > 0 {
				s.view.SetProgressPercent(uploadShare * float64(sent) / float64(total))
			}
		},
	})
	s.metrics.RecordTransfer(metrics.OpUpload, time.Since(start), int64(len(rec.Content)))

	narrator.Stop()
	s.setPhase(sess, PhaseFinishing)
	s.view.SetProgressText(FinishingMessage)
	s.view.SetProgressPercent(1)

	var outcome Outcome
	settleStart := time.Now()
	if serr := sleep(ctx, s.timings.SettleDelay); serr != nil {
		outcome = ResolveError(fmt.Errorf("settle: %w", serr))
	} else if err != nil {
		outcome = ResolveError(err)
	} else {
		outcome = Resolve(resp)
	}
	s.metrics.RecordTiming(metrics.OpSettle, time.Since(settleStart))
	s.metrics.RecordOutcome(outcome.Kind.String())

	if outcome.Kind != Success {
		s.setPhase(sess, PhaseFailed)
		logger.Warn("upload failed", "outcome", outcome.Kind, "message", outcome.Message, "error", outcome.Err)
		s.view.ShowError(outcome.Message)
		release()
		return outcome, nil
	}

	s.setPhase(sess, PhaseDone)
	logger.Info("upload processed", "file_id", outcome.FileID, "duration", time.Since(sess.StartedAt))
	release()

	r := Redirector{BaseURL: s.baseURL, Timings: s.timings}
	if rerr := r.Run(ctx, s.view, outcome.FileID); rerr != nil {
		logger.Debug("redirect skipped", "error", rerr)
	}
	return outcome, nil
}
