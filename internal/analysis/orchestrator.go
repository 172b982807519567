// Package analysis runs CV analyses in the background and turns successful
// results into tracked applications.
//
// Only one analysis runs at a time. The orchestrator moves Idle -> Running ->
// Succeeded or Failed, and back to Idle once the terminal outcome has been
// observed. A submitted job cannot be cancelled; callers wait on its Job
// handle or poll State.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/internal/logger"
	"github.com/khrees2412/careerflow/internal/remote"
	"github.com/khrees2412/careerflow/internal/resume"
	"github.com/khrees2412/careerflow/pkg/models"
)

type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FailureKind separates a failed analysis from an analysis whose result could
// not be saved.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureAnalysis
	FailureSave
)

// Notification titles pushed to the feed.
const (
	TitleSucceeded  = "Analysis complete"
	TitleSaveFailed = "Analysis succeeded but saving failed"
	TitleTimedOut   = "Analysis timed out"
	TitleFailed     = "Analysis failed"
)

// UnknownCompany is recorded when neither the job description nor the
// analysis names the employer.
const UnknownCompany = "Unknown Company"

// Request is one analysis submission. When JDReferenceID is set the stored
// job description is used and JDText is ignored.
type Request struct {
	CV            resume.Upload
	JDText        string
	JDReferenceID models.ID
}

// Outcome is the terminal result of a job.
type Outcome struct {
	State       State
	Failure     FailureKind
	Application *models.Application
	Result      models.AnalysisResult
	Err         error
	// Message is the text of the notification pushed for the outcome.
	Message string
}

type Analyzer interface {
	Analyze(ctx context.Context, req remote.AnalyzeRequest) (models.Payload, error)
}

type ApplicationCreator interface {
	Create(ctx context.Context, draft models.ApplicationDraft) (models.Application, error)
}

type JDLookup interface {
	Get(id models.ID) (models.JobDescription, bool)
}

type Notifier interface {
	Push(title, message string) string
}

// Options tune an Orchestrator. Zero values pick defaults.
type Options struct {
	MaxCVBytes int64
	Now        func() time.Time
	Logger     logger.Logger
}

// Job is the handle of one submitted analysis.
type Job struct {
	done    chan struct{}
	outcome Outcome
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes or ctx ends. Giving up on the wait does
// not stop the job.
func (j *Job) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-j.done:
		return j.outcome, nil
	case <-ctx.Done():
		return Outcome{State: Running}, ctx.Err()
	}
}

type Orchestrator struct {
	analyzer   Analyzer
	apps       ApplicationCreator
	jds        JDLookup
	notifier   Notifier
	log        logger.Logger
	maxCVBytes int64
	now        func() time.Time

	mu      sync.Mutex
	state   State
	outcome Outcome
	last    *models.Application

	notifyMu  sync.Mutex
	listeners map[int]func(State)
	nextSub   int
}

func New(analyzer Analyzer, apps ApplicationCreator, jds JDLookup, notifier Notifier, opts Options) *Orchestrator {
	if opts.MaxCVBytes <= 0 {
		opts.MaxCVBytes = resume.DefaultMaxBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Orchestrator{
		analyzer:   analyzer,
		apps:       apps,
		jds:        jds,
		notifier:   notifier,
		log:        opts.Logger,
		maxCVBytes: opts.MaxCVBytes,
		now:        opts.Now,
		listeners:  make(map[int]func(State)),
	}
}

// submission is a validated request ready to send.
type submission struct {
	req     remote.AnalyzeRequest
	jd      *models.JobDescription
	content string
}

// Run validates req and starts the analysis in the background. ErrBusy is
// returned while another job runs, whatever the request holds; otherwise
// invalid input returns a ValidationError. In both cases nothing is sent.
// The job outlives ctx: only values are taken from it, never its
// cancellation.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Job, error) {
	if o.State() == Running {
		return nil, apperr.ErrBusy
	}
	sub, err := o.prepare(req)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.state == Running {
		o.mu.Unlock()
		return nil, apperr.ErrBusy
	}
	job := &Job{done: make(chan struct{})}
	o.state = Running
	o.outcome = Outcome{}
	o.publishLocked(Running)

	o.log.Info("analysis started", logger.String("file", req.CV.Name), logger.String("jd_id", sub.req.JDID.String()))
	go o.execute(context.WithoutCancel(ctx), job, sub)
	return job, nil
}

func (o *Orchestrator) prepare(req Request) (submission, error) {
	if len(req.CV.Data) == 0 {
		return submission{}, apperr.Invalid("file", "a CV file is required")
	}
	if int64(len(req.CV.Data)) > o.maxCVBytes {
		return submission{}, apperr.Invalid("file", "the CV is larger than %d MB", o.maxCVBytes>>20)
	}
	if _, err := resume.Inspect(req.CV); err != nil {
		return submission{}, err
	}

	sub := submission{req: remote.AnalyzeRequest{FileName: req.CV.Name, File: req.CV.Data}}
	if req.JDReferenceID != "" {
		jd, ok := o.jds.Get(req.JDReferenceID)
		if !ok {
			return submission{}, apperr.Invalid("jd_id", "job description %s does not exist", req.JDReferenceID)
		}
		sub.req.JDID = jd.ID
		sub.jd = &jd
		sub.content = jd.Content
		return sub, nil
	}

	if strings.TrimSpace(req.JDText) == "" {
		return submission{}, apperr.Invalid("jd_text", "paste a job description or pick a saved one")
	}
	sub.req.JDText = req.JDText
	sub.content = req.JDText
	return sub, nil
}

func (o *Orchestrator) execute(ctx context.Context, job *Job, sub submission) {
	var out Outcome
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("analysis job panicked", logger.String("panic", fmt.Sprint(r)))
			err := fmt.Errorf("analysis job panicked: %v", r)
			out = o.fail(FailureAnalysis, TitleFailed, err)
		}
		o.finish(job, out)
	}()
	out = o.analyze(ctx, sub)
}

func (o *Orchestrator) analyze(ctx context.Context, sub submission) Outcome {
	started := o.now()
	payload, err := o.analyzer.Analyze(ctx, sub.req)
	if err == nil {
		var result models.AnalysisResult
		if result, err = Ingest(payload); err == nil {
			return o.save(ctx, sub, result)
		}
	}

	o.log.Warn("analysis failed", logger.Error(err), logger.Duration("elapsed", o.now().Sub(started)))
	if apperr.KindOf(err) == apperr.KindTimeout {
		return o.fail(FailureAnalysis, TitleTimedOut, err)
	}
	return o.fail(FailureAnalysis, TitleFailed, err)
}

func (o *Orchestrator) save(ctx context.Context, sub submission, result models.AnalysisResult) Outcome {
	draft := o.draft(sub, result)
	app, err := o.apps.Create(ctx, draft)
	if err != nil {
		o.log.Error("saving analysed application failed", logger.Error(err))
		out := o.fail(FailureSave, TitleSaveFailed, err)
		out.Result = result
		return out
	}

	msg := fmt.Sprintf("%s at %s scored %d%%.", app.JobTitle, app.CompanyName, app.MatchScore)
	o.notifier.Push(TitleSucceeded, msg)
	o.log.Info("analysis saved", logger.String("id", app.ID.String()), logger.Int("score", app.MatchScore))
	return Outcome{State: Succeeded, Application: &app, Result: result, Message: msg}
}

// draft seeds an application from the analysis and the submitted JD.
func (o *Orchestrator) draft(sub submission, result models.AnalysisResult) models.ApplicationDraft {
	title := strings.TrimSpace(result.PersonalInfo.Position)
	company := UnknownCompany
	if sub.jd != nil {
		if t := strings.TrimSpace(sub.jd.Title); t != "" {
			title = t
		}
		if c := strings.TrimSpace(sub.jd.Company); c != "" {
			company = c
		}
	}
	if title == "" {
		title = "Untitled position"
	}

	return models.ApplicationDraft{
		JobTitle:       title,
		CompanyName:    company,
		Status:         models.StatusApplied,
		MatchScore:     models.ClampScore(int(result.MatchingScore.Percentage)),
		DateApplied:    o.now().Format(models.DateLayout),
		AnalysisResult: result,
		JDContent:      sub.content,
	}
}

func (o *Orchestrator) fail(kind FailureKind, title string, err error) Outcome {
	var msg string
	switch kind {
	case FailureSave:
		msg = "The analysis finished but the application could not be saved: " + apperr.UserMessage(err)
	default:
		msg = apperr.UserMessage(err)
	}
	o.notifier.Push(title, msg)
	return Outcome{State: Failed, Failure: kind, Err: err, Message: msg}
}

func (o *Orchestrator) finish(job *Job, out Outcome) {
	job.outcome = out
	o.mu.Lock()
	o.state = out.State
	o.outcome = out
	if out.Application != nil {
		o.last = out.Application
	}
	close(job.done)
	o.publishLocked(out.State)
}

// State returns the current state without observing it.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Observe returns the terminal outcome and resets to Idle. ok is false while
// Idle or Running.
func (o *Orchestrator) Observe() (Outcome, bool) {
	o.mu.Lock()
	if o.state != Succeeded && o.state != Failed {
		o.mu.Unlock()
		return Outcome{}, false
	}
	out := o.outcome
	o.state = Idle
	o.outcome = Outcome{}
	o.publishLocked(Idle)
	return out, true
}

func (o *Orchestrator) IsAnalyzing() bool { return o.State() == Running }

// AnalysisSucceeded reports an unobserved successful outcome.
func (o *Orchestrator) AnalysisSucceeded() bool { return o.State() == Succeeded }

// LastResult is the application created by the most recent successful job.
func (o *Orchestrator) LastResult() (models.Application, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return models.Application{}, false
	}
	return *o.last, true
}

// Subscribe registers fn for state changes. fn must not call back into the
// orchestrator's mutating methods.
func (o *Orchestrator) Subscribe(fn func(State)) (unsubscribe func()) {
	o.notifyMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.listeners[id] = fn
	o.notifyMu.Unlock()

	return func() {
		o.notifyMu.Lock()
		defer o.notifyMu.Unlock()
		delete(o.listeners, id)
	}
}

// publishLocked must be called with o.mu held and releases it.
func (o *Orchestrator) publishLocked(s State) {
	o.notifyMu.Lock()
	o.mu.Unlock()
	defer o.notifyMu.Unlock()

	for _, fn := range o.listeners {
		fn(s)
	}
}
