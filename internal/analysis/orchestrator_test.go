package analysis

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/internal/notify"
	"github.com/khrees2412/careerflow/internal/remote"
	"github.com/khrees2412/careerflow/internal/remote/remotetest"
	"github.com/khrees2412/careerflow/internal/resume"
	"github.com/khrees2412/careerflow/internal/resume/resumetest"
	"github.com/khrees2412/careerflow/internal/store"
	"github.com/khrees2412/careerflow/pkg/models"
)

type (
	appCollection = store.Collection[models.Application, models.ApplicationDraft, models.ApplicationPatch]
	jdCollection  = store.Collection[models.JobDescription, models.JobDescriptionDraft, models.JobDescriptionPatch]
)

var fixedNow = time.Date(2025, time.March, 2, 9, 5, 0, 0, time.Local)

type fixture struct {
	srv  *remotetest.Server
	apps *appCollection
	jds  *jdCollection
	feed *notify.Feed
	orch *Orchestrator
}

func newFixture(t *testing.T, analysisTimeout time.Duration) *fixture {
	t.Helper()
	srv := remotetest.New(t)
	client := remote.New(remote.Options{
		BaseURL:         srv.BaseURL(),
		RequestTimeout:  2 * time.Second,
		AnalysisTimeout: analysisTimeout,
	})

	f := &fixture{
		srv:  srv,
		apps: store.New[models.Application, models.ApplicationDraft, models.ApplicationPatch]("applications", client.Applications(), func(a models.Application) models.ID { return a.ID }, nil),
		jds:  store.New[models.JobDescription, models.JobDescriptionDraft, models.JobDescriptionPatch]("jds", client.JobDescriptions(), func(jd models.JobDescription) models.ID { return jd.ID }, nil),
		feed: notify.NewFeed(notify.DefaultCapacity),
	}
	f.orch = New(client, f.apps, f.jds, f.feed, Options{Now: func() time.Time { return fixedNow }})
	return f
}

func cv() resume.Upload {
	return resume.Upload{Name: "cv.pdf", Data: resumetest.PDF("Le Hoang Dang, Java Developer")}
}

func wait(t *testing.T, job *Job) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := job.Wait(ctx)
	require.NoError(t, err, "job did not finish")
	return out
}

func TestRunCreatesApplication(t *testing.T) {
	f := newFixture(t, 2*time.Second)

	job, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "We need a Java developer who knows Git."})
	require.NoError(t, err)
	out := wait(t, job)

	require.Equal(t, Succeeded, out.State)
	require.NotNil(t, out.Application)
	app := *out.Application
	assert.Equal(t, "Java Developer", app.JobTitle)
	assert.Equal(t, UnknownCompany, app.CompanyName)
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.Equal(t, 86, app.MatchScore)
	assert.Equal(t, "02/03/2025, 09:05", app.DateApplied)
	assert.Equal(t, "We need a Java developer who knows Git.", app.JDContent)
	assert.Equal(t, "Le Hoang Dang", app.AnalysisResult.PersonalInfo.Name)

	cached := f.apps.List()
	require.Len(t, cached, 1)
	assert.Equal(t, app.ID, cached[0].ID)

	notes := f.feed.List()
	require.Len(t, notes, 1)
	assert.Equal(t, TitleSucceeded, notes[0].Title)
	assert.Equal(t, 1, f.feed.UnreadCount())

	forms := f.srv.AnalyzeForms()
	require.Len(t, forms, 1)
	assert.Equal(t, "cv.pdf", forms[0]["file"])

	assert.True(t, f.orch.AnalysisSucceeded())
	last, ok := f.orch.LastResult()
	require.True(t, ok)
	assert.Equal(t, app.ID, last.ID)

	observed, ok := f.orch.Observe()
	require.True(t, ok)
	assert.Equal(t, Succeeded, observed.State)
	assert.Equal(t, Idle, f.orch.State())
	_, ok = f.orch.Observe()
	assert.False(t, ok, "outcome observed twice")

	_, ok = f.orch.LastResult()
	assert.True(t, ok, "last result cleared by Observe")
}

func TestRunWithJDReference(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	id := f.srv.SeedJD("Backend Engineer", "Globex", "Go, Postgres, Kubernetes")
	require.NoError(t, f.jds.Refresh(context.Background()))

	job, err := f.orch.Run(context.Background(), Request{
		CV:            cv(),
		JDText:        "ignored when a saved description is picked",
		JDReferenceID: models.ID(strconv.Itoa(id)),
	})
	require.NoError(t, err)
	out := wait(t, job)

	require.Equal(t, Succeeded, out.State)
	assert.Equal(t, "Backend Engineer", out.Application.JobTitle)
	assert.Equal(t, "Globex", out.Application.CompanyName)
	assert.Equal(t, "Go, Postgres, Kubernetes", out.Application.JDContent)

	forms := f.srv.AnalyzeForms()
	require.Len(t, forms, 1)
	assert.Equal(t, strconv.Itoa(id), forms[0]["jd_id"])
	assert.NotContains(t, forms[0], "jd_text")
}

func TestDeletingJDKeepsApplicationSnapshot(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	id := f.srv.SeedJD("Backend Engineer", "Globex", "Go, Postgres")
	require.NoError(t, f.jds.Refresh(context.Background()))

	job, err := f.orch.Run(context.Background(), Request{CV: cv(), JDReferenceID: models.ID(strconv.Itoa(id))})
	require.NoError(t, err)
	out := wait(t, job)
	require.Equal(t, Succeeded, out.State)
	appID := out.Application.ID

	require.NoError(t, f.jds.Remove(context.Background(), models.ID(strconv.Itoa(id))))
	_, ok := f.jds.Get(models.ID(strconv.Itoa(id)))
	require.False(t, ok)

	require.NoError(t, f.apps.Refresh(context.Background()))
	app, ok := f.apps.Get(appID)
	require.True(t, ok, "application disappeared with its job description")
	assert.Equal(t, "Go, Postgres", app.JDContent)
	assert.Equal(t, "Backend Engineer", app.JobTitle)
	assert.Equal(t, "Globex", app.CompanyName)
}

func TestRunValidatesBeforeAnyRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"no file", Request{JDText: "Go developer"}, "file"},
		{"not a pdf", Request{CV: resume.Upload{Name: "cv.txt", Data: []byte("plain text")}, JDText: "Go developer"}, "file"},
		{"blank description", Request{CV: cv(), JDText: "   \n"}, "jd_text"},
		{"unknown description", Request{CV: cv(), JDReferenceID: "42"}, "jd_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2*time.Second)

			job, err := f.orch.Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, job)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			assert.Equal(t, 0, f.srv.Requests("POST /analyze"))
			assert.Equal(t, Idle, f.orch.State())
			assert.Zero(t, f.feed.Len())
		})
	}
}

func TestRunRejectsOversizedCV(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.orch.maxCVBytes = 16

	_, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "Go developer"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 0, f.srv.Requests("POST /analyze"))
}

func TestRunWhileRunningIsBusy(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	hold := f.srv.HoldNext("POST /analyze")
	t.Cleanup(hold.Release)

	job, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "Go developer"})
	require.NoError(t, err)
	<-hold.Arrived

	assert.True(t, f.orch.IsAnalyzing())
	second, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "another"})
	assert.Nil(t, second)
	assert.ErrorIs(t, err, apperr.ErrBusy)

	// busy wins over validation while a job runs
	_, err = f.orch.Run(context.Background(), Request{JDText: "no file attached"})
	assert.ErrorIs(t, err, apperr.ErrBusy)
	_, err = f.orch.Run(context.Background(), Request{CV: cv(), JDReferenceID: "404"})
	assert.ErrorIs(t, err, apperr.ErrBusy)

	// other operations stay usable while the analysis runs
	_, err = f.jds.Create(context.Background(), models.JobDescriptionDraft{Title: "SRE", Content: "On-call"})
	require.NoError(t, err)

	hold.Release()
	out := wait(t, job)
	assert.Equal(t, Succeeded, out.State)
	assert.Equal(t, 1, f.srv.Requests("POST /analyze"))
	assert.Len(t, f.apps.List(), 1)
}

func TestRunIsNotCancelledWithCallerContext(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	hold := f.srv.HoldNext("POST /analyze")
	t.Cleanup(hold.Release)

	ctx, cancel := context.WithCancel(context.Background())
	job, err := f.orch.Run(ctx, Request{CV: cv(), JDText: "Go developer"})
	require.NoError(t, err)
	<-hold.Arrived
	cancel()
	hold.Release()

	assert.Equal(t, Succeeded, wait(t, job).State)
}

func TestSaveFailureIsReportedSeparately(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.srv.Fail("POST /applications", 500, "database is locked")

	job, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "Go developer"})
	require.NoError(t, err)
	out := wait(t, job)

	assert.Equal(t, Failed, out.State)
	assert.Equal(t, FailureSave, out.Failure)
	assert.Nil(t, out.Application)
	assert.Equal(t, 86, int(out.Result.MatchingScore.Percentage))
	assert.Equal(t, apperr.KindRemoteRejected, apperr.KindOf(out.Err))

	notes := f.feed.List()
	require.Len(t, notes, 1)
	assert.Equal(t, TitleSaveFailed, notes[0].Title)
	assert.Contains(t, notes[0].Message, "database is locked")
	assert.Zero(t, f.apps.Len())
}

func TestRemoteFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(s *remotetest.Server)
		timeout  time.Duration
		kind     apperr.Kind
		title    string
		contains string
	}{
		{
			name:     "rejected",
			setup:    func(s *remotetest.Server) { s.Fail("POST /analyze", 422, "Could not read text from the CV") },
			timeout:  2 * time.Second,
			kind:     apperr.KindRemoteRejected,
			title:    TitleFailed,
			contains: "Could not read text from the CV",
		},
		{
			name:     "timeout",
			setup:    func(s *remotetest.Server) { s.Delay("POST /analyze", 2*time.Second) },
			timeout:  50 * time.Millisecond,
			kind:     apperr.KindTimeout,
			title:    TitleTimedOut,
			contains: "took too long",
		},
		{
			name:     "missing score",
			setup:    func(s *remotetest.Server) { s.SetAnalysis(`{"personal_info": {"name": "A"}}`) },
			timeout:  2 * time.Second,
			kind:     apperr.KindParse,
			title:    TitleFailed,
			contains: "could not be read",
		},
		{
			name:     "serialized garbage",
			setup:    func(s *remotetest.Server) { s.SetAnalysis(`"{not json"`) },
			timeout:  2 * time.Second,
			kind:     apperr.KindParse,
			title:    TitleFailed,
			contains: "could not be read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.timeout)
			tt.setup(f.srv)

			job, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "Go developer"})
			require.NoError(t, err)
			out := wait(t, job)

			assert.Equal(t, Failed, out.State)
			assert.Equal(t, FailureAnalysis, out.Failure)
			assert.Equal(t, tt.kind, apperr.KindOf(out.Err))

			notes := f.feed.List()
			require.Len(t, notes, 1)
			assert.Equal(t, tt.title, notes[0].Title)
			assert.Contains(t, notes[0].Message, tt.contains)

			assert.Zero(t, f.apps.Len())
			assert.Equal(t, 0, f.srv.Requests("POST /applications"))
		})
	}
}

func TestSerializedPayloadMatchesObject(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.srv.SetAnalysis(strconv.Quote(remotetest.SampleAnalysis))

	job, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "Go developer"})
	require.NoError(t, err)
	out := wait(t, job)

	require.Equal(t, Succeeded, out.State)
	assert.Equal(t, 86, out.Application.MatchScore)
	assert.Equal(t, "Java Developer", out.Application.JobTitle)
}

func TestRunAfterTerminalStartsFreshJob(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	req := Request{CV: cv(), JDText: "Go developer"}

	first, err := f.orch.Run(context.Background(), req)
	require.NoError(t, err)
	wait(t, first)

	second, err := f.orch.Run(context.Background(), req)
	require.NoError(t, err)
	wait(t, second)

	assert.Equal(t, 2, f.srv.Requests("POST /analyze"))
	assert.Equal(t, 2, f.apps.Len())
}

func TestStateSubscribers(t *testing.T) {
	f := newFixture(t, 2*time.Second)

	var (
		mu     sync.Mutex
		states []State
	)
	unsubscribe := f.orch.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	defer unsubscribe()

	job, err := f.orch.Run(context.Background(), Request{CV: cv(), JDText: "Go developer"})
	require.NoError(t, err)
	wait(t, job)
	f.orch.Observe()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Running, Succeeded, Idle}, states)
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Analyze(context.Context, remote.AnalyzeRequest) (models.Payload, error) {
	panic("boom")
}

type noCreate struct{}

func (noCreate) Create(context.Context, models.ApplicationDraft) (models.Application, error) {
	return models.Application{}, errors.New("unreachable")
}

type noJDs struct{}

func (noJDs) Get(models.ID) (models.JobDescription, bool) { return models.JobDescription{}, false }

func TestPanicEndsInFailed(t *testing.T) {
	feed := notify.NewFeed(10)
	orch := New(panickingAnalyzer{}, noCreate{}, noJDs{}, feed, Options{})

	job, err := orch.Run(context.Background(), Request{CV: cv(), JDText: "Go developer"})
	require.NoError(t, err)
	out := wait(t, job)

	assert.Equal(t, Failed, out.State)
	assert.ErrorContains(t, out.Err, "boom")
	assert.Equal(t, Failed, orch.State())
	assert.Equal(t, 1, feed.Len())
}
