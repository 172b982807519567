package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/internal/remote/remotetest"
	"github.com/khrees2412/careerflow/pkg/models"
)

func newTestClient(t *testing.T, srv *remotetest.Server) *Client {
	t.Helper()
	return New(Options{
		BaseURL:         srv.BaseURL(),
		RequestTimeout:  2 * time.Second,
		AnalysisTimeout: 2 * time.Second,
	})
}

func TestJobDescriptionsCRUD(t *testing.T) {
	srv := remotetest.New(t)
	jds := newTestClient(t, srv).JobDescriptions()
	ctx := context.Background()

	created, err := jds.Create(ctx, models.JobDescriptionDraft{Title: "Backend Engineer", Company: "Acme", Content: "Go, SQL"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Backend Engineer", created.Title)
	assert.False(t, created.CreatedAt.IsZero())

	title := "Senior Backend Engineer"
	updated, err := jds.Update(ctx, created.ID, models.JobDescriptionPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "Go, SQL", updated.Content)

	list, err := jds.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, jds.Delete(ctx, created.ID))
	list, err = jds.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestApplicationsListDecodesSerializedAnalysis(t *testing.T) {
	srv := remotetest.New(t)
	srv.SeedApplication(remotetest.Application{
		JobTitle:       "Java Developer",
		CompanyName:    "Acme",
		Status:         "Applied",
		MatchScore:     86,
		DateApplied:    "05/03/2025, 14:30",
		AnalysisResult: remotetest.SampleAnalysis,
	})

	list, err := newTestClient(t, srv).Applications().List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Le Hoang Dang", list[0].AnalysisResult.PersonalInfo.Name)
	assert.Equal(t, models.Percent(86), list[0].AnalysisResult.MatchingScore.Percentage)
}

func TestRemoteRejectedCarriesReason(t *testing.T) {
	srv := remotetest.New(t)
	client := newTestClient(t, srv)

	_, err := client.Applications().Update(context.Background(), "404", models.ApplicationPatch{})
	require.Error(t, err)

	var rejected *apperr.RemoteRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusNotFound, rejected.StatusCode)
	assert.Equal(t, "Not found", rejected.Reason)
	assert.Equal(t, "Not found", apperr.UserMessage(err))
}

func TestTimeoutIsDistinct(t *testing.T) {
	srv := remotetest.New(t)
	srv.Delay("GET /jds", 500*time.Millisecond)

	client := New(Options{BaseURL: srv.BaseURL(), RequestTimeout: 50 * time.Millisecond})
	_, err := client.JobDescriptions().List(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(Options{BaseURL: url, RequestTimeout: time.Second})
	_, err := client.Applications().List(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
}

func TestMalformedBodyIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not": "a list"`))
	}))
	defer srv.Close()

	_, err := New(Options{BaseURL: srv.URL}).JobDescriptions().List(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

func TestAnalyzeSendsMultipart(t *testing.T) {
	srv := remotetest.New(t)
	jdID := srv.SeedJD("Frontend", "Acme", "React")
	client := newTestClient(t, srv)

	payload, err := client.Analyze(context.Background(), AnalyzeRequest{
		FileName: "cv.pdf",
		File:     []byte("%PDF-1.4 fake"),
		JDText:   "pasted text",
		JDID:     models.ID(jdIDString(jdID)),
	})
	require.NoError(t, err)
	require.NotNil(t, payload.Parsed)
	assert.Equal(t, "Java Developer", payload.Parsed.PersonalInfo.Position)

	forms := srv.AnalyzeForms()
	require.Len(t, forms, 1)
	assert.Equal(t, "cv.pdf", forms[0]["file"])
	assert.Equal(t, "pasted text", forms[0]["jd_text"])
	assert.Equal(t, jdIDString(jdID), forms[0]["jd_id"])
}

func TestAnalyzeStringPayload(t *testing.T) {
	srv := remotetest.New(t)
	srv.SetAnalysis(`"{\"personal_info\": {\"position\": \"QA\"}}"`)

	payload, err := newTestClient(t, srv).Analyze(context.Background(), AnalyzeRequest{
		FileName: "cv.pdf", File: []byte("%PDF"), JDText: "QA role",
	})
	require.NoError(t, err)
	assert.Nil(t, payload.Parsed)

	result, err := payload.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "QA", result.PersonalInfo.Position)
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail": "JD not found"}`, "JD not found"},
		{"detail list", `{"detail": [{"msg": "field required"}, {"msg": "bad id"}]}`, "field required; bad id"},
		{"error key", `{"error": "quota exceeded"}`, "quota exceeded"},
		{"plain text", `Internal Server Error`, "Internal Server Error"},
		{"html", `<html>bad gateway</html>`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorReason([]byte(tt.body)))
		})
	}
}

func jdIDString(id int) string {
	return strconv.Itoa(id)
}
