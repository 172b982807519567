// Package remotetest runs an in-process fake of the analysis backend for tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// SampleAnalysis is a complete analysis document as the backend returns it.
const SampleAnalysis = `{
  "personal_info": {"name": "Le Hoang Dang", "position": "Java Developer", "experience": "0.3 years (Internship)"},
  "matching_score": {"percentage": 86, "explanation": "Matched 6/7 requirements"},
  "requirements_breakdown": {"must_have_ratio": "6/7", "nice_to_have_ratio": "0/0"},
  "matched_keywords": ["JavaScript", "ReactJS", "HTML", "CSS"],
  "radar_chart": {"Hard Skills": 9, "Soft Skills": 8, "Experience": 6, "Education": 9, "Domain Knowledge": 8},
  "bilingual_content": {
    "general_assessment": {"en": "Solid foundation in backend and frontend.", "vi": "Nền tảng vững chắc cả backend và frontend."},
    "comparison_table": {
      "en": [{"jd_requirement": "Proficient in Git.", "cv_evidence": "Not found.", "status": "Not Matched"}],
      "vi": [{"jd_requirement": "Thành thạo Git.", "cv_evidence": "Không tìm thấy.", "status": "Not Matched"}]
    },
    "strengths": {"en": ["Practical experience with ReactJS."], "vi": ["Kinh nghiệm thực tế với ReactJS."]},
    "weaknesses_missing_skills": {"en": ["Lack of explicit Git experience."], "vi": ["Thiếu kinh nghiệm Git rõ ràng."]},
    "interview_questions": {"en": ["Describe your Git workflow?"], "vi": ["Mô tả quy trình Git của bạn?"]}
  }
}`

// Application mirrors a stored application row. The analysis is kept
// serialized, the way the real backend persists it.
type Application struct {
	ID             int    `json:"id"`
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	Status         string `json:"status"`
	MatchScore     int    `json:"matchScore"`
	DateApplied    string `json:"dateApplied"`
	AnalysisResult string `json:"analysisResult"`
	JDContent      string `json:"jdContent"`
}

type JobDescription struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Hold pauses the next request matching a route until Release is called.
type Hold struct {
	Arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

func (h *Hold) Release() { h.once.Do(func() { close(h.release) }) }

type failure struct {
	status int
	detail string
}

// Server is a fake backend. Routes live under /api like the real service.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int
	apps     []Application
	jds      []JobDescription
	analysis string
	failures map[string]failure
	delays   map[string]time.Duration
	holds    map[string]*Hold
	requests map[string]int
	received []map[string]string
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		nextID:   1,
		analysis: SampleAnalysis,
		failures: make(map[string]failure),
		delays:   make(map[string]time.Duration),
		holds:    make(map[string]*Hold),
		requests: make(map[string]int),
	}

	r := gin.New()
	r.Use(s.intercept)
	api := r.Group("/api")
	api.GET("/jds", s.listJDs)
	api.POST("/jds", s.createJD)
	api.PATCH("/jds/:id", s.updateJD)
	api.DELETE("/jds/:id", s.deleteJD)
	api.GET("/applications", s.listApps)
	api.POST("/applications", s.createApp)
	api.PATCH("/applications/:id", s.updateApp)
	api.DELETE("/applications/:id", s.deleteApp)
	api.POST("/analyze", s.analyze)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to remote.New.
func (s *Server) BaseURL() string { return s.URL + "/api" }

// Fail makes every request to route answer status with detail until cleared
// with Fail(route, 0, ""). route is "METHOD /path", e.g. "POST /applications".
func (s *Server) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = failure{status: status, detail: detail}
}

// Delay sleeps before handling requests to route.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// HoldNext pauses the next request to route before it is handled.
func (s *Server) HoldNext(route string) *Hold {
	h := &Hold{Arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[route] = h
	s.mu.Unlock()
	return h
}

// SetAnalysis replaces the document returned by /analyze.
func (s *Server) SetAnalysis(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = doc
}

// Requests counts requests received for route.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// AnalyzeForms returns the form fields of every /analyze call.
func (s *Server) AnalyzeForms() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, len(s.received))
	copy(out, s.received)
	return out
}

// Applications returns the stored applications, newest first.
func (s *Server) Applications() []Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Application, len(s.apps))
	copy(out, s.apps)
	return out
}

// SeedJD stores a job description and returns its id.
func (s *Server) SeedJD(title, company, content string) int {
	return s.insertJD(title, company, content).ID
}

func (s *Server) insertJD(title, company, content string) JobDescription {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	jd := JobDescription{ID: s.nextID, Title: title, Company: company, Content: content, CreatedAt: now, UpdatedAt: now}
	s.nextID++
	s.jds = append([]JobDescription{jd}, s.jds...)
	return jd
}

// SeedApplication stores an application and returns its id.
func (s *Server) SeedApplication(app Application) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	app.ID = s.nextID
	s.nextID++
	s.apps = append([]Application{app}, s.apps...)
	return app.ID
}

func routeKey(c *gin.Context) string {
	path := strings.TrimPrefix(c.FullPath(), "/api")
	if i := strings.Index(path, "/:"); i >= 0 {
		path = path[:i]
	}
	return c.Request.Method + " " + path
}

func (s *Server) intercept(c *gin.Context) {
	key := routeKey(c)

	s.mu.Lock()
	s.requests[key]++
	fail, failing := s.failures[key]
	delay := s.delays[key]
	hold := s.holds[key]
	delete(s.holds, key)
	s.mu.Unlock()

	if hold != nil {
		close(hold.Arrived)
		select {
		case <-hold.release:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if failing {
		c.AbortWithStatusJSON(fail.status, gin.H{"detail": fail.detail})
		return
	}
	c.Next()
}

func (s *Server) listJDs(c *gin.Context) {
	s.mu.Lock()
	out := make([]JobDescription, len(s.jds))
	copy(out, s.jds)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createJD(c *gin.Context) {
	var req struct {
		Title   string `json:"title"`
		Company string `json:"company"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.insertJD(req.Title, req.Company, req.Content))
}

func (s *Server) updateJD(c *gin.Context) {
	var patch map[string]string
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	id, _ := strconv.Atoi(c.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jds {
		if s.jds[i].ID != id {
			continue
		}
		if v, ok := patch["title"]; ok {
			s.jds[i].Title = v
		}
		if v, ok := patch["company"]; ok {
			s.jds[i].Company = v
		}
		if v, ok := patch["content"]; ok {
			s.jds[i].Content = v
		}
		s.jds[i].UpdatedAt = time.Now().UTC()
		c.JSON(http.StatusOK, s.jds[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "JD not found"})
}

func (s *Server) deleteJD(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jds {
		if s.jds[i].ID == id {
			s.jds = append(s.jds[:i], s.jds[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "JD not found"})
}

func (s *Server) listApps(c *gin.Context) {
	c.JSON(http.StatusOK, s.Applications())
}

func (s *Server) createApp(c *gin.Context) {
	var req struct {
		Application
		AnalysisResult json.RawMessage `json:"analysisResult"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	app := req.Application
	app.AnalysisResult = serialize(req.AnalysisResult)
	id := s.SeedApplication(app)
	app.ID = id
	c.JSON(http.StatusOK, app)
}

func serialize(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func (s *Server) updateApp(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	id, _ := strconv.Atoi(c.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID != id {
			continue
		}
		if v, ok := patch["jobTitle"].(string); ok {
			s.apps[i].JobTitle = v
		}
		if v, ok := patch["status"].(string); ok {
			s.apps[i].Status = v
		}
		c.JSON(http.StatusOK, s.apps[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
}

func (s *Server) deleteApp(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID == id {
			s.apps = append(s.apps[:i], s.apps[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
}

func (s *Server) analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return
	}

	form := map[string]string{"file": fileHeader.Filename}
	jdText := c.PostForm("jd_text")
	jdID := c.PostForm("jd_id")
	if jdText != "" {
		form["jd_text"] = jdText
	}
	if jdID != "" {
		form["jd_id"] = jdID
	}

	s.mu.Lock()
	s.received = append(s.received, form)
	doc := s.analysis
	jds := make([]JobDescription, len(s.jds))
	copy(jds, s.jds)
	s.mu.Unlock()

	if jdID != "" {
		id, _ := strconv.Atoi(jdID)
		found := false
		for _, jd := range jds {
			if jd.ID == id {
				found = true
				break
			}
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"detail": "JD ID not found"})
			return
		}
	} else if strings.TrimSpace(jdText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Must provide jd_text OR jd_id"})
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(doc))
}
