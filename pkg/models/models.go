package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/khrees2412/careerflow/internal/bilingual"
)

// DateLayout is the day-first format the tracker writes into dateApplied.
const DateLayout = "02/01/2006, 15:04"

// ID is a server-assigned identifier. The backend issues integers; the client
// treats them as opaque strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Status is the pipeline stage of an application.
type Status string

const (
	StatusWishlist      Status = "Wishlist"
	StatusApplied       Status = "Applied"
	StatusInterviewing  Status = "Interviewing"
	StatusOfferReceived Status = "Offer Received"
	StatusRejected      Status = "Rejected"
)

// Statuses lists every pipeline stage in board order.
var Statuses = []Status{StatusWishlist, StatusApplied, StatusInterviewing, StatusOfferReceived, StatusRejected}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus matches a status case-insensitively. "offer" and "offer-received"
// are accepted for Offer Received.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	if norm == "offer" {
		return StatusOfferReceived, nil
	}
	for _, v := range Statuses {
		if strings.ToLower(string(v)) == norm {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Application is one tracked job application.
type Application struct {
	ID             ID             `json:"id"`
	JobTitle       string         `json:"jobTitle"`
	CompanyName    string         `json:"companyName"`
	Status         Status         `json:"status"`
	MatchScore     int            `json:"matchScore"`
	DateApplied    string         `json:"dateApplied"`
	AnalysisResult AnalysisResult `json:"analysisResult"`
	JDContent      string         `json:"jdContent"`
}

// UnmarshalJSON normalizes analysisResult, which the backend returns as a
// serialized string, into a structured value. A blob that cannot be decoded
// leaves AnalysisResult empty rather than failing the whole record.
func (a *Application) UnmarshalJSON(data []byte) error {
	type alias Application
	var wire struct {
		alias
		AnalysisResult Payload `json:"analysisResult"`
		MatchScore     Percent `json:"matchScore"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = Application(wire.alias)
	a.MatchScore = ClampScore(int(wire.MatchScore))
	if a.Status == "" {
		a.Status = StatusApplied
	}
	if result, err := wire.AnalysisResult.Resolve(); err == nil {
		a.AnalysisResult = result
	}
	return nil
}

// AppliedAt parses DateApplied. ok is false for dates written in other formats.
func (a Application) AppliedAt() (t time.Time, ok bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(a.DateApplied), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ApplicationDraft is the create body for an application.
type ApplicationDraft struct {
	JobTitle       string         `json:"jobTitle" validate:"required"`
	CompanyName    string         `json:"companyName"`
	MatchScore     int            `json:"matchScore" validate:"min=0,max=100"`
	DateApplied    string         `json:"dateApplied" validate:"required"`
	AnalysisResult AnalysisResult `json:"analysisResult"`
	JDContent      string         `json:"jdContent"`
	Status         Status         `json:"status" validate:"required,oneof=Wishlist Applied Interviewing 'Offer Received' Rejected"`
}

// ApplicationPatch carries the only two user-editable fields.
type ApplicationPatch struct {
	JobTitle *string `json:"jobTitle,omitempty" validate:"omitempty,min=1"`
	Status   *Status `json:"status,omitempty" validate:"omitempty,oneof=Wishlist Applied Interviewing 'Offer Received' Rejected"`
}

// JobDescription is a saved job description.
type JobDescription struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (jd *JobDescription) UnmarshalJSON(data []byte) error {
	type alias JobDescription
	var wire struct {
		alias
		CreatedAt Timestamp `json:"created_at"`
		UpdatedAt Timestamp `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*jd = JobDescription(wire.alias)
	jd.CreatedAt = time.Time(wire.CreatedAt)
	jd.UpdatedAt = time.Time(wire.UpdatedAt)
	return nil
}

type JobDescriptionDraft struct {
	Title   string `json:"title" validate:"required"`
	Company string `json:"company"`
	Content string `json:"content" validate:"required"`
}

type JobDescriptionPatch struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Company *string `json:"company,omitempty"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1"`
}

// Notification is one entry of the in-app feed.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Timestamp decodes RFC 3339 times and the zone-less ISO form Python emits.
type Timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		*ts = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = Timestamp(t)
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// Percent decodes a number or a numeric string, rounding fractions.
type Percent int

func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %s: %w", data, err)
	}
	if f < 0 {
		*p = Percent(int(f - 0.5))
	} else {
		*p = Percent(int(f + 0.5))
	}
	return nil
}

// ClampScore bounds a match score to [0,100].
func ClampScore(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}

// AnalysisResult is the payload returned by the analysis service.
type AnalysisResult struct {
	PersonalInfo          PersonalInfo          `json:"personal_info"`
	MatchingScore         MatchingScore         `json:"matching_score"`
	RequirementsBreakdown RequirementsBreakdown `json:"requirements_breakdown"`
	MatchedKeywords       []string              `json:"matched_keywords"`
	RadarChart            map[string]float64    `json:"radar_chart"`
	BilingualContent      BilingualContent      `json:"bilingual_content"`
}

// IsZero reports whether the result carries no analysis at all.
func (r AnalysisResult) IsZero() bool {
	return r.PersonalInfo == (PersonalInfo{}) &&
		r.MatchingScore == (MatchingScore{}) &&
		len(r.MatchedKeywords) == 0 &&
		len(r.RadarChart) == 0
}

type PersonalInfo struct {
	Name       string `json:"name"`
	Position   string `json:"position"`
	Experience string `json:"experience"`
}

type MatchingScore struct {
	Percentage  Percent `json:"percentage"`
	Explanation string  `json:"explanation"`
}

type RequirementsBreakdown struct {
	MustHaveRatio   string `json:"must_have_ratio"`
	NiceToHaveRatio string `json:"nice_to_have_ratio"`
}

type ComparisonRow struct {
	JDRequirement string `json:"jd_requirement"`
	CVEvidence    string `json:"cv_evidence"`
	Status        string `json:"status"`
}

// BilingualContent holds the language-keyed sections of an analysis.
type BilingualContent struct {
	GeneralAssessment  bilingual.Bundle[string]          `json:"general_assessment"`
	ComparisonTable    bilingual.Bundle[[]ComparisonRow] `json:"comparison_table"`
	Strengths          bilingual.Bundle[[]string]        `json:"strengths"`
	Weaknesses         bilingual.Bundle[[]string]        `json:"weaknesses_missing_skills"`
	InterviewQuestions bilingual.Bundle[[]string]        `json:"interview_questions"`
}
