package models

import (
	"encoding/json"
	"testing"

	"github.com/khrees2412/careerflow/internal/bilingual"
)

const sampleAnalysis = `{
	"personal_info": {"name": "Le Hoang Dang", "position": "Java Developer", "experience": "0.3 years"},
	"matching_score": {"percentage": 86, "explanation": "Matched 6/7 requirements"},
	"requirements_breakdown": {"must_have_ratio": "6/7", "nice_to_have_ratio": "0/0"},
	"matched_keywords": ["JavaScript", "ReactJS"],
	"radar_chart": {"Hard Skills": 9, "Soft Skills": 8},
	"bilingual_content": {
		"general_assessment": {"en": "Strong graduate", "vi": "Sinh viên giỏi"},
		"comparison_table": {"en": [{"jd_requirement": "Git", "cv_evidence": "Not found", "status": "Not Matched"}]},
		"strengths": {"en": ["React"], "vi": ["React"]},
		"weaknesses_missing_skills": {"en": ["Git"]},
		"interview_questions": {"en": ["Describe your Git workflow?"]}
	}
}`

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		input    string
		expected ID
	}{
		{`12`, "12"},
		{`"12"`, "12"},
		{`"a-b"`, "a-b"},
		{`null`, ""},
	}

	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.input, err)
		}
		if id != tt.expected {
			t.Errorf("ID(%s) = %q, expected %q", tt.input, id, tt.expected)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{"applied", StatusApplied, false},
		{"Interviewing", StatusInterviewing, false},
		{"offer-received", StatusOfferReceived, false},
		{"offer", StatusOfferReceived, false},
		{"  wishlist ", StatusWishlist, false},
		{"pending", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseStatus(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestApplicationStringAndObjectPayloadsAgree(t *testing.T) {
	quoted, err := json.Marshal(sampleAnalysis)
	if err != nil {
		t.Fatal(err)
	}

	asString := `{"id": 7, "jobTitle": "Java Developer", "companyName": "Acme", "status": "Applied",
		"matchScore": 86, "dateApplied": "05/03/2025, 14:30", "jdContent": "JD", "analysisResult": ` + string(quoted) + `}`
	asObject := `{"id": "7", "jobTitle": "Java Developer", "companyName": "Acme", "status": "Applied",
		"matchScore": 86, "dateApplied": "05/03/2025, 14:30", "jdContent": "JD", "analysisResult": ` + sampleAnalysis + `}`

	var a, b Application
	if err := json.Unmarshal([]byte(asString), &a); err != nil {
		t.Fatalf("string payload: %v", err)
	}
	if err := json.Unmarshal([]byte(asObject), &b); err != nil {
		t.Fatalf("object payload: %v", err)
	}

	if a.ID != "7" || b.ID != "7" {
		t.Errorf("ids = %q, %q", a.ID, b.ID)
	}
	if a.AnalysisResult.PersonalInfo.Name != "Le Hoang Dang" {
		t.Errorf("string payload not parsed: %+v", a.AnalysisResult.PersonalInfo)
	}
	if got := bilingual.Resolve(a.AnalysisResult.BilingualContent.GeneralAssessment, "vi"); got != "Sinh viên giỏi" {
		t.Errorf("assessment(vi) = %q", got)
	}
	if got := bilingual.Resolve(b.AnalysisResult.BilingualContent.Weaknesses, "vi"); len(got) != 1 || got[0] != "Git" {
		t.Errorf("weaknesses fallback = %v", got)
	}
	if a.AnalysisResult.MatchingScore.Percentage != b.AnalysisResult.MatchingScore.Percentage {
		t.Errorf("percentages differ: %d vs %d", a.AnalysisResult.MatchingScore.Percentage, b.AnalysisResult.MatchingScore.Percentage)
	}
}

func TestApplicationUnmarshalTolerance(t *testing.T) {
	input := `{"id": 3, "jobTitle": "QA", "matchScore": 140, "analysisResult": "not json"}`
	var app Application
	if err := json.Unmarshal([]byte(input), &app); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if app.MatchScore != 100 {
		t.Errorf("MatchScore = %d, expected clamp to 100", app.MatchScore)
	}
	if app.Status != StatusApplied {
		t.Errorf("Status = %q, expected default Applied", app.Status)
	}
	if !app.AnalysisResult.IsZero() {
		t.Error("unparseable analysis should leave an empty result")
	}
}

func TestPercentUnmarshal(t *testing.T) {
	tests := []struct {
		input    string
		expected Percent
	}{
		{`86`, 86},
		{`85.6`, 86},
		{`"72"`, 72},
		{`"90%"`, 90},
		{`null`, 0},
	}
	for _, tt := range tests {
		var p Percent
		if err := json.Unmarshal([]byte(tt.input), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.input, err)
		}
		if p != tt.expected {
			t.Errorf("Percent(%s) = %d, expected %d", tt.input, p, tt.expected)
		}
	}
}

func TestPayloadResolve(t *testing.T) {
	if _, err := RawPayload("").Resolve(); err != ErrEmptyPayload {
		t.Errorf("empty raw payload error = %v, expected ErrEmptyPayload", err)
	}
	if _, err := RawPayload("{broken").Resolve(); err == nil {
		t.Error("expected decode error for broken payload")
	}

	res, err := RawPayload(sampleAnalysis).Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	again, err := ParsedPayload(res).Resolve()
	if err != nil {
		t.Fatalf("resolve parsed: %v", err)
	}
	if again.PersonalInfo.Position != "Java Developer" {
		t.Errorf("Position = %q", again.PersonalInfo.Position)
	}
}

func TestJobDescriptionTimestamps(t *testing.T) {
	input := `{"id": 1, "title": "Backend", "company": "Acme", "content": "Go",
		"created_at": "2025-03-05T10:20:30.123456", "updated_at": "2025-03-06T10:20:30Z"}`
	var jd JobDescription
	if err := json.Unmarshal([]byte(input), &jd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if jd.CreatedAt.Day() != 5 || jd.UpdatedAt.Day() != 6 {
		t.Errorf("timestamps = %v, %v", jd.CreatedAt, jd.UpdatedAt)
	}
}

func TestAppliedAt(t *testing.T) {
	app := Application{DateApplied: "05/03/2025, 14:30"}
	at, ok := app.AppliedAt()
	if !ok {
		t.Fatal("expected date to parse")
	}
	if at.Day() != 5 || at.Month() != 3 || at.Hour() != 14 {
		t.Errorf("AppliedAt = %v", at)
	}

	if _, ok := (Application{DateApplied: "yesterday"}).AppliedAt(); ok {
		t.Error("expected free-form date not to parse")
	}
}

func TestAnalysisViewFallsBackPerSection(t *testing.T) {
	var r AnalysisResult
	if err := json.Unmarshal([]byte(sampleAnalysis), &r); err != nil {
		t.Fatal(err)
	}

	v := r.View("vi")
	if v.GeneralAssessment != "Sinh viên giỏi" {
		t.Errorf("GeneralAssessment = %q", v.GeneralAssessment)
	}
	if len(v.Weaknesses) != 1 || v.Weaknesses[0] != "Git" {
		t.Errorf("Weaknesses = %v, expected English fallback", v.Weaknesses)
	}
	if len(v.ComparisonTable) != 1 || v.ComparisonTable[0].JDRequirement != "Git" {
		t.Errorf("ComparisonTable = %v", v.ComparisonTable)
	}
	if v.Score != 86 || v.MustHaveRatio != "6/7" {
		t.Errorf("Score = %d, MustHaveRatio = %q", v.Score, v.MustHaveRatio)
	}
	if len(v.Radar) != 2 || v.Radar[0].Axis != "Hard Skills" {
		t.Errorf("Radar = %v, expected sorted axes", v.Radar)
	}

	legacy := AnalysisResult{BilingualContent: BilingualContent{GeneralAssessment: bilingual.Plain("Legacy text")}}
	if got := legacy.View("vi").GeneralAssessment; got != "Legacy text" {
		t.Errorf("legacy GeneralAssessment = %q", got)
	}
	if got := (AnalysisResult{}).View("fr").Strengths; len(got) != 0 {
		t.Errorf("empty Strengths = %v", got)
	}
}
