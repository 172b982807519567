package models

import (
	"sort"

	"github.com/khrees2412/careerflow/internal/bilingual"
)

// AnalysisView is an analysis with every bilingual section resolved to one
// language.
type AnalysisView struct {
	Language           string
	PersonalInfo       PersonalInfo
	Score              int
	Explanation        string
	MustHaveRatio      string
	NiceToHaveRatio    string
	MatchedKeywords    []string
	Radar              []RadarScore
	GeneralAssessment  string
	ComparisonTable    []ComparisonRow
	Strengths          []string
	Weaknesses         []string
	InterviewQuestions []string
}

// RadarScore is one axis of the skills radar.
type RadarScore struct {
	Axis  string
	Score float64
}

// View resolves r for lang, falling back to English per section.
func (r AnalysisResult) View(lang string) AnalysisView {
	radar := make([]RadarScore, 0, len(r.RadarChart))
	for axis, score := range r.RadarChart {
		radar = append(radar, RadarScore{Axis: axis, Score: score})
	}
	sort.Slice(radar, func(i, j int) bool { return radar[i].Axis < radar[j].Axis })

	bc := r.BilingualContent
	return AnalysisView{
		Language:           lang,
		PersonalInfo:       r.PersonalInfo,
		Score:              ClampScore(int(r.MatchingScore.Percentage)),
		Explanation:        r.MatchingScore.Explanation,
		MustHaveRatio:      r.RequirementsBreakdown.MustHaveRatio,
		NiceToHaveRatio:    r.RequirementsBreakdown.NiceToHaveRatio,
		MatchedKeywords:    r.MatchedKeywords,
		Radar:              radar,
		GeneralAssessment:  bilingual.Resolve(bc.GeneralAssessment, lang),
		ComparisonTable:    bilingual.Resolve(bc.ComparisonTable, lang),
		Strengths:          bilingual.Resolve(bc.Strengths, lang),
		Weaknesses:         bilingual.Resolve(bc.Weaknesses, lang),
		InterviewQuestions: bilingual.Resolve(bc.InterviewQuestions, lang),
	}
}
