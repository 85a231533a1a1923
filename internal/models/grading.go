package models

import "time"

// PassingScore is the minimum score that counts as a pass.
const PassingScore = 70.0

type gradeBreakpoint struct {
	min    float64
	letter string
}

var gradeBreakpoints = []gradeBreakpoint{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{60, "D"},
}

// LetterGradeFor maps a 0-100 score to its letter grade.
func LetterGradeFor(score float64) string {
	for _, bp := range gradeBreakpoints {
		if score >= bp.min {
			return bp.letter
		}
	}
	return "F"
}

// IsPassingScore reports whether the score meets the pass threshold.
func IsPassingScore(score float64) bool {
	return score >= PassingScore
}

// Grading holds the mentor's evaluation of a submission.
// LetterGrade and Passed are derived from Score and recomputed on every save.
type Grading struct {
	Score        *float64   `json:"score"`
	LetterGrade  string     `gorm:"size:4" json:"letter_grade"`
	Passed       *bool      `json:"passed"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	PrivateNotes string     `gorm:"type:text" json:"private_notes"`
	GradedBy     *uint      `json:"graded_by"`
	GradedAt     *time.Time `json:"graded_at"`
}

// Recompute derives letter grade and pass/fail from the score.
func (g *Grading) Recompute() {
	if g.Score == nil {
		g.LetterGrade = ""
		g.Passed = nil
		return
	}
	score := *g.Score
	g.LetterGrade = LetterGradeFor(score)
	passed := IsPassingScore(score)
	g.Passed = &passed
}

// IsGraded reports whether a score has been recorded.
func (g Grading) IsGraded() bool {
	return g.Score != nil
}
