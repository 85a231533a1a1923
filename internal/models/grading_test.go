package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLetterGradeBreakpoints(t *testing.T) {
	cases := []struct {
		score  float64
		letter string
		passed bool
	}{
		{100, "A+", true},
		{97, "A+", true},
		{96, "A", true},
		{93, "A", true},
		{90, "A-", true},
		{87, "B+", true},
		{83, "B", true},
		{80, "B-", true},
		{77, "C+", true},
		{73, "C", true},
		{70, "C-", true},
		{69.9, "D", false},
		{60, "D", false},
		{59, "F", false},
		{0, "F", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.letter, LetterGradeFor(tc.score), "score %v", tc.score)
		require.Equal(t, tc.passed, IsPassingScore(tc.score), "score %v", tc.score)
	}
}

func TestGradingRecomputeFollowsScore(t *testing.T) {
	score := 69.9
	grading := Grading{Score: &score, LetterGrade: "A+"}
	grading.Recompute()

	require.Equal(t, "D", grading.LetterGrade)
	require.NotNil(t, grading.Passed)
	require.False(t, *grading.Passed)

	grading.Score = nil
	grading.Recompute()
	require.Empty(t, grading.LetterGrade)
	require.Nil(t, grading.Passed)
}
