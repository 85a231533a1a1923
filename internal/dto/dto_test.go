package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func TestBuildReplyTreeNestsByParent(t *testing.T) {
	now := time.Now()
	replies := []models.DiscussionReply{
		{ID: 1, ThreadID: 9, Content: "root", CreatedAt: now},
		{ID: 2, ThreadID: 9, ParentID: uintPtr(1), Content: "child", CreatedAt: now},
		{ID: 3, ThreadID: 9, ParentID: uintPtr(2), Content: "grandchild", CreatedAt: now},
		{ID: 4, ThreadID: 9, ParentID: uintPtr(77), Content: "orphan", CreatedAt: now},
	}

	tree := BuildReplyTree(replies)
	require.Len(t, tree, 2)
	require.Equal(t, uint(1), tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, uint(3), tree[0].Children[0].Children[0].ID)
	require.Equal(t, uint(4), tree[1].ID)
}

func TestSubmissionResponseHidesPrivateNotes(t *testing.T) {
	score := 91.0
	submission := models.AssignmentSubmission{
		ID:     1,
		Status: models.SubmissionStatusGraded,
		Grading: models.Grading{
			Score:        &score,
			Feedback:     "nice",
			PrivateNotes: "borderline A",
		},
	}
	submission.Grading.Recompute()

	student := NewSubmissionResponse(submission, false)
	require.NotNil(t, student.Grading)
	require.Empty(t, student.Grading.PrivateNotes)
	require.Equal(t, "A-", student.Grading.LetterGrade)

	mentor := NewSubmissionResponse(submission, true)
	require.Equal(t, "borderline A", mentor.Grading.PrivateNotes)
}

func TestGroupByChapterKeepsFirstAppearanceOrder(t *testing.T) {
	items := []MaterialStatusResponse{
		{MaterialResponse: MaterialResponse{ID: 1, Chapter: "Intro"}},
		{MaterialResponse: MaterialResponse{ID: 2, Chapter: "Basics"}},
		{MaterialResponse: MaterialResponse{ID: 3, Chapter: "Intro"}},
	}

	chapters := GroupByChapter(items)
	require.Len(t, chapters, 2)
	require.Equal(t, "Intro", chapters[0].Chapter)
	require.Len(t, chapters[0].Materials, 2)
	require.Equal(t, "Basics", chapters[1].Chapter)
}

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(0, 10, 21)
	require.Equal(t, 1, meta.Page)
	require.Equal(t, 3, meta.TotalPages)

	require.Equal(t, 1, NewPaginationMeta(2, 0, 5).TotalPages)
}
