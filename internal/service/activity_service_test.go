package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
)

func TestActivityServiceRecordMasksSensitiveMetadata(t *testing.T) {
	env := newTestEnv(t)
	svc := NewActivityService(repository.NewActivityLogRepository(env.db), testValidator(), testLogger())
	entityID := uint(12)

	resp, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    3,
		Action:     " Submission.Graded ",
		EntityType: "Submission",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"student_email": "ana@example.com",
			"private_notes": "borderline, check plagiarism",
			"score":         88,
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivitySubmissionGraded, resp.Action)
	require.Equal(t, "submission", resp.EntityType)
	require.Equal(t, "system", resp.ActorRole)
	require.Equal(t, "***", resp.Metadata["student_email"])
	require.Equal(t, "***", resp.Metadata["private_notes"])
	require.EqualValues(t, 88, resp.Metadata["score"])
}

func TestActivityServiceRecordOnlyAcceptsAuditedActions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewActivityService(repository.NewActivityLogRepository(env.db), testValidator(), testLogger())

	var invalid *ValidationError
	_, err := svc.Record(ctx, ActivityEntry{EntityType: "submission"})
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "action", invalid.Field)

	_, err = svc.Record(ctx, ActivityEntry{Action: "course.viewed"})
	require.ErrorAs(t, err, &invalid)

	_, err = svc.Record(ctx, ActivityEntry{Action: models.ActivityCertificateRevoked, EntityType: "submission"})
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "entity_type", invalid.Field)

	resp, err := svc.Record(ctx, ActivityEntry{ActorID: 1, ActorRole: models.RoleAdmin, Action: models.ActivityCertificateRevoked})
	require.NoError(t, err)
	require.Equal(t, "certificate", resp.EntityType)
	require.Equal(t, models.RoleAdmin, resp.ActorRole)
}

func TestActivityServiceListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewActivityService(repository.NewActivityLogRepository(env.db), testValidator(), testLogger())

	for _, action := range []string{models.ActivitySubmissionGraded, models.ActivitySubmissionGraded, models.ActivityCertificateIssued} {
		_, err := svc.Record(ctx, ActivityEntry{ActorID: 1, ActorRole: models.RoleMentor, Action: action})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, dto.ActivityListRequest{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	require.Equal(t, int64(3), all.Pagination.TotalItems)

	graded, err := svc.List(ctx, dto.ActivityListRequest{Action: models.ActivitySubmissionGraded, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, graded.Items, 1)
	require.Equal(t, int64(2), graded.Pagination.TotalItems)
	require.Equal(t, 2, graded.Pagination.TotalPages)
}
