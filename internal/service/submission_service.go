package service

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/observability"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
)

const maxSubmissionFiles = 10

var submissionURLPattern = regexp.MustCompile(`^https?://\S+$`)

// SubmissionService drives the submission lifecycle from draft to grade.
type SubmissionService interface {
	Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	SaveDraft(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, actor ActivityActor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
	ReturnForRevision(ctx context.Context, actor ActivityActor, submissionID uint, payload dto.ReturnRequest) (dto.SubmissionResponse, error)
	ListForGrading(ctx context.Context, actorID, courseID uint, req dto.SubmissionListRequest) ([]dto.SubmissionResponse, error)
	GetMine(ctx context.Context, studentID, assignmentID uint) (dto.SubmissionResponse, error)
	Get(ctx context.Context, viewerID, submissionID uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	access      CourseAccess
	files       FileStore
	notifier    NotificationPublisher
	activity    ActivityRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	now         func() time.Time
}

// NewSubmissionService wires the submission lifecycle engine.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	access CourseAccess,
	files FileStore,
	notifier NotificationPublisher,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		access:      access,
		files:       files,
		notifier:    notifier,
		activity:    activity,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/ajarin-go-api/internal/service/submission"),
		sanitizer:   bluemonday.UGCPolicy(),
		now:         time.Now,
	}
}

// submissionPlan is the write decided for an incoming submit or draft.
type submissionPlan int

const (
	planCreate submissionPlan = iota
	planReplace
	planRevise
)

func (s *submissionService) Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("submission.assignment_id", int64(assignmentID)),
		attribute.Int64("submission.student_id", int64(studentID)),
	))
	defer span.End()

	response, err := s.write(ctx, studentID, assignmentID, payload, files, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return response, err
}

func (s *submissionService) SaveDraft(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.save_draft", trace.WithAttributes(
		attribute.Int64("submission.assignment_id", int64(assignmentID)),
		attribute.Int64("submission.student_id", int64(studentID)),
	))
	defer span.End()

	response, err := s.write(ctx, studentID, assignmentID, payload, files, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return response, err
}

func (s *submissionService) write(ctx context.Context, studentID, assignmentID uint, payload dto.SubmissionRequest, files []*multipart.FileHeader, draft bool) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if err := validateSubmissionContent(payload, len(files), draft); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	membership, found, err := s.access.Membership(ctx, studentID, assignment.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !found || !membership.Enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	now := s.now()
	if !assignment.IsAvailable(now) {
		return dto.SubmissionResponse{}, &AssignmentUnavailableError{Reason: unavailableReason(assignment, now)}
	}

	submission, plan, err := s.plan(ctx, assignment, studentID, draft)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	var stored []models.FileDescriptor
	if payload.ContentType == models.ContentTypeFile {
		stored, err = s.storeFiles(ctx, files, studentID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	previous := submission.Content
	content := buildSubmissionContent(payload, stored)

	if plan == planRevise {
		submission.ArchiveContent(now)
	}
	submission.Content = content

	if draft {
		submission.Status = models.SubmissionStatusDraft
		submission.SubmittedAt = nil
	} else {
		submission.Status = models.SubmissionStatusSubmitted
		submission.SubmittedAt = &now
	}

	if plan == planCreate {
		err = s.submissions.Create(ctx, &submission)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = ErrStaleRecord
		}
	} else {
		err = s.submissions.Update(ctx, &submission)
		if errors.Is(err, repository.ErrVersionConflict) {
			err = ErrStaleRecord
		}
	}
	if err != nil {
		s.discardFiles(ctx, stored)
		return dto.SubmissionResponse{}, err
	}

	// an overwritten draft is not kept as a revision, so its files are orphaned
	if plan == planReplace {
		s.discardFiles(ctx, previous.Files)
	}

	submission.Assignment = assignment
	kind := "created"
	switch {
	case draft:
		kind = "draft"
	case plan == planRevise:
		kind = "revision"
	}
	observability.Submissions().WithLabelValues(kind).Inc()

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Int("attempt", submission.AttemptNumber).
		Str("kind", kind).
		Msg("submission saved")

	return dto.NewSubmissionResponse(submission, false), nil
}

// plan picks the row to write and how, based on the student's latest attempt.
func (s *submissionService) plan(ctx context.Context, assignment models.Assignment, studentID uint, draft bool) (models.AssignmentSubmission, submissionPlan, error) {
	latest, err := s.submissions.GetLatest(ctx, assignment.ID, studentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AssignmentSubmission{}, planCreate, err
	}

	if err == nil {
		switch latest.Status {
		case models.SubmissionStatusDraft:
			return latest, planReplace, nil
		case models.SubmissionStatusSubmitted, models.SubmissionStatusReturnedForRevision:
			if draft {
				return models.AssignmentSubmission{}, planCreate, ErrInvalidTransition
			}
			return latest, planRevise, nil
		case models.SubmissionStatusGraded:
			// a graded attempt is final; continue with a fresh attempt if any remain
		default:
			return models.AssignmentSubmission{}, planCreate, ErrInvalidTransition
		}
	}

	count, err := s.submissions.CountAttempts(ctx, assignment.ID, studentID)
	if err != nil {
		return models.AssignmentSubmission{}, planCreate, err
	}
	if count >= int64(assignment.EffectiveMaxAttempts()) {
		return models.AssignmentSubmission{}, planCreate, ErrAttemptsExhausted
	}

	return models.AssignmentSubmission{
		AssignmentID:  assignment.ID,
		StudentID:     studentID,
		CourseID:      assignment.CourseID,
		AttemptNumber: int(count) + 1,
	}, planCreate, nil
}

func (s *submissionService) Grade(ctx context.Context, actor ActivityActor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	score := *payload.Score
	if math.IsNaN(score) || score < 0 || score > 100 {
		return dto.SubmissionResponse{}, newValidationError("score", "must be between 0 and 100")
	}

	ctx, span := s.tracer.Start(ctx, "grading.update", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.access.RequireOwner(ctx, actor.ID, submission.CourseID); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if !submission.Status.CanTransitionTo(models.SubmissionStatusGraded) {
		span.SetStatus(codes.Error, "invalid transition")
		return dto.SubmissionResponse{}, ErrInvalidTransition
	}

	gradedAt := s.now()
	graderID := actor.ID
	submission.Grading = models.Grading{
		Score:        &score,
		Feedback:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback)),
		PrivateNotes: strings.TrimSpace(s.sanitizer.Sanitize(payload.PrivateNotes)),
		GradedBy:     &graderID,
		GradedAt:     &gradedAt,
	}
	submission.Status = models.SubmissionStatusGraded
	submission.Grading.Recompute()

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, repository.ErrVersionConflict) {
			return dto.SubmissionResponse{}, ErrStaleRecord
		}
		return dto.SubmissionResponse{}, err
	}

	result := "failed"
	if submission.Grading.Passed != nil && *submission.Grading.Passed {
		result = "passed"
	}
	observability.Grades().WithLabelValues(result).Inc()
	span.SetAttributes(attribute.Float64("grading.score", score))

	entityID := submission.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.ActivitySubmissionGraded,
		EntityType: "submission",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"assignment_id": submission.AssignmentID,
			"score":         score,
			"letter_grade":  submission.Grading.LetterGrade,
		},
	})

	s.notify(ctx, dto.NotificationCreateRequest{
		UserID:  submission.StudentID,
		Type:    models.NotificationSubmissionGraded,
		Message: "Your submission for " + submission.Assignment.Title + " was graded " + submission.Grading.LetterGrade,
		Data: map[string]interface{}{
			"submission_id": submission.ID,
			"assignment_id": submission.AssignmentID,
		},
	})

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("grader_id", actor.ID).
		Str("letter_grade", submission.Grading.LetterGrade).
		Msg("submission graded")

	return dto.NewSubmissionResponse(submission, true), nil
}

func (s *submissionService) ReturnForRevision(ctx context.Context, actor ActivityActor, submissionID uint, payload dto.ReturnRequest) (dto.SubmissionResponse, error) {
	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	if feedback == "" {
		return dto.SubmissionResponse{}, newValidationError("feedback", "is required")
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.access.RequireOwner(ctx, actor.ID, submission.CourseID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !submission.Status.CanTransitionTo(models.SubmissionStatusReturnedForRevision) {
		return dto.SubmissionResponse{}, ErrInvalidTransition
	}

	returnedAt := s.now()
	submission.Status = models.SubmissionStatusReturnedForRevision
	submission.ReturnFeedback = feedback
	submission.ReturnedAt = &returnedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return dto.SubmissionResponse{}, ErrStaleRecord
		}
		return dto.SubmissionResponse{}, err
	}

	entityID := submission.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.ActivitySubmissionReturned,
		EntityType: "submission",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"assignment_id": submission.AssignmentID,
		},
	})

	s.notify(ctx, dto.NotificationCreateRequest{
		UserID:  submission.StudentID,
		Type:    models.NotificationSubmissionReturned,
		Message: "Your submission for " + submission.Assignment.Title + " was returned for revision",
		Data: map[string]interface{}{
			"submission_id": submission.ID,
			"assignment_id": submission.AssignmentID,
		},
	})

	return dto.NewSubmissionResponse(submission, true), nil
}

func (s *submissionService) ListForGrading(ctx context.Context, actorID, courseID uint, req dto.SubmissionListRequest) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.access.RequireOwner(ctx, actorID, courseID); err != nil {
		return nil, err
	}

	filter := repository.SubmissionFilter{CourseID: courseID}
	if req.AssignmentID > 0 {
		filter.AssignmentID = &req.AssignmentID
	}
	if req.Status != "" {
		status := models.SubmissionStatus(req.Status)
		filter.Status = &status
	}

	submissions, err := s.submissions.ListForGrading(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions, true), nil
}

func (s *submissionService) GetMine(ctx context.Context, studentID, assignmentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetLatest(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, false), nil
}

func (s *submissionService) Get(ctx context.Context, viewerID, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if submission.StudentID == viewerID {
		return dto.NewSubmissionResponse(submission, false), nil
	}

	if _, err := s.access.RequireOwner(ctx, viewerID, submission.CourseID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, true), nil
}

func (s *submissionService) loadAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (s *submissionService) loadSubmission(ctx context.Context, id uint) (models.AssignmentSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AssignmentSubmission{}, ErrSubmissionNotFound
		}
		return models.AssignmentSubmission{}, err
	}
	return submission, nil
}

func (s *submissionService) storeFiles(ctx context.Context, files []*multipart.FileHeader, studentID uint) ([]models.FileDescriptor, error) {
	stored := make([]models.FileDescriptor, 0, len(files))
	for _, file := range files {
		descriptor, err := s.files.StoreFile(ctx, file, PurposeSubmission, studentID)
		if err != nil {
			s.discardFiles(ctx, stored)
			return nil, err
		}
		stored = append(stored, descriptor)
	}
	return stored, nil
}

func (s *submissionService) discardFiles(ctx context.Context, files []models.FileDescriptor) {
	for _, file := range files {
		if file.ID == "" {
			continue
		}
		if err := s.files.Remove(ctx, file.ID); err != nil {
			s.logger.Warn().Err(err).Str("file_id", file.ID).Msg("failed to remove stored file")
		}
	}
}

func (s *submissionService) notify(ctx context.Context, payload dto.NotificationCreateRequest) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Publish(ctx, payload); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", payload.UserID).Str("type", payload.Type).Msg("failed to publish notification")
	}
}

// validateSubmissionContent checks the content shape. Drafts may be incomplete but never malformed.
func validateSubmissionContent(payload dto.SubmissionRequest, fileCount int, draft bool) error {
	switch payload.ContentType {
	case models.ContentTypeText:
		if !draft && strings.TrimSpace(payload.Text) == "" {
			return newValidationError("text", "must not be empty")
		}
	case models.ContentTypeFile:
		if !draft && fileCount == 0 {
			return newValidationError("files", "at least one file is required")
		}
		if fileCount > maxSubmissionFiles {
			return newValidationError("files", "too many files")
		}
	case models.ContentTypeURL:
		url := strings.TrimSpace(payload.URL)
		if url == "" && draft {
			return nil
		}
		if !submissionURLPattern.MatchString(url) {
			return newValidationError("url", "must start with http:// or https://")
		}
	default:
		return newValidationError("content_type", "must be one of text, file, url")
	}
	return nil
}

func buildSubmissionContent(payload dto.SubmissionRequest, files []models.FileDescriptor) models.SubmissionContent {
	content := models.SubmissionContent{Type: payload.ContentType}
	switch payload.ContentType {
	case models.ContentTypeText:
		content.Text = payload.Text
	case models.ContentTypeFile:
		content.Files = files
	case models.ContentTypeURL:
		content.URL = strings.TrimSpace(payload.URL)
	}
	return content
}
