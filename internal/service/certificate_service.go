package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
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

const certificateCachePrefix = "certificates:public:v1:"

// CompletionSource reports how far a learner is through a course.
type CompletionSource interface {
	ComputeCourseCompletion(ctx context.Context, userID, courseID uint) (CourseCompletion, error)
}

// CertificateService decides eligibility and issues course completion certificates.
type CertificateService interface {
	CheckEligibility(ctx context.Context, userID, courseID uint) (dto.EligibilityResponse, error)
	Generate(ctx context.Context, userID, courseID uint) (dto.CertificateGenerateResponse, error)
	GetPublic(ctx context.Context, publicID string) (dto.PublicCertificateResponse, error)
	RecordDownload(ctx context.Context, publicID string) (dto.PublicCertificateResponse, error)
	ListMine(ctx context.Context, userID uint) ([]dto.CertificateResponse, error)
	Revoke(ctx context.Context, actor ActivityActor, certificateID uint) (dto.CertificateResponse, error)
}

type certificateService struct {
	certificates repository.CertificateRepository
	users        repository.UserRepository
	materials    repository.MaterialRepository
	access       CourseAccess
	completion   CompletionSource
	notifier     NotificationPublisher
	activity     ActivityRecorder
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// cachedCertificate is the snapshot stored in Redis for public verification.
type cachedCertificate struct {
	ID     uint                          `json:"id"`
	Public dto.PublicCertificateResponse `json:"public"`
}

// NewCertificateService constructs the certificate engine. A nil cache disables snapshot caching.
func NewCertificateService(
	certificates repository.CertificateRepository,
	users repository.UserRepository,
	materials repository.MaterialRepository,
	access CourseAccess,
	completion CompletionSource,
	notifier NotificationPublisher,
	activity ActivityRecorder,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) CertificateService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &certificateService{
		certificates: certificates,
		users:        users,
		materials:    materials,
		access:       access,
		completion:   completion,
		notifier:     notifier,
		activity:     activity,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger.With().Str("component", "certificate_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/ajarin-go-api/internal/service/certificate"),
		now:          time.Now,
	}
}

func (s *certificateService) CheckEligibility(ctx context.Context, userID, courseID uint) (dto.EligibilityResponse, error) {
	eligibility, _, err := s.evaluate(ctx, userID, courseID)
	return eligibility, err
}

// evaluate applies the reasons in priority order and returns the course membership it resolved.
func (s *certificateService) evaluate(ctx context.Context, userID, courseID uint) (dto.EligibilityResponse, Membership, error) {
	membership, found, err := s.access.Membership(ctx, userID, courseID)
	if err != nil {
		return dto.EligibilityResponse{}, Membership{}, err
	}
	if !found || !membership.Enrolled {
		return dto.EligibilityResponse{Reason: dto.EligibilityNotEnrolled}, membership, nil
	}

	completion, err := s.completion.ComputeCourseCompletion(ctx, userID, courseID)
	if err != nil {
		return dto.EligibilityResponse{}, Membership{}, err
	}

	existing, err := s.certificates.GetByUserAndCourse(ctx, userID, courseID)
	switch {
	case err == nil && existing.IsActive():
		return dto.EligibilityResponse{
			Reason:               dto.EligibilityAlreadyClaimed,
			CompletionPercentage: completion.Percentage,
		}, membership, nil
	case err == nil:
		return dto.EligibilityResponse{
			Reason:               dto.EligibilityRevoked,
			CompletionPercentage: completion.Percentage,
		}, membership, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.EligibilityResponse{}, Membership{}, err
	}

	if completion.Percentage == 100 {
		return dto.EligibilityResponse{
			Eligible:             true,
			Reason:               dto.EligibilityEligible,
			CompletionPercentage: completion.Percentage,
		}, membership, nil
	}

	return dto.EligibilityResponse{
		Reason:               dto.EligibilityIncomplete,
		CompletionPercentage: completion.Percentage,
	}, membership, nil
}

func (s *certificateService) Generate(ctx context.Context, userID, courseID uint) (dto.CertificateGenerateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.generate", trace.WithAttributes(
		attribute.Int64("certificate.user_id", int64(userID)),
		attribute.Int64("certificate.course_id", int64(courseID)),
	))
	defer span.End()

	eligibility, membership, err := s.evaluate(ctx, userID, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.CertificateGenerateResponse{}, err
	}
	span.SetAttributes(attribute.String("certificate.reason", eligibility.Reason))

	switch eligibility.Reason {
	case dto.EligibilityNotEnrolled:
		return dto.CertificateGenerateResponse{}, ErrNotEnrolled
	case dto.EligibilityIncomplete:
		return dto.CertificateGenerateResponse{}, &CourseIncompleteError{Percentage: eligibility.CompletionPercentage}
	case dto.EligibilityRevoked:
		return dto.CertificateGenerateResponse{}, ErrCertificateRevoked
	case dto.EligibilityAlreadyClaimed:
		existing, err := s.certificates.GetByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			span.RecordError(err)
			return dto.CertificateGenerateResponse{}, err
		}
		return dto.CertificateGenerateResponse{
			Certificate: dto.NewCertificateResponse(existing),
			Reason:      dto.EligibilityAlreadyClaimed,
		}, nil
	}

	recipient, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CertificateGenerateResponse{}, ErrUserNotFound
		}
		return dto.CertificateGenerateResponse{}, err
	}

	materialCount, err := s.materials.CountByCourse(ctx, courseID)
	if err != nil {
		return dto.CertificateGenerateResponse{}, err
	}

	now := s.now()
	course := membership.Course
	candidate := models.Certificate{
		PublicID:             uuid.NewString(),
		CertificateNumber:    newCertificateNumber(now),
		UserID:               userID,
		CourseID:             courseID,
		RecipientName:        recipient.Name,
		CourseTitle:          course.Title,
		CourseCategory:       course.Category,
		MentorName:           course.Mentor.Name,
		MaterialCount:        int(materialCount),
		DurationHours:        models.EstimatedDurationHours(int(materialCount)),
		CompletionPercentage: eligibility.CompletionPercentage,
		CompletionDate:       now,
		IssuedAt:             now,
		Status:               models.CertificateStatusActive,
	}

	stored, created, err := s.certificates.CreateIfAbsent(ctx, &candidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.CertificateGenerateResponse{}, err
	}

	if !created {
		if !stored.IsActive() {
			return dto.CertificateGenerateResponse{}, ErrCertificateRevoked
		}
		return dto.CertificateGenerateResponse{
			Certificate: dto.NewCertificateResponse(stored),
			Reason:      dto.EligibilityAlreadyClaimed,
		}, nil
	}

	observability.CertificatesIssued().Inc()

	entityID := stored.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    userID,
		ActorRole:  recipient.Role,
		Action:     models.ActivityCertificateIssued,
		EntityType: "certificate",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"course_id":          courseID,
			"certificate_number": stored.CertificateNumber,
		},
	})

	if s.notifier != nil {
		if _, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  userID,
			Type:    models.NotificationCertificateIssued,
			Message: "Your certificate for " + stored.CourseTitle + " is ready",
			Data: map[string]interface{}{
				"certificate_id": stored.ID,
				"public_id":      stored.PublicID,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Uint("certificate_id", stored.ID).Msg("failed to notify certificate issuance")
		}
	}

	s.logger.Info().
		Uint("certificate_id", stored.ID).
		Uint("user_id", userID).
		Uint("course_id", courseID).
		Msg("certificate issued")

	return dto.CertificateGenerateResponse{
		Certificate: dto.NewCertificateResponse(stored),
		Reason:      dto.EligibilityEligible,
		Created:     true,
	}, nil
}

func (s *certificateService) GetPublic(ctx context.Context, publicID string) (dto.PublicCertificateResponse, error) {
	snapshot, err := s.lookup(ctx, publicID)
	if err != nil {
		return dto.PublicCertificateResponse{}, err
	}

	if err := s.certificates.IncrementCounter(ctx, snapshot.ID, "view_count"); err != nil {
		return dto.PublicCertificateResponse{}, err
	}

	return snapshot.Public, nil
}

func (s *certificateService) RecordDownload(ctx context.Context, publicID string) (dto.PublicCertificateResponse, error) {
	snapshot, err := s.lookup(ctx, publicID)
	if err != nil {
		return dto.PublicCertificateResponse{}, err
	}
	if !snapshot.Public.Valid {
		return dto.PublicCertificateResponse{}, ErrCertificateRevoked
	}

	if err := s.certificates.IncrementCounter(ctx, snapshot.ID, "download_count"); err != nil {
		return dto.PublicCertificateResponse{}, err
	}

	return snapshot.Public, nil
}

func (s *certificateService) ListMine(ctx context.Context, userID uint) ([]dto.CertificateResponse, error) {
	certificates, err := s.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CertificateResponse, 0, len(certificates))
	for _, certificate := range certificates {
		responses = append(responses, dto.NewCertificateResponse(certificate))
	}
	return responses, nil
}

func (s *certificateService) Revoke(ctx context.Context, actor ActivityActor, certificateID uint) (dto.CertificateResponse, error) {
	certificate, err := s.certificates.GetByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CertificateResponse{}, ErrCertificateNotFound
		}
		return dto.CertificateResponse{}, err
	}

	if normalizeActorRole(actor.Role) != models.RoleAdmin {
		if _, err := s.access.RequireOwner(ctx, actor.ID, certificate.CourseID); err != nil {
			return dto.CertificateResponse{}, err
		}
	}

	if certificate.Status == models.CertificateStatusRevoked {
		return dto.NewCertificateResponse(certificate), nil
	}

	revokedAt := s.now()
	certificate.Status = models.CertificateStatusRevoked
	certificate.RevokedAt = &revokedAt
	if err := s.certificates.Update(ctx, &certificate); err != nil {
		return dto.CertificateResponse{}, err
	}

	s.invalidate(ctx, certificate.PublicID)

	entityID := certificate.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.ActivityCertificateRevoked,
		EntityType: "certificate",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"course_id": certificate.CourseID,
			"user_id":   certificate.UserID,
		},
	})

	return dto.NewCertificateResponse(certificate), nil
}

func (s *certificateService) lookup(ctx context.Context, publicID string) (cachedCertificate, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return cachedCertificate{}, ErrCertificateNotFound
	}

	key := certificateCachePrefix + publicID
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			var snapshot cachedCertificate
			if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
				observability.CertificateCacheLookups().WithLabelValues("hit").Inc()
				return snapshot, nil
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read certificate cache")
		}
	}

	certificate, err := s.certificates.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cachedCertificate{}, ErrCertificateNotFound
		}
		return cachedCertificate{}, err
	}

	snapshot := cachedCertificate{ID: certificate.ID, Public: dto.NewPublicCertificateResponse(certificate)}
	if s.cache != nil {
		observability.CertificateCacheLookups().WithLabelValues("miss").Inc()
		if payload, err := json.Marshal(snapshot); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write certificate cache")
			}
		}
	}

	return snapshot, nil
}

func (s *certificateService) invalidate(ctx context.Context, publicID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, certificateCachePrefix+publicID).Err(); err != nil {
		s.logger.Warn().Err(err).Str("public_id", publicID).Msg("failed to invalidate certificate cache")
	}
}

func newCertificateNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("AJARIN-%s-%s", at.UTC().Format("20060102"), suffix)
}
