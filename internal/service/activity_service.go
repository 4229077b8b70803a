package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/repository"
	"github.com/campushub/activity-portal-api/internal/scope"
)

// ErrActivityNotFound indicates the activity could not be located.
var ErrActivityNotFound = errors.New("activity not found")

// ErrActivityNotInScope indicates the activity exists but the requester's
// scope does not cover its owner. Handlers respond to it exactly like
// ErrActivityNotFound so out-of-scope records are not revealed.
var ErrActivityNotInScope = errors.New("activity not in requester scope")

// ErrActivityAlreadyReviewed indicates the activity already left the pending
// state; terminal states accept no further transition.
var ErrActivityAlreadyReviewed = errors.New("activity already reviewed")

// ErrCertificateRequired indicates a submission arrived without a certificate.
var ErrCertificateRequired = errors.New("certificate file is required")

// ErrStudentNotFound indicates the owning student record is missing.
var ErrStudentNotFound = errors.New("student not found")

// ActivityService orchestrates the submit and review workflows plus the
// scoped listings around them.
type ActivityService interface {
	Submit(ctx context.Context, requester scope.Identity, payload dto.ActivitySubmitRequest, file *multipart.FileHeader) (dto.ActivityResponse, error)
	ListOwn(ctx context.Context, requester scope.Identity) ([]dto.ActivityResponse, error)
	ListPending(ctx context.Context, requester scope.Identity) (dto.PendingActivitiesResponse, error)
	ListAll(ctx context.Context, requester scope.Identity, status string) ([]dto.ActivityResponse, error)
	Review(ctx context.Context, requester scope.Identity, activityID uint, payload dto.ActivityReviewRequest) (dto.ActivityResponse, error)
}

type activityService struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	resolver   *scope.Resolver
	validator  *validator.Validate
	uploader   FileUploader
	audit      AuditRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewActivityService constructs an ActivityService instance.
func NewActivityService(activities repository.ActivityRepository, users repository.UserRepository, resolver *scope.Resolver, validate *validator.Validate, uploader FileUploader, audit AuditRecorder, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		users:      users,
		resolver:   resolver,
		validator:  validate,
		uploader:   uploader,
		audit:      audit,
		logger:     logger.With().Str("component", "activity_service").Logger(),
		now:        time.Now,
	}
}

func (s *activityService) Submit(ctx context.Context, requester scope.Identity, payload dto.ActivitySubmitRequest, file *multipart.FileHeader) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ActivityResponse{}, err
	}

	if file == nil {
		return dto.ActivityResponse{}, ErrCertificateRequired
	}

	if err := validateCertificateType(file); err != nil {
		return dto.ActivityResponse{}, err
	}

	owner, err := s.users.GetByID(ctx, requester.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrStudentNotFound
		}
		return dto.ActivityResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.ActivityResponse{}, fmt.Errorf("failed to open certificate: %w", err)
	}
	defer reader.Close()

	artifact, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.ActivityResponse{}, fmt.Errorf("failed to store certificate: %w", err)
	}

	organizer := payload.EventOrganizer
	if organizer == "" {
		organizer = "Not specified"
	}

	level := payload.Level
	if level == 0 {
		level = 1
	}

	activity := models.Activity{
		StudentID:      owner.ID,
		ActivityType:   payload.ActivityType,
		Title:          payload.Title,
		Description:    payload.Description,
		Date:           payload.Date,
		EventOrganizer: organizer,
		Level:          level,
		CertificateURL: artifact.URL,
		CertificateID:  artifact.PublicID,
		// Placement snapshot at submission time. Display only; authorization
		// always re-reads the live user record.
		StudentClass:      owner.Class,
		StudentDepartment: owner.Department,
		Status:            models.ActivityStatusPending,
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		s.releaseArtifact(ctx, artifact)
		return dto.ActivityResponse{}, err
	}

	activity.Student = owner

	s.logger.Info().
		Uint("activity_id", activity.ID).
		Uint("student_id", owner.ID).
		Str("activity_type", activity.ActivityType).
		Msg("activity submitted")

	return dto.NewActivityResponse(activity), nil
}

// releaseArtifact is the compensating cleanup for a failed record commit.
// Best effort: a cleanup failure is logged and never propagated.
func (s *activityService) releaseArtifact(ctx context.Context, artifact Artifact) {
	if err := s.uploader.Delete(ctx, artifact.PublicID); err != nil {
		s.logger.Warn().Err(err).Str("public_id", artifact.PublicID).Msg("failed to release orphaned certificate")
	}
}

func (s *activityService) ListOwn(ctx context.Context, requester scope.Identity) ([]dto.ActivityResponse, error) {
	visible, err := s.resolver.Resolve(ctx, requester)
	if err != nil {
		return nil, err
	}

	activities, err := s.activities.List(ctx, repository.ActivityFilter{Scope: visible})
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *activityService) ListPending(ctx context.Context, requester scope.Identity) (dto.PendingActivitiesResponse, error) {
	visible, err := s.resolver.Resolve(ctx, requester)
	if err != nil {
		return dto.PendingActivitiesResponse{}, err
	}

	activities, err := s.activities.List(ctx, repository.ActivityFilter{
		Scope:  visible,
		Status: models.ActivityStatusPending,
	})
	if err != nil {
		return dto.PendingActivitiesResponse{}, err
	}

	tally, err := s.activities.CountByStatus(ctx, visible)
	if err != nil {
		return dto.PendingActivitiesResponse{}, err
	}

	return dto.PendingActivitiesResponse{
		Stats: dto.StatusCounts{
			Pending:  tally.Pending,
			Approved: tally.Approved,
			Rejected: tally.Rejected,
		},
		Activities: dto.NewActivityResponseSlice(activities),
	}, nil
}

func (s *activityService) ListAll(ctx context.Context, requester scope.Identity, status string) ([]dto.ActivityResponse, error) {
	visible, err := s.resolver.Resolve(ctx, requester)
	if err != nil {
		return nil, err
	}

	activities, err := s.activities.List(ctx, repository.ActivityFilter{
		Scope:  visible,
		Status: status,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewActivityResponseSlice(activities), nil
}

func (s *activityService) Review(ctx context.Context, requester scope.Identity, activityID uint, payload dto.ActivityReviewRequest) (dto.ActivityResponse, error) {
	tracer := otel.Tracer("github.com/campushub/activity-portal-api/internal/service/activity")
	ctx, span := tracer.Start(ctx, "activity.review")
	span.SetAttributes(
		attribute.Int64("review.activity_id", int64(activityID)),
		attribute.Int64("review.reviewer_id", int64(requester.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, err
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "activity_not_found")
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_lookup_failed")
		return dto.ActivityResponse{}, err
	}

	// Authorization re-derives the department from the live user record, not
	// the snapshot on the activity, so department transfers take effect.
	owner, err := s.users.GetByID(ctx, activity.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "owner_not_found")
			return dto.ActivityResponse{}, ErrStudentNotFound
		}
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	if owner.Department != requester.Department {
		span.SetStatus(codes.Error, "department_mismatch")
		return dto.ActivityResponse{}, ErrActivityNotInScope
	}

	points := 0
	if payload.Status == models.ActivityStatusApproved {
		points = payload.PointsAwarded
	}

	rows, err := s.activities.ApplyReview(ctx, activity.ID, repository.ReviewUpdate{
		Status:        payload.Status,
		PointsAwarded: points,
		Feedback:      payload.Feedback,
		ReviewedByID:  requester.ID,
		ReviewedAt:    s.now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "review_update_failed")
		return dto.ActivityResponse{}, err
	}

	if rows == 0 {
		span.SetStatus(codes.Error, "already_reviewed")
		return dto.ActivityResponse{}, ErrActivityAlreadyReviewed
	}

	if s.audit != nil {
		entityID := activity.ID
		_ = s.audit.Record(ctx, AuditEntry{
			ActorID:    requester.ID,
			ActorRole:  requester.Role,
			Action:     "activity.reviewed",
			EntityType: "activity",
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"student_id":     activity.StudentID,
				"status":         payload.Status,
				"points_awarded": points,
			},
		})
	}

	reviewed, err := s.activities.GetByID(ctx, activity.ID)
	if err != nil {
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	span.SetAttributes(
		attribute.String("review.status", reviewed.Status),
		attribute.Int("review.points_awarded", reviewed.PointsAwarded),
	)

	s.logger.Info().
		Uint("activity_id", reviewed.ID).
		Str("status", reviewed.Status).
		Uint("reviewer_id", requester.ID).
		Msg("activity reviewed")

	return dto.NewActivityResponse(reviewed), nil
}

func validateCertificateType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open certificate: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect certificate type: %w", err)
	}

	allowed := []string{"application/pdf", "image/png", "image/jpeg", "image/webp"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported certificate type: %s", mime.String())
}
