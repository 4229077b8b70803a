package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/repository"
	"github.com/campushub/activity-portal-api/internal/scope"
)

// ReportService aggregates per-student activity statistics.
type ReportService interface {
	Generate(ctx context.Context, requester scope.Identity, filter dto.ReportFilter) (dto.ReportResponse, error)
	Export(ctx context.Context, requester scope.Identity, filter dto.ReportFilter) ([]byte, error)
}

type reportService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReportService constructs a ReportService instance. The cache client may
// be nil, in which case every request aggregates from the store.
func NewReportService(users repository.UserRepository, activities repository.ActivityRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) ReportService {
	return &reportService{
		users:      users,
		activities: activities,
		cache:      cache,
		cacheTTL:   ttl,
		validator:  validate,
		logger:     logger.With().Str("component", "report_service").Logger(),
		now:        time.Now,
	}
}

func (s *reportService) Generate(ctx context.Context, requester scope.Identity, filter dto.ReportFilter) (dto.ReportResponse, error) {
	tracer := otel.Tracer("github.com/campushub/activity-portal-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.aggregate")
	defer span.End()

	if err := s.validator.Struct(filter); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReportResponse{}, err
	}

	// Teachers without an explicit department filter report on their own.
	if requester.Role == models.RoleTeacher && filter.Department == "" {
		filter.Department = requester.Department
	}

	cacheKey := reportCacheKey(filter)
	span.SetAttributes(attribute.String("report.cache_key", cacheKey))

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.ReportResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("report.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
			span.RecordError(err)
		}
	}

	role := models.RoleStudent
	students, err := s.users.List(ctx, repository.UserFilter{
		Role:       &role,
		Department: filter.Department,
		Semester:   filter.Semester,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_students_failed")
		return dto.ReportResponse{}, err
	}

	ids := make([]uint, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}

	activities, err := s.activities.List(ctx, repository.ActivityFilter{
		Scope:  scope.Scope{StudentIDs: ids},
		Status: filter.Status,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_activities_failed")
		return dto.ReportResponse{}, err
	}

	response := s.buildReport(students, activities)
	span.SetAttributes(
		attribute.Int("report.student_count", len(students)),
		attribute.Int("report.activity_count", len(activities)),
	)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

// buildReport groups activities per student. The student list arrives sorted
// by name then ID from the repository, which fixes the output order
// regardless of store iteration order.
func (s *reportService) buildReport(students []models.User, activities []models.Activity) dto.ReportResponse {
	byStudent := make(map[uint][]models.Activity, len(students))
	for _, activity := range activities {
		byStudent[activity.StudentID] = append(byStudent[activity.StudentID], activity)
	}

	rows := make([]dto.StudentReportRow, 0, len(students))
	for _, student := range students {
		row := dto.StudentReportRow{
			Student: dto.UserLite{
				ID:         student.ID,
				Name:       student.Name,
				Email:      student.Email,
				Role:       student.Role.String(),
				RollNumber: student.RollNumber,
				Class:      student.Class,
				Department: student.Department,
				Semester:   student.Semester,
			},
		}

		for _, activity := range byStudent[student.ID] {
			row.TotalActivities++
			switch activity.Status {
			case models.ActivityStatusApproved:
				row.ApprovedActivities++
			case models.ActivityStatusPending:
				row.PendingActivities++
			case models.ActivityStatusRejected:
				row.RejectedActivities++
			}
			// Non-approved activities always carry zero points, so the sum
			// needs no status filter.
			row.TotalPoints += activity.PointsAwarded
		}

		rows = append(rows, row)
	}

	return dto.ReportResponse{
		Count:       len(rows),
		Rows:        rows,
		GeneratedAt: s.now().UTC(),
	}
}

// Export renders the report as an xlsx workbook.
func (s *reportService) Export(ctx context.Context, requester scope.Identity, filter dto.ReportFilter) ([]byte, error) {
	report, err := s.Generate(ctx, requester, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{"Name", "Roll Number", "Class", "Semester", "Department", "Total", "Approved", "Pending", "Rejected", "Points"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, row := range report.Rows {
		semester := ""
		if row.Student.Semester != nil {
			semester = fmt.Sprintf("%d", *row.Student.Semester)
		}
		values := []interface{}{
			row.Student.Name,
			row.Student.RollNumber,
			row.Student.Class,
			semester,
			row.Student.Department,
			row.TotalActivities,
			row.ApprovedActivities,
			row.PendingActivities,
			row.RejectedActivities,
			row.TotalPoints,
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func reportCacheKey(filter dto.ReportFilter) string {
	semester := "-"
	if filter.Semester != nil {
		semester = fmt.Sprintf("%d", *filter.Semester)
	}
	status := filter.Status
	if status == "" {
		status = "-"
	}
	department := filter.Department
	if department == "" {
		department = "-"
	}

	return fmt.Sprintf("report:%s:%s:%s", department, semester, status)
}
