package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/scope"
)

// ActivityFilter narrows activity queries. The scope is mandatory: an empty
// eligible set yields no rows rather than all rows.
type ActivityFilter struct {
	Scope  scope.Scope
	Status string
}

// StatusTally counts activities per review state inside a scope.
type StatusTally struct {
	Pending  int64
	Approved int64
	Rejected int64
}

// ReviewUpdate is the full set of columns a review transition writes. It is
// applied as a single guarded UPDATE so no partial-review state is ever
// observable and a terminal activity cannot be reviewed again.
type ReviewUpdate struct {
	Status        string
	PointsAwarded int
	Feedback      string
	ReviewedByID  uint
	ReviewedAt    time.Time
}

// ActivityRepository defines data operations for activity records.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error)
	CountByStatus(ctx context.Context, visible scope.Scope) (StatusTally, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
	ApplyReview(ctx context.Context, id uint, update ReviewUpdate) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Activity{}).
		Preload("Student").
		Preload("ReviewedBy")
}

func applyScope(query *gorm.DB, visible scope.Scope) *gorm.DB {
	if visible.Unrestricted {
		return query
	}
	return query.Where("student_id IN ?", visible.StudentIDs)
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.baseQuery(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error) {
	query := applyScope(r.baseQuery(ctx), filter.Scope)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var activities []models.Activity
	if err := query.Order("created_at DESC, id DESC").Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) CountByStatus(ctx context.Context, visible scope.Scope) (StatusTally, error) {
	type row struct {
		Status string
		Total  int64
	}

	query := applyScope(r.db.WithContext(ctx).Model(&models.Activity{}), visible)

	var rows []row
	if err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return StatusTally{}, err
	}

	var tally StatusTally
	for _, entry := range rows {
		switch entry.Status {
		case models.ActivityStatusPending:
			tally.Pending = entry.Total
		case models.ActivityStatusApproved:
			tally.Approved = entry.Total
		case models.ActivityStatusRejected:
			tally.Rejected = entry.Total
		}
	}

	return tally, nil
}

func (r *activityRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("student_id = ?", studentID).
		Count(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}

// ApplyReview writes all transition columns in one guarded UPDATE. The status
// guard makes a second review of a terminal activity touch zero rows; the
// returned count lets the caller distinguish that from success.
func (r *activityRepository) ApplyReview(ctx context.Context, id uint, update ReviewUpdate) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", id).
		Where("status = ?", models.ActivityStatusPending).
		Updates(map[string]interface{}{
			"status":         update.Status,
			"points_awarded": update.PointsAwarded,
			"feedback":       update.Feedback,
			"reviewed_by_id": update.ReviewedByID,
			"reviewed_at":    update.ReviewedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
