package dto

import (
	"time"

	"github.com/campushub/activity-portal-api/internal/models"
)

// ActivitySubmitRequest describes the multipart payload for a certificate
// submission. The certificate file itself travels alongside as a form file.
type ActivitySubmitRequest struct {
	ActivityType   string    `form:"activity_type" validate:"required,oneof=Sports Cultural Technical 'Professional Development' 'Community Service' Other"`
	Title          string    `form:"title" validate:"required,min=3,max=255"`
	Description    string    `form:"description" validate:"required,min=3"`
	Date           time.Time `form:"date" validate:"required"`
	EventOrganizer string    `form:"event_organizer" validate:"max=255"`
	Level          int       `form:"level" validate:"omitempty,gte=1,lte=5"`
}

// ActivityReviewRequest applies the approve/reject transition.
type ActivityReviewRequest struct {
	Status        string `json:"status" validate:"required,oneof=approved rejected"`
	PointsAwarded int    `json:"points_awarded" validate:"gte=0"`
	Feedback      string `json:"feedback" validate:"max=2000"`
}

// StatusCounts summarizes activities by review state.
type StatusCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// PendingActivitiesResponse carries the pending queue plus scope statistics.
type PendingActivitiesResponse struct {
	Stats      StatusCounts       `json:"stats"`
	Activities []ActivityResponse `json:"activities"`
}

// ActivityResponse is returned to API clients when viewing activities.
type ActivityResponse struct {
	ID                uint       `json:"id"`
	StudentID         uint       `json:"student_id"`
	ActivityType      string     `json:"activity_type"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Date              time.Time  `json:"date"`
	EventOrganizer    string     `json:"event_organizer"`
	Level             int        `json:"level"`
	CertificateURL    string     `json:"certificate_url"`
	StudentClass      string     `json:"student_class"`
	StudentDepartment string     `json:"student_department"`
	Status            string     `json:"status"`
	PointsAwarded     int        `json:"points_awarded"`
	Feedback          string     `json:"feedback"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	Student           *UserLite  `json:"student,omitempty"`
	ReviewedBy        *UserLite  `json:"reviewed_by,omitempty"`
}

// UserLite summarizes a user without exposing full profile data.
type UserLite struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	RollNumber string `json:"roll_number,omitempty"`
	Class      string `json:"class,omitempty"`
	Department string `json:"department,omitempty"`
	Semester   *int   `json:"semester,omitempty"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	response := ActivityResponse{
		ID:                model.ID,
		StudentID:         model.StudentID,
		ActivityType:      model.ActivityType,
		Title:             model.Title,
		Description:       model.Description,
		Date:              model.Date,
		EventOrganizer:    model.EventOrganizer,
		Level:             model.Level,
		CertificateURL:    model.CertificateURL,
		StudentClass:      model.StudentClass,
		StudentDepartment: model.StudentDepartment,
		Status:            model.Status,
		PointsAwarded:     model.PointsAwarded,
		Feedback:          model.Feedback,
		ReviewedAt:        model.ReviewedAt,
		CreatedAt:         model.CreatedAt,
	}

	if model.Student.ID != 0 {
		response.Student = &UserLite{
			ID:         model.Student.ID,
			Name:       model.Student.Name,
			Email:      model.Student.Email,
			Role:       model.Student.Role.String(),
			RollNumber: model.Student.RollNumber,
			Class:      model.Student.Class,
			Department: model.Student.Department,
			Semester:   model.Student.Semester,
		}
	}

	if model.ReviewedBy != nil && model.ReviewedBy.ID != 0 {
		response.ReviewedBy = &UserLite{
			ID:    model.ReviewedBy.ID,
			Name:  model.ReviewedBy.Name,
			Email: model.ReviewedBy.Email,
			Role:  model.ReviewedBy.Role.String(),
		}
	}

	return response
}

// NewActivityResponseSlice converts activity models into DTOs.
func NewActivityResponseSlice(activities []models.Activity) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}

	return responses
}
