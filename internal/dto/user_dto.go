package dto

import (
	"time"

	"github.com/campushub/activity-portal-api/internal/models"
)

// UserUpdateRequest is the superadmin payload for directory edits. Absent
// fields are left untouched.
type UserUpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Role       *string `json:"role" validate:"omitempty,oneof=student teacher superadmin"`
	Department *string `json:"department" validate:"omitempty,max=128"`
	Class      *string `json:"class" validate:"omitempty,max=64"`
	Semester   *int    `json:"semester" validate:"omitempty,gte=1,lte=10"`
	RollNumber *string `json:"roll_number" validate:"omitempty,max=64"`
}

// UserResponse serializes a directory entry without credential material.
type UserResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Class      string    `json:"class,omitempty"`
	Semester   *int      `json:"semester,omitempty"`
	RollNumber string    `json:"roll_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role.String(),
		Department: user.Department,
		Class:      user.Class,
		Semester:   user.Semester,
		RollNumber: user.RollNumber,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// NewUserResponseSlice converts user models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}

	return responses
}
