package dto

import "github.com/campushub/activity-portal-api/internal/models"

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required,oneof=student teacher superadmin"`
	Department string `json:"department" validate:"required_unless=Role superadmin,max=128"`
	Class      string `json:"class" validate:"max=64"`
	Semester   *int   `json:"semester" validate:"omitempty,gte=1,lte=10"`
	RollNumber string `json:"roll_number" validate:"max=64"`
}

// LoginRequest is the payload for credential verification.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries a signed token alongside the profile it represents.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewAuthResponse bundles a token with the serialized user.
func NewAuthResponse(token string, user models.User) AuthResponse {
	return AuthResponse{Token: token, User: NewUserResponse(user)}
}
