package models

import "time"

// User is a member of the institution directory. Only students carry a roll
// number and semester; registration and directory updates clear both for the
// other roles.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:32;not null;index" json:"role"`
	Department   string    `gorm:"size:128;index" json:"department"`
	Class        string    `gorm:"size:64" json:"class,omitempty"`
	Semester     *int      `json:"semester,omitempty"`
	RollNumber   string    `gorm:"size:64" json:"roll_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsStudent reports whether the user holds the student role.
func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

// NormalizeRoleFields clears student-only attributes on non-student users.
func (u *User) NormalizeRoleFields() {
	if u.Role != RoleStudent {
		u.RollNumber = ""
		u.Semester = nil
	}
}
