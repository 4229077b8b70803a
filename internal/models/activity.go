package models

import "time"

// Activity statuses. Approved and rejected are terminal.
const (
	ActivityStatusPending  = "pending"
	ActivityStatusApproved = "approved"
	ActivityStatusRejected = "rejected"
)

// ActivityTypes is the fixed set of submission categories.
var ActivityTypes = []string{
	"Sports",
	"Cultural",
	"Technical",
	"Professional Development",
	"Community Service",
	"Other",
}

// Activity is a student-submitted extracurricular record awaiting or having
// received review. StudentClass and StudentDepartment are snapshots taken at
// submission time for display and filtering; they are never re-synced when
// the owning student moves, and authorization never reads them.
type Activity struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	StudentID         uint       `gorm:"not null;index" json:"student_id"`
	ActivityType      string     `gorm:"size:64;not null" json:"activity_type"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Description       string     `gorm:"type:text;not null" json:"description"`
	Date              time.Time  `gorm:"not null" json:"date"`
	EventOrganizer    string     `gorm:"size:255;default:'Not specified'" json:"event_organizer"`
	Level             int        `gorm:"not null;default:1" json:"level"`
	CertificateURL    string     `gorm:"size:512;not null" json:"certificate_url"`
	CertificateID     string     `gorm:"size:255" json:"-"`
	StudentClass      string     `gorm:"size:64" json:"student_class"`
	StudentDepartment string     `gorm:"size:128;index" json:"student_department"`
	Status            string     `gorm:"size:32;not null;default:'pending';index" json:"status"`
	PointsAwarded     int        `gorm:"not null;default:0" json:"points_awarded"`
	Feedback          string     `gorm:"type:text" json:"feedback"`
	ReviewedByID      *uint      `json:"reviewed_by_id"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Student           User       `gorm:"foreignKey:StudentID" json:"student"`
	ReviewedBy        *User      `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
}

// IsTerminal reports whether the activity has left the pending state.
func (a Activity) IsTerminal() bool {
	return a.Status != ActivityStatusPending
}

// ValidActivityType reports whether value is one of the fixed categories.
func ValidActivityType(value string) bool {
	for _, t := range ActivityTypes {
		if t == value {
			return true
		}
	}
	return false
}
