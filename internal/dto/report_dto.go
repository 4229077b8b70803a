package dto

import "time"

// ReportFilter narrows the report population. Department defaults to the
// requesting teacher's own department when left empty.
type ReportFilter struct {
	Department string `query:"department" validate:"max=128"`
	Semester   *int   `query:"semester" validate:"omitempty,gte=1,lte=10"`
	Status     string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// StudentReportRow is the per-student aggregate in a generated report.
type StudentReportRow struct {
	Student            UserLite `json:"student"`
	TotalActivities    int      `json:"total_activities"`
	ApprovedActivities int      `json:"approved_activities"`
	PendingActivities  int      `json:"pending_activities"`
	RejectedActivities int      `json:"rejected_activities"`
	TotalPoints        int      `json:"total_points"`
}

// ReportResponse is the full report payload.
type ReportResponse struct {
	Count       int                `json:"count"`
	Rows        []StudentReportRow `json:"rows"`
	GeneratedAt time.Time          `json:"generated_at"`
	CacheHit    bool               `json:"cache_hit"`
}
