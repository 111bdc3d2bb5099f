package models

import "time"

// Job is a listing published by a recruiter.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"jobTitle"`
	Location        string    `json:"jobLocation"`
	WorkingTime     string    `json:"workingTime"`
	SeniorityLevel  string    `json:"seniorityLevel"`
	Description     string    `json:"jobDescription"`
	TechnicalSkills []string  `json:"technicalSkills"`
	SoftSkills      []string  `json:"softSkills"`
	AddedBy         string    `json:"addedBy"`
	UpdatedBy       string    `json:"updatedBy,omitempty"`
	CompanyID       string    `json:"company,omitempty"`
	Closed          bool      `json:"closed"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Application statuses.
const (
	ApplicationPending         = "pending"
	ApplicationAccepted        = "accepted"
	ApplicationViewed          = "viewed"
	ApplicationInConsideration = "in consideration"
	ApplicationRejected        = "rejected"
)

// applicationStage orders statuses. Accepted and rejected are final.
var applicationStage = map[string]int{
	ApplicationPending:         0,
	ApplicationViewed:          1,
	ApplicationInConsideration: 2,
	ApplicationAccepted:        3,
	ApplicationRejected:        3,
}

// ValidApplicationStatus reports whether status is a known status name.
func ValidApplicationStatus(status string) bool {
	_, ok := applicationStage[status]
	return ok
}

// CanTransition reports whether an application may move from one status to
// another. Statuses only move forward and a decided application is frozen.
func CanTransition(from, to string) bool {
	f, okFrom := applicationStage[from]
	t, okTo := applicationStage[to]
	return okFrom && okTo && t > f
}

// Application is a user's application to a job.
type Application struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
