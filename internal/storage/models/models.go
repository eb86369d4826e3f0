package models

import "time"

// Assessment lifecycle states. Finalization is the only transition to
// COMPLETED.
const (
	StatusDraft      = "DRAFT"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Assessment is one filled-in instance of the questionnaire. Score
// columns and ResultsJSON stay zero-valued until finalization freezes
// them.
type Assessment struct {
	ID         string `json:"id"`
	TeamName   string `json:"team_name"`
	Email      string `json:"email,omitempty"`
	Company    string `json:"company,omitempty"`
	Consultant string `json:"consultant,omitempty"`
	Status     string `json:"status"`

	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletionDate  *time.Time `json:"completion_date,omitempty"`
	DurationMinutes int        `json:"assessment_duration_minutes,omitempty"`
	IPAddress       string     `json:"-"`
	UserAgent       string     `json:"-"`

	OverallScore        float64 `json:"overall_score"`
	FoundationalScore   float64 `json:"foundational_score"`
	TransformationScore float64 `json:"transformation_score"`
	EnterpriseScore     float64 `json:"enterprise_score"`
	GovernanceScore     float64 `json:"governance_score"`
	Classification      string  `json:"deviq_classification,omitempty"`
	ResultsJSON         string  `json:"-"`
}

// Response is one answered question. At most one row exists per
// (assessment, question); rewrites update in place.
type Response struct {
	ID                  int64     `json:"id"`
	AssessmentID        string    `json:"assessment_id"`
	QuestionID          string    `json:"question_id"`
	Score               int       `json:"score"`
	Notes               string    `json:"notes,omitempty"`
	ResponseTimeSeconds int       `json:"response_time_seconds,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ListFilters narrows assessment listings.
type ListFilters struct {
	Status string
	Limit  int
	Offset int
}

// AssessmentStats is the aggregate view served by the stats endpoint.
type AssessmentStats struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"by_status"`
	ByClassification map[string]int `json:"by_classification"`
	AvgOverallScore  float64        `json:"avg_overall_score"`
}
