package state

import "github.com/shopspring/decimal"

// ProjectStatus represents the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Valid reports whether the status is one of the known statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

// Project mirrors a server-side project. The fetch path populates id, name,
// description and timestamps and unconditionally defaults Status to active;
// ProfileID, Budget, dates, Content and Metrics exist for richer flows but
// are not returned by the projects service today.
type Project struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ProfileID   string             `json:"profile_id,omitempty"`
	Status      ProjectStatus      `json:"status"`
	Budget      *decimal.Decimal   `json:"budget,omitempty"`
	StartDate   string             `json:"start_date,omitempty"`
	EndDate     string             `json:"end_date,omitempty"`
	Content     string             `json:"content,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
}
