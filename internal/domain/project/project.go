// Package project holds the minimal job-tracking surface the finance core
// depends on: projects and sub-projects as cost-attribution targets. The
// budget/work/change-order workflow itself lives elsewhere.
package project

import (
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "ACTIVE"
	ProjectStatusOnHold   ProjectStatus = "ON_HOLD"
	ProjectStatusFinished ProjectStatus = "FINISHED"
)

// IsValid checks if the status is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusOnHold, ProjectStatusFinished:
		return true
	}
	return false
}

// Project is a construction job costs can be attributed to
type Project struct {
	shared.BaseAggregateRoot
	Name     string        `json:"name"`
	Client   string        `json:"client"`
	Status   ProjectStatus `json:"status"`
	Address  string        `json:"address"`
	Archived bool          `json:"archived"`
}

// NewProject creates a new active project
func NewProject(name, client, address string) (*Project, error) {
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "Project name cannot be empty")
	}
	return &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Client:            client,
		Status:            ProjectStatusActive,
		Address:           address,
	}, nil
}

// SubProject is a phase or work package within a project
type SubProject struct {
	shared.BaseEntity
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
}

// NewSubProject creates a new sub-project under a project
func NewSubProject(projectID uuid.UUID, name string) (*SubProject, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Project ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "Sub-project name cannot be empty")
	}
	return &SubProject{
		BaseEntity: shared.NewBaseEntity(),
		ProjectID:  projectID,
		Name:       name,
	}, nil
}
