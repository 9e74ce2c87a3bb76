package models

import (
	"github.com/buildledger/backend/internal/domain/project"
	"github.com/google/uuid"
)

// ProjectModel is the persistence model for the Project aggregate root.
type ProjectModel struct {
	AggregateModel
	Name     string                `gorm:"type:varchar(200);not null;index"`
	Client   string                `gorm:"type:varchar(200)"`
	Status   project.ProjectStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Address  string                `gorm:"type:varchar(500)"`
	Archived bool                  `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project.
func (m *ProjectModel) ToDomain() *project.Project {
	p := &project.Project{
		Name:     m.Name,
		Client:   m.Client,
		Status:   m.Status,
		Address:  m.Address,
		Archived: m.Archived,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	return p
}

// ProjectModelFromDomain builds the persistence model from a domain Project.
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{
		Name:     p.Name,
		Client:   p.Client,
		Status:   p.Status,
		Address:  p.Address,
		Archived: p.Archived,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// SubProjectModel is the persistence model for a sub-project.
type SubProjectModel struct {
	BaseModel
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Archived  bool      `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (SubProjectModel) TableName() string {
	return "sub_projects"
}

// ToDomain converts the persistence model to a domain SubProject.
func (m *SubProjectModel) ToDomain() *project.SubProject {
	return &project.SubProject{
		BaseEntity: m.BaseModel.ToDomain(),
		ProjectID:  m.ProjectID,
		Name:       m.Name,
		Archived:   m.Archived,
	}
}

// SubProjectModelFromDomain builds the persistence model from a domain
// SubProject.
func SubProjectModelFromDomain(sp *project.SubProject) *SubProjectModel {
	m := &SubProjectModel{
		ProjectID: sp.ProjectID,
		Name:      sp.Name,
		Archived:  sp.Archived,
	}
	m.FromDomainBaseEntity(sp.BaseEntity)
	return m
}
