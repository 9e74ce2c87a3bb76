package project

import (
	"context"

	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the persistence surface for projects
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Project, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, p *Project) error
	// Exists reports whether a project with the given ID exists.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// SubProjectRepository defines the persistence surface for sub-projects
type SubProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SubProject, error)
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]*SubProject, error)
	Save(ctx context.Context, sp *SubProject) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
