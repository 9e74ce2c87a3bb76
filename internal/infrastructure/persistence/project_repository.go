package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildledger/backend/internal/domain/project"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/buildledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.Repository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by its ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds projects matching the filter
func (r *GormProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*project.Project, error) {
	var projectModels []models.ProjectModel
	query := r.db.WithContext(ctx).Model(&models.ProjectModel{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&projectModels).Error; err != nil {
		return nil, err
	}
	projects := make([]*project.Project, len(projectModels))
	for i := range projectModels {
		projects[i] = projectModels[i].ToDomain()
	}
	return projects, nil
}

// Count counts projects matching the filter
func (r *GormProjectRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProjectModel{})
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(name LIKE ? OR client LIKE ?)", searchPattern, searchPattern)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	model := models.ProjectModelFromDomain(p)
	return r.db.WithContext(ctx).Save(model).Error
}

// Exists reports whether a project with the given ID exists
func (r *GormProjectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(name LIKE ? OR client LIKE ?)", searchPattern, searchPattern)
	}

	sortField := ValidateSortField(filter.OrderBy, ProjectSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}
	return query
}

// GormSubProjectRepository implements project.SubProjectRepository using GORM
type GormSubProjectRepository struct {
	db *gorm.DB
}

// NewGormSubProjectRepository creates a new GormSubProjectRepository
func NewGormSubProjectRepository(db *gorm.DB) *GormSubProjectRepository {
	return &GormSubProjectRepository{db: db}
}

// FindByID finds a sub-project by its ID
func (r *GormSubProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.SubProject, error) {
	var model models.SubProjectModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProject finds all sub-projects under a project
func (r *GormSubProjectRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*project.SubProject, error) {
	var subModels []models.SubProjectModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&subModels).Error; err != nil {
		return nil, err
	}
	subs := make([]*project.SubProject, len(subModels))
	for i := range subModels {
		subs[i] = subModels[i].ToDomain()
	}
	return subs, nil
}

// Save creates or updates a sub-project
func (r *GormSubProjectRepository) Save(ctx context.Context, sp *project.SubProject) error {
	model := models.SubProjectModelFromDomain(sp)
	return r.db.WithContext(ctx).Save(model).Error
}

// Exists reports whether a sub-project with the given ID exists
func (r *GormSubProjectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SubProjectModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
