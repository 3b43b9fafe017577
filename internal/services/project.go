package services

import (
	"errors"
	"strings"

	"github.com/rsolano/tracklio/backend/internal/authz"
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
	Status   string `form:"status"`
}

// ProjectWithCounts is a project annotated with task aggregates.
type ProjectWithCounts struct {
	models.Project
	TaskCount          int64 `json:"task_count"`
	CompletedTaskCount int64 `json:"completed_task_count"`
}

type ProjectListResponse struct {
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Items    []ProjectWithCounts `json:"items"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

const projectCountSelect = `projects.*,
	(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id) AS task_count,
	(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id AND tasks.status = 'completed') AS completed_task_count`

// List returns the actor's tenant projects with task count aggregates.
// Search matches name and description case-insensitively; status filters
// by exact match.
func (s *ProjectService) List(p authz.Principal, req *ProjectListRequest) (*ProjectListResponse, error) {
	if err := authz.Authorize(p, authz.ActionReadProject, p.TenantID); err != nil {
		return nil, err
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}
	if req.Status != "" && !models.ValidProjectStatus(req.Status) {
		return nil, response.NewBadRequest("status must be one of active, completed, archived")
	}

	query := s.db.Model(&models.Project{}).Where("projects.tenant_id = ?", p.TenantID)

	if req.Search != "" {
		like := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(projects.name) LIKE ? OR LOWER(projects.description) LIKE ?", like, like)
	}
	if req.Status != "" {
		query = query.Where("projects.status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, dbError(err, "")
	}

	var items []ProjectWithCounts
	offset := (req.Page - 1) * req.PageSize
	err := query.Select(projectCountSelect).
		Order("projects.created_at DESC").
		Offset(offset).Limit(req.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, dbError(err, "")
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// GetByID returns a single project of the actor's tenant with its task
// aggregates. A project in another tenant is reported as NotFound.
func (s *ProjectService) GetByID(p authz.Principal, id string) (*ProjectWithCounts, error) {
	if err := authz.Authorize(p, authz.ActionReadProject, p.TenantID); err != nil {
		return nil, err
	}

	var project ProjectWithCounts
	err := s.db.Model(&models.Project{}).
		Select(projectCountSelect).
		Where("projects.tenant_id = ? AND projects.id = ?", p.TenantID, id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, dbError(err, "")
	}
	return &project, nil
}

// Create creates a project in the actor's tenant. Status defaults to
// active; the creating user is stored as an informational reference.
func (s *ProjectService) Create(p authz.Principal, req *CreateProjectRequest) (*models.Project, error) {
	if err := authz.Authorize(p, authz.ActionWriteProject, p.TenantID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("project name is required")
	}

	project := models.Project{
		TenantID:    p.TenantID,
		Name:        name,
		Description: req.Description,
		Status:      models.ProjectStatusActive,
		CreatedBy:   p.UserID,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, dbError(err, "")
	}
	return &project, nil
}

// Update applies a partial patch to a project of the actor's tenant.
func (s *ProjectService) Update(p authz.Principal, id string, req *UpdateProjectRequest) (*models.Project, error) {
	if err := authz.Authorize(p, authz.ActionWriteProject, p.TenantID); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.Where("tenant_id = ? AND id = ?", p.TenantID, id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, dbError(err, "")
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewBadRequest("project name is required")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !models.ValidProjectStatus(*req.Status) {
			return nil, response.NewBadRequest("status must be one of active, completed, archived")
		}
		updates["status"] = *req.Status
	}

	if err := s.db.Model(&project).Updates(updates).Error; err != nil {
		return nil, dbError(err, "")
	}
	return &project, nil
}

// Delete removes a project and all its tasks in one transaction. Either
// the project and every task under it are removed, or nothing is.
func (s *ProjectService) Delete(p authz.Principal, id string) error {
	if err := authz.Authorize(p, authz.ActionWriteProject, p.TenantID); err != nil {
		return err
	}

	var project models.Project
	if err := s.db.Where("tenant_id = ? AND id = ?", p.TenantID, id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("project not found")
		}
		return dbError(err, "")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	if err != nil {
		return dbError(err, "")
	}
	return nil
}
