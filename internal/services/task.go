package services

import (
	"errors"
	"strings"

	"github.com/rsolano/tracklio/backend/internal/authz"
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/gorm"
)

type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

type CreateTaskRequest struct {
	Title      string  `json:"title" binding:"required"`
	Priority   string  `json:"priority"`
	AssigneeID *string `json:"assignee_id"`
}

type UpdateTaskRequest struct {
	Title      *string `json:"title"`
	Priority   *string `json:"priority"`
	Status     *string `json:"status"`
	AssigneeID *string `json:"assignee_id"` // pointer to empty string clears the assignee
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// statusOrder keeps list results grouped todo → in_progress → completed
// regardless of the lexicographic order of the status values.
const statusOrder = `CASE status WHEN 'todo' THEN 0 WHEN 'in_progress' THEN 1 ELSE 2 END`

// Create adds a task under a project of the actor's tenant. Status always
// starts at todo; priority defaults to medium. The assignee, if given,
// must be an active user of the same tenant.
func (s *TaskService) Create(p authz.Principal, projectID string, req *CreateTaskRequest) (*models.Task, error) {
	if err := authz.Authorize(p, authz.ActionWriteTask, p.TenantID); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.Where("tenant_id = ? AND id = ?", p.TenantID, projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, dbError(err, "")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, response.NewBadRequest("task title is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !models.ValidTaskPriority(priority) {
		return nil, response.NewBadRequest("priority must be one of low, medium, high")
	}

	var assignee *string
	if req.AssigneeID != nil && *req.AssigneeID != "" {
		if err := s.validateAssignee(project.TenantID, *req.AssigneeID); err != nil {
			return nil, err
		}
		assignee = req.AssigneeID
	}

	task := models.Task{
		ProjectID:  project.ID,
		TenantID:   project.TenantID,
		Title:      title,
		Status:     models.TaskStatusTodo,
		Priority:   priority,
		AssignedTo: assignee,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, dbError(err, "")
	}
	return &task, nil
}

// ListByProject returns the tasks of a project, ordered by status group
// then creation time, with assignees preloaded for presentation.
func (s *TaskService) ListByProject(p authz.Principal, projectID string) ([]models.Task, error) {
	if err := authz.Authorize(p, authz.ActionReadTask, p.TenantID); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.Where("tenant_id = ? AND id = ?", p.TenantID, projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, dbError(err, "")
	}

	var tasks []models.Task
	err := s.db.Where("project_id = ?", project.ID).
		Preload("Assignee").
		Order(statusOrder + ", created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, dbError(err, "")
	}
	return tasks, nil
}

// GetByID returns a task of the actor's tenant.
func (s *TaskService) GetByID(p authz.Principal, id string) (*models.Task, error) {
	if err := authz.Authorize(p, authz.ActionReadTask, p.TenantID); err != nil {
		return nil, err
	}
	return s.findScoped(p.TenantID, id)
}

// Update applies a partial patch to a task of the actor's tenant. Setting
// assignee_id to the empty string clears the assignee.
func (s *TaskService) Update(p authz.Principal, id string, req *UpdateTaskRequest) (*models.Task, error) {
	if err := authz.Authorize(p, authz.ActionWriteTask, p.TenantID); err != nil {
		return nil, err
	}

	task, err := s.findScoped(p.TenantID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, response.NewBadRequest("task title is required")
		}
		updates["title"] = title
	}
	if req.Priority != nil {
		if !models.ValidTaskPriority(*req.Priority) {
			return nil, response.NewBadRequest("priority must be one of low, medium, high")
		}
		updates["priority"] = *req.Priority
	}
	if req.Status != nil {
		if !models.ValidTaskStatus(*req.Status) {
			return nil, response.NewBadRequest("status must be one of todo, in_progress, completed")
		}
		updates["status"] = *req.Status
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			updates["assigned_to"] = nil
		} else {
			if err := s.validateAssignee(task.TenantID, *req.AssigneeID); err != nil {
				return nil, err
			}
			updates["assigned_to"] = *req.AssigneeID
		}
	}

	if err := s.db.Model(task).Updates(updates).Error; err != nil {
		return nil, dbError(err, "")
	}
	return task, nil
}

// ChangeStatus moves a task to any status in the closed set. Transitions
// are intentionally unconstrained: any value may follow any other.
func (s *TaskService) ChangeStatus(p authz.Principal, id, status string) (*models.Task, error) {
	if err := authz.Authorize(p, authz.ActionWriteTask, p.TenantID); err != nil {
		return nil, err
	}
	if !models.ValidTaskStatus(status) {
		return nil, response.NewBadRequest("status must be one of todo, in_progress, completed")
	}

	task, err := s.findScoped(p.TenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(task).Update("status", status).Error; err != nil {
		return nil, dbError(err, "")
	}
	return task, nil
}

// Delete removes a task. Nothing cascades from a task.
func (s *TaskService) Delete(p authz.Principal, id string) error {
	if err := authz.Authorize(p, authz.ActionWriteTask, p.TenantID); err != nil {
		return err
	}

	result := s.db.Where("tenant_id = ? AND id = ?", p.TenantID, id).Delete(&models.Task{})
	if result.Error != nil {
		return dbError(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("task not found")
	}
	return nil
}

func (s *TaskService) findScoped(tenantID, id string) (*models.Task, error) {
	var task models.Task
	if err := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("task not found")
		}
		return nil, dbError(err, "")
	}
	return &task, nil
}

// validateAssignee checks that the assignee is an active user of the given
// tenant. An assignee outside the tenant is a validation error, not
// NotFound: the caller already holds a valid in-tenant target resource.
func (s *TaskService) validateAssignee(tenantID, userID string) error {
	var user models.User
	if err := s.db.Where("tenant_id = ? AND id = ?", tenantID, userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewBadRequest("assignee must be a user of the same tenant")
		}
		return dbError(err, "")
	}
	if !user.IsActive {
		return response.NewBadRequest("assignee must be an active user")
	}
	return nil
}
