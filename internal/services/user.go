package services

import (
	"errors"
	"strings"

	"github.com/rsolano/tracklio/backend/internal/authz"
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/internal/utils"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name"`
	Role     string `json:"role" binding:"required"`
}

// Create adds a user to the actor's tenant. Only tenant_admin and
// super_admin may create users, and neither may mint a super_admin through
// this path.
func (s *UserService) Create(p authz.Principal, req *CreateUserRequest) (*models.User, error) {
	if err := authz.Authorize(p, authz.ActionManageUsers, p.TenantID); err != nil {
		return nil, err
	}
	if !models.ValidRole(req.Role) {
		return nil, response.NewBadRequest("role must be one of super_admin, tenant_admin, member")
	}
	if req.Role == models.RoleSuperAdmin && p.Role != models.RoleSuperAdmin {
		return nil, response.NewForbidden("only super_admin may grant super_admin")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, response.NewServerError("failed to hash password")
	}

	user := models.User{
		TenantID: p.TenantID,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hashed,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, dbError(err, "a user with this email already exists in this tenant")
	}
	return &user, nil
}

type UserListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

// List returns the users of the actor's tenant, paginated, optionally
// filtered by a case-insensitive search over name and email.
func (s *UserService) List(p authz.Principal, req *UserListRequest) (*UserListResponse, error) {
	if err := authz.Authorize(p, authz.ActionListUsers, p.TenantID); err != nil {
		return nil, err
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	var users []models.User
	var total int64

	query := s.db.Model(&models.User{}).Where("tenant_id = ?", p.TenantID)
	if req.Search != "" {
		like := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, dbError(err, "")
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at ASC").Offset(offset).Limit(req.PageSize).Find(&users).Error; err != nil {
		return nil, dbError(err, "")
	}

	return &UserListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    users,
	}, nil
}

// AssigneeOption is the minimal user view exposed for task assignment.
type AssigneeOption struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ListAssignable returns the active users of the actor's tenant. Unlike
// List this is open to members: assigning a task requires choosing a user.
func (s *UserService) ListAssignable(p authz.Principal) ([]AssigneeOption, error) {
	if err := authz.Authorize(p, authz.ActionReadTask, p.TenantID); err != nil {
		return nil, err
	}

	var options []AssigneeOption
	err := s.db.Model(&models.User{}).
		Select("id, full_name, email").
		Where("tenant_id = ? AND is_active = ?", p.TenantID, true).
		Order("full_name ASC").
		Scan(&options).Error
	if err != nil {
		return nil, dbError(err, "")
	}
	return options, nil
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

// Update patches a user of the actor's tenant. A change that would leave
// the tenant without any active tenant_admin is rejected with Conflict.
func (s *UserService) Update(p authz.Principal, id string, req *UpdateUserRequest) (*models.User, error) {
	if err := authz.Authorize(p, authz.ActionManageUsers, p.TenantID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("tenant_id = ? AND id = ?", p.TenantID, id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, dbError(err, "")
	}

	updates := make(map[string]interface{})
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			return nil, response.NewBadRequest("role must be one of super_admin, tenant_admin, member")
		}
		if *req.Role == models.RoleSuperAdmin && p.Role != models.RoleSuperAdmin {
			return nil, response.NewForbidden("only super_admin may grant super_admin")
		}
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, response.NewServerError("failed to hash password")
		}
		updates["password_hash"] = hashed
	}

	demoted := req.Role != nil && *req.Role != models.RoleTenantAdmin && *req.Role != models.RoleSuperAdmin
	deactivated := req.IsActive != nil && !*req.IsActive
	if (demoted || deactivated) && user.IsActive && user.IsAdmin() {
		if err := s.ensureNotLastAdmin(user.TenantID, user.ID); err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, dbError(err, "")
	}
	return &user, nil
}

// Delete removes a user from the actor's tenant. Task assignee references
// are nulled out in the same transaction; created_by references persist.
func (s *UserService) Delete(p authz.Principal, id string) error {
	if err := authz.Authorize(p, authz.ActionManageUsers, p.TenantID); err != nil {
		return err
	}

	var user models.User
	if err := s.db.Where("tenant_id = ? AND id = ?", p.TenantID, id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("user not found")
		}
		return dbError(err, "")
	}

	if user.IsActive && user.IsAdmin() {
		if err := s.ensureNotLastAdmin(user.TenantID, user.ID); err != nil {
			return err
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("tenant_id = ? AND assigned_to = ?", user.TenantID, user.ID).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return dbError(err, "")
	}
	return nil
}

// ensureNotLastAdmin rejects a change that would leave tenantID without any
// active admin besides excludeID.
func (s *UserService) ensureNotLastAdmin(tenantID, excludeID string) error {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("tenant_id = ? AND id != ? AND is_active = ? AND role IN ?",
			tenantID, excludeID, true, []string{models.RoleTenantAdmin, models.RoleSuperAdmin}).
		Count(&count).Error
	if err != nil {
		return dbError(err, "")
	}
	if count == 0 {
		return response.NewConflict("tenant must keep at least one active admin")
	}
	return nil
}
