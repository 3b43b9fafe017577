package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/rsolano/tracklio/backend/internal/authz"
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/internal/utils"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/gorm"
)

type TenantService struct {
	db *gorm.DB
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

type RegisterTenantRequest struct {
	Name          string `json:"name" binding:"required"`
	Subdomain     string `json:"subdomain" binding:"required"`
	AdminEmail    string `json:"admin_email" binding:"required,email"`
	AdminPassword string `json:"admin_password" binding:"required,min=6"`
	AdminFullName string `json:"admin_full_name"`
}

type RegisterTenantResponse struct {
	Tenant *models.Tenant `json:"tenant"`
	Admin  *models.User   `json:"admin"`
}

// Register creates a tenant and its first tenant_admin in one transaction.
// This is the only unauthenticated mutation in the system: it is how an
// organization onboards.
func (s *TenantService) Register(req *RegisterTenantRequest) (*RegisterTenantResponse, error) {
	subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
	if !subdomainPattern.MatchString(subdomain) {
		return nil, response.NewBadRequest("subdomain must contain only lowercase letters, digits and hyphens")
	}

	hashed, err := utils.HashPassword(req.AdminPassword)
	if err != nil {
		return nil, response.NewServerError("failed to hash password")
	}

	tenant := models.Tenant{
		Name:      strings.TrimSpace(req.Name),
		Subdomain: subdomain,
		Status:    models.TenantStatusActive,
	}
	admin := models.User{
		Email:    strings.ToLower(strings.TrimSpace(req.AdminEmail)),
		Password: hashed,
		FullName: req.AdminFullName,
		Role:     models.RoleTenantAdmin,
		IsActive: true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		admin.TenantID = tenant.ID
		return tx.Create(&admin).Error
	})
	if err != nil {
		return nil, dbError(err, "subdomain already taken")
	}

	return &RegisterTenantResponse{Tenant: &tenant, Admin: &admin}, nil
}

// GetBySubdomain resolves the tenant context for a request, typically
// derived from the login subdomain.
func (s *TenantService) GetBySubdomain(subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("subdomain = ?", strings.ToLower(subdomain)).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("tenant not found")
		}
		return nil, dbError(err, "")
	}
	return &tenant, nil
}

type TenantListRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type TenantListResponse struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Items    []models.Tenant `json:"items"`
}

// List returns all tenants. This is the one explicitly cross-tenant
// operation and is restricted to super_admin by the guard.
func (s *TenantService) List(p authz.Principal, req *TenantListRequest) (*TenantListResponse, error) {
	if err := authz.Authorize(p, authz.ActionListTenants, ""); err != nil {
		return nil, err
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	var tenants []models.Tenant
	var total int64

	query := s.db.Model(&models.Tenant{})
	if err := query.Count(&total).Error; err != nil {
		return nil, dbError(err, "")
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&tenants).Error; err != nil {
		return nil, dbError(err, "")
	}

	return &TenantListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    tenants,
	}, nil
}

// SetStatus toggles a tenant between active and suspended. Suspension only
// gates new logins; existing data is untouched.
func (s *TenantService) SetStatus(p authz.Principal, tenantID, status string) (*models.Tenant, error) {
	if err := authz.Authorize(p, authz.ActionListTenants, tenantID); err != nil {
		return nil, err
	}
	if status != models.TenantStatusActive && status != models.TenantStatusSuspended {
		return nil, response.NewBadRequest("status must be active or suspended")
	}

	var tenant models.Tenant
	if err := s.db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("tenant not found")
		}
		return nil, dbError(err, "")
	}

	if err := s.db.Model(&tenant).Update("status", status).Error; err != nil {
		return nil, dbError(err, "")
	}
	return &tenant, nil
}
