package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rsolano/tracklio/backend/internal/middleware"
	"github.com/rsolano/tracklio/backend/internal/services"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/gorm"
)

type TenantHandler struct {
	tenantService *services.TenantService
}

func NewTenantHandler(db *gorm.DB) *TenantHandler {
	return &TenantHandler{
		tenantService: services.NewTenantService(db),
	}
}

// Register onboards a new organization: tenant plus its first admin.
// POST /api/tenants
func (h *TenantHandler) Register(c *gin.Context) {
	var req services.RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.tenantService.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resp)
}

// List returns all tenants (super_admin only).
// GET /api/tenants
func (h *TenantHandler) List(c *gin.Context) {
	var req services.TenantListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.tenantService.List(middleware.GetPrincipal(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

type setTenantStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus activates or suspends a tenant (super_admin only).
// PUT /api/tenants/:id/status
func (h *TenantHandler) SetStatus(c *gin.Context) {
	var req setTenantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.SetStatus(middleware.GetPrincipal(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, tenant)
}
