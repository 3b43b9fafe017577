package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleMember      = "member"
)

// ValidRole reports whether role is one of the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleTenantAdmin, RoleMember:
		return true
	}
	return false
}

// User is an account bound to exactly one tenant. Email is unique only
// within its tenant. An inactive user cannot authenticate and is excluded
// from assignment lists, but historical references to it persist.
type User struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string     `gorm:"size:36;not null;index;uniqueIndex:idx_tenant_email" json:"tenant_id"`
	Email     string     `gorm:"size:255;not null;uniqueIndex:idx_tenant_email" json:"email"`
	Password  string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	FullName  string     `gorm:"size:255" json:"full_name"`
	Role      string     `gorm:"size:50;not null" json:"role"` // super_admin, tenant_admin, member
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the user can manage other users in its tenant.
func (u *User) IsAdmin() bool {
	return u.Role == RoleTenantAdmin || u.Role == RoleSuperAdmin
}
