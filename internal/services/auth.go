package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rsolano/tracklio/backend/internal/config"
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/internal/utils"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type LoginRequest struct {
	Subdomain string `json:"subdomain" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

type RefreshResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
}

// Login authenticates a user inside the tenant identified by subdomain.
// Unknown tenant, unknown email, wrong password and inactive account are
// all reported as the same Unauthorized error so nothing about account
// existence leaks.
func (s *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	invalid := response.NewUnauthorized("invalid credentials")

	var tenant models.Tenant
	if err := s.db.Where("subdomain = ?", strings.ToLower(req.Subdomain)).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, dbError(err, "")
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, response.NewUnauthorized("tenant is suspended")
	}

	var user models.User
	err := s.db.Where("tenant_id = ? AND email = ?", tenant.ID, strings.ToLower(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, dbError(err, "")
	}
	if !user.IsActive {
		return nil, invalid
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, invalid
	}

	accessHours := s.jwtConfig.ExpireHour
	refreshHours := s.jwtConfig.RefreshExpireHour

	token, err := utils.GenerateToken(user.ID, user.TenantID, user.Role, accessHours)
	if err != nil {
		return nil, response.NewServerError("failed to issue token")
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, response.NewServerError("failed to issue refresh token")
	}

	now := time.Now()
	refreshExpireAt := now.Add(time.Duration(refreshHours) * time.Hour)
	refreshRecord := models.RefreshToken{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		TokenHash:   refreshHash,
		ExpiresAt:   refreshExpireAt,
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}
	if err := s.db.Create(&refreshRecord).Error; err != nil {
		return nil, dbError(err, "")
	}

	user.LastLogin = &now
	s.db.Model(&user).Update("last_login", now)

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshExpireAt,
		User:            &user,
	}, nil
}

// Refresh rotates a refresh token: the old token is revoked and linked to
// its replacement inside one transaction.
func (s *AuthService) Refresh(refreshToken, clientIP, userAgent string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, response.NewUnauthorized("refresh token required")
	}

	hash := hashRefreshToken(refreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ?", hash).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid refresh token")
		}
		return nil, dbError(err, "")
	}

	if stored.RevokedAt != nil {
		return nil, response.NewUnauthorized("refresh token revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, response.NewUnauthorized("refresh token expired")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("user not found")
		}
		return nil, dbError(err, "")
	}
	if !user.IsActive {
		return nil, response.NewUnauthorized("user is disabled")
	}

	// Suspension gates token minting too, not just fresh logins; otherwise a
	// suspended tenant's users could keep rotating for the refresh lifetime.
	var tenant models.Tenant
	if err := s.db.First(&tenant, "id = ?", user.TenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("tenant not found")
		}
		return nil, dbError(err, "")
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, response.NewUnauthorized("tenant is suspended")
	}

	accessHours := s.jwtConfig.ExpireHour
	refreshHours := s.jwtConfig.RefreshExpireHour

	newAccessToken, err := utils.GenerateToken(user.ID, user.TenantID, user.Role, accessHours)
	if err != nil {
		return nil, response.NewServerError("failed to issue token")
	}

	newRefreshToken, newRefreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, response.NewServerError("failed to issue refresh token")
	}

	now := time.Now()
	newRefresh := models.RefreshToken{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		TokenHash:   newRefreshHash,
		ExpiresAt:   now.Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newRefresh).Error; err != nil {
			return err
		}
		return tx.Model(&stored).Updates(map[string]interface{}{
			"revoked_at":           now,
			"replaced_by_token_id": newRefresh.ID,
		}).Error
	}); err != nil {
		return nil, dbError(err, "")
	}

	return &RefreshResult{
		AccessToken:     newAccessToken,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    newRefreshToken,
		RefreshExpireAt: newRefresh.ExpiresAt,
	}, nil
}

// RevokeRefreshToken revokes a refresh token on logout. Revoking an unknown
// token is not an error.
func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	hash := hashRefreshToken(refreshToken)
	now := time.Now()
	if err := s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", now).Error; err != nil {
		return dbError(err, "")
	}
	return nil
}

// GetUserByID loads a user scoped to a tenant.
func (s *AuthService) GetUserByID(tenantID, id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, dbError(err, "")
	}
	return &user, nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(tenantID, userID string, req *ChangePasswordRequest) error {
	user, err := s.GetUserByID(tenantID, userID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("incorrect old password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return response.NewServerError("failed to hash password")
	}

	if err := s.db.Model(user).Update("password_hash", hashed).Error; err != nil {
		return dbError(err, "")
	}
	return nil
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	tokenHash = hashRefreshToken(token)
	return token, tokenHash, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
