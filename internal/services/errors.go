package services

import (
	"errors"

	"github.com/rsolano/tracklio/backend/pkg/logger"
	"github.com/rsolano/tracklio/backend/pkg/response"
	"gorm.io/gorm"
)

// dbError translates store-level failures into the API error taxonomy.
// Known constraint violations become Conflict; everything unexpected is
// logged and surfaced as an opaque Internal error so store details never
// leak to callers.
func dbError(err error, conflictMsg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return response.NewConflict(conflictMsg)
	}
	logger.Error().Err(err).Msg("database operation failed")
	return response.NewServerError("internal error")
}
