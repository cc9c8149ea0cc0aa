package repository

import (
	"context"

	"auction-market/database"
	"auction-market/domain"
	"auction-market/pkg/utils"

	"gorm.io/gorm"
)

type UserSessionRepository struct {
	sqlHandler *database.SQLHandler[domain.UserSession, domain.UserSessionFilter]
}

func NewPgUserSessionRepo(db *gorm.DB) *UserSessionRepository {
	sqlHandler := database.NewSQLHandler[domain.UserSession](db, applyFilter)
	return &UserSessionRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.UserSessionFilter) *gorm.DB {
	qb = qb.Where("deleted_at = 0")
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if filter.RefreshToken != nil {
		qb = qb.Where("refresh_token = ?", *filter.RefreshToken)
	}
	if filter.Active != nil {
		qb = qb.Where("active = ?", *filter.Active)
	}
	if filter.ExpiresAfter != nil {
		qb = qb.Where("expires_at > ?", *filter.ExpiresAfter)
	}

	return qb
}

func (r *UserSessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	return r.sqlHandler.Create(ctx, session)
}

func (r *UserSessionRepository) FindByID(ctx context.Context, sessionID string, option *domain.FindOneOption) (*domain.UserSession, error) {
	return r.sqlHandler.FindByID(ctx, sessionID, option)
}

func (r *UserSessionRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*domain.UserSession, error) {
	active := true
	return r.sqlHandler.FindOne(ctx, &domain.UserSessionFilter{
		RefreshToken: &refreshToken,
		Active:       &active,
	}, nil)
}

// RotateRefreshToken swaps oldToken for newToken and reports false when
// oldToken was already used.
func (r *UserSessionRepository) RotateRefreshToken(ctx context.Context, sessionID, oldToken string, fields map[string]any) (bool, error) {
	active := true
	affected, err := r.sqlHandler.UpdateWhere(ctx, &domain.UserSessionFilter{
		ID:           &sessionID,
		RefreshToken: &oldToken,
		Active:       &active,
	}, fields)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *UserSessionRepository) Deactivate(ctx context.Context, sessionID string) error {
	return r.sqlHandler.UpdateFields(ctx, sessionID, map[string]any{
		"active":           false,
		"last_activity_at": utils.NowUnixMillis(),
	})
}
