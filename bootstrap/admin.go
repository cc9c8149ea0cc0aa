package bootstrap

import (
	"context"
	"errors"

	"auction-market/domain"
	"auction-market/pkg/log"
)

// SeedSystemAdmin makes sure the configured super admin exists and can sign
// in. Nothing happens when no email is configured.
func SeedSystemAdmin(ctx context.Context, users domain.UserUsecase, email, password string, logger log.Logger) error {
	if email == "" {
		return nil
	}

	_, err := users.FindByEmail(ctx, email, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	admin, err := users.Create(ctx, &domain.UserCreateRequest{
		Email:     email,
		Password:  password,
		FirstName: "System",
		LastName:  "Admin",
		Roles:     []domain.RoleID{domain.RoleIDSuperAdmin},
	})
	if err != nil {
		return err
	}
	if _, err := users.UpdateStatus(ctx, admin.ID, domain.UserSTTActive); err != nil {
		return err
	}

	logger.Info("Seeded system admin", log.UserID(admin.ID))
	return nil
}
