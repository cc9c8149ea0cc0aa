package database

import (
	"auction-market/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var searchIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_products_search ON products
		USING GIN (to_tsvector('simple', COALESCE(title, '') || ' ' || COALESCE(description, '')))`,
	`CREATE INDEX IF NOT EXISTS idx_products_open_ends_at ON products (ends_at)
		WHERE status = 'active' AND deleted_at = 0`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id)
		WHERE read_at = 0 AND deleted_at = 0`,
}

func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Role{},
		&domain.User{},
		&domain.UserSession{},
		&domain.File{},
		&domain.FileLink{},
		&domain.Product{},
		&domain.Bid{},
		&domain.Notification{},
		&domain.EmailLog{},
		&domain.EmailTemplate{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	for _, stmt := range searchIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return errors.Wrap(err, "create index")
		}
	}
	return nil
}
