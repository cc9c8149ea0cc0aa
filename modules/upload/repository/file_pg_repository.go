package repository

import (
	"context"
	"time"

	"auction-market/database"
	"auction-market/domain"
	"auction-market/pkg/upload"

	"gorm.io/gorm"
)

type FilePgRepository struct {
	handler  *database.SQLHandler[domain.File, domain.FileFilter]
	resolver *urlResolver
}

func NewFilePgRepository(db *gorm.DB, baseURL string, presignTTL time.Duration, client upload.Client) *FilePgRepository {
	return &FilePgRepository{
		handler: database.NewSQLHandler[domain.File](db, applyFileFilter),
		resolver: &urlResolver{
			baseURL:    baseURL,
			presignTTL: presignTTL,
			client:     client,
		},
	}
}

func applyFileFilter(db *gorm.DB, filter *domain.FileFilter) *gorm.DB {
	if filter == nil {
		return db.Where("deleted_at = 0")
	}
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		db = db.Where("id IN ?", filter.IDIn)
	}
	if filter.UploaderID != nil {
		db = db.Where("uploader_id = ?", *filter.UploaderID)
	}
	if filter.Ext != nil {
		db = db.Where("ext = ?", *filter.Ext)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		db = db.Where("deleted_at = 0")
	}
	return db
}

func (r *FilePgRepository) CreateMany(ctx context.Context, files []*domain.File) error {
	if err := r.handler.CreateMany(ctx, files); err != nil {
		return err
	}
	return r.resolver.prepare(ctx, files...)
}

// FindByID returns the stored paths untouched so callers can remove objects.
func (r *FilePgRepository) FindByID(ctx context.Context, id string) (*domain.File, error) {
	return r.handler.FindByID(ctx, id, nil)
}

func (r *FilePgRepository) FindMany(ctx context.Context, filter *domain.FileFilter, option *domain.FindManyOption) ([]*domain.File, error) {
	files, err := r.handler.FindMany(ctx, filter, option)
	if err != nil {
		return nil, err
	}
	if err := r.resolver.prepare(ctx, files...); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *FilePgRepository) DeleteByID(ctx context.Context, id string) error {
	return r.handler.DeleteByID(ctx, id)
}

func (r *FilePgRepository) PrepareURLs(ctx context.Context, files ...*domain.File) error {
	return r.resolver.prepare(ctx, files...)
}
