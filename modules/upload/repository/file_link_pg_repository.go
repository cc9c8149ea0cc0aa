package repository

import (
	"context"
	"time"

	"auction-market/database"
	"auction-market/domain"
	"auction-market/pkg/upload"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type FileLinkPgRepository struct {
	sqlHandler *database.SQLHandler[domain.FileLink, domain.FileLinkFilter]
	resolver   *urlResolver
}

func NewFileLinkPgRepository(db *gorm.DB, baseURL string, presignTTL time.Duration, client upload.Client) *FileLinkPgRepository {
	return &FileLinkPgRepository{
		sqlHandler: database.NewSQLHandler[domain.FileLink](db, applyFileLinkFilter),
		resolver: &urlResolver{
			baseURL:    baseURL,
			presignTTL: presignTTL,
			client:     client,
		},
	}
}

func applyFileLinkFilter(db *gorm.DB, filter *domain.FileLinkFilter) *gorm.DB {
	if filter == nil {
		return db
	}
	if filter.FileID != nil {
		db = db.Where("file_id = ?", *filter.FileID)
	}
	if filter.RelatedID != nil {
		db = db.Where("related_id = ?", *filter.RelatedID)
	}
	if len(filter.RelatedIDIn) > 0 {
		db = db.Where("related_id IN ?", filter.RelatedIDIn)
	}
	if filter.RelatedType != nil {
		db = db.Where("related_type = ?", *filter.RelatedType)
	}
	if filter.Field != nil {
		db = db.Where("field = ?", *filter.Field)
	}
	if len(filter.FieldIn) > 0 {
		db = db.Where("field IN ?", filter.FieldIn)
	}
	return db
}

// Replace makes fileIDs the exact ordered content of one entity field:
// new files are linked, kept files are reordered, the rest are unlinked.
func (r *FileLinkPgRepository) Replace(ctx context.Context, relatedType, relatedID, field string, fileIDs []string) error {
	return r.sqlHandler.Transaction(ctx, func(tx *gorm.DB) error {
		existing, err := r.sqlHandler.FindMany(ctx, &domain.FileLinkFilter{
			RelatedID:   &relatedID,
			RelatedType: &relatedType,
			Field:       &field,
		}, nil, database.WithTx(tx))
		if err != nil {
			return err
		}
		existingByFile := lo.KeyBy(existing, func(link *domain.FileLink) string { return link.FileID })

		var toCreate []*domain.FileLink
		for idx, fileID := range fileIDs {
			order := idx + 1
			if link, ok := existingByFile[fileID]; ok {
				if link.Order != order {
					if err := tx.WithContext(ctx).Model(&domain.FileLink{}).
						Where("file_id = ? AND related_id = ? AND related_type = ? AND field = ?", fileID, relatedID, relatedType, field).
						Update("sort_order", order).Error; err != nil {
						return err
					}
				}
				continue
			}
			toCreate = append(toCreate, &domain.FileLink{
				FileID:      fileID,
				RelatedID:   relatedID,
				RelatedType: relatedType,
				Field:       field,
				Order:       order,
			})
		}
		if len(toCreate) > 0 {
			if err := r.sqlHandler.CreateMany(ctx, toCreate, database.WithTx(tx)); err != nil {
				return err
			}
		}

		_, removed := lo.Difference(fileIDs, lo.Keys(existingByFile))
		if len(removed) == 0 {
			return nil
		}
		return tx.WithContext(ctx).
			Where("related_id = ? AND related_type = ? AND field = ? AND file_id IN ?", relatedID, relatedType, field, removed).
			Delete(&domain.FileLink{}).Error
	})
}

// DeleteByFile unlinks a file from every entity.
func (r *FileLinkPgRepository) DeleteByFile(ctx context.Context, fileID string) error {
	return r.sqlHandler.DB().WithContext(ctx).Where("file_id = ?", fileID).Delete(&domain.FileLink{}).Error
}

// FindFilesByEntities groups the linked, non-deleted files of one field by
// entity, each group in link order.
func (r *FileLinkPgRepository) FindFilesByEntities(ctx context.Context, relatedType string, relatedIDs []string, field string) (map[string][]*domain.File, error) {
	links, err := r.sqlHandler.FindMany(ctx, &domain.FileLinkFilter{
		RelatedIDIn: lo.Uniq(relatedIDs),
		RelatedType: &relatedType,
		Field:       &field,
	}, &domain.FindManyOption{
		Preloads: []string{"File"},
		Sort:     []string{"sort_order ASC"},
	})
	if err != nil {
		return nil, err
	}

	filesByEntity := make(map[string][]*domain.File, len(relatedIDs))
	for _, link := range links {
		if link.File == nil || link.File.DeletedAt != 0 {
			continue
		}
		if err := r.resolver.prepare(ctx, link.File); err != nil {
			return nil, err
		}
		filesByEntity[link.RelatedID] = append(filesByEntity[link.RelatedID], link.File)
	}
	return filesByEntity, nil
}
