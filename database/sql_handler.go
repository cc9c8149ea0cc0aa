package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auction-market/domain"
	"auction-market/pkg/utils"

	"gorm.io/gorm"
)

type SQLHandler[T any, V any] struct {
	db          *gorm.DB
	applyFilter func(*gorm.DB, *V) *gorm.DB
}

func NewSQLHandler[T any, V any](
	db *gorm.DB,
	applyFilter func(*gorm.DB, *V) *gorm.DB,
) *SQLHandler[T, V] {
	return &SQLHandler[T, V]{applyFilter: applyFilter, db: db}
}

type DBOption func(*gorm.DB) *gorm.DB

func WithOmit(fields ...string) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Omit(fields...)
	}
}

func WithTx(tx *gorm.DB) DBOption {
	return func(db *gorm.DB) *gorm.DB {
		if tx != nil {
			return tx
		}
		return db
	}
}

// WithLockForUpdate adds SELECT ... FOR UPDATE, only meaningful inside a transaction.
func WithLockForUpdate() DBOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(lockingClause)
	}
}

// DB exposes the underlying connection for repositories that need raw queries.
func (h *SQLHandler[T, V]) DB() *gorm.DB {
	return h.db
}

// Transaction runs fn inside a database transaction. Pass tx on to handler
// calls through WithTx.
func (h *SQLHandler[T, V]) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return h.db.WithContext(ctx).Transaction(fn)
}

func (h *SQLHandler[T, V]) applyDBOptions(opts ...DBOption) *gorm.DB {
	qb := h.db
	for _, opt := range opts {
		qb = opt(qb)
	}
	return qb
}

func (h *SQLHandler[T, V]) Create(ctx context.Context, entity *T, opts ...DBOption) error {
	execDB := h.applyDBOptions(opts...)
	return execDB.WithContext(ctx).Create(entity).Error
}

func (h *SQLHandler[T, V]) CreateMany(ctx context.Context, entities []*T, opts ...DBOption) error {
	if len(entities) == 0 {
		return nil
	}
	execDB := h.applyDBOptions(opts...)
	return execDB.WithContext(ctx).Create(&entities).Error
}

func (h *SQLHandler[T, V]) applyFindOneOption(db *gorm.DB, option *domain.FindOneOption) *gorm.DB {
	if option == nil {
		return db
	}
	for _, field := range option.Preloads {
		db = db.Preload(field)
	}
	for _, sortField := range option.Sort {
		db = db.Order(sortField)
	}
	return db
}

func (h *SQLHandler[T, V]) FindByID(ctx context.Context, id any, option *domain.FindOneOption, opts ...DBOption) (*T, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.applyFindOneOption(execDB, option)

	var entity T
	err := execDB.WithContext(ctx).Where("id = ? AND deleted_at = 0", id).First(&entity).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &entity, nil
}

func (h *SQLHandler[T, V]) FindOne(ctx context.Context, filter *V, option *domain.FindOneOption, opts ...DBOption) (*T, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.applyFilter(execDB, filter)
	execDB = h.applyFindOneOption(execDB, option)

	var entity T
	err := execDB.WithContext(ctx).First(&entity).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &entity, nil
}

func (h *SQLHandler[T, V]) applyFindManyOption(db *gorm.DB, option *domain.FindManyOption) *gorm.DB {
	if option == nil {
		return db
	}

	for _, sortField := range option.Sort {
		db = db.Order(sortField)
	}

	if option.Limit != nil {
		db = db.Limit(*option.Limit)
	}

	if option.Offset != nil {
		db = db.Offset(*option.Offset)
	}

	for _, field := range option.Preloads {
		db = db.Preload(field)
	}

	for _, field := range option.Joins {
		db = db.Joins(field)
	}
	return db
}

func (h *SQLHandler[T, V]) FindMany(ctx context.Context, filter *V, option *domain.FindManyOption, opts ...DBOption) ([]*T, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.applyFilter(execDB, filter)
	execDB = h.applyFindManyOption(execDB, option)

	var entities []*T
	err := execDB.WithContext(ctx).Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

// FindPage counts the filtered rows first so the requested page can be
// clamped before the offset is computed. A page past the end returns the
// last page instead of an empty slice.
func (h *SQLHandler[T, V]) FindPage(ctx context.Context, filter *V, option *domain.FindPageOption, opts ...DBOption) ([]*T, *domain.Pagination, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.applyFilter(execDB, filter)

	var totalItems int64
	countDB := execDB.Session(&gorm.Session{})
	if err := countDB.WithContext(ctx).Model(new(T)).Count(&totalItems).Error; err != nil {
		return nil, nil, err
	}

	page, perPage := 1, domain.DefaultPerPage
	if option != nil {
		page, perPage = option.Page, option.PerPage
	}
	pagination := domain.NewPagination(page, perPage, totalItems)
	if totalItems == 0 {
		return []*T{}, pagination, nil
	}

	if option != nil {
		for _, sortField := range option.Sort {
			execDB = execDB.Order(sortField)
		}
		for _, field := range option.Preloads {
			execDB = execDB.Preload(field)
		}
	}
	offset := (pagination.Page - 1) * pagination.PerPage
	execDB = execDB.Offset(offset).Limit(pagination.PerPage)

	var entities []*T
	if err := execDB.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, nil, err
	}

	return entities, pagination, nil
}

func (h *SQLHandler[T, V]) Update(ctx context.Context, entity *T, opts ...DBOption) error {
	execDB := h.applyDBOptions(opts...)
	return execDB.WithContext(ctx).Save(entity).Error
}

func (h *SQLHandler[T, V]) UpdateFields(ctx context.Context, id any, fields map[string]any, opts ...DBOption) error {
	execDB := h.applyDBOptions(opts...)
	var entity T
	return execDB.WithContext(ctx).Model(&entity).Where("id = ?", id).Updates(fields).Error
}

// UpdateWhere updates every row matching filter and reports how many changed.
// Callers use the count for compare-and-set updates.
func (h *SQLHandler[T, V]) UpdateWhere(ctx context.Context, filter *V, fields map[string]any, opts ...DBOption) (int64, error) {
	execDB := h.applyDBOptions(opts...)
	execDB = h.applyFilter(execDB.Model(new(T)), filter)
	result := execDB.WithContext(ctx).Updates(fields)
	return result.RowsAffected, result.Error
}

func (h *SQLHandler[T, V]) DeleteByID(ctx context.Context, id any, opts ...DBOption) error {
	execDB := h.applyDBOptions(opts...)
	var entity T
	return execDB.WithContext(ctx).
		Model(&entity).
		Where("id = ? AND deleted_at = 0", id).
		Updates(map[string]any{
			"deleted_at": utils.NowUnixMillis(),
		}).Error
}

func (h *SQLHandler[T, V]) DeleteMany(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	return h.UpdateWhere(ctx, filter, map[string]any{"deleted_at": utils.NowUnixMillis()}, opts...)
}

func (h *SQLHandler[T, V]) Count(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	var count int64
	execDB := h.applyDBOptions(opts...)
	execDB = h.applyFilter(execDB, filter)
	err := execDB.WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, err
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecordNotFound
	}
	return err
}

// ApplySearch applies full-text search and partial match search to the given gorm.DB instance.
// searchableFields is map[alias]dbField
// Example: map[string]string{"title": "products.title", "description": "products.description"}
func ApplySearch(
	db *gorm.DB,
	searchTerm string,
	searchFields []string,
	searchableFields map[string]string,
) *gorm.DB {
	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" {
		return db
	}

	fieldsToSearch := getValidSearchFields(searchFields, searchableFields)
	if len(fieldsToSearch) == 0 {
		return db
	}

	ftsQuery := buildFullTextSearchQuery(fieldsToSearch, searchTerm)
	ilikeQuery := buildPartialMatchQuery(fieldsToSearch, searchTerm)

	combinedQuery := combineSearchQueries(ftsQuery, ilikeQuery)

	return db.Where(combinedQuery.condition, combinedQuery.args...)
}

// getValidSearchFields returns database field names that are valid for searching,
// in a stable order.
func getValidSearchFields(requestedFields []string, searchableFields map[string]string) []string {
	if len(requestedFields) == 0 {
		requestedFields = sortedKeys(searchableFields)
	}
	var validFields []string
	for _, field := range requestedFields {
		if dbField, exists := searchableFields[field]; exists {
			validFields = append(validFields, dbField)
		}
	}
	return validFields
}

type searchQuery struct {
	condition string
	args      []any
}

func buildFullTextSearchQuery(fields []string, searchTerm string) searchQuery {
	conditions := make([]string, len(fields))
	args := make([]any, len(fields))

	for i, field := range fields {
		conditions[i] = fmt.Sprintf("to_tsvector('simple', COALESCE(%s, '')) @@ plainto_tsquery('simple', ?)", field)
		args[i] = searchTerm
	}

	return searchQuery{
		condition: strings.Join(conditions, " OR "),
		args:      args,
	}
}

// buildPartialMatchQuery creates ILIKE conditions for partial string matching
func buildPartialMatchQuery(fields []string, searchTerm string) searchQuery {
	conditions := make([]string, len(fields))
	args := make([]any, len(fields))
	searchPattern := "%" + escapeLike(searchTerm) + "%"

	for i, field := range fields {
		conditions[i] = fmt.Sprintf("%s ILIKE ?", field)
		args[i] = searchPattern
	}

	return searchQuery{
		condition: strings.Join(conditions, " OR "),
		args:      args,
	}
}

func combineSearchQueries(ftsQuery, ilikeQuery searchQuery) searchQuery {
	args := make([]any, 0, len(ftsQuery.args)+len(ilikeQuery.args))
	args = append(args, ftsQuery.args...)
	args = append(args, ilikeQuery.args...)

	return searchQuery{
		condition: fmt.Sprintf("(%s) OR (%s)", ftsQuery.condition, ilikeQuery.condition),
		args:      args,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
