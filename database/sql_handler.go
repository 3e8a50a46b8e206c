package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"identity-service/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

// conn prefers a transaction bound to ctx over the handler's pool.
func (h *SQLHandler[T, V]) conn(ctx context.Context, opts ...DBOption) *gorm.DB {
	qb := h.db
	if tx := TxFromContext(ctx); tx != nil {
		qb = tx
	}
	for _, opt := range opts {
		qb = opt(qb)
	}
	return qb.WithContext(ctx)
}

func (h *SQLHandler[T, V]) filtered(ctx context.Context, filter *V, opts ...DBOption) *gorm.DB {
	execDB := h.conn(ctx, opts...)
	if filter != nil && h.applyFilter != nil {
		execDB = h.applyFilter(execDB, filter)
	}
	return execDB
}

func (h *SQLHandler[T, V]) Create(ctx context.Context, entity *T, opts ...DBOption) error {
	return h.conn(ctx, opts...).Create(entity).Error
}

func (h *SQLHandler[T, V]) CreateMany(ctx context.Context, entities []*T, opts ...DBOption) error {
	if len(entities) == 0 {
		return nil
	}
	return h.conn(ctx, opts...).Create(&entities).Error
}

func (h *SQLHandler[T, V]) FindByID(ctx context.Context, id any, option *domain.FindOneOption, opts ...DBOption) (*T, error) {
	execDB := applyFindOneOption(h.conn(ctx, opts...), option)

	var entity T
	if err := execDB.Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &entity, nil
}

func (h *SQLHandler[T, V]) FindOne(ctx context.Context, filter *V, option *domain.FindOneOption, opts ...DBOption) (*T, error) {
	execDB := applyFindOneOption(h.filtered(ctx, filter, opts...), option)

	var entity T
	if err := execDB.First(&entity).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &entity, nil
}

func applyFindOneOption(db *gorm.DB, option *domain.FindOneOption) *gorm.DB {
	if option == nil {
		return db
	}
	for _, sortField := range option.Sort {
		db = db.Order(sortField)
	}
	for _, field := range option.Preloads {
		db = db.Preload(field)
	}
	return db
}

func applyFindManyOption(db *gorm.DB, option *domain.FindManyOption) *gorm.DB {
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
	return db
}

func (h *SQLHandler[T, V]) FindMany(ctx context.Context, filter *V, option *domain.FindManyOption, opts ...DBOption) ([]*T, error) {
	execDB := applyFindManyOption(h.filtered(ctx, filter, opts...), option)

	var entities []*T
	if err := execDB.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// PageBounds normalizes a page option to a 1-based page and a page size.
func PageBounds(option *domain.FindPageOption) (page, perPage int) {
	page, perPage = 1, 10
	if option != nil {
		if option.Page > 0 {
			page = option.Page
		}
		if option.PerPage > 0 {
			perPage = option.PerPage
		}
	}
	return page, perPage
}

func (h *SQLHandler[T, V]) FindPage(ctx context.Context, filter *V, option *domain.FindPageOption, opts ...DBOption) ([]*T, *domain.Pagination, error) {
	execDB := h.filtered(ctx, filter, opts...)

	var totalItems int64
	if err := execDB.Session(&gorm.Session{}).Model(new(T)).Count(&totalItems).Error; err != nil {
		return nil, nil, err
	}

	page, perPage := PageBounds(option)
	if option != nil {
		for _, sortField := range option.Sort {
			execDB = execDB.Order(sortField)
		}
	}

	var entities []*T
	if err := execDB.Offset((page - 1) * perPage).Limit(perPage).Find(&entities).Error; err != nil {
		return nil, nil, err
	}
	return entities, domain.NewPagination(page, perPage, totalItems), nil
}

// Upsert inserts entities and, on a conflict over conflictColumns,
// overwrites updateColumns of the existing row.
func (h *SQLHandler[T, V]) Upsert(ctx context.Context, entities []*T, conflictColumns, updateColumns []string, opts ...DBOption) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	columns := make([]clause.Column, len(conflictColumns))
	for i, name := range conflictColumns {
		columns[i] = clause.Column{Name: name}
	}
	result := h.conn(ctx, opts...).Clauses(clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(&entities)
	return result.RowsAffected, result.Error
}

func (h *SQLHandler[T, V]) Update(ctx context.Context, entity *T, opts ...DBOption) error {
	return h.conn(ctx, opts...).Save(entity).Error
}

func (h *SQLHandler[T, V]) UpdateFields(ctx context.Context, id any, fields map[string]any, opts ...DBOption) (int64, error) {
	result := h.conn(ctx, opts...).Model(new(T)).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

// DeleteByID removes the row and reports how many rows were deleted.
func (h *SQLHandler[T, V]) DeleteByID(ctx context.Context, id any, opts ...DBOption) (int64, error) {
	result := h.conn(ctx, opts...).Where("id = ?", id).Delete(new(T))
	return result.RowsAffected, result.Error
}

// DeleteMany refuses an empty filter so it can never wipe a table.
func (h *SQLHandler[T, V]) DeleteMany(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	if filter == nil {
		return 0, fmt.Errorf("delete many: %w", gorm.ErrMissingWhereClause)
	}
	result := h.filtered(ctx, filter, opts...).Delete(new(T))
	return result.RowsAffected, result.Error
}

func (h *SQLHandler[T, V]) Count(ctx context.Context, filter *V, opts ...DBOption) (int64, error) {
	var count int64
	err := h.filtered(ctx, filter, opts...).Model(new(T)).Count(&count).Error
	return count, err
}

func (h *SQLHandler[T, V]) Exists(ctx context.Context, filter *V, opts ...DBOption) (bool, error) {
	count, err := h.Count(ctx, filter, opts...)
	return count > 0, err
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecordNotFound
	}
	return err
}

func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// ApplySearch adds a case-insensitive partial match over the given columns.
// searchableFields maps a public alias to a column, e.g. {"username": "identities.username"}.
func ApplySearch(db *gorm.DB, searchTerm string, searchFields []string, searchableFields map[string]string) *gorm.DB {
	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" {
		return db
	}

	columns := searchColumns(searchFields, searchableFields)
	if len(columns) == 0 {
		return db
	}

	pattern := "%" + escapeLike(searchTerm) + "%"
	conditions := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		conditions[i] = fmt.Sprintf("%s ILIKE ?", column)
		args[i] = pattern
	}
	return db.Where("("+strings.Join(conditions, " OR ")+")", args...)
}

func searchColumns(requested []string, searchable map[string]string) []string {
	var columns []string
	if len(requested) == 0 {
		for _, column := range searchable {
			columns = append(columns, column)
		}
		sort.Strings(columns)
		return columns
	}
	for _, alias := range requested {
		if column, ok := searchable[alias]; ok {
			columns = append(columns, column)
		}
	}
	return columns
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
