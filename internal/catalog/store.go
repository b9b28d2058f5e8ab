package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/tensorcode/backend/internal/serviceerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrValidation marks rejected input.
	ErrValidation = fmt.Errorf("catalog: %w", serviceerr.ErrValidation)
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = fmt.Errorf("catalog: resource %w", serviceerr.ErrNotFound)
	// ErrDuplicateID indicates a sibling already uses the slug. Only raised with strict slugs.
	ErrDuplicateID = fmt.Errorf("catalog: slug already exists: %w", serviceerr.ErrConflict)
)

// Filters carries list query parameters keyed by name. Unknown keys are ignored.
type Filters map[string]string

// Store is the operation set the HTTP layer exposes for a catalog entity.
type Store[T any, C any, P any] interface {
	Create(ctx context.Context, input C) (T, error)
	List(ctx context.Context, filters Filters) ([]T, error)
	Get(ctx context.Context, id uint) (T, error)
	Update(ctx context.Context, id uint, changes P) (T, error)
	Delete(ctx context.Context, id uint) error
}

// slugScope names the slug of a row and the sibling set it must be unique within.
type slugScope struct {
	slug  string
	where map[string]any
}

// entity parameterises gormStore for one table.
type entity[T any, C any, P any] struct {
	name    string
	build   func(C) (T, error)
	merge   func(*T, P)
	check   func(T) error
	id      func(T) uint
	filter  func(*gorm.DB, Filters) (*gorm.DB, error)
	scope   func(T) (slugScope, bool)
	cascade func(tx *gorm.DB, id uint) error
}

type gormStore[T any, C any, P any] struct {
	db      *gorm.DB
	logger  *zap.Logger
	options Options
	entity  entity[T, C, P]
}

func newStore[T any, C any, P any](db *gorm.DB, logger *zap.Logger, options Options, e entity[T, C, P]) *gormStore[T, C, P] {
	return &gormStore[T, C, P]{db: db, logger: serviceerr.Logger(logger), options: options, entity: e}
}

func (s *gormStore[T, C, P]) Create(ctx context.Context, input C) (T, error) {
	var zero T
	row, err := s.entity.build(input)
	if err != nil {
		return zero, err
	}
	if err := s.checkSlug(ctx, row); err != nil {
		return zero, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return zero, s.fail("create", "insert_failed", err)
	}
	return s.Get(ctx, s.entity.id(row))
}

func (s *gormStore[T, C, P]) List(ctx context.Context, filters Filters) ([]T, error) {
	query := s.db.WithContext(ctx).Model(new(T))
	if s.entity.filter != nil {
		filtered, err := s.entity.filter(query, filters)
		if err != nil {
			return nil, err
		}
		query = filtered
	}
	rows := make([]T, 0)
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, s.fail("list", "select_failed", err)
	}
	return rows, nil
}

func (s *gormStore[T, C, P]) Get(ctx context.Context, id uint) (T, error) {
	var row T
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, ErrNotFound
	}
	if err != nil {
		return row, s.fail("get", "select_failed", err)
	}
	return row, nil
}

func (s *gormStore[T, C, P]) Update(ctx context.Context, id uint, changes P) (T, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return row, err
	}
	s.entity.merge(&row, changes)
	if s.entity.check != nil {
		if err := s.entity.check(row); err != nil {
			return row, err
		}
	}
	if err := s.checkSlug(ctx, row); err != nil {
		return row, err
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return row, s.fail("update", "save_failed", err)
	}
	return s.Get(ctx, id)
}

func (s *gormStore[T, C, P]) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if s.options.CascadeDeletes && s.entity.cascade != nil {
		if err := s.entity.cascade(db, id); err != nil {
			return s.fail("delete", "cascade_failed", err)
		}
	}
	if err := db.Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return s.fail("delete", "delete_failed", err)
	}
	return nil
}

func (s *gormStore[T, C, P]) checkSlug(ctx context.Context, row T) error {
	if !s.options.StrictSlugs || s.entity.scope == nil {
		return nil
	}
	scope, ok := s.entity.scope(row)
	if !ok {
		return nil
	}
	query := s.db.WithContext(ctx).Model(new(T)).Where("slug = ?", scope.slug)
	if len(scope.where) > 0 {
		query = query.Where(scope.where)
	}
	if id := s.entity.id(row); id != 0 {
		query = query.Where("id <> ?", id)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return s.fail("slug", "count_failed", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s %q", ErrDuplicateID, s.entity.name, scope.slug)
	}
	return nil
}

func (s *gormStore[T, C, P]) fail(operation, reason string, err error) error {
	code := fmt.Sprintf("catalog.%s.%s", s.entity.name, operation)
	serviceerr.Log(s.logger, "catalog service error", code, reason, err)
	return serviceerr.New(code, reason, err)
}
