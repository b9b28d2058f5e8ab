// Package roadmaps stores the roadmap, module, chapter, lesson, lab and problem
// curriculum tree and assembles it into nested documents.
package roadmaps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tensorcode/backend/internal/serviceerr"
	"github.com/tensorcode/backend/internal/slugs"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrValidation marks rejected input.
	ErrValidation = fmt.Errorf("roadmaps: %w", serviceerr.ErrValidation)
	// ErrNotFound is wrapped by every NotFoundError.
	ErrNotFound = fmt.Errorf("roadmaps: %w", serviceerr.ErrNotFound)
	// ErrDuplicateID indicates a sibling already uses the derived id. Only raised with strict slugs.
	ErrDuplicateID = fmt.Errorf("roadmaps: %w", serviceerr.ErrConflict)

	errMissingDatabase = errors.New("database handle is required")
)

const defaultFanoutLimit = 8

// NotFoundError names the missing node. Parent is set when the node was
// referenced as the parent of a new child.
type NotFoundError struct {
	Entity string
	Parent bool
}

func (e *NotFoundError) Error() string {
	if e.Parent {
		return fmt.Sprintf("the specified %s does not exist", e.Entity)
	}
	return fmt.Sprintf("no %s found with this ID", e.Entity)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

func parentNotFound(entity string) error {
	return &NotFoundError{Entity: entity, Parent: true}
}

// Options toggles behaviour beyond plain row storage.
type Options struct {
	// StrictSlugs rejects a create whose derived id is already used by a sibling.
	StrictSlugs bool
	// CascadeDeletes removes every descendant sharing the deleted node's path.
	CascadeDeletes bool
	// FanoutLimit bounds concurrent sibling fetches while assembling a tree.
	FanoutLimit int
}

// ServiceConfig describes the dependencies of the roadmap service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
	Options  Options
}

// Service reads and mutates the curriculum tree.
type Service struct {
	db      *gorm.DB
	clock   func() time.Time
	logger  *zap.Logger
	options Options
}

// NewService validates cfg and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, serviceerr.New("roadmaps.service.new", "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	options := cfg.Options
	if options.FanoutLimit <= 0 {
		options.FanoutLimit = defaultFanoutLimit
	}
	return &Service{
		db:      cfg.Database,
		clock:   clock,
		logger:  serviceerr.Logger(cfg.Logger),
		options: options,
	}, nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// exists reports whether a row of model matches path and, when idColumn is set, id.
func (s *Service) exists(ctx context.Context, model any, path Path, idColumn, id string) (bool, error) {
	query := path.scope(s.db.WithContext(ctx).Model(model), "")
	if idColumn != "" {
		query = query.Where(idColumn+" = ?", id)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// nextOrderIndex returns one past the largest order_index among the siblings under path.
func (s *Service) nextOrderIndex(ctx context.Context, model any, path Path) (int, error) {
	var next int
	err := path.scope(s.db.WithContext(ctx).Model(model), "").
		Select("COALESCE(MAX(order_index), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// updateRow applies updates to the row of model at path and id, stamping updated_at.
func (s *Service) updateRow(ctx context.Context, model any, path Path, idColumn, id string, updates map[string]any) error {
	updates["updated_at"] = s.now()
	return path.scope(s.db.WithContext(ctx).Model(model), "").
		Where(idColumn+" = ?", id).
		Updates(updates).Error
}

// deleteRow removes the row of model at path and id and, with cascading enabled,
// every row in descendants whose path extends it.
func (s *Service) deleteRow(ctx context.Context, model any, path Path, idColumn, id string, descendants ...any) error {
	db := s.db.WithContext(ctx)
	if s.options.CascadeDeletes {
		childPath := extend(path, idColumn, id)
		for _, descendant := range descendants {
			if err := childPath.scope(db, "").Delete(descendant).Error; err != nil {
				return err
			}
		}
	}
	return path.scope(db, "").Where(idColumn+" = ?", id).Delete(model).Error
}

func extend(path Path, idColumn, id string) Path {
	switch idColumn {
	case "roadmap_id":
		path.RoadmapID = id
	case "module_id":
		path.ModuleID = id
	case "chapter_id":
		path.ChapterID = id
	case "lesson_id":
		path.LessonID = id
	}
	return path
}

// reorder assigns order_index to each listed sibling in sequence. A failure
// leaves earlier assignments in place.
func (s *Service) reorder(ctx context.Context, model any, path Path, idColumn string, entries []OrderEntry) error {
	for _, entry := range entries {
		if strings.TrimSpace(entry.ID) == "" {
			return fmt.Errorf("%w: %s is required for every entry", ErrValidation, idColumn)
		}
		updates := map[string]any{"order_index": entry.OrderIndex}
		if err := s.updateRow(ctx, model, path, idColumn, entry.ID, updates); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) fail(operation, reason string, err error, fields ...zap.Field) error {
	serviceerr.Log(s.logger, "roadmap service error", operation, reason, err, fields...)
	return serviceerr.New(operation, reason, err)
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return nil
}

// requirePath checks that every level above depth is set.
func requirePath(path Path, depth int) error {
	for index, column := range []string{path.RoadmapID, path.ModuleID, path.ChapterID, path.LessonID}[:depth] {
		if strings.TrimSpace(column) == "" {
			names := []string{"roadmap_id", "module_id", "chapter_id", "lesson_id"}
			return fmt.Errorf("%w: %s is required", ErrValidation, names[index])
		}
	}
	return nil
}

// slugID derives the id of a new node from its name.
func slugID(name string) (string, error) {
	id := slugs.Slug(name)
	if id == "" {
		return "", fmt.Errorf("%w: name must contain a letter or digit", ErrValidation)
	}
	return id, nil
}

// checkUnique rejects id when strict slugs are on and a sibling under path already uses it.
func (s *Service) checkUnique(ctx context.Context, model any, path Path, idColumn, id, entity string) error {
	if !s.options.StrictSlugs {
		return nil
	}
	found, err := s.exists(ctx, model, path, idColumn, id)
	if err != nil {
		return s.fail(entity+".unique", "count_failed", err, zap.String(idColumn, id))
	}
	if found {
		return fmt.Errorf("%w: %s %q already exists", ErrDuplicateID, entity, id)
	}
	return nil
}

var validContentStatuses = map[string]struct{}{
	StatusLive:       {},
	StatusComingSoon: {},
	StatusArchived:   {},
}

func checkContentStatus(status string) error {
	if _, ok := validContentStatuses[status]; !ok {
		return fmt.Errorf("%w: status must be one of live, coming_soon, archived", ErrValidation)
	}
	return nil
}

func jsonArray(value datatypes.JSON) datatypes.JSON {
	if len(value) == 0 || string(value) == "null" {
		return datatypes.JSON("[]")
	}
	return value
}
