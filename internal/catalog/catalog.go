// Package catalog stores the category, subcategory, chapter, lab and problem tree
// and folds it into the collection view.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tensorcode/backend/internal/serviceerr"
	"github.com/tensorcode/backend/internal/slugs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errMissingDatabase = errors.New("database handle is required")

// Options toggles strictness beyond plain row storage.
type Options struct {
	// StrictSlugs rejects a slug already used by a sibling.
	StrictSlugs bool
	// CascadeDeletes removes the subtree beneath a deleted node.
	CascadeDeletes bool
}

// ServiceConfig describes the dependencies of the catalog.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
	Options  Options
}

// Service bundles the per-entity stores and the collection view.
type Service struct {
	Categories    Store[Category, CategoryInput, CategoryPatch]
	Subcategories Store[Subcategory, SubcategoryInput, SubcategoryPatch]
	Chapters      Store[Chapter, ChapterInput, ChapterPatch]
	Labs          Store[Lab, ExerciseInput, ExercisePatch]
	Problems      Store[Problem, ExerciseInput, ExercisePatch]

	db     *gorm.DB
	logger *zap.Logger
}

// NewService wires every catalog store against one database handle.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, serviceerr.New("catalog.service.new", "missing_database", errMissingDatabase)
	}
	db, logger, options := cfg.Database, cfg.Logger, cfg.Options
	return &Service{
		Categories:    newStore(db, logger, options, categoryEntity),
		Subcategories: newStore(db, logger, options, subcategoryEntity),
		Chapters:      newStore(db, logger, options, chapterEntity),
		Labs:          newStore(db, logger, options, exerciseEntity("lab", func(e Exercise) Lab { return Lab{Exercise: e} }, func(l *Lab) *Exercise { return &l.Exercise }, "labs")),
		Problems:      newStore(db, logger, options, exerciseEntity("problem", func(e Exercise) Problem { return Problem{Exercise: e} }, func(p *Problem) *Exercise { return &p.Exercise }, "problems")),
		db:            db,
		logger:        serviceerr.Logger(logger),
	}, nil
}

var categoryEntity = entity[Category, CategoryInput, CategoryPatch]{
	name: "category",
	build: func(in CategoryInput) (Category, error) {
		row := Category{Name: strings.TrimSpace(in.Name), Slug: slugOrDerived(in.Slug, in.Name)}
		return row, checkNamed(row.Name, row.Slug)
	},
	merge: func(row *Category, p CategoryPatch) {
		p.Name.Apply(&row.Name)
		p.Slug.Apply(&row.Slug)
	},
	check: func(row Category) error { return checkNamed(row.Name, row.Slug) },
	id:    func(row Category) uint { return row.ID },
	scope: func(row Category) (slugScope, bool) {
		return slugScope{slug: row.Slug}, true
	},
	cascade: func(tx *gorm.DB, id uint) error {
		var subcategoryIDs []uint
		if err := tx.Model(&Subcategory{}).Where("category_id = ?", id).Pluck("id", &subcategoryIDs).Error; err != nil {
			return err
		}
		if err := deleteChapterTrees(tx, subcategoryIDs); err != nil {
			return err
		}
		if len(subcategoryIDs) == 0 {
			return nil
		}
		return tx.Where("id IN ?", subcategoryIDs).Delete(&Subcategory{}).Error
	},
}

var subcategoryEntity = entity[Subcategory, SubcategoryInput, SubcategoryPatch]{
	name: "subcategory",
	build: func(in SubcategoryInput) (Subcategory, error) {
		row := Subcategory{Name: strings.TrimSpace(in.Name), Slug: slugOrDerived(in.Slug, in.Name), CategoryID: in.CategoryID}
		return row, checkSubcategory(row)
	},
	merge: func(row *Subcategory, p SubcategoryPatch) {
		p.Name.Apply(&row.Name)
		p.Slug.Apply(&row.Slug)
		p.CategoryID.Apply(&row.CategoryID)
	},
	check:  checkSubcategory,
	id:     func(row Subcategory) uint { return row.ID },
	filter: idFilter("category_id"),
	scope: func(row Subcategory) (slugScope, bool) {
		return slugScope{slug: row.Slug, where: map[string]any{"category_id": row.CategoryID}}, true
	},
	cascade: func(tx *gorm.DB, id uint) error {
		return deleteChapterTrees(tx, []uint{id})
	},
}

var chapterEntity = entity[Chapter, ChapterInput, ChapterPatch]{
	name: "chapter",
	build: func(in ChapterInput) (Chapter, error) {
		row := Chapter{Name: strings.TrimSpace(in.Name), Slug: slugOrDerived(in.Slug, in.Name), SubcategoryID: in.SubcategoryID}
		return row, checkChapter(row)
	},
	merge: func(row *Chapter, p ChapterPatch) {
		p.Name.Apply(&row.Name)
		p.Slug.Apply(&row.Slug)
		p.SubcategoryID.Apply(&row.SubcategoryID)
	},
	check:  checkChapter,
	id:     func(row Chapter) uint { return row.ID },
	filter: idFilter("subcategory_id"),
	scope: func(row Chapter) (slugScope, bool) {
		return slugScope{slug: row.Slug, where: map[string]any{"subcategory_id": row.SubcategoryID}}, true
	},
	cascade: func(tx *gorm.DB, id uint) error {
		return deleteExercises(tx, []uint{id})
	},
}

func exerciseEntity[T any](name string, wrap func(Exercise) T, unwrap func(*T) *Exercise, defaultCollection string) entity[T, ExerciseInput, ExercisePatch] {
	return entity[T, ExerciseInput, ExercisePatch]{
		name: name,
		build: func(in ExerciseInput) (T, error) {
			row := Exercise{
				Title:          strings.TrimSpace(in.Title),
				Difficulty:     in.Difficulty,
				HasTinygrad:    in.HasTinygrad,
				HasPytorch:     in.HasPytorch,
				RequiresGPU:    in.RequiresGPU,
				ProblemType:    in.ProblemType,
				CollectionType: in.CollectionType,
				Repository:     in.Repository,
				ChapterID:      in.ChapterID,
			}
			if row.CollectionType == "" {
				row.CollectionType = defaultCollection
			}
			return wrap(row), checkExercise(row)
		},
		merge: func(row *T, p ExercisePatch) {
			p.apply(unwrap(row))
		},
		check: func(row T) error {
			return checkExercise(*unwrap(&row))
		},
		id: func(row T) uint {
			return unwrap(&row).ID
		},
		filter: exerciseFilter,
	}
}

// exerciseFilter applies chapter_id, difficulty, problem_type and requires_gpu.
func exerciseFilter(query *gorm.DB, filters Filters) (*gorm.DB, error) {
	query, err := idFilter("chapter_id")(query, filters)
	if err != nil {
		return nil, err
	}
	if difficulty := filters["difficulty"]; difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if problemType := filters["problem_type"]; problemType != "" {
		query = query.Where("problem_type = ?", problemType)
	}
	if requiresGPU, ok := filters["requires_gpu"]; ok {
		query = query.Where("requires_gpu = ?", requiresGPU == "true")
	}
	return query, nil
}

func idFilter(column string) func(*gorm.DB, Filters) (*gorm.DB, error) {
	return func(query *gorm.DB, filters Filters) (*gorm.DB, error) {
		raw := filters[column]
		if raw == "" {
			return query, nil
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a positive integer", ErrValidation, column)
		}
		return query.Where(column+" = ?", uint(id)), nil
	}
}

// deleteChapterTrees removes the chapters of the given subcategories and their exercises.
func deleteChapterTrees(tx *gorm.DB, subcategoryIDs []uint) error {
	if len(subcategoryIDs) == 0 {
		return nil
	}
	var chapterIDs []uint
	if err := tx.Model(&Chapter{}).Where("subcategory_id IN ?", subcategoryIDs).Pluck("id", &chapterIDs).Error; err != nil {
		return err
	}
	if err := deleteExercises(tx, chapterIDs); err != nil {
		return err
	}
	if len(chapterIDs) == 0 {
		return nil
	}
	return tx.Where("id IN ?", chapterIDs).Delete(&Chapter{}).Error
}

func deleteExercises(tx *gorm.DB, chapterIDs []uint) error {
	if len(chapterIDs) == 0 {
		return nil
	}
	if err := tx.Where("chapter_id IN ?", chapterIDs).Delete(&Lab{}).Error; err != nil {
		return err
	}
	return tx.Where("chapter_id IN ?", chapterIDs).Delete(&Problem{}).Error
}

func slugOrDerived(slug, name string) string {
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		return trimmed
	}
	return slugs.Slug(name)
}

func checkNamed(name, slug string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrValidation)
	}
	return nil
}

func checkSubcategory(row Subcategory) error {
	if err := checkNamed(row.Name, row.Slug); err != nil {
		return err
	}
	if row.CategoryID == 0 {
		return fmt.Errorf("%w: category_id is required", ErrValidation)
	}
	return nil
}

func checkChapter(row Chapter) error {
	if err := checkNamed(row.Name, row.Slug); err != nil {
		return err
	}
	if row.SubcategoryID == 0 {
		return fmt.Errorf("%w: subcategory_id is required", ErrValidation)
	}
	return nil
}

func checkExercise(row Exercise) error {
	if row.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if row.ChapterID == 0 {
		return fmt.Errorf("%w: chapter_id is required", ErrValidation)
	}
	return nil
}

func (s *Service) logError(operation, reason string, err error) {
	serviceerr.Log(s.logger, "catalog service error", operation, reason, err)
}
