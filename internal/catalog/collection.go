package catalog

import (
	"context"
	"strconv"

	"github.com/tensorcode/backend/internal/serviceerr"
)

// CollectionFilters are the optional query parameters of the collection view.
// Nil pointers mean the parameter was absent.
type CollectionFilters struct {
	Category       string
	Difficulty     string
	Search         string
	RequiresGPU    *string
	CollectionType string
}

// CollectionItem is the projection of a lab or problem inside a collection chapter.
type CollectionItem struct {
	Name           string `json:"name"`
	ID             string `json:"id"`
	Title          string `json:"title"`
	Difficulty     string `json:"difficulty"`
	Category       string `json:"category"`
	HasTinygrad    bool   `json:"has_tinygrad"`
	HasPytorch     bool   `json:"has_pytorch"`
	RequiresGPU    bool   `json:"requires_gpu"`
	ProblemType    string `json:"problem_type"`
	Subcategory    string `json:"subcategory"`
	Type           string `json:"type"`
	CollectionType string `json:"collectionType"`
}

type CollectionChapter struct {
	Name     string           `json:"name"`
	ID       string           `json:"id"`
	Labs     []CollectionItem `json:"labs"`
	Problems []CollectionItem `json:"problems"`
}

type CollectionSubcategory struct {
	Name     string              `json:"name"`
	ID       string              `json:"id"`
	Chapters []CollectionChapter `json:"chapters"`
}

type CollectionCategory struct {
	Name          string                  `json:"name"`
	ID            string                  `json:"id"`
	Subcategories []CollectionSubcategory `json:"subcategories"`
}

// EchoedFilters reports the applied filters with absent values as null.
type EchoedFilters struct {
	CollectionType *string `json:"collectionType"`
	Category       *string `json:"category"`
	Difficulty     *string `json:"difficulty"`
	Search         *string `json:"search"`
	RequiresGPU    *bool   `json:"requiresGpu"`
}

// Collection is the category-rooted view over labs and problems.
type Collection struct {
	Success    bool                 `json:"success"`
	Categories []CollectionCategory `json:"categories"`
	Count      int                  `json:"count"`
	Filters    EchoedFilters        `json:"filters"`
}

// collectionRow is one exercise joined with its ancestors.
type collectionRow struct {
	ID              uint   `gorm:"column:id"`
	Title           string `gorm:"column:title"`
	Difficulty      string `gorm:"column:difficulty"`
	HasTinygrad     bool   `gorm:"column:has_tinygraded"`
	HasPytorch      bool   `gorm:"column:has_pytorch"`
	RequiresGPU     bool   `gorm:"column:requires_gpu"`
	ProblemType     string `gorm:"column:problem_type"`
	Repository      string `gorm:"column:repository"`
	CategoryName    string `gorm:"column:category_name"`
	CategorySlug    string `gorm:"column:category_slug"`
	SubcategoryName string `gorm:"column:subcategory_name"`
	SubcategorySlug string `gorm:"column:subcategory_slug"`
	ChapterName     string `gorm:"column:chapter_name"`
	ChapterSlug     string `gorm:"column:chapter_slug"`
}

const (
	itemTypeLab     = "lab"
	itemTypeProblem = "problem"
)

// Collection folds labs and problems into a category, subcategory, chapter tree.
// Node order follows the first occurrence of each slug in the joined result order.
func (s *Service) Collection(ctx context.Context, filters CollectionFilters) (Collection, error) {
	var labRows, problemRows []collectionRow
	if filters.CollectionType != "problems" {
		rows, err := s.collectionRows(ctx, "labs", filters)
		if err != nil {
			return Collection{}, err
		}
		labRows = rows
	}
	if filters.CollectionType != "labs" {
		rows, err := s.collectionRows(ctx, "problems", filters)
		if err != nil {
			return Collection{}, err
		}
		problemRows = rows
	}

	tree := newCollectionTree()
	for _, row := range labRows {
		tree.add(row, itemTypeLab)
	}
	for _, row := range problemRows {
		tree.add(row, itemTypeProblem)
	}
	categories, count := tree.build()

	return Collection{
		Success:    true,
		Categories: categories,
		Count:      count,
		Filters:    echoFilters(filters),
	}, nil
}

func (s *Service) collectionRows(ctx context.Context, table string, filters CollectionFilters) ([]collectionRow, error) {
	query := s.db.WithContext(ctx).
		Table(table+" AS item").
		Select(`item.id, item.title, item.difficulty, item.has_tinygraded, item.has_pytorch,
			item.requires_gpu, item.problem_type, item.repository,
			cat.name AS category_name, cat.slug AS category_slug,
			sc.name AS subcategory_name, sc.slug AS subcategory_slug,
			ch.name AS chapter_name, ch.slug AS chapter_slug`).
		Joins("INNER JOIN chapters ch ON item.chapter_id = ch.id").
		Joins("INNER JOIN subcategories sc ON ch.subcategory_id = sc.id").
		Joins("INNER JOIN categories cat ON sc.category_id = cat.id")

	if filters.Difficulty != "" {
		query = query.Where("item.difficulty = ?", filters.Difficulty)
	}
	if filters.Search != "" {
		query = query.Where("item.title LIKE ?", "%"+filters.Search+"%")
	}
	if filters.RequiresGPU != nil {
		query = query.Where("item.requires_gpu = ?", *filters.RequiresGPU == "true")
	}
	if filters.Category != "" {
		query = query.Where("cat.name LIKE ?", "%"+filters.Category+"%")
	}

	rows := make([]collectionRow, 0)
	err := query.
		Order("cat.created_at, cat.id, sc.created_at, sc.id, ch.created_at, ch.id, item.created_at, item.id").
		Scan(&rows).Error
	if err != nil {
		code := "catalog.collection." + table
		s.logError(code, "select_failed", err)
		return nil, serviceerr.New(code, "select_failed", err)
	}
	return rows, nil
}

type chapterNode struct {
	value CollectionChapter
}

type subcategoryNode struct {
	value    CollectionSubcategory
	order    []string
	chapters map[string]*chapterNode
}

type categoryNode struct {
	value         CollectionCategory
	order         []string
	subcategories map[string]*subcategoryNode
}

type collectionTree struct {
	order      []string
	categories map[string]*categoryNode
}

func newCollectionTree() *collectionTree {
	return &collectionTree{categories: make(map[string]*categoryNode)}
}

func (t *collectionTree) add(row collectionRow, itemType string) {
	category, ok := t.categories[row.CategorySlug]
	if !ok {
		category = &categoryNode{
			value:         CollectionCategory{Name: row.CategoryName, ID: row.CategorySlug},
			subcategories: make(map[string]*subcategoryNode),
		}
		t.categories[row.CategorySlug] = category
		t.order = append(t.order, row.CategorySlug)
	}

	subcategory, ok := category.subcategories[row.SubcategorySlug]
	if !ok {
		subcategory = &subcategoryNode{
			value:    CollectionSubcategory{Name: row.SubcategoryName, ID: row.SubcategorySlug},
			chapters: make(map[string]*chapterNode),
		}
		category.subcategories[row.SubcategorySlug] = subcategory
		category.order = append(category.order, row.SubcategorySlug)
	}

	chapter, ok := subcategory.chapters[row.ChapterSlug]
	if !ok {
		chapter = &chapterNode{value: CollectionChapter{
			Name:     row.ChapterName,
			ID:       row.ChapterSlug,
			Labs:     []CollectionItem{},
			Problems: []CollectionItem{},
		}}
		subcategory.chapters[row.ChapterSlug] = chapter
		subcategory.order = append(subcategory.order, row.ChapterSlug)
	}

	item := CollectionItem{
		Name:        row.Repository,
		ID:          strconv.FormatUint(uint64(row.ID), 10),
		Title:       row.Title,
		Difficulty:  row.Difficulty,
		Category:    row.CategoryName,
		HasTinygrad: row.HasTinygrad,
		HasPytorch:  row.HasPytorch,
		RequiresGPU: row.RequiresGPU,
		ProblemType: row.ProblemType,
		Subcategory: row.SubcategoryName,
		Type:        itemType,
	}
	if itemType == itemTypeLab {
		item.CollectionType = "labs"
		chapter.value.Labs = append(chapter.value.Labs, item)
		return
	}
	item.CollectionType = "problems"
	chapter.value.Problems = append(chapter.value.Problems, item)
}

// build emits the tree without empty nodes and returns the total item count.
func (t *collectionTree) build() ([]CollectionCategory, int) {
	categories := make([]CollectionCategory, 0, len(t.order))
	total := 0
	for _, categorySlug := range t.order {
		category := t.categories[categorySlug]
		subcategories := make([]CollectionSubcategory, 0, len(category.order))
		for _, subcategorySlug := range category.order {
			subcategory := category.subcategories[subcategorySlug]
			chapters := make([]CollectionChapter, 0, len(subcategory.order))
			for _, chapterSlug := range subcategory.order {
				chapter := subcategory.chapters[chapterSlug].value
				size := len(chapter.Labs) + len(chapter.Problems)
				if size == 0 {
					continue
				}
				total += size
				chapters = append(chapters, chapter)
			}
			if len(chapters) == 0 {
				continue
			}
			value := subcategory.value
			value.Chapters = chapters
			subcategories = append(subcategories, value)
		}
		if len(subcategories) == 0 {
			continue
		}
		value := category.value
		value.Subcategories = subcategories
		categories = append(categories, value)
	}
	return categories, total
}

func echoFilters(filters CollectionFilters) EchoedFilters {
	echoed := EchoedFilters{
		CollectionType: optionalString(filters.CollectionType),
		Category:       optionalString(filters.Category),
		Difficulty:     optionalString(filters.Difficulty),
		Search:         optionalString(filters.Search),
	}
	if filters.RequiresGPU != nil {
		switch *filters.RequiresGPU {
		case "true":
			value := true
			echoed.RequiresGPU = &value
		case "false":
			value := false
			echoed.RequiresGPU = &value
		}
	}
	return echoed
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
