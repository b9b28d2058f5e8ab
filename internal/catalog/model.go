package catalog

import (
	"time"

	"github.com/tensorcode/backend/internal/patch"
)

// Category is the root of the collection tree.
type Category struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Slug      string    `gorm:"column:slug;size:255;not null;index" json:"slug"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Category) TableName() string { return "categories" }

// Subcategory belongs to exactly one Category.
type Subcategory struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"column:name;size:255;not null" json:"name"`
	Slug       string    `gorm:"column:slug;size:255;not null;index" json:"slug"`
	CategoryID uint      `gorm:"column:category_id;not null;index" json:"category_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Subcategory) TableName() string { return "subcategories" }

// Chapter belongs to exactly one Subcategory and groups labs and problems.
type Chapter struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"column:name;size:255;not null" json:"name"`
	Slug          string    `gorm:"column:slug;size:255;not null;index" json:"slug"`
	SubcategoryID uint      `gorm:"column:subcategory_id;not null;index" json:"subcategory_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Chapter) TableName() string { return "chapters" }

// Exercise holds the columns shared by labs and problems.
type Exercise struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title          string    `gorm:"column:title;size:255;not null" json:"title"`
	Difficulty     string    `gorm:"column:difficulty;size:32;index" json:"difficulty"`
	HasTinygrad    bool      `gorm:"column:has_tinygraded;not null;default:false" json:"has_tinygraded"`
	HasPytorch     bool      `gorm:"column:has_pytorch;not null;default:false" json:"has_pytorch"`
	RequiresGPU    bool      `gorm:"column:requires_gpu;not null;default:false" json:"requires_gpu"`
	ProblemType    string    `gorm:"column:problem_type;size:64" json:"problem_type"`
	CollectionType string    `gorm:"column:collection_type;size:32" json:"collection_type"`
	Repository     string    `gorm:"column:repository;size:255" json:"repository"`
	ChapterID      uint      `gorm:"column:chapter_id;not null;index" json:"chapter_id"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// Lab is a hands-on exercise stored in the labs table.
type Lab struct {
	Exercise
}

func (Lab) TableName() string { return "labs" }

// Problem is a coding problem stored in the problems table.
type Problem struct {
	Exercise
}

func (Problem) TableName() string { return "problems" }

// CategoryInput is the create body for categories. An empty slug is derived from the name.
type CategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CategoryPatch struct {
	Name patch.Field[string] `json:"name"`
	Slug patch.Field[string] `json:"slug"`
}

type SubcategoryInput struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	CategoryID uint   `json:"category_id"`
}

type SubcategoryPatch struct {
	Name       patch.Field[string] `json:"name"`
	Slug       patch.Field[string] `json:"slug"`
	CategoryID patch.Field[uint]   `json:"category_id"`
}

type ChapterInput struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	SubcategoryID uint   `json:"subcategory_id"`
}

type ChapterPatch struct {
	Name          patch.Field[string] `json:"name"`
	Slug          patch.Field[string] `json:"slug"`
	SubcategoryID patch.Field[uint]   `json:"subcategory_id"`
}

// ExerciseInput is the create body for labs and problems.
type ExerciseInput struct {
	Title          string `json:"title"`
	Difficulty     string `json:"difficulty"`
	HasTinygrad    bool   `json:"has_tinygraded"`
	HasPytorch     bool   `json:"has_pytorch"`
	RequiresGPU    bool   `json:"requires_gpu"`
	ProblemType    string `json:"problem_type"`
	CollectionType string `json:"collection_type"`
	Repository     string `json:"repository"`
	ChapterID      uint   `json:"chapter_id"`
}

type ExercisePatch struct {
	Title          patch.Field[string] `json:"title"`
	Difficulty     patch.Field[string] `json:"difficulty"`
	HasTinygrad    patch.Field[bool]   `json:"has_tinygraded"`
	HasPytorch     patch.Field[bool]   `json:"has_pytorch"`
	RequiresGPU    patch.Field[bool]   `json:"requires_gpu"`
	ProblemType    patch.Field[string] `json:"problem_type"`
	CollectionType patch.Field[string] `json:"collection_type"`
	Repository     patch.Field[string] `json:"repository"`
	ChapterID      patch.Field[uint]   `json:"chapter_id"`
}

func (p ExercisePatch) apply(row *Exercise) {
	p.Title.Apply(&row.Title)
	p.Difficulty.Apply(&row.Difficulty)
	p.HasTinygrad.Apply(&row.HasTinygrad)
	p.HasPytorch.Apply(&row.HasPytorch)
	p.RequiresGPU.Apply(&row.RequiresGPU)
	p.ProblemType.Apply(&row.ProblemType)
	p.CollectionType.Apply(&row.CollectionType)
	p.Repository.Apply(&row.Repository)
	p.ChapterID.Apply(&row.ChapterID)
}

// Models lists every catalog table for schema migration.
func Models() []any {
	return []any{&Category{}, &Subcategory{}, &Chapter{}, &Lab{}, &Problem{}}
}
