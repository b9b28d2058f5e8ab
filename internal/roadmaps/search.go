package roadmaps

import (
	"context"

	"gorm.io/gorm"
)

// SearchTypes lists the searchable node types in result order.
var SearchTypes = []string{"roadmap", "module", "chapter", "lesson", "lab", "problem"}

// SearchQuery holds the search parameters. Nil pointers mean the parameter was absent.
type SearchQuery struct {
	Q           string
	Type        string
	Difficulty  string
	Status      string
	RoadmapID   string
	HasPytorch  *string
	HasTinygrad *string
	RequiresGPU *string
}

// SearchResult is one matching node. Flags are only present for labs and problems.
type SearchResult struct {
	Type        string  `gorm:"column:type" json:"type"`
	ID          string  `gorm:"column:id" json:"id"`
	Name        string  `gorm:"column:name" json:"name"`
	Title       *string `gorm:"column:title" json:"title"`
	Description *string `gorm:"column:description" json:"description"`
	Difficulty  *string `gorm:"column:difficulty" json:"difficulty"`
	Status      string  `gorm:"column:status" json:"status"`
	HasPytorch  *bool   `gorm:"column:has_pytorch" json:"has_pytorch,omitempty"`
	HasTinygrad *bool   `gorm:"column:has_tinygrad" json:"has_tinygrad,omitempty"`
	RequiresGPU *bool   `gorm:"column:requires_gpu" json:"requires_gpu,omitempty"`
}

type searchTarget struct {
	table      string
	selectSQL  string
	textFields []string
	scoped     bool
	difficulty bool
	flags      bool
}

var searchTargets = map[string]searchTarget{
	"roadmap": {
		table:      "roadmaps",
		selectSQL:  "'roadmap' AS type, roadmap_id AS id, name, title, description, NULL AS difficulty, status",
		textFields: []string{"name", "title", "description"},
	},
	"module": {
		table:      "modules",
		selectSQL:  "'module' AS type, module_id AS id, name, NULL AS title, description, difficulty, status",
		textFields: []string{"name", "description"},
		scoped:     true,
		difficulty: true,
	},
	"chapter": {
		table:      "roadmap_chapters",
		selectSQL:  "'chapter' AS type, chapter_id AS id, name, NULL AS title, description, difficulty, status",
		textFields: []string{"name", "description"},
		scoped:     true,
		difficulty: true,
	},
	"lesson": {
		table:      "lessons",
		selectSQL:  "'lesson' AS type, lesson_id AS id, name, NULL AS title, description, difficulty, status",
		textFields: []string{"name", "description", "content"},
		scoped:     true,
		difficulty: true,
	},
	"lab": {
		table:      "roadmap_labs",
		selectSQL:  "'lab' AS type, lab_id AS id, name, title, description, difficulty, status, has_pytorch, has_tinygrad, requires_gpu",
		textFields: []string{"name", "title", "description"},
		scoped:     true,
		difficulty: true,
		flags:      true,
	},
	"problem": {
		table:      "roadmap_problems",
		selectSQL:  "'problem' AS type, problem_id AS id, name, title, description, difficulty, status, has_pytorch, has_tinygrad, requires_gpu",
		textFields: []string{"name", "title", "description"},
		scoped:     true,
		difficulty: true,
		flags:      true,
	},
}

// Search runs one substring query per requested type and concatenates the results
// in type order. An unknown type matches nothing.
func (s *Service) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	if query.Status == "" {
		query.Status = StatusLive
	}
	types := SearchTypes
	if query.Type != "" {
		types = []string{query.Type}
	}

	results := make([]SearchResult, 0)
	for _, searchType := range types {
		target, ok := searchTargets[searchType]
		if !ok {
			continue
		}
		matches := make([]SearchResult, 0)
		if err := s.searchStatement(ctx, target, query).Scan(&matches).Error; err != nil {
			return nil, s.fail("search."+searchType, "select_failed", err)
		}
		results = append(results, matches...)
	}
	return results, nil
}

func (s *Service) searchStatement(ctx context.Context, target searchTarget, query SearchQuery) *gorm.DB {
	statement := s.db.WithContext(ctx).
		Table(target.table).
		Select(target.selectSQL).
		Where("status = ?", query.Status)
	if target.scoped && query.RoadmapID != "" {
		statement = statement.Where("roadmap_id = ?", query.RoadmapID)
	}
	if query.Q != "" {
		pattern := "%" + query.Q + "%"
		text := s.db.Where(target.textFields[0]+" LIKE ?", pattern)
		for _, field := range target.textFields[1:] {
			text = text.Or(field+" LIKE ?", pattern)
		}
		statement = statement.Where(text)
	}
	if target.difficulty && query.Difficulty != "" {
		statement = statement.Where("difficulty = ?", query.Difficulty)
	}
	if target.flags {
		for column, value := range map[string]*string{
			"has_pytorch":  query.HasPytorch,
			"has_tinygrad": query.HasTinygrad,
			"requires_gpu": query.RequiresGPU,
		} {
			if value != nil {
				statement = statement.Where(column+" = ?", *value == "true")
			}
		}
	}
	return statement
}
