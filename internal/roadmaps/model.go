package roadmaps

import (
	"time"

	"github.com/tensorcode/backend/internal/patch"
	"gorm.io/datatypes"
)

const (
	StatusActive     = "active"
	StatusArchived   = "archived"
	StatusDraft      = "draft"
	StatusLive       = "live"
	StatusComingSoon = "coming_soon"
)

// Roadmap is the root of a curriculum tree.
type Roadmap struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoadmapID      string    `gorm:"column:roadmap_id;size:255;not null;index" json:"roadmap_id"`
	Name           string    `gorm:"column:name;size:255;not null" json:"name"`
	Title          string    `gorm:"column:title;size:255;not null" json:"title"`
	Description    string    `gorm:"column:description;type:text" json:"description"`
	Level          string    `gorm:"column:level;size:32" json:"level"`
	EstimatedHours int       `gorm:"column:estimated_hours;not null;default:0" json:"estimated_hours"`
	OfficialDocs   string    `gorm:"column:official_docs;size:1024" json:"official_docs"`
	Icon           string    `gorm:"column:icon;size:1024" json:"icon"`
	Version        string    `gorm:"column:version;size:32;not null;default:1.0.0" json:"version"`
	Status         string    `gorm:"column:status;size:16;not null;default:draft;index" json:"status"`
	LastUpdated    time.Time `gorm:"column:last_updated" json:"last_updated"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Roadmap) TableName() string { return "roadmaps" }

// Module groups chapters inside a roadmap.
type Module struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoadmapID   string    `gorm:"column:roadmap_id;size:255;not null;index:idx_modules_path" json:"roadmap_id"`
	ModuleID    string    `gorm:"column:module_id;size:255;not null;index:idx_modules_path" json:"module_id"`
	Name        string    `gorm:"column:name;size:255;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	OrderIndex  int       `gorm:"column:order_index;not null;default:0" json:"order_index"`
	Difficulty  string    `gorm:"column:difficulty;size:32" json:"difficulty"`
	Status      string    `gorm:"column:status;size:16;not null;default:live" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Module) TableName() string { return "modules" }

// Chapter groups lessons inside a module.
type Chapter struct {
	ID                 uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoadmapID          string         `gorm:"column:roadmap_id;size:255;not null;index:idx_roadmap_chapters_path" json:"roadmap_id"`
	ModuleID           string         `gorm:"column:module_id;size:255;not null;index:idx_roadmap_chapters_path" json:"module_id"`
	ChapterID          string         `gorm:"column:chapter_id;size:255;not null;index:idx_roadmap_chapters_path" json:"chapter_id"`
	Name               string         `gorm:"column:name;size:255;not null" json:"name"`
	Description        string         `gorm:"column:description;type:text" json:"description"`
	Difficulty         string         `gorm:"column:difficulty;size:32" json:"difficulty"`
	OrderIndex         int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	EstimatedHours     int            `gorm:"column:estimated_hours;not null;default:0" json:"estimated_hours"`
	Status             string         `gorm:"column:status;size:16;not null;default:live" json:"status"`
	Prerequisites      datatypes.JSON `gorm:"column:prerequisites" json:"prerequisites"`
	LearningObjectives datatypes.JSON `gorm:"column:learning_objectives" json:"learning_objectives"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Chapter) TableName() string { return "roadmap_chapters" }

// Lesson is a unit of reading inside a chapter.
type Lesson struct {
	ID                 uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoadmapID          string         `gorm:"column:roadmap_id;size:255;not null;index:idx_lessons_path" json:"roadmap_id"`
	ModuleID           string         `gorm:"column:module_id;size:255;not null;index:idx_lessons_path" json:"module_id"`
	ChapterID          string         `gorm:"column:chapter_id;size:255;not null;index:idx_lessons_path" json:"chapter_id"`
	LessonID           string         `gorm:"column:lesson_id;size:255;not null;index:idx_lessons_path" json:"lesson_id"`
	Name               string         `gorm:"column:name;size:255;not null" json:"name"`
	Type               string         `gorm:"column:type;size:16;not null;default:lesson" json:"type"`
	Duration           string         `gorm:"column:duration;size:64" json:"duration"`
	Difficulty         string         `gorm:"column:difficulty;size:32" json:"difficulty"`
	Description        string         `gorm:"column:description;type:text" json:"description"`
	Content            string         `gorm:"column:content;type:text" json:"content"`
	OrderIndex         int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	Status             string         `gorm:"column:status;size:16;not null;default:live" json:"status"`
	Prerequisites      datatypes.JSON `gorm:"column:prerequisites" json:"prerequisites"`
	LearningObjectives datatypes.JSON `gorm:"column:learning_objectives" json:"learning_objectives"`
	Resources          datatypes.JSON `gorm:"column:resources" json:"resources"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Lesson) TableName() string { return "lessons" }

// Lab is a hands-on exercise attached to a lesson.
type Lab struct {
	ID            uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoadmapID     string         `gorm:"column:roadmap_id;size:255;not null;index:idx_roadmap_labs_path" json:"roadmap_id"`
	ModuleID      string         `gorm:"column:module_id;size:255;not null;index:idx_roadmap_labs_path" json:"module_id"`
	ChapterID     string         `gorm:"column:chapter_id;size:255;not null;index:idx_roadmap_labs_path" json:"chapter_id"`
	LessonID      string         `gorm:"column:lesson_id;size:255;not null;index:idx_roadmap_labs_path" json:"lesson_id"`
	LabID         string         `gorm:"column:lab_id;size:255;not null;index" json:"lab_id"`
	Name          string         `gorm:"column:name;size:255;not null" json:"name"`
	Title         string         `gorm:"column:title;size:255;not null" json:"title"`
	Difficulty    string         `gorm:"column:difficulty;size:32" json:"difficulty"`
	HasTinygrad   bool           `gorm:"column:has_tinygrad;not null;default:false" json:"has_tinygrad"`
	HasPytorch    bool           `gorm:"column:has_pytorch;not null;default:false" json:"has_pytorch"`
	RequiresGPU   bool           `gorm:"column:requires_gpu;not null;default:false" json:"requires_gpu"`
	ProblemType   string         `gorm:"column:problem_type;size:32" json:"problem_type"`
	EstimatedTime string         `gorm:"column:estimated_time;size:64" json:"estimated_time"`
	Description   string         `gorm:"column:description;type:text" json:"description"`
	Instructions  string         `gorm:"column:instructions;type:text" json:"instructions"`
	StarterCode   string         `gorm:"column:starter_code;type:text" json:"starter_code"`
	Solution      string         `gorm:"column:solution;type:text" json:"solution"`
	Status        string         `gorm:"column:status;size:16;not null;default:live" json:"status"`
	Hints         datatypes.JSON `gorm:"column:hints" json:"hints"`
	Resources     datatypes.JSON `gorm:"column:resources" json:"resources"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Lab) TableName() string { return "roadmap_labs" }

// Problem is a graded coding problem attached to a lesson.
type Problem struct {
	ID               uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoadmapID        string         `gorm:"column:roadmap_id;size:255;not null;index:idx_roadmap_problems_path" json:"roadmap_id"`
	ModuleID         string         `gorm:"column:module_id;size:255;not null;index:idx_roadmap_problems_path" json:"module_id"`
	ChapterID        string         `gorm:"column:chapter_id;size:255;not null;index:idx_roadmap_problems_path" json:"chapter_id"`
	LessonID         string         `gorm:"column:lesson_id;size:255;not null;index:idx_roadmap_problems_path" json:"lesson_id"`
	ProblemID        string         `gorm:"column:problem_id;size:255;not null;index" json:"problem_id"`
	Name             string         `gorm:"column:name;size:255;not null" json:"name"`
	Title            string         `gorm:"column:title;size:255;not null" json:"title"`
	Difficulty       string         `gorm:"column:difficulty;size:32" json:"difficulty"`
	HasTinygrad      bool           `gorm:"column:has_tinygrad;not null;default:false" json:"has_tinygrad"`
	HasPytorch       bool           `gorm:"column:has_pytorch;not null;default:false" json:"has_pytorch"`
	RequiresGPU      bool           `gorm:"column:requires_gpu;not null;default:false" json:"requires_gpu"`
	ProblemType      string         `gorm:"column:problem_type;size:32" json:"problem_type"`
	EstimatedTime    string         `gorm:"column:estimated_time;size:64" json:"estimated_time"`
	Description      string         `gorm:"column:description;type:text" json:"description"`
	ProblemStatement string         `gorm:"column:problem_statement;type:text" json:"problem_statement"`
	StarterCode      datatypes.JSON `gorm:"column:starter_code" json:"starter_code"`
	Solution         datatypes.JSON `gorm:"column:solution" json:"solution"`
	TestCases        datatypes.JSON `gorm:"column:test_cases" json:"test_cases"`
	Hints            datatypes.JSON `gorm:"column:hints" json:"hints"`
	Status           string         `gorm:"column:status;size:16;not null;default:live" json:"status"`
	CreatedAt        time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Problem) TableName() string { return "roadmap_problems" }

// Models lists every roadmap table for schema migration.
func Models() []any {
	return []any{&Roadmap{}, &Module{}, &Chapter{}, &Lesson{}, &Lab{}, &Problem{}}
}

// RoadmapSummary is a roadmap with its descendant counts.
type RoadmapSummary struct {
	Roadmap
	ModuleCount   int64 `json:"module_count"`
	TotalChapters int64 `json:"total_chapters"`
	TotalLessons  int64 `json:"total_lessons"`
	TotalLabs     int64 `json:"total_labs"`
	TotalProblems int64 `json:"total_problems"`
}

// ModuleSummary is a module with its chapter and lesson counts.
// EstimatedHours sums the estimated hours of the module's chapters.
type ModuleSummary struct {
	Module
	ChapterCount   int64 `json:"chapter_count"`
	TotalLessons   int64 `json:"total_lessons"`
	EstimatedHours int64 `json:"estimated_hours"`
}

type ChapterSummary struct {
	Chapter
	LessonCount  int64 `json:"lesson_count"`
	LabCount     int64 `json:"lab_count"`
	ProblemCount int64 `json:"problem_count"`
}

type LessonSummary struct {
	Lesson
	LabCount     int64 `json:"lab_count"`
	ProblemCount int64 `json:"problem_count"`
}

// ModuleDetail is a module together with its chapters.
type ModuleDetail struct {
	ModuleSummary
	Chapters []ChapterSummary `json:"chapters"`
}

// ChapterDetail is a chapter together with its lessons.
type ChapterDetail struct {
	ChapterSummary
	Lessons []LessonSummary `json:"lessons"`
}

// RoadmapInput is the create body for roadmaps. The roadmap id is derived from Name.
type RoadmapInput struct {
	Name           string `json:"name"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Level          string `json:"level"`
	EstimatedHours int    `json:"estimated_hours"`
	OfficialDocs   string `json:"official_docs"`
	Icon           string `json:"icon"`
}

type RoadmapPatch struct {
	Name           patch.Field[string] `json:"name"`
	Title          patch.Field[string] `json:"title"`
	Description    patch.Field[string] `json:"description"`
	Level          patch.Field[string] `json:"level"`
	EstimatedHours patch.Field[int]    `json:"estimated_hours"`
	OfficialDocs   patch.Field[string] `json:"official_docs"`
	Icon           patch.Field[string] `json:"icon"`
	Version        patch.Field[string] `json:"version"`
}

type ModuleInput struct {
	RoadmapID   string `json:"roadmap_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
}

type ModulePatch struct {
	Name        patch.Field[string] `json:"name"`
	Description patch.Field[string] `json:"description"`
	Difficulty  patch.Field[string] `json:"difficulty"`
	Status      patch.Field[string] `json:"status"`
}

type ChapterInput struct {
	RoadmapID          string         `json:"roadmap_id"`
	ModuleID           string         `json:"module_id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Difficulty         string         `json:"difficulty"`
	EstimatedHours     int            `json:"estimated_hours"`
	Prerequisites      datatypes.JSON `json:"prerequisites"`
	LearningObjectives datatypes.JSON `json:"learning_objectives"`
}

type ChapterPatch struct {
	Name               patch.Field[string]         `json:"name"`
	Description        patch.Field[string]         `json:"description"`
	Difficulty         patch.Field[string]         `json:"difficulty"`
	EstimatedHours     patch.Field[int]            `json:"estimated_hours"`
	Status             patch.Field[string]         `json:"status"`
	Prerequisites      patch.Field[datatypes.JSON] `json:"prerequisites"`
	LearningObjectives patch.Field[datatypes.JSON] `json:"learning_objectives"`
}

type LessonInput struct {
	RoadmapID          string         `json:"roadmap_id"`
	ModuleID           string         `json:"module_id"`
	ChapterID          string         `json:"chapter_id"`
	Name               string         `json:"name"`
	Type               string         `json:"type"`
	Duration           string         `json:"duration"`
	Difficulty         string         `json:"difficulty"`
	Description        string         `json:"description"`
	Content            string         `json:"content"`
	Prerequisites      datatypes.JSON `json:"prerequisites"`
	LearningObjectives datatypes.JSON `json:"learning_objectives"`
	Resources          datatypes.JSON `json:"resources"`
}

type LessonPatch struct {
	Name               patch.Field[string]         `json:"name"`
	Type               patch.Field[string]         `json:"type"`
	Duration           patch.Field[string]         `json:"duration"`
	Difficulty         patch.Field[string]         `json:"difficulty"`
	Description        patch.Field[string]         `json:"description"`
	Content            patch.Field[string]         `json:"content"`
	Status             patch.Field[string]         `json:"status"`
	Prerequisites      patch.Field[datatypes.JSON] `json:"prerequisites"`
	LearningObjectives patch.Field[datatypes.JSON] `json:"learning_objectives"`
	Resources          patch.Field[datatypes.JSON] `json:"resources"`
}

// ExerciseFields are the lab and problem columns shared by create bodies.
type ExerciseFields struct {
	RoadmapID     string `json:"roadmap_id"`
	ModuleID      string `json:"module_id"`
	ChapterID     string `json:"chapter_id"`
	LessonID      string `json:"lesson_id"`
	Name          string `json:"name"`
	Title         string `json:"title"`
	Difficulty    string `json:"difficulty"`
	HasTinygrad   bool   `json:"has_tinygrad"`
	HasPytorch    bool   `json:"has_pytorch"`
	RequiresGPU   bool   `json:"requires_gpu"`
	ProblemType   string `json:"problem_type"`
	EstimatedTime string `json:"estimated_time"`
	Description   string `json:"description"`
}

type LabInput struct {
	ExerciseFields
	Instructions string         `json:"instructions"`
	StarterCode  string         `json:"starter_code"`
	Solution     string         `json:"solution"`
	Hints        datatypes.JSON `json:"hints"`
	Resources    datatypes.JSON `json:"resources"`
}

type ProblemInput struct {
	ExerciseFields
	ProblemStatement string         `json:"problem_statement"`
	StarterCode      datatypes.JSON `json:"starter_code"`
	Solution         datatypes.JSON `json:"solution"`
	TestCases        datatypes.JSON `json:"test_cases"`
	Hints            datatypes.JSON `json:"hints"`
}

// ExercisePatch holds the lab and problem columns shared by update bodies.
type ExercisePatch struct {
	Name          patch.Field[string] `json:"name"`
	Title         patch.Field[string] `json:"title"`
	Difficulty    patch.Field[string] `json:"difficulty"`
	HasTinygrad   patch.Field[bool]   `json:"has_tinygrad"`
	HasPytorch    patch.Field[bool]   `json:"has_pytorch"`
	RequiresGPU   patch.Field[bool]   `json:"requires_gpu"`
	ProblemType   patch.Field[string] `json:"problem_type"`
	EstimatedTime patch.Field[string] `json:"estimated_time"`
	Description   patch.Field[string] `json:"description"`
	Status        patch.Field[string] `json:"status"`
}

type LabPatch struct {
	ExercisePatch
	Instructions patch.Field[string]         `json:"instructions"`
	StarterCode  patch.Field[string]         `json:"starter_code"`
	Solution     patch.Field[string]         `json:"solution"`
	Hints        patch.Field[datatypes.JSON] `json:"hints"`
	Resources    patch.Field[datatypes.JSON] `json:"resources"`
}

type ProblemPatch struct {
	ExercisePatch
	ProblemStatement patch.Field[string]         `json:"problem_statement"`
	StarterCode      patch.Field[datatypes.JSON] `json:"starter_code"`
	Solution         patch.Field[datatypes.JSON] `json:"solution"`
	TestCases        patch.Field[datatypes.JSON] `json:"test_cases"`
	Hints            patch.Field[datatypes.JSON] `json:"hints"`
}

// OrderEntry assigns a sibling position.
type OrderEntry struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"order_index"`
}
