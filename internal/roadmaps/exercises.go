package roadmaps

import (
	"context"
	"strconv"
	"strings"

	"github.com/tensorcode/backend/internal/patch"
	"github.com/tensorcode/backend/internal/slugs"
	"go.uber.org/zap"
)

const (
	entityLab     = "lab"
	entityProblem = "problem"
)

// ListLabs returns the labs of a lesson, oldest first.
func (s *Service) ListLabs(ctx context.Context, path Path) ([]Lab, error) {
	if err := requirePath(path, 4); err != nil {
		return nil, err
	}
	labs := make([]Lab, 0)
	err := path.scope(s.db.WithContext(ctx), "").Order("created_at ASC, id ASC").Find(&labs).Error
	if err != nil {
		return nil, s.fail("labs.list", "select_failed", err, zap.String("lesson_id", path.LessonID))
	}
	for index := range labs {
		normalizeLab(&labs[index])
	}
	return labs, nil
}

// GetLab returns one lab of a lesson.
func (s *Service) GetLab(ctx context.Context, path Path, labID string) (Lab, error) {
	if err := requirePath(path, 4); err != nil {
		return Lab{}, err
	}
	labs := make([]Lab, 0, 1)
	err := path.scope(s.db.WithContext(ctx), "").Where("lab_id = ?", labID).Order("id").Limit(1).Find(&labs).Error
	if err != nil {
		return Lab{}, s.fail("labs.get", "select_failed", err, zap.String("lab_id", labID))
	}
	if len(labs) == 0 {
		return Lab{}, notFound(entityLab)
	}
	normalizeLab(&labs[0])
	return labs[0], nil
}

// CreateLab attaches a lab to an existing lesson. The lab id is the slug of its
// name suffixed with the creation time in milliseconds.
func (s *Service) CreateLab(ctx context.Context, input LabInput) (Lab, error) {
	fields, err := s.prepareExercise(ctx, input.ExerciseFields)
	if err != nil {
		return Lab{}, err
	}
	now := s.now()
	lab := Lab{
		RoadmapID:     fields.RoadmapID,
		ModuleID:      fields.ModuleID,
		ChapterID:     fields.ChapterID,
		LessonID:      fields.LessonID,
		LabID:         slugs.UniqueID(fields.Name, strconv.FormatInt(now.UnixMilli(), 10)),
		Name:          fields.Name,
		Title:         fields.Title,
		Difficulty:    fields.Difficulty,
		HasTinygrad:   fields.HasTinygrad,
		HasPytorch:    fields.HasPytorch,
		RequiresGPU:   fields.RequiresGPU,
		ProblemType:   fields.ProblemType,
		EstimatedTime: fields.EstimatedTime,
		Description:   fields.Description,
		Instructions:  input.Instructions,
		StarterCode:   input.StarterCode,
		Solution:      input.Solution,
		Status:        StatusLive,
		Hints:         jsonArray(input.Hints),
		Resources:     jsonArray(input.Resources),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&lab).Error; err != nil {
		return Lab{}, s.fail("labs.create", "insert_failed", err)
	}
	return lab, nil
}

// UpdateLab applies the set fields of changes.
func (s *Service) UpdateLab(ctx context.Context, path Path, labID string, changes LabPatch) (Lab, error) {
	if err := s.requireNode(ctx, &Lab{}, path, "lab_id", labID, entityLab, false); err != nil {
		return Lab{}, err
	}
	updates, err := exerciseUpdates(changes.ExercisePatch)
	if err != nil {
		return Lab{}, err
	}
	patch.Put(updates, "instructions", changes.Instructions)
	patch.Put(updates, "starter_code", changes.StarterCode)
	patch.Put(updates, "solution", changes.Solution)
	patch.Put(updates, "hints", changes.Hints)
	patch.Put(updates, "resources", changes.Resources)
	if err := s.updateRow(ctx, &Lab{}, path, "lab_id", labID, updates); err != nil {
		return Lab{}, s.fail("labs.update", "update_failed", err, zap.String("lab_id", labID))
	}
	return s.GetLab(ctx, path, labID)
}

// DeleteLab removes the lab row.
func (s *Service) DeleteLab(ctx context.Context, path Path, labID string) error {
	if err := s.requireNode(ctx, &Lab{}, path, "lab_id", labID, entityLab, false); err != nil {
		return err
	}
	if err := s.deleteRow(ctx, &Lab{}, path, "lab_id", labID); err != nil {
		return s.fail("labs.delete", "delete_failed", err, zap.String("lab_id", labID))
	}
	return nil
}

// ListProblems returns the problems of a lesson, oldest first.
func (s *Service) ListProblems(ctx context.Context, path Path) ([]Problem, error) {
	if err := requirePath(path, 4); err != nil {
		return nil, err
	}
	problems := make([]Problem, 0)
	err := path.scope(s.db.WithContext(ctx), "").Order("created_at ASC, id ASC").Find(&problems).Error
	if err != nil {
		return nil, s.fail("problems.list", "select_failed", err, zap.String("lesson_id", path.LessonID))
	}
	for index := range problems {
		normalizeProblem(&problems[index])
	}
	return problems, nil
}

// GetProblem returns one problem of a lesson.
func (s *Service) GetProblem(ctx context.Context, path Path, problemID string) (Problem, error) {
	if err := requirePath(path, 4); err != nil {
		return Problem{}, err
	}
	problems := make([]Problem, 0, 1)
	err := path.scope(s.db.WithContext(ctx), "").Where("problem_id = ?", problemID).Order("id").Limit(1).Find(&problems).Error
	if err != nil {
		return Problem{}, s.fail("problems.get", "select_failed", err, zap.String("problem_id", problemID))
	}
	if len(problems) == 0 {
		return Problem{}, notFound(entityProblem)
	}
	normalizeProblem(&problems[0])
	return problems[0], nil
}

// CreateProblem attaches a problem to an existing lesson.
func (s *Service) CreateProblem(ctx context.Context, input ProblemInput) (Problem, error) {
	fields, err := s.prepareExercise(ctx, input.ExerciseFields)
	if err != nil {
		return Problem{}, err
	}
	now := s.now()
	problem := Problem{
		RoadmapID:        fields.RoadmapID,
		ModuleID:         fields.ModuleID,
		ChapterID:        fields.ChapterID,
		LessonID:         fields.LessonID,
		ProblemID:        slugs.UniqueID(fields.Name, strconv.FormatInt(now.UnixMilli(), 10)),
		Name:             fields.Name,
		Title:            fields.Title,
		Difficulty:       fields.Difficulty,
		HasTinygrad:      fields.HasTinygrad,
		HasPytorch:       fields.HasPytorch,
		RequiresGPU:      fields.RequiresGPU,
		ProblemType:      fields.ProblemType,
		EstimatedTime:    fields.EstimatedTime,
		Description:      fields.Description,
		ProblemStatement: input.ProblemStatement,
		StarterCode:      input.StarterCode,
		Solution:         input.Solution,
		TestCases:        jsonArray(input.TestCases),
		Hints:            jsonArray(input.Hints),
		Status:           StatusLive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.db.WithContext(ctx).Create(&problem).Error; err != nil {
		return Problem{}, s.fail("problems.create", "insert_failed", err)
	}
	return problem, nil
}

// UpdateProblem applies the set fields of changes.
func (s *Service) UpdateProblem(ctx context.Context, path Path, problemID string, changes ProblemPatch) (Problem, error) {
	if err := s.requireNode(ctx, &Problem{}, path, "problem_id", problemID, entityProblem, false); err != nil {
		return Problem{}, err
	}
	updates, err := exerciseUpdates(changes.ExercisePatch)
	if err != nil {
		return Problem{}, err
	}
	patch.Put(updates, "problem_statement", changes.ProblemStatement)
	patch.Put(updates, "starter_code", changes.StarterCode)
	patch.Put(updates, "solution", changes.Solution)
	patch.Put(updates, "test_cases", changes.TestCases)
	patch.Put(updates, "hints", changes.Hints)
	if err := s.updateRow(ctx, &Problem{}, path, "problem_id", problemID, updates); err != nil {
		return Problem{}, s.fail("problems.update", "update_failed", err, zap.String("problem_id", problemID))
	}
	return s.GetProblem(ctx, path, problemID)
}

// DeleteProblem removes the problem row.
func (s *Service) DeleteProblem(ctx context.Context, path Path, problemID string) error {
	if err := s.requireNode(ctx, &Problem{}, path, "problem_id", problemID, entityProblem, false); err != nil {
		return err
	}
	if err := s.deleteRow(ctx, &Problem{}, path, "problem_id", problemID); err != nil {
		return s.fail("problems.delete", "delete_failed", err, zap.String("problem_id", problemID))
	}
	return nil
}

func (s *Service) prepareExercise(ctx context.Context, fields ExerciseFields) (ExerciseFields, error) {
	lessonPath := Path{RoadmapID: fields.RoadmapID, ModuleID: fields.ModuleID, ChapterID: fields.ChapterID, LessonID: fields.LessonID}
	if err := requirePath(lessonPath, 4); err != nil {
		return ExerciseFields{}, err
	}
	if err := requireName(fields.Name); err != nil {
		return ExerciseFields{}, err
	}
	if _, err := slugID(fields.Name); err != nil {
		return ExerciseFields{}, err
	}
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Title == "" {
		fields.Title = fields.Name
	}
	chapterPath := Path{RoadmapID: fields.RoadmapID, ModuleID: fields.ModuleID, ChapterID: fields.ChapterID}
	if err := s.requireNode(ctx, &Lesson{}, chapterPath, "lesson_id", fields.LessonID, entityLesson, true); err != nil {
		return ExerciseFields{}, err
	}
	return fields, nil
}

func exerciseUpdates(changes ExercisePatch) (patch.Updates, error) {
	if changes.Status.Set {
		if err := checkContentStatus(changes.Status.Value); err != nil {
			return nil, err
		}
	}
	updates := patch.Updates{}
	patch.Put(updates, "name", changes.Name)
	patch.Put(updates, "title", changes.Title)
	patch.Put(updates, "difficulty", changes.Difficulty)
	patch.Put(updates, "has_tinygrad", changes.HasTinygrad)
	patch.Put(updates, "has_pytorch", changes.HasPytorch)
	patch.Put(updates, "requires_gpu", changes.RequiresGPU)
	patch.Put(updates, "problem_type", changes.ProblemType)
	patch.Put(updates, "estimated_time", changes.EstimatedTime)
	patch.Put(updates, "description", changes.Description)
	patch.Put(updates, "status", changes.Status)
	return updates, nil
}

func normalizeLab(lab *Lab) {
	lab.Hints = jsonArray(lab.Hints)
	lab.Resources = jsonArray(lab.Resources)
}

func normalizeProblem(problem *Problem) {
	problem.TestCases = jsonArray(problem.TestCases)
	problem.Hints = jsonArray(problem.Hints)
}
