package roadmaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/tensorcode/backend/internal/patch"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var databaseSequence atomic.Int64

type stepClock struct {
	now time.Time
}

// Now advances by one second per call so creation times stay distinct.
func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(testContext *testing.T, options Options) *Service {
	testContext.Helper()
	name := strings.ReplaceAll(testContext.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, databaseSequence.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		testContext.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(Models()...); err != nil {
		testContext.Fatalf("failed to migrate roadmap schema: %v", err)
	}
	clock := &stepClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	service, err := NewService(ServiceConfig{Database: db, Clock: clock.Now, Options: options})
	if err != nil {
		testContext.Fatalf("failed to create service: %v", err)
	}
	return service
}

type branch struct {
	roadmap Roadmap
	module  Module
	chapter Chapter
	lesson  Lesson
}

func (b branch) lessonPath() Path {
	return Path{RoadmapID: b.roadmap.RoadmapID, ModuleID: b.module.ModuleID, ChapterID: b.chapter.ChapterID, LessonID: b.lesson.LessonID}
}

func seedBranch(testContext *testing.T, service *Service) branch {
	testContext.Helper()
	ctx := context.Background()
	roadmap, err := service.CreateRoadmap(ctx, RoadmapInput{Name: "Deep Learning", Title: "Deep Learning From Scratch"})
	if err != nil {
		testContext.Fatalf("create roadmap: %v", err)
	}
	module, err := service.CreateModule(ctx, ModuleInput{RoadmapID: roadmap.RoadmapID, Name: "Tensors", Difficulty: "beginner"})
	if err != nil {
		testContext.Fatalf("create module: %v", err)
	}
	chapter, err := service.CreateChapter(ctx, ChapterInput{
		RoadmapID:      roadmap.RoadmapID,
		ModuleID:       module.ModuleID,
		Name:           "Broadcasting",
		EstimatedHours: 3,
	})
	if err != nil {
		testContext.Fatalf("create chapter: %v", err)
	}
	lesson, err := service.CreateLesson(ctx, LessonInput{
		RoadmapID: roadmap.RoadmapID,
		ModuleID:  module.ModuleID,
		ChapterID: chapter.ChapterID,
		Name:      "Shape Rules",
		Content:   "Trailing dimensions must match or be one.",
		Duration:  "3 hours",
	})
	if err != nil {
		testContext.Fatalf("create lesson: %v", err)
	}
	return branch{roadmap: roadmap, module: module, chapter: chapter, lesson: lesson}
}

func exerciseFields(b branch, name string) ExerciseFields {
	return ExerciseFields{
		RoadmapID: b.roadmap.RoadmapID,
		ModuleID:  b.module.ModuleID,
		ChapterID: b.chapter.ChapterID,
		LessonID:  b.lesson.LessonID,
		Name:      name,
	}
}

func TestNewServiceRequiresDatabase(testContext *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		testContext.Fatalf("expected error without database")
	}
}

func TestCreateRoadmapDefaults(testContext *testing.T) {
	service := newTestService(testContext, Options{})

	roadmap, err := service.CreateRoadmap(context.Background(), RoadmapInput{Name: "Intro to ML!!", Title: "Intro"})
	if err != nil {
		testContext.Fatalf("create roadmap: %v", err)
	}
	if roadmap.RoadmapID != "intro-to-ml" {
		testContext.Fatalf("expected slug id, got %q", roadmap.RoadmapID)
	}
	if roadmap.Status != StatusDraft || roadmap.Version != "1.0.0" || roadmap.Level != "foundation" {
		testContext.Fatalf("unexpected defaults %+v", roadmap)
	}
}

func TestCreateRoadmapValidation(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	cases := []RoadmapInput{
		{Title: "No name"},
		{Name: "No title"},
		{Name: "Bad level", Title: "x", Level: "expert"},
		{Name: "!!!", Title: "x"},
	}
	for _, input := range cases {
		if _, err := service.CreateRoadmap(context.Background(), input); !errors.Is(err, ErrValidation) {
			testContext.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestCompleteRoadmapNestsSingleBranch(testContext *testing.T) {
	service := newTestService(testContext, Options{FanoutLimit: 2})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)

	lab, err := service.CreateLab(ctx, LabInput{
		ExerciseFields: ExerciseFields{
			RoadmapID:   seeded.roadmap.RoadmapID,
			ModuleID:    seeded.module.ModuleID,
			ChapterID:   seeded.chapter.ChapterID,
			LessonID:    seeded.lesson.LessonID,
			Name:        "Broadcast Add",
			RequiresGPU: true,
		},
		Instructions: "Implement add with broadcasting.",
	})
	if err != nil {
		testContext.Fatalf("create lab: %v", err)
	}

	tree, err := service.CompleteRoadmap(ctx, seeded.roadmap.RoadmapID)
	if err != nil {
		testContext.Fatalf("complete roadmap: %v", err)
	}
	if tree.ModuleCount != 1 || tree.TotalChapters != 1 || tree.TotalLessons != 1 || tree.TotalLabs != 1 || tree.TotalProblems != 0 {
		testContext.Fatalf("unexpected counts %+v", tree.RoadmapSummary)
	}
	if len(tree.Modules) != 1 || len(tree.Modules[0].Chapters) != 1 || len(tree.Modules[0].Chapters[0].Lessons) != 1 {
		testContext.Fatalf("unexpected tree shape %+v", tree)
	}
	if tree.Modules[0].EstimatedHours != 3 {
		testContext.Fatalf("expected module hours summed from chapters, got %d", tree.Modules[0].EstimatedHours)
	}
	lesson := tree.Modules[0].Chapters[0].Lessons[0]
	if len(lesson.Labs) != 1 || len(lesson.Problems) != 0 {
		testContext.Fatalf("expected one lab and no problems, got %d/%d", len(lesson.Labs), len(lesson.Problems))
	}
	got := lesson.Labs[0]
	if got.LabID != lab.LabID || got.Name != "Broadcast Add" || got.Title != "Broadcast Add" || !got.RequiresGPU {
		testContext.Fatalf("nested lab does not match created lab: %+v", got)
	}
	if string(got.Hints) != "[]" {
		testContext.Fatalf("expected empty hints array, got %s", got.Hints)
	}

	body, err := json.Marshal(tree)
	if err != nil {
		testContext.Fatalf("marshal tree: %v", err)
	}
	if !strings.Contains(string(body), `"labs":[{`) || !strings.Contains(string(body), `"problems":[]`) {
		testContext.Fatalf("unexpected tree json %s", body)
	}
}

func TestCompleteRoadmapPreservesSiblingOrder(testContext *testing.T) {
	service := newTestService(testContext, Options{FanoutLimit: 3})
	ctx := context.Background()
	roadmap, err := service.CreateRoadmap(ctx, RoadmapInput{Name: "Ordering", Title: "Ordering"})
	if err != nil {
		testContext.Fatalf("create roadmap: %v", err)
	}
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"}
	for _, name := range names {
		module, err := service.CreateModule(ctx, ModuleInput{RoadmapID: roadmap.RoadmapID, Name: name})
		if err != nil {
			testContext.Fatalf("create module %s: %v", name, err)
		}
		for _, chapterName := range []string{"First", "Second"} {
			if _, err := service.CreateChapter(ctx, ChapterInput{RoadmapID: roadmap.RoadmapID, ModuleID: module.ModuleID, Name: chapterName}); err != nil {
				testContext.Fatalf("create chapter: %v", err)
			}
		}
	}

	tree, err := service.CompleteRoadmap(ctx, roadmap.RoadmapID)
	if err != nil {
		testContext.Fatalf("complete roadmap: %v", err)
	}
	if len(tree.Modules) != len(names) {
		testContext.Fatalf("expected %d modules, got %d", len(names), len(tree.Modules))
	}
	for index, module := range tree.Modules {
		if module.Name != names[index] {
			testContext.Fatalf("module %d: expected %s, got %s", index, names[index], module.Name)
		}
		if len(module.Chapters) != 2 || module.Chapters[0].Name != "First" || module.Chapters[1].Name != "Second" {
			testContext.Fatalf("unexpected chapters under %s: %+v", module.Name, module.Chapters)
		}
	}
}

func TestCompleteRoadmapMissing(testContext *testing.T) {
	service := newTestService(testContext, Options{})

	_, err := service.CompleteRoadmap(context.Background(), "absent")
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) || notFoundErr.Entity != entityRoadmap || notFoundErr.Parent {
		testContext.Fatalf("expected roadmap not found, got %v", err)
	}
}

func TestCreateModuleAppendsOrderIndex(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	roadmap, err := service.CreateRoadmap(ctx, RoadmapInput{Name: "Indexing", Title: "Indexing"})
	if err != nil {
		testContext.Fatalf("create roadmap: %v", err)
	}
	for expected, name := range []string{"One", "Two", "Three"} {
		module, err := service.CreateModule(ctx, ModuleInput{RoadmapID: roadmap.RoadmapID, Name: name})
		if err != nil {
			testContext.Fatalf("create module: %v", err)
		}
		if module.OrderIndex != expected+1 {
			testContext.Fatalf("expected order_index %d, got %d", expected+1, module.OrderIndex)
		}
	}
}

func TestCreateRequiresExistingParent(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)

	_, err := service.CreateModule(ctx, ModuleInput{RoadmapID: "ghost", Name: "Orphan"})
	assertParentMissing(testContext, err, entityRoadmap)

	_, err = service.CreateChapter(ctx, ChapterInput{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: "ghost", Name: "Orphan"})
	assertParentMissing(testContext, err, entityModule)

	_, err = service.CreateLesson(ctx, LessonInput{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: seeded.module.ModuleID, ChapterID: "ghost", Name: "Orphan"})
	assertParentMissing(testContext, err, entityChapter)

	fields := exerciseFields(seeded, "Orphan")
	fields.LessonID = "ghost"
	_, err = service.CreateProblem(ctx, ProblemInput{ExerciseFields: fields})
	assertParentMissing(testContext, err, entityLesson)
}

func assertParentMissing(testContext *testing.T, err error, entity string) {
	testContext.Helper()
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) || notFoundErr.Entity != entity || !notFoundErr.Parent {
		testContext.Fatalf("expected missing parent %s, got %v", entity, err)
	}
	if !IsNotFound(err) {
		testContext.Fatalf("expected not found classification for %v", err)
	}
	if err.Error() != "the specified "+entity+" does not exist" {
		testContext.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCreateLessonValidatesPathAndType(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)

	_, err := service.CreateLesson(ctx, LessonInput{RoadmapID: seeded.roadmap.RoadmapID, Name: "Missing module"})
	if !IsValidation(err) || !strings.Contains(err.Error(), "module_id") {
		testContext.Fatalf("expected module_id validation error, got %v", err)
	}

	_, err = service.CreateLesson(ctx, LessonInput{
		RoadmapID: seeded.roadmap.RoadmapID,
		ModuleID:  seeded.module.ModuleID,
		ChapterID: seeded.chapter.ChapterID,
		Name:      "Quiz",
		Type:      "quiz",
	})
	if !IsValidation(err) {
		testContext.Fatalf("expected type validation error, got %v", err)
	}
}

func TestUpdateModulePreservesOmittedFields(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)

	updated, err := service.UpdateModule(ctx, seeded.roadmap.RoadmapID, seeded.module.ModuleID, ModulePatch{
		Description: patch.Of("Arrays with shape"),
	})
	if err != nil {
		testContext.Fatalf("update module: %v", err)
	}
	if updated.Description != "Arrays with shape" {
		testContext.Fatalf("expected description updated, got %q", updated.Description)
	}
	if updated.Name != "Tensors" || updated.Difficulty != "beginner" || updated.ModuleID != "tensors" {
		testContext.Fatalf("expected omitted fields preserved, got %+v", updated.Module)
	}

	renamed, err := service.UpdateModule(ctx, seeded.roadmap.RoadmapID, seeded.module.ModuleID, ModulePatch{Name: patch.Of("Arrays")})
	if err != nil {
		testContext.Fatalf("rename module: %v", err)
	}
	if renamed.ModuleID != "tensors" || renamed.Name != "Arrays" {
		testContext.Fatalf("expected id kept on rename, got %+v", renamed.Module)
	}

	_, err = service.UpdateModule(ctx, seeded.roadmap.RoadmapID, seeded.module.ModuleID, ModulePatch{Status: patch.Of("hidden")})
	if !IsValidation(err) {
		testContext.Fatalf("expected status validation error, got %v", err)
	}
}

func TestUpdateChapterJSONColumns(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)
	path := Path{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: seeded.module.ModuleID}

	detail, err := service.UpdateChapter(ctx, path, seeded.chapter.ChapterID, ChapterPatch{
		LearningObjectives: patch.Of(datatypes.JSON(`["broadcast two arrays"]`)),
	})
	if err != nil {
		testContext.Fatalf("update chapter: %v", err)
	}
	if string(detail.LearningObjectives) != `["broadcast two arrays"]` {
		testContext.Fatalf("unexpected objectives %s", detail.LearningObjectives)
	}
	if string(detail.Prerequisites) != "[]" {
		testContext.Fatalf("expected prerequisites untouched, got %s", detail.Prerequisites)
	}
	if detail.EstimatedHours != 3 || len(detail.Lessons) != 1 {
		testContext.Fatalf("unexpected chapter detail %+v", detail)
	}
}

func TestMissingNodes(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)
	lessonPath := seeded.lessonPath()

	modulePath := Path{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: seeded.module.ModuleID}
	chapterPath := Path{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: seeded.module.ModuleID, ChapterID: seeded.chapter.ChapterID}
	checks := map[string]error{}
	_, checks["roadmap"] = service.GetRoadmap(ctx, "ghost")
	_, checks["module"] = service.GetModule(ctx, seeded.roadmap.RoadmapID, "ghost")
	checks["chapter"] = service.DeleteChapter(ctx, modulePath, "ghost")
	_, checks["lesson"] = service.UpdateLesson(ctx, chapterPath, "ghost", LessonPatch{})
	_, checks["lab"] = service.GetLab(ctx, lessonPath, "ghost")
	checks["problem"] = service.DeleteProblem(ctx, lessonPath, "ghost")
	for entity, err := range checks {
		var notFoundErr *NotFoundError
		if !errors.As(err, &notFoundErr) || notFoundErr.Entity != entity || notFoundErr.Parent {
			testContext.Fatalf("expected %s not found, got %v", entity, err)
		}
		if err.Error() != "no "+entity+" found with this ID" {
			testContext.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestPublishArchiveAndList(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	first, err := service.CreateRoadmap(ctx, RoadmapInput{Name: "First", Title: "First"})
	if err != nil {
		testContext.Fatalf("create first: %v", err)
	}
	second, err := service.CreateRoadmap(ctx, RoadmapInput{Name: "Second", Title: "Second"})
	if err != nil {
		testContext.Fatalf("create second: %v", err)
	}

	published, err := service.PublishRoadmap(ctx, first.RoadmapID)
	if err != nil {
		testContext.Fatalf("publish: %v", err)
	}
	if published.Status != StatusActive || !published.LastUpdated.After(first.LastUpdated) {
		testContext.Fatalf("unexpected published roadmap %+v", published)
	}

	listed, err := service.ListRoadmaps(ctx)
	if err != nil {
		testContext.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].RoadmapID != second.RoadmapID || listed[1].RoadmapID != first.RoadmapID {
		testContext.Fatalf("expected newest first, got %+v", listed)
	}

	if _, err := service.ArchiveRoadmap(ctx, second.RoadmapID); err != nil {
		testContext.Fatalf("archive: %v", err)
	}
	listed, err = service.ListRoadmaps(ctx)
	if err != nil {
		testContext.Fatalf("list after archive: %v", err)
	}
	if len(listed) != 1 || listed[0].RoadmapID != first.RoadmapID {
		testContext.Fatalf("expected archived roadmap hidden, got %+v", listed)
	}

	if _, err := service.PublishRoadmap(ctx, "ghost"); !IsNotFound(err) {
		testContext.Fatalf("expected not found, got %v", err)
	}
}

func TestReorderModules(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	roadmap, err := service.CreateRoadmap(ctx, RoadmapInput{Name: "Reorder", Title: "Reorder"})
	if err != nil {
		testContext.Fatalf("create roadmap: %v", err)
	}
	for _, name := range []string{"A", "B", "C"} {
		if _, err := service.CreateModule(ctx, ModuleInput{RoadmapID: roadmap.RoadmapID, Name: name}); err != nil {
			testContext.Fatalf("create module: %v", err)
		}
	}

	modules, err := service.ReorderModules(ctx, roadmap.RoadmapID, []OrderEntry{
		{ID: "c", OrderIndex: 1},
		{ID: "a", OrderIndex: 2},
		{ID: "b", OrderIndex: 3},
	})
	if err != nil {
		testContext.Fatalf("reorder: %v", err)
	}
	got := make([]string, 0, len(modules))
	for _, module := range modules {
		got = append(got, module.ModuleID)
	}
	if strings.Join(got, ",") != "c,a,b" {
		testContext.Fatalf("unexpected order %v", got)
	}

	_, err = service.ReorderModules(ctx, roadmap.RoadmapID, []OrderEntry{{ID: "b", OrderIndex: 1}, {OrderIndex: 2}})
	if !IsValidation(err) {
		testContext.Fatalf("expected validation error for empty id, got %v", err)
	}
	modules, err = service.ListModules(ctx, roadmap.RoadmapID)
	if err != nil {
		testContext.Fatalf("list modules: %v", err)
	}
	if modules[0].ModuleID != "b" {
		testContext.Fatalf("expected earlier reorder entries to persist, got %+v", modules)
	}
}

func TestReorderLessons(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)
	chapterPath := Path{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: seeded.module.ModuleID, ChapterID: seeded.chapter.ChapterID}
	if _, err := service.CreateLesson(ctx, LessonInput{
		RoadmapID: chapterPath.RoadmapID, ModuleID: chapterPath.ModuleID, ChapterID: chapterPath.ChapterID, Name: "Strides",
	}); err != nil {
		testContext.Fatalf("create lesson: %v", err)
	}

	lessons, err := service.ReorderLessons(ctx, chapterPath, []OrderEntry{{ID: "strides", OrderIndex: 0}})
	if err != nil {
		testContext.Fatalf("reorder lessons: %v", err)
	}
	if len(lessons) != 2 || lessons[0].LessonID != "strides" || lessons[1].LessonID != "shape-rules" {
		testContext.Fatalf("unexpected lesson order %+v", lessons)
	}
}

func TestDeleteWithoutCascadeLeavesChildren(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)

	if err := service.DeleteModule(ctx, seeded.roadmap.RoadmapID, seeded.module.ModuleID); err != nil {
		testContext.Fatalf("delete module: %v", err)
	}
	modules, err := service.ListModules(ctx, seeded.roadmap.RoadmapID)
	if err != nil {
		testContext.Fatalf("list modules: %v", err)
	}
	if len(modules) != 0 {
		testContext.Fatalf("expected module removed, got %+v", modules)
	}
	chapters, err := service.ListChapters(ctx, Path{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: seeded.module.ModuleID})
	if err != nil {
		testContext.Fatalf("list chapters: %v", err)
	}
	if len(chapters) != 1 {
		testContext.Fatalf("expected orphaned chapter to remain, got %d", len(chapters))
	}
}

func TestDeleteWithCascadeRemovesDescendants(testContext *testing.T) {
	service := newTestService(testContext, Options{CascadeDeletes: true})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)
	if _, err := service.CreateLab(ctx, LabInput{ExerciseFields: exerciseFields(seeded, "Add")}); err != nil {
		testContext.Fatalf("create lab: %v", err)
	}

	if err := service.DeleteRoadmap(ctx, seeded.roadmap.RoadmapID); err != nil {
		testContext.Fatalf("delete roadmap: %v", err)
	}
	labs, err := service.ListLabs(ctx, seeded.lessonPath())
	if err != nil {
		testContext.Fatalf("list labs: %v", err)
	}
	lessons, err := service.ListLessons(ctx, Path{RoadmapID: seeded.roadmap.RoadmapID, ModuleID: seeded.module.ModuleID, ChapterID: seeded.chapter.ChapterID})
	if err != nil {
		testContext.Fatalf("list lessons: %v", err)
	}
	if len(labs) != 0 || len(lessons) != 0 {
		testContext.Fatalf("expected descendants removed, got %d labs and %d lessons", len(labs), len(lessons))
	}
}

func TestProblemLifecycle(testContext *testing.T) {
	service := newTestService(testContext, Options{})
	ctx := context.Background()
	seeded := seedBranch(testContext, service)

	created, err := service.CreateProblem(ctx, ProblemInput{
		ExerciseFields: exerciseFields(seeded, "Matmul Shapes"),
		StarterCode:    datatypes.JSON(`{"python":"def solve(a, b):"}`),
		TestCases:      datatypes.JSON(`[{"input":"2x3,3x4","output":"2x4"}]`),
	})
	if err != nil {
		testContext.Fatalf("create problem: %v", err)
	}
	if !strings.HasPrefix(created.ProblemID, "matmul-shapes-") {
		testContext.Fatalf("expected suffixed problem id, got %q", created.ProblemID)
	}

	updated, err := service.UpdateProblem(ctx, seeded.lessonPath(), created.ProblemID, ProblemPatch{
		ExercisePatch: ExercisePatch{HasPytorch: patch.Of(true)},
	})
	if err != nil {
		testContext.Fatalf("update problem: %v", err)
	}
	if !updated.HasPytorch || updated.Title != "Matmul Shapes" || string(updated.Hints) != "[]" {
		testContext.Fatalf("unexpected problem after update %+v", updated)
	}

	if err := service.DeleteProblem(ctx, seeded.lessonPath(), created.ProblemID); err != nil {
		testContext.Fatalf("delete problem: %v", err)
	}
	if _, err := service.GetProblem(ctx, seeded.lessonPath(), created.ProblemID); !IsNotFound(err) {
		testContext.Fatalf("expected not found after delete, got %v", err)
	}
}
