package roadmaps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tensorcode/backend/internal/patch"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	entityModule  = "module"
	entityChapter = "chapter"
	entityLesson  = "lesson"
)

var validLessonTypes = map[string]struct{}{
	"lesson":  {},
	"lab":     {},
	"problem": {},
}

func (s *Service) moduleSummaries(ctx context.Context, path Path) *gorm.DB {
	query := s.db.WithContext(ctx).
		Table("modules AS m").
		Select(selectModuleCounts).
		Joins(joinChapters).
		Joins(joinLessons).
		Group("m.id")
	return path.scope(query, "m")
}

func (s *Service) chapterSummaries(ctx context.Context, path Path) *gorm.DB {
	query := s.db.WithContext(ctx).
		Table("roadmap_chapters AS rc").
		Select(selectChapterCounts).
		Joins(joinLessons).
		Joins(joinLabs).
		Joins(joinProblems).
		Group("rc.id")
	return path.scope(query, "rc")
}

func (s *Service) lessonSummaries(ctx context.Context, path Path) *gorm.DB {
	query := s.db.WithContext(ctx).
		Table("lessons AS l").
		Select(selectLessonCounts).
		Joins(joinLabs).
		Joins(joinProblems).
		Group("l.id")
	return path.scope(query, "l")
}

// ListModules returns the modules of a roadmap by order_index then creation time.
func (s *Service) ListModules(ctx context.Context, roadmapID string) ([]ModuleSummary, error) {
	modules := make([]ModuleSummary, 0)
	err := s.moduleSummaries(ctx, Path{RoadmapID: roadmapID}).
		Order("m.order_index ASC, m.created_at ASC, m.id ASC").
		Scan(&modules).Error
	if err != nil {
		return nil, s.fail("modules.list", "select_failed", err, zap.String("roadmap_id", roadmapID))
	}
	return modules, nil
}

// GetModule returns the module with its chapters.
func (s *Service) GetModule(ctx context.Context, roadmapID, moduleID string) (ModuleDetail, error) {
	summary, err := s.moduleSummary(ctx, roadmapID, moduleID)
	if err != nil {
		return ModuleDetail{}, err
	}
	chapters, err := s.ListChapters(ctx, Path{RoadmapID: roadmapID, ModuleID: moduleID})
	if err != nil {
		return ModuleDetail{}, err
	}
	return ModuleDetail{ModuleSummary: summary, Chapters: chapters}, nil
}

func (s *Service) moduleSummary(ctx context.Context, roadmapID, moduleID string) (ModuleSummary, error) {
	if err := requirePath(Path{RoadmapID: roadmapID, ModuleID: moduleID}, 2); err != nil {
		return ModuleSummary{}, err
	}
	modules := make([]ModuleSummary, 0, 1)
	err := s.moduleSummaries(ctx, Path{RoadmapID: roadmapID, ModuleID: moduleID}).
		Order("m.id").
		Limit(1).
		Scan(&modules).Error
	if err != nil {
		return ModuleSummary{}, s.fail("modules.get", "select_failed", err, zap.String("module_id", moduleID))
	}
	if len(modules) == 0 {
		return ModuleSummary{}, notFound(entityModule)
	}
	return modules[0], nil
}

// CreateModule appends a module to an existing roadmap.
func (s *Service) CreateModule(ctx context.Context, input ModuleInput) (Module, error) {
	parent := Path{RoadmapID: input.RoadmapID}
	if err := requirePath(parent, 1); err != nil {
		return Module{}, err
	}
	if err := requireName(input.Name); err != nil {
		return Module{}, err
	}
	moduleID, err := slugID(input.Name)
	if err != nil {
		return Module{}, err
	}
	if err := s.requireRoadmap(ctx, input.RoadmapID, true); err != nil {
		return Module{}, err
	}
	if err := s.checkUnique(ctx, &Module{}, parent, "module_id", moduleID, entityModule); err != nil {
		return Module{}, err
	}
	order, err := s.nextOrderIndex(ctx, &Module{}, parent)
	if err != nil {
		return Module{}, s.fail("modules.create", "order_failed", err)
	}
	now := s.now()
	module := Module{
		RoadmapID:   input.RoadmapID,
		ModuleID:    moduleID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Difficulty:  input.Difficulty,
		OrderIndex:  order,
		Status:      StatusLive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&module).Error; err != nil {
		return Module{}, s.fail("modules.create", "insert_failed", err)
	}
	return module, nil
}

// UpdateModule applies the set fields of changes.
func (s *Service) UpdateModule(ctx context.Context, roadmapID, moduleID string, changes ModulePatch) (ModuleSummary, error) {
	if err := s.requireNode(ctx, &Module{}, Path{RoadmapID: roadmapID}, "module_id", moduleID, entityModule, false); err != nil {
		return ModuleSummary{}, err
	}
	if changes.Status.Set {
		if err := checkContentStatus(changes.Status.Value); err != nil {
			return ModuleSummary{}, err
		}
	}
	updates := patch.Updates{}
	patch.Put(updates, "name", changes.Name)
	patch.Put(updates, "description", changes.Description)
	patch.Put(updates, "difficulty", changes.Difficulty)
	patch.Put(updates, "status", changes.Status)
	if err := s.updateRow(ctx, &Module{}, Path{RoadmapID: roadmapID}, "module_id", moduleID, updates); err != nil {
		return ModuleSummary{}, s.fail("modules.update", "update_failed", err, zap.String("module_id", moduleID))
	}
	return s.moduleSummary(ctx, roadmapID, moduleID)
}

// DeleteModule removes the module row.
func (s *Service) DeleteModule(ctx context.Context, roadmapID, moduleID string) error {
	parent := Path{RoadmapID: roadmapID}
	if err := s.requireNode(ctx, &Module{}, parent, "module_id", moduleID, entityModule, false); err != nil {
		return err
	}
	if err := s.deleteRow(ctx, &Module{}, parent, "module_id", moduleID, &Problem{}, &Lab{}, &Lesson{}, &Chapter{}); err != nil {
		return s.fail("modules.delete", "delete_failed", err, zap.String("module_id", moduleID))
	}
	return nil
}

// ReorderModules assigns order_index values to modules of a roadmap one at a time
// and returns the resulting order.
func (s *Service) ReorderModules(ctx context.Context, roadmapID string, entries []OrderEntry) ([]ModuleSummary, error) {
	if err := s.requireRoadmap(ctx, roadmapID, false); err != nil {
		return nil, err
	}
	if err := s.reorder(ctx, &Module{}, Path{RoadmapID: roadmapID}, "module_id", entries); err != nil {
		return nil, s.reorderFailure("modules.reorder", err)
	}
	return s.ListModules(ctx, roadmapID)
}

// ListChapters returns the chapters under a module path.
func (s *Service) ListChapters(ctx context.Context, path Path) ([]ChapterSummary, error) {
	if err := requirePath(path, 2); err != nil {
		return nil, err
	}
	chapters := make([]ChapterSummary, 0)
	err := s.chapterSummaries(ctx, path).
		Order("rc.order_index ASC, rc.created_at ASC, rc.id ASC").
		Scan(&chapters).Error
	if err != nil {
		return nil, s.fail("chapters.list", "select_failed", err, zap.String("module_id", path.ModuleID))
	}
	hours, err := s.lessonHours(ctx, path)
	if err != nil {
		return nil, s.fail("chapters.list", "hours_failed", err, zap.String("module_id", path.ModuleID))
	}
	for index := range chapters {
		normalizeChapter(&chapters[index].Chapter)
		chapters[index].EstimatedHours = hours[chapters[index].ChapterID]
	}
	return chapters, nil
}

// GetChapter returns the chapter with its lessons.
func (s *Service) GetChapter(ctx context.Context, path Path, chapterID string) (ChapterDetail, error) {
	if err := requirePath(path, 2); err != nil {
		return ChapterDetail{}, err
	}
	path.ChapterID = chapterID
	chapters := make([]ChapterSummary, 0, 1)
	err := s.chapterSummaries(ctx, path).Order("rc.id").Limit(1).Scan(&chapters).Error
	if err != nil {
		return ChapterDetail{}, s.fail("chapters.get", "select_failed", err, zap.String("chapter_id", chapterID))
	}
	if len(chapters) == 0 {
		return ChapterDetail{}, notFound(entityChapter)
	}
	normalizeChapter(&chapters[0].Chapter)
	hours, err := s.lessonHours(ctx, path)
	if err != nil {
		return ChapterDetail{}, s.fail("chapters.get", "hours_failed", err, zap.String("chapter_id", chapterID))
	}
	chapters[0].EstimatedHours = hours[chapterID]
	lessons, err := s.ListLessons(ctx, path)
	if err != nil {
		return ChapterDetail{}, err
	}
	return ChapterDetail{ChapterSummary: chapters[0], Lessons: lessons}, nil
}

// CreateChapter appends a chapter to an existing module.
func (s *Service) CreateChapter(ctx context.Context, input ChapterInput) (Chapter, error) {
	parent := Path{RoadmapID: input.RoadmapID, ModuleID: input.ModuleID}
	if err := requirePath(parent, 2); err != nil {
		return Chapter{}, err
	}
	if err := requireName(input.Name); err != nil {
		return Chapter{}, err
	}
	if input.EstimatedHours < 0 {
		return Chapter{}, fmt.Errorf("%w: estimated_hours must be non-negative", ErrValidation)
	}
	chapterID, err := slugID(input.Name)
	if err != nil {
		return Chapter{}, err
	}
	if err := s.requireNode(ctx, &Module{}, Path{RoadmapID: input.RoadmapID}, "module_id", input.ModuleID, entityModule, true); err != nil {
		return Chapter{}, err
	}
	if err := s.checkUnique(ctx, &Chapter{}, parent, "chapter_id", chapterID, entityChapter); err != nil {
		return Chapter{}, err
	}
	order, err := s.nextOrderIndex(ctx, &Chapter{}, parent)
	if err != nil {
		return Chapter{}, s.fail("chapters.create", "order_failed", err)
	}
	now := s.now()
	chapter := Chapter{
		RoadmapID:          input.RoadmapID,
		ModuleID:           input.ModuleID,
		ChapterID:          chapterID,
		Name:               strings.TrimSpace(input.Name),
		Description:        input.Description,
		Difficulty:         input.Difficulty,
		OrderIndex:         order,
		EstimatedHours:     input.EstimatedHours,
		Status:             StatusLive,
		Prerequisites:      jsonArray(input.Prerequisites),
		LearningObjectives: jsonArray(input.LearningObjectives),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.db.WithContext(ctx).Create(&chapter).Error; err != nil {
		return Chapter{}, s.fail("chapters.create", "insert_failed", err)
	}
	return chapter, nil
}

// UpdateChapter applies the set fields of changes.
func (s *Service) UpdateChapter(ctx context.Context, path Path, chapterID string, changes ChapterPatch) (ChapterDetail, error) {
	if err := s.requireNode(ctx, &Chapter{}, path, "chapter_id", chapterID, entityChapter, false); err != nil {
		return ChapterDetail{}, err
	}
	if changes.Status.Set {
		if err := checkContentStatus(changes.Status.Value); err != nil {
			return ChapterDetail{}, err
		}
	}
	updates := patch.Updates{}
	patch.Put(updates, "name", changes.Name)
	patch.Put(updates, "description", changes.Description)
	patch.Put(updates, "difficulty", changes.Difficulty)
	patch.Put(updates, "estimated_hours", changes.EstimatedHours)
	patch.Put(updates, "status", changes.Status)
	patch.Put(updates, "prerequisites", changes.Prerequisites)
	patch.Put(updates, "learning_objectives", changes.LearningObjectives)
	if err := s.updateRow(ctx, &Chapter{}, path, "chapter_id", chapterID, updates); err != nil {
		return ChapterDetail{}, s.fail("chapters.update", "update_failed", err, zap.String("chapter_id", chapterID))
	}
	return s.GetChapter(ctx, path, chapterID)
}

// DeleteChapter removes the chapter row.
func (s *Service) DeleteChapter(ctx context.Context, path Path, chapterID string) error {
	if err := s.requireNode(ctx, &Chapter{}, path, "chapter_id", chapterID, entityChapter, false); err != nil {
		return err
	}
	if err := s.deleteRow(ctx, &Chapter{}, path, "chapter_id", chapterID, &Problem{}, &Lab{}, &Lesson{}); err != nil {
		return s.fail("chapters.delete", "delete_failed", err, zap.String("chapter_id", chapterID))
	}
	return nil
}

// ReorderChapters assigns order_index values to the chapters of a module.
func (s *Service) ReorderChapters(ctx context.Context, path Path, entries []OrderEntry) ([]ChapterSummary, error) {
	if err := s.requireNode(ctx, &Module{}, Path{RoadmapID: path.RoadmapID}, "module_id", path.ModuleID, entityModule, false); err != nil {
		return nil, err
	}
	if err := s.reorder(ctx, &Chapter{}, path, "chapter_id", entries); err != nil {
		return nil, s.reorderFailure("chapters.reorder", err)
	}
	return s.ListChapters(ctx, path)
}

// lessonHours sums, per chapter under path, the leading whole number of the
// duration of every lesson of type "lesson". "2 hours" counts as 2; a duration
// without a leading number counts as 0.
func (s *Service) lessonHours(ctx context.Context, path Path) (map[string]int, error) {
	rows := make([]Lesson, 0)
	err := path.scope(s.db.WithContext(ctx).Model(&Lesson{}), "").
		Select("chapter_id", "duration").
		Where("type = ?", entityLesson).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	hours := make(map[string]int, len(rows))
	for _, row := range rows {
		hours[row.ChapterID] += leadingHours(row.Duration)
	}
	return hours, nil
}

func leadingHours(duration string) int {
	token, _, _ := strings.Cut(duration, " ")
	end := 0
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}
	value, err := strconv.Atoi(token[:end])
	if err != nil {
		return 0
	}
	return value
}

// ListLessons returns the lessons under a chapter path.
func (s *Service) ListLessons(ctx context.Context, path Path) ([]LessonSummary, error) {
	if err := requirePath(path, 3); err != nil {
		return nil, err
	}
	lessons := make([]LessonSummary, 0)
	err := s.lessonSummaries(ctx, path).
		Order("l.order_index ASC, l.created_at ASC, l.id ASC").
		Scan(&lessons).Error
	if err != nil {
		return nil, s.fail("lessons.list", "select_failed", err, zap.String("chapter_id", path.ChapterID))
	}
	for index := range lessons {
		normalizeLesson(&lessons[index].Lesson)
	}
	return lessons, nil
}

// GetLesson returns the lesson with its lab and problem counts.
func (s *Service) GetLesson(ctx context.Context, path Path, lessonID string) (LessonSummary, error) {
	if err := requirePath(path, 3); err != nil {
		return LessonSummary{}, err
	}
	path.LessonID = lessonID
	lessons := make([]LessonSummary, 0, 1)
	err := s.lessonSummaries(ctx, path).Order("l.id").Limit(1).Scan(&lessons).Error
	if err != nil {
		return LessonSummary{}, s.fail("lessons.get", "select_failed", err, zap.String("lesson_id", lessonID))
	}
	if len(lessons) == 0 {
		return LessonSummary{}, notFound(entityLesson)
	}
	normalizeLesson(&lessons[0].Lesson)
	return lessons[0], nil
}

// CreateLesson appends a lesson to an existing chapter.
func (s *Service) CreateLesson(ctx context.Context, input LessonInput) (Lesson, error) {
	parent := Path{RoadmapID: input.RoadmapID, ModuleID: input.ModuleID, ChapterID: input.ChapterID}
	if err := requirePath(parent, 3); err != nil {
		return Lesson{}, err
	}
	if err := requireName(input.Name); err != nil {
		return Lesson{}, err
	}
	lessonType := input.Type
	if lessonType == "" {
		lessonType = "lesson"
	}
	if _, ok := validLessonTypes[lessonType]; !ok {
		return Lesson{}, fmt.Errorf("%w: type must be one of lesson, lab, problem", ErrValidation)
	}
	chapterParent := Path{RoadmapID: input.RoadmapID, ModuleID: input.ModuleID}
	lessonID, err := slugID(input.Name)
	if err != nil {
		return Lesson{}, err
	}
	if err := s.requireNode(ctx, &Chapter{}, chapterParent, "chapter_id", input.ChapterID, entityChapter, true); err != nil {
		return Lesson{}, err
	}
	if err := s.checkUnique(ctx, &Lesson{}, parent, "lesson_id", lessonID, entityLesson); err != nil {
		return Lesson{}, err
	}
	order, err := s.nextOrderIndex(ctx, &Lesson{}, parent)
	if err != nil {
		return Lesson{}, s.fail("lessons.create", "order_failed", err)
	}
	now := s.now()
	lesson := Lesson{
		RoadmapID:          input.RoadmapID,
		ModuleID:           input.ModuleID,
		ChapterID:          input.ChapterID,
		LessonID:           lessonID,
		Name:               strings.TrimSpace(input.Name),
		Type:               lessonType,
		Duration:           input.Duration,
		Difficulty:         input.Difficulty,
		Description:        input.Description,
		Content:            input.Content,
		OrderIndex:         order,
		Status:             StatusLive,
		Prerequisites:      jsonArray(input.Prerequisites),
		LearningObjectives: jsonArray(input.LearningObjectives),
		Resources:          jsonArray(input.Resources),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.db.WithContext(ctx).Create(&lesson).Error; err != nil {
		return Lesson{}, s.fail("lessons.create", "insert_failed", err)
	}
	return lesson, nil
}

// UpdateLesson applies the set fields of changes.
func (s *Service) UpdateLesson(ctx context.Context, path Path, lessonID string, changes LessonPatch) (LessonSummary, error) {
	if err := s.requireNode(ctx, &Lesson{}, path, "lesson_id", lessonID, entityLesson, false); err != nil {
		return LessonSummary{}, err
	}
	if changes.Type.Set {
		if _, ok := validLessonTypes[changes.Type.Value]; !ok {
			return LessonSummary{}, fmt.Errorf("%w: type must be one of lesson, lab, problem", ErrValidation)
		}
	}
	if changes.Status.Set {
		if err := checkContentStatus(changes.Status.Value); err != nil {
			return LessonSummary{}, err
		}
	}
	updates := patch.Updates{}
	patch.Put(updates, "name", changes.Name)
	patch.Put(updates, "type", changes.Type)
	patch.Put(updates, "duration", changes.Duration)
	patch.Put(updates, "difficulty", changes.Difficulty)
	patch.Put(updates, "description", changes.Description)
	patch.Put(updates, "content", changes.Content)
	patch.Put(updates, "status", changes.Status)
	patch.Put(updates, "prerequisites", changes.Prerequisites)
	patch.Put(updates, "learning_objectives", changes.LearningObjectives)
	patch.Put(updates, "resources", changes.Resources)
	if err := s.updateRow(ctx, &Lesson{}, path, "lesson_id", lessonID, updates); err != nil {
		return LessonSummary{}, s.fail("lessons.update", "update_failed", err, zap.String("lesson_id", lessonID))
	}
	return s.GetLesson(ctx, path, lessonID)
}

// DeleteLesson removes the lesson row.
func (s *Service) DeleteLesson(ctx context.Context, path Path, lessonID string) error {
	if err := s.requireNode(ctx, &Lesson{}, path, "lesson_id", lessonID, entityLesson, false); err != nil {
		return err
	}
	if err := s.deleteRow(ctx, &Lesson{}, path, "lesson_id", lessonID, &Problem{}, &Lab{}); err != nil {
		return s.fail("lessons.delete", "delete_failed", err, zap.String("lesson_id", lessonID))
	}
	return nil
}

// ReorderLessons assigns order_index values to the lessons of a chapter.
func (s *Service) ReorderLessons(ctx context.Context, path Path, entries []OrderEntry) ([]LessonSummary, error) {
	chapterParent := Path{RoadmapID: path.RoadmapID, ModuleID: path.ModuleID}
	if err := s.requireNode(ctx, &Chapter{}, chapterParent, "chapter_id", path.ChapterID, entityChapter, false); err != nil {
		return nil, err
	}
	if err := s.reorder(ctx, &Lesson{}, path, "lesson_id", entries); err != nil {
		return nil, s.reorderFailure("lessons.reorder", err)
	}
	return s.ListLessons(ctx, path)
}

// requireNode returns a NotFoundError for entity unless a row of model exists at path and id.
// parentDepth is the number of ancestor levels that address a node by its id column.
var parentDepth = map[string]int{
	"module_id":  1,
	"chapter_id": 2,
	"lesson_id":  3,
	"lab_id":     4,
	"problem_id": 4,
}

func (s *Service) requireNode(ctx context.Context, model any, path Path, idColumn, id, entity string, asParent bool) error {
	if err := requirePath(path, parentDepth[idColumn]); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		if asParent {
			return parentNotFound(entity)
		}
		return notFound(entity)
	}
	found, err := s.exists(ctx, model, path, idColumn, id)
	if err != nil {
		return s.fail(entity+".exists", "count_failed", err, zap.String(idColumn, id))
	}
	if found {
		return nil
	}
	if asParent {
		return parentNotFound(entity)
	}
	return notFound(entity)
}

func (s *Service) reorderFailure(operation string, err error) error {
	if IsValidation(err) {
		return err
	}
	return s.fail(operation, "update_failed", err)
}

func normalizeChapter(chapter *Chapter) {
	chapter.Prerequisites = jsonArray(chapter.Prerequisites)
	chapter.LearningObjectives = jsonArray(chapter.LearningObjectives)
}

func normalizeLesson(lesson *Lesson) {
	lesson.Prerequisites = jsonArray(lesson.Prerequisites)
	lesson.LearningObjectives = jsonArray(lesson.LearningObjectives)
	lesson.Resources = jsonArray(lesson.Resources)
}
