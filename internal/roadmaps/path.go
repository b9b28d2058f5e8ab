package roadmaps

import "gorm.io/gorm"

// Path addresses a node by the slugs of its ancestors. Empty trailing fields
// address a shallower level.
type Path struct {
	RoadmapID string
	ModuleID  string
	ChapterID string
	LessonID  string
}

type pathColumn struct {
	name  string
	value string
}

// columns returns every level down to the deepest set field. A blank level above
// a set one is still bound, so it matches no row instead of widening the scope.
func (p Path) columns() []pathColumn {
	all := []pathColumn{
		{name: "roadmap_id", value: p.RoadmapID},
		{name: "module_id", value: p.ModuleID},
		{name: "chapter_id", value: p.ChapterID},
		{name: "lesson_id", value: p.LessonID},
	}
	depth := 0
	for index, column := range all {
		if column.value != "" {
			depth = index + 1
		}
	}
	return all[:depth]
}

// scope restricts query to rows under p, qualifying columns with alias when set.
func (p Path) scope(query *gorm.DB, alias string) *gorm.DB {
	for _, column := range p.columns() {
		name := column.name
		if alias != "" {
			name = alias + "." + name
		}
		query = query.Where(name+" = ?", column.value)
	}
	return query
}

const (
	joinModules  = "LEFT JOIN modules m ON r.roadmap_id = m.roadmap_id"
	joinChapters = "LEFT JOIN roadmap_chapters rc ON m.roadmap_id = rc.roadmap_id AND m.module_id = rc.module_id"
	joinLessons  = "LEFT JOIN lessons l ON rc.roadmap_id = l.roadmap_id AND rc.module_id = l.module_id AND rc.chapter_id = l.chapter_id"
	joinLabs     = "LEFT JOIN roadmap_labs rl ON l.roadmap_id = rl.roadmap_id AND l.module_id = rl.module_id AND l.chapter_id = rl.chapter_id AND l.lesson_id = rl.lesson_id"
	joinProblems = "LEFT JOIN roadmap_problems rp ON l.roadmap_id = rp.roadmap_id AND l.module_id = rp.module_id AND l.chapter_id = rp.chapter_id AND l.lesson_id = rp.lesson_id"

	selectRoadmapCounts = `r.*,
		COUNT(DISTINCT m.id) AS module_count,
		COUNT(DISTINCT rc.id) AS total_chapters,
		COUNT(DISTINCT l.id) AS total_lessons,
		COUNT(DISTINCT rl.id) AS total_labs,
		COUNT(DISTINCT rp.id) AS total_problems`

	selectModuleCounts = `m.*,
		COUNT(DISTINCT rc.id) AS chapter_count,
		COUNT(DISTINCT l.id) AS total_lessons,
		(SELECT COALESCE(SUM(hc.estimated_hours), 0) FROM roadmap_chapters hc
			WHERE hc.roadmap_id = m.roadmap_id AND hc.module_id = m.module_id) AS estimated_hours`

	selectChapterCounts = `rc.*,
		COUNT(DISTINCT l.id) AS lesson_count,
		COUNT(DISTINCT rl.id) AS lab_count,
		COUNT(DISTINCT rp.id) AS problem_count`

	selectLessonCounts = `l.*,
		COUNT(DISTINCT rl.id) AS lab_count,
		COUNT(DISTINCT rp.id) AS problem_count`
)
