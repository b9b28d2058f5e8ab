package roadmaps

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RoadmapTree is a roadmap with every descendant nested in order.
type RoadmapTree struct {
	RoadmapSummary
	Modules []ModuleNode `json:"modules"`
}

type ModuleNode struct {
	ModuleSummary
	Chapters []ChapterNode `json:"chapters"`
}

type ChapterNode struct {
	ChapterSummary
	Lessons []LessonNode `json:"lessons"`
}

type LessonNode struct {
	LessonSummary
	Labs     []Lab     `json:"labs"`
	Problems []Problem `json:"problems"`
}

// CompleteRoadmap assembles the full tree of roadmapID. Each level is fetched
// once its parents are known, with siblings fetched concurrently up to the
// configured fan-out limit. Sibling order within every level is preserved.
func (s *Service) CompleteRoadmap(ctx context.Context, roadmapID string) (RoadmapTree, error) {
	summary, err := s.GetRoadmap(ctx, roadmapID)
	if err != nil {
		return RoadmapTree{}, err
	}
	moduleSummaries, err := s.ListModules(ctx, roadmapID)
	if err != nil {
		return RoadmapTree{}, err
	}

	tree := RoadmapTree{RoadmapSummary: summary, Modules: make([]ModuleNode, len(moduleSummaries))}
	for index, module := range moduleSummaries {
		tree.Modules[index] = ModuleNode{ModuleSummary: module, Chapters: []ChapterNode{}}
	}

	err = s.fanOut(ctx, len(tree.Modules), func(groupCtx context.Context, index int) error {
		module := &tree.Modules[index]
		chapters, err := s.ListChapters(groupCtx, Path{RoadmapID: roadmapID, ModuleID: module.ModuleID})
		if err != nil {
			return err
		}
		module.Chapters = make([]ChapterNode, len(chapters))
		for position, chapter := range chapters {
			module.Chapters[position] = ChapterNode{ChapterSummary: chapter, Lessons: []LessonNode{}}
		}
		return nil
	})
	if err != nil {
		return RoadmapTree{}, err
	}

	chapters := make([]*ChapterNode, 0)
	for moduleIndex := range tree.Modules {
		for chapterIndex := range tree.Modules[moduleIndex].Chapters {
			chapters = append(chapters, &tree.Modules[moduleIndex].Chapters[chapterIndex])
		}
	}
	err = s.fanOut(ctx, len(chapters), func(groupCtx context.Context, index int) error {
		chapter := chapters[index]
		lessons, err := s.ListLessons(groupCtx, Path{RoadmapID: roadmapID, ModuleID: chapter.ModuleID, ChapterID: chapter.ChapterID})
		if err != nil {
			return err
		}
		chapter.Lessons = make([]LessonNode, len(lessons))
		for position, lesson := range lessons {
			chapter.Lessons[position] = LessonNode{LessonSummary: lesson, Labs: []Lab{}, Problems: []Problem{}}
		}
		return nil
	})
	if err != nil {
		return RoadmapTree{}, err
	}

	lessons := make([]*LessonNode, 0)
	for _, chapter := range chapters {
		for lessonIndex := range chapter.Lessons {
			lessons = append(lessons, &chapter.Lessons[lessonIndex])
		}
	}
	err = s.fanOut(ctx, len(lessons), func(groupCtx context.Context, index int) error {
		lesson := lessons[index]
		path := Path{RoadmapID: roadmapID, ModuleID: lesson.ModuleID, ChapterID: lesson.ChapterID, LessonID: lesson.LessonID}
		labs, err := s.ListLabs(groupCtx, path)
		if err != nil {
			return err
		}
		problems, err := s.ListProblems(groupCtx, path)
		if err != nil {
			return err
		}
		lesson.Labs = labs
		lesson.Problems = problems
		return nil
	})
	if err != nil {
		return RoadmapTree{}, err
	}

	return tree, nil
}

// fanOut runs fetch for every index in [0, count) and waits for all of them.
func (s *Service) fanOut(ctx context.Context, count int, fetch func(context.Context, int) error) error {
	if count == 0 {
		return nil
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.options.FanoutLimit)
	for index := 0; index < count; index++ {
		group.Go(func() error {
			return fetch(groupCtx, index)
		})
	}
	return group.Wait()
}
