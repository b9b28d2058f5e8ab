package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tensorcode/backend/internal/roadmaps"
)

const (
	roadmapPath = "/roadmap/:roadmapId"
	modulePath  = roadmapPath + "/module/:moduleId"
	chapterPath = modulePath + "/chapter/:chapterId"
	lessonPath  = chapterPath + "/lesson/:lessonId"

	adminRoadmapPath = "/admin/:roadmapId"
	adminModulePath  = adminRoadmapPath + "/module/:moduleId"
	adminChapterPath = adminModulePath + "/chapter/:chapterId"
	adminLessonPath  = adminChapterPath + "/lesson/:lessonId"
)

type moduleOrderPayload struct {
	ModuleID   string `json:"module_id"`
	OrderIndex int    `json:"order_index"`
}

type chapterOrderPayload struct {
	ChapterID  string `json:"chapter_id"`
	OrderIndex int    `json:"order_index"`
}

type lessonOrderPayload struct {
	LessonID   string `json:"lesson_id"`
	OrderIndex int    `json:"order_index"`
}

type reorderModulesPayload struct {
	ModuleOrders []moduleOrderPayload `json:"module_orders"`
}

type reorderChaptersPayload struct {
	ChapterOrders []chapterOrderPayload `json:"chapter_orders"`
}

type reorderLessonsPayload struct {
	LessonOrders []lessonOrderPayload `json:"lesson_orders"`
}

func (h *httpHandler) registerRoadmaps(api *gin.RouterGroup) {
	api.GET("/roadmaps", h.handleListRoadmaps)
	api.GET(roadmapPath, h.handleGetRoadmap)
	api.GET(roadmapPath+"/complete", h.handleCompleteRoadmap)
	api.POST("/admin/roadmap/create", h.handleCreateRoadmap)
	api.PUT(adminRoadmapPath, h.handleUpdateRoadmap)
	api.DELETE(adminRoadmapPath, h.handleDeleteRoadmap)
	api.POST(adminRoadmapPath+"/publish", h.handlePublishRoadmap)
	api.POST(adminRoadmapPath+"/archive", h.handleArchiveRoadmap)

	api.GET(roadmapPath+"/modules", h.handleListModules)
	api.GET(modulePath, h.handleGetModule)
	api.POST("/admin/roadmap/module/create", h.handleCreateModule)
	api.PUT(adminModulePath, h.handleUpdateModule)
	api.DELETE(adminModulePath, h.handleDeleteModule)
	api.POST(adminRoadmapPath+"/modules/reorder", h.handleReorderModules)

	api.GET(modulePath+"/chapters", h.handleListChapters)
	api.GET(chapterPath, h.handleGetChapter)
	api.POST("/admin/roadmap/module/chapter/create", h.handleCreateChapter)
	api.PUT(adminChapterPath, h.handleUpdateChapter)
	api.DELETE(adminChapterPath, h.handleDeleteChapter)
	api.POST(adminModulePath+"/chapters/reorder", h.handleReorderChapters)

	api.GET(chapterPath+"/lessons", h.handleListLessons)
	api.GET(lessonPath, h.handleGetLesson)
	api.POST("/admin/roadmap/module/chapter/lesson/create", h.handleCreateLesson)
	api.PUT(adminLessonPath, h.handleUpdateLesson)
	api.DELETE(adminLessonPath, h.handleDeleteLesson)
	api.POST(adminChapterPath+"/lessons/reorder", h.handleReorderLessons)

	api.GET(lessonPath+"/labs", h.handleListLabs)
	api.GET(lessonPath+"/lab/:labId", h.handleGetLab)
	api.POST("/admin/roadmap/module/chapter/lesson/lab/create", h.handleCreateLab)
	api.PUT(adminLessonPath+"/lab/:labId", h.handleUpdateLab)
	api.DELETE(adminLessonPath+"/lab/:labId", h.handleDeleteLab)

	api.GET(lessonPath+"/problems", h.handleListProblems)
	api.GET(lessonPath+"/problem/:problemId", h.handleGetProblem)
	api.POST("/admin/roadmap/module/chapter/lesson/problem/create", h.handleCreateProblem)
	api.PUT(adminLessonPath+"/problem/:problemId", h.handleUpdateProblem)
	api.DELETE(adminLessonPath+"/problem/:problemId", h.handleDeleteProblem)

	api.GET("/search", h.handleSearch)
}

// nodePath reads the ancestor slugs present in the matched route.
func nodePath(c *gin.Context) roadmaps.Path {
	return roadmaps.Path{
		RoadmapID: c.Param("roadmapId"),
		ModuleID:  c.Param("moduleId"),
		ChapterID: c.Param("chapterId"),
		LessonID:  c.Param("lessonId"),
	}
}

func parentPath(path roadmaps.Path, depth int) roadmaps.Path {
	switch depth {
	case 1:
		return roadmaps.Path{RoadmapID: path.RoadmapID}
	case 2:
		return roadmaps.Path{RoadmapID: path.RoadmapID, ModuleID: path.ModuleID}
	case 3:
		return roadmaps.Path{RoadmapID: path.RoadmapID, ModuleID: path.ModuleID, ChapterID: path.ChapterID}
	default:
		return path
	}
}

func (h *httpHandler) deleted(c *gin.Context, title, entity string, err error) {
	h.respond(c, http.StatusOK, title, messagePayload{Message: entity + " deleted successfully"}, err)
}

func (h *httpHandler) handleListRoadmaps(c *gin.Context) {
	result, err := h.roadmaps.ListRoadmaps(c.Request.Context())
	h.respond(c, http.StatusOK, "Failed to fetch roadmaps", result, err)
}

func (h *httpHandler) handleGetRoadmap(c *gin.Context) {
	result, err := h.roadmaps.GetRoadmap(c.Request.Context(), c.Param("roadmapId"))
	h.respond(c, http.StatusOK, "Failed to fetch roadmap", result, err)
}

func (h *httpHandler) handleCompleteRoadmap(c *gin.Context) {
	result, err := h.roadmaps.CompleteRoadmap(c.Request.Context(), c.Param("roadmapId"))
	h.respond(c, http.StatusOK, "Failed to fetch complete roadmap", result, err)
}

func (h *httpHandler) handleCreateRoadmap(c *gin.Context) {
	var input roadmaps.RoadmapInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, "Failed to create roadmap", http.StatusBadRequest, err)
		return
	}
	result, err := h.roadmaps.CreateRoadmap(c.Request.Context(), input)
	h.respondCreated(c, "Failed to create roadmap", result, err)
}

func (h *httpHandler) handleUpdateRoadmap(c *gin.Context) {
	var changes roadmaps.RoadmapPatch
	if err := bindJSON(c, &changes); err != nil {
		h.fail(c, "Failed to update roadmap", http.StatusInternalServerError, err)
		return
	}
	result, err := h.roadmaps.UpdateRoadmap(c.Request.Context(), c.Param("roadmapId"), changes)
	h.respond(c, http.StatusOK, "Failed to update roadmap", result, err)
}

func (h *httpHandler) handleDeleteRoadmap(c *gin.Context) {
	err := h.roadmaps.DeleteRoadmap(c.Request.Context(), c.Param("roadmapId"))
	h.deleted(c, "Failed to delete roadmap", "Roadmap", err)
}

func (h *httpHandler) handlePublishRoadmap(c *gin.Context) {
	result, err := h.roadmaps.PublishRoadmap(c.Request.Context(), c.Param("roadmapId"))
	h.respond(c, http.StatusOK, "Failed to publish roadmap", result, err)
}

func (h *httpHandler) handleArchiveRoadmap(c *gin.Context) {
	result, err := h.roadmaps.ArchiveRoadmap(c.Request.Context(), c.Param("roadmapId"))
	h.respond(c, http.StatusOK, "Failed to archive roadmap", result, err)
}

func (h *httpHandler) handleListModules(c *gin.Context) {
	result, err := h.roadmaps.ListModules(c.Request.Context(), c.Param("roadmapId"))
	h.respond(c, http.StatusOK, "Failed to fetch modules", result, err)
}

func (h *httpHandler) handleGetModule(c *gin.Context) {
	result, err := h.roadmaps.GetModule(c.Request.Context(), c.Param("roadmapId"), c.Param("moduleId"))
	h.respond(c, http.StatusOK, "Failed to fetch module", result, err)
}

func (h *httpHandler) handleCreateModule(c *gin.Context) {
	var input roadmaps.ModuleInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, "Failed to create module", http.StatusBadRequest, err)
		return
	}
	result, err := h.roadmaps.CreateModule(c.Request.Context(), input)
	h.respondCreated(c, "Failed to create module", result, err)
}

func (h *httpHandler) handleUpdateModule(c *gin.Context) {
	var changes roadmaps.ModulePatch
	if err := bindJSON(c, &changes); err != nil {
		h.fail(c, "Failed to update module", http.StatusInternalServerError, err)
		return
	}
	result, err := h.roadmaps.UpdateModule(c.Request.Context(), c.Param("roadmapId"), c.Param("moduleId"), changes)
	h.respond(c, http.StatusOK, "Failed to update module", result, err)
}

func (h *httpHandler) handleDeleteModule(c *gin.Context) {
	err := h.roadmaps.DeleteModule(c.Request.Context(), c.Param("roadmapId"), c.Param("moduleId"))
	h.deleted(c, "Failed to delete module", "Module", err)
}

func (h *httpHandler) handleReorderModules(c *gin.Context) {
	var request reorderModulesPayload
	if err := bindJSON(c, &request); err != nil {
		h.fail(c, "Failed to reorder modules", http.StatusInternalServerError, err)
		return
	}
	entries := make([]roadmaps.OrderEntry, 0, len(request.ModuleOrders))
	for _, order := range request.ModuleOrders {
		entries = append(entries, roadmaps.OrderEntry{ID: order.ModuleID, OrderIndex: order.OrderIndex})
	}
	result, err := h.roadmaps.ReorderModules(c.Request.Context(), c.Param("roadmapId"), entries)
	h.respond(c, http.StatusOK, "Failed to reorder modules", result, err)
}

func (h *httpHandler) handleListChapters(c *gin.Context) {
	result, err := h.roadmaps.ListChapters(c.Request.Context(), nodePath(c))
	h.respond(c, http.StatusOK, "Failed to fetch chapters", result, err)
}

func (h *httpHandler) handleGetChapter(c *gin.Context) {
	path := nodePath(c)
	result, err := h.roadmaps.GetChapter(c.Request.Context(), parentPath(path, 2), path.ChapterID)
	h.respond(c, http.StatusOK, "Failed to fetch chapter", result, err)
}

func (h *httpHandler) handleCreateChapter(c *gin.Context) {
	var input roadmaps.ChapterInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, "Failed to create chapter", http.StatusBadRequest, err)
		return
	}
	result, err := h.roadmaps.CreateChapter(c.Request.Context(), input)
	h.respondCreated(c, "Failed to create chapter", result, err)
}

func (h *httpHandler) handleUpdateChapter(c *gin.Context) {
	var changes roadmaps.ChapterPatch
	if err := bindJSON(c, &changes); err != nil {
		h.fail(c, "Failed to update chapter", http.StatusInternalServerError, err)
		return
	}
	path := nodePath(c)
	result, err := h.roadmaps.UpdateChapter(c.Request.Context(), parentPath(path, 2), path.ChapterID, changes)
	h.respond(c, http.StatusOK, "Failed to update chapter", result, err)
}

func (h *httpHandler) handleDeleteChapter(c *gin.Context) {
	path := nodePath(c)
	err := h.roadmaps.DeleteChapter(c.Request.Context(), parentPath(path, 2), path.ChapterID)
	h.deleted(c, "Failed to delete chapter", "Chapter", err)
}

func (h *httpHandler) handleReorderChapters(c *gin.Context) {
	var request reorderChaptersPayload
	if err := bindJSON(c, &request); err != nil {
		h.fail(c, "Failed to reorder chapters", http.StatusInternalServerError, err)
		return
	}
	entries := make([]roadmaps.OrderEntry, 0, len(request.ChapterOrders))
	for _, order := range request.ChapterOrders {
		entries = append(entries, roadmaps.OrderEntry{ID: order.ChapterID, OrderIndex: order.OrderIndex})
	}
	result, err := h.roadmaps.ReorderChapters(c.Request.Context(), nodePath(c), entries)
	h.respond(c, http.StatusOK, "Failed to reorder chapters", result, err)
}

func (h *httpHandler) handleListLessons(c *gin.Context) {
	result, err := h.roadmaps.ListLessons(c.Request.Context(), nodePath(c))
	h.respond(c, http.StatusOK, "Failed to fetch lessons", result, err)
}

func (h *httpHandler) handleGetLesson(c *gin.Context) {
	path := nodePath(c)
	result, err := h.roadmaps.GetLesson(c.Request.Context(), parentPath(path, 3), path.LessonID)
	h.respond(c, http.StatusOK, "Failed to fetch lesson", result, err)
}

func (h *httpHandler) handleCreateLesson(c *gin.Context) {
	var input roadmaps.LessonInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, "Failed to create lesson", http.StatusBadRequest, err)
		return
	}
	result, err := h.roadmaps.CreateLesson(c.Request.Context(), input)
	h.respondCreated(c, "Failed to create lesson", result, err)
}

func (h *httpHandler) handleUpdateLesson(c *gin.Context) {
	var changes roadmaps.LessonPatch
	if err := bindJSON(c, &changes); err != nil {
		h.fail(c, "Failed to update lesson", http.StatusInternalServerError, err)
		return
	}
	path := nodePath(c)
	result, err := h.roadmaps.UpdateLesson(c.Request.Context(), parentPath(path, 3), path.LessonID, changes)
	h.respond(c, http.StatusOK, "Failed to update lesson", result, err)
}

func (h *httpHandler) handleDeleteLesson(c *gin.Context) {
	path := nodePath(c)
	err := h.roadmaps.DeleteLesson(c.Request.Context(), parentPath(path, 3), path.LessonID)
	h.deleted(c, "Failed to delete lesson", "Lesson", err)
}

func (h *httpHandler) handleReorderLessons(c *gin.Context) {
	var request reorderLessonsPayload
	if err := bindJSON(c, &request); err != nil {
		h.fail(c, "Failed to reorder lessons", http.StatusInternalServerError, err)
		return
	}
	entries := make([]roadmaps.OrderEntry, 0, len(request.LessonOrders))
	for _, order := range request.LessonOrders {
		entries = append(entries, roadmaps.OrderEntry{ID: order.LessonID, OrderIndex: order.OrderIndex})
	}
	result, err := h.roadmaps.ReorderLessons(c.Request.Context(), nodePath(c), entries)
	h.respond(c, http.StatusOK, "Failed to reorder lessons", result, err)
}

func (h *httpHandler) handleListLabs(c *gin.Context) {
	result, err := h.roadmaps.ListLabs(c.Request.Context(), nodePath(c))
	h.respond(c, http.StatusOK, "Failed to fetch labs", result, err)
}

func (h *httpHandler) handleGetLab(c *gin.Context) {
	result, err := h.roadmaps.GetLab(c.Request.Context(), nodePath(c), c.Param("labId"))
	h.respond(c, http.StatusOK, "Failed to fetch lab", result, err)
}

func (h *httpHandler) handleCreateLab(c *gin.Context) {
	var input roadmaps.LabInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, "Failed to create lab", http.StatusBadRequest, err)
		return
	}
	result, err := h.roadmaps.CreateLab(c.Request.Context(), input)
	h.respondCreated(c, "Failed to create lab", result, err)
}

func (h *httpHandler) handleUpdateLab(c *gin.Context) {
	var changes roadmaps.LabPatch
	if err := bindJSON(c, &changes); err != nil {
		h.fail(c, "Failed to update lab", http.StatusInternalServerError, err)
		return
	}
	result, err := h.roadmaps.UpdateLab(c.Request.Context(), nodePath(c), c.Param("labId"), changes)
	h.respond(c, http.StatusOK, "Failed to update lab", result, err)
}

func (h *httpHandler) handleDeleteLab(c *gin.Context) {
	err := h.roadmaps.DeleteLab(c.Request.Context(), nodePath(c), c.Param("labId"))
	h.deleted(c, "Failed to delete lab", "Lab", err)
}

func (h *httpHandler) handleListProblems(c *gin.Context) {
	result, err := h.roadmaps.ListProblems(c.Request.Context(), nodePath(c))
	h.respond(c, http.StatusOK, "Failed to fetch problems", result, err)
}

func (h *httpHandler) handleGetProblem(c *gin.Context) {
	result, err := h.roadmaps.GetProblem(c.Request.Context(), nodePath(c), c.Param("problemId"))
	h.respond(c, http.StatusOK, "Failed to fetch problem", result, err)
}

func (h *httpHandler) handleCreateProblem(c *gin.Context) {
	var input roadmaps.ProblemInput
	if err := bindJSON(c, &input); err != nil {
		h.fail(c, "Failed to create problem", http.StatusBadRequest, err)
		return
	}
	result, err := h.roadmaps.CreateProblem(c.Request.Context(), input)
	h.respondCreated(c, "Failed to create problem", result, err)
}

func (h *httpHandler) handleUpdateProblem(c *gin.Context) {
	var changes roadmaps.ProblemPatch
	if err := bindJSON(c, &changes); err != nil {
		h.fail(c, "Failed to update problem", http.StatusInternalServerError, err)
		return
	}
	result, err := h.roadmaps.UpdateProblem(c.Request.Context(), nodePath(c), c.Param("problemId"), changes)
	h.respond(c, http.StatusOK, "Failed to update problem", result, err)
}

func (h *httpHandler) handleDeleteProblem(c *gin.Context) {
	err := h.roadmaps.DeleteProblem(c.Request.Context(), nodePath(c), c.Param("problemId"))
	h.deleted(c, "Failed to delete problem", "Problem", err)
}

type searchQueryPayload struct {
	Q           string  `json:"q"`
	Type        string  `json:"type,omitempty"`
	Difficulty  string  `json:"difficulty,omitempty"`
	Status      string  `json:"status"`
	RoadmapID   string  `json:"roadmapId,omitempty"`
	HasPytorch  *string `json:"has_pytorch,omitempty"`
	HasTinygrad *string `json:"has_tinygrad,omitempty"`
	RequiresGPU *string `json:"requires_gpu,omitempty"`
}

type searchResponsePayload struct {
	Success bool                    `json:"success"`
	Data    []roadmaps.SearchResult `json:"data"`
	Count   int                     `json:"count"`
	Query   searchQueryPayload      `json:"query"`
}

func optionalQuery(c *gin.Context, key string) *string {
	value, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	return &value
}

func (h *httpHandler) handleSearch(c *gin.Context) {
	query := roadmaps.SearchQuery{
		Q:           c.Query("q"),
		Type:        c.Query("type"),
		Difficulty:  c.Query("difficulty"),
		Status:      c.DefaultQuery("status", roadmaps.StatusLive),
		RoadmapID:   c.Query("roadmapId"),
		HasPytorch:  optionalQuery(c, "has_pytorch"),
		HasTinygrad: optionalQuery(c, "has_tinygrad"),
		RequiresGPU: optionalQuery(c, "requires_gpu"),
	}
	results, err := h.roadmaps.Search(c.Request.Context(), query)
	if err != nil {
		h.fail(c, "Search failed", http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, searchResponsePayload{
		Success: true,
		Data:    results,
		Count:   len(results),
		Query: searchQueryPayload{
			Q:           query.Q,
			Type:        query.Type,
			Difficulty:  query.Difficulty,
			Status:      query.Status,
			RoadmapID:   query.RoadmapID,
			HasPytorch:  query.HasPytorch,
			HasTinygrad: query.HasTinygrad,
			RequiresGPU: query.RequiresGPU,
		},
	})
}
