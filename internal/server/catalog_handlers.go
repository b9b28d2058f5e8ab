package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tensorcode/backend/internal/catalog"
)

func (h *httpHandler) registerCatalog(group *gin.RouterGroup) {
	registerCRUD(h, group.Group("/categories"), h.catalog.Categories)
	registerCRUD(h, group.Group("/subcategories"), h.catalog.Subcategories)
	registerCRUD(h, group.Group("/chapters"), h.catalog.Chapters)
	registerCRUD(h, group.Group("/labs"), h.catalog.Labs)
	registerCRUD(h, group.Group("/problems"), h.catalog.Problems)
	group.GET("/collections", h.handleCollections)
}

// registerCRUD mounts create, list, get, update and delete for one catalog store.
func registerCRUD[T any, C any, P any](h *httpHandler, group *gin.RouterGroup, store catalog.Store[T, C, P]) {
	group.POST("", func(c *gin.Context) {
		var input C
		if err := bindJSON(c, &input); err != nil {
			h.fail(c, "Creation failed", http.StatusBadRequest, err)
			return
		}
		created, err := store.Create(c.Request.Context(), input)
		if err != nil {
			h.fail(c, "Creation failed", http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusOK, created)
	})

	group.GET("", func(c *gin.Context) {
		rows, err := store.List(c.Request.Context(), queryFilters(c))
		h.respond(c, http.StatusOK, "Fetch failed", rows, err)
	})

	group.GET("/:id", func(c *gin.Context) {
		id, ok := h.resourceID(c)
		if !ok {
			return
		}
		row, err := store.Get(c.Request.Context(), id)
		h.respond(c, http.StatusOK, "Fetch failed", row, err)
	})

	group.PUT("/:id", func(c *gin.Context) {
		id, ok := h.resourceID(c)
		if !ok {
			return
		}
		var changes P
		if err := bindJSON(c, &changes); err != nil {
			h.fail(c, "Update failed", http.StatusInternalServerError, err)
			return
		}
		row, err := store.Update(c.Request.Context(), id, changes)
		h.respond(c, http.StatusOK, "Update failed", row, err)
	})

	group.DELETE("/:id", func(c *gin.Context) {
		id, ok := h.resourceID(c)
		if !ok {
			return
		}
		err := store.Delete(c.Request.Context(), id)
		h.respond(c, http.StatusOK, "Delete failed", messagePayload{Message: "Resource deleted successfully"}, err)
	})
}

// resourceID parses the :id parameter. An id that cannot name a row is reported as not found.
func (h *httpHandler) resourceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, errorPayload{Error: "Not found", Message: "Resource not found"})
		return 0, false
	}
	return uint(id), true
}

// queryFilters keeps the first value of every query parameter.
func queryFilters(c *gin.Context) catalog.Filters {
	filters := catalog.Filters{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	return filters
}

func (h *httpHandler) handleCollections(c *gin.Context) {
	filters := catalog.CollectionFilters{
		Category:       c.Query("category"),
		Difficulty:     c.Query("difficulty"),
		Search:         c.Query("search"),
		CollectionType: c.Query("collection_type"),
	}
	if value, ok := c.GetQuery("requires_gpu"); ok {
		filters.RequiresGPU = &value
	}
	collection, err := h.catalog.Collection(c.Request.Context(), filters)
	h.respond(c, http.StatusOK, "Failed to fetch data", collection, err)
}
