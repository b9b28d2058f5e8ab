package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tensorcode/backend/internal/auth"
	"github.com/tensorcode/backend/internal/catalog"
	"github.com/tensorcode/backend/internal/compute"
	"github.com/tensorcode/backend/internal/monitoring"
	"github.com/tensorcode/backend/internal/roadmaps"
	"go.uber.org/zap"
)

const (
	requestIDContextKey = "tensorcode_request_id"
	requestIDHeader     = "X-Request-ID"
	welcomeMessage      = "Welcome to Tensorcode Worker!"
)

var (
	errMissingValidator      = errors.New("token validator dependency required")
	errMissingComputeService = errors.New("compute service dependency required")
	errMissingCatalogService = errors.New("catalog service dependency required")
	errMissingRoadmapService = errors.New("roadmap service dependency required")
)

// TokenValidator authenticates a request by its shared-secret header.
type TokenValidator interface {
	ValidateRequest(r *http.Request) error
	HeaderName() string
}

type Dependencies struct {
	Validator      TokenValidator
	Compute        *compute.Service
	Catalog        *catalog.Service
	Roadmaps       *roadmaps.Service
	Metrics        *monitoring.Metrics
	Logger         *zap.Logger
	AllowedOrigins []string
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Validator == nil {
		return nil, errMissingValidator
	}
	if deps.Compute == nil {
		return nil, errMissingComputeService
	}
	if deps.Catalog == nil {
		return nil, errMissingCatalogService
	}
	if deps.Roadmaps == nil {
		return nil, errMissingRoadmapService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(corsMiddleware(deps.AllowedOrigins, deps.Validator.HeaderName()))

	handler := &httpHandler{
		validator: deps.Validator,
		compute:   deps.Compute,
		catalog:   deps.Catalog,
		roadmaps:  deps.Roadmaps,
		metrics:   deps.Metrics,
		logger:    logger,
	}

	router.GET("/", handler.handleWelcome)
	if deps.Metrics != nil {
		router.GET("/metrics", deps.Metrics.Handler())
	}

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	handler.registerCompute(protected.Group("/compute"))
	handler.registerCatalog(protected)
	handler.registerRoadmaps(protected.Group("/api"))

	return router, nil
}

type httpHandler struct {
	validator TokenValidator
	compute   *compute.Service
	catalog   *catalog.Service
	roadmaps  *roadmaps.Service
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

func (h *httpHandler) handleWelcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	err := h.validator.ValidateRequest(c.Request)
	if err == nil {
		c.Next()
		return
	}
	message := "Invalid CF-Token"
	if errors.Is(err, auth.ErrMissingToken) {
		message = "Missing CF-Token header"
	}
	h.logger.Warn("token validation failed",
		zap.String("request_id", c.GetString(requestIDContextKey)),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorPayload{Error: "Unauthorized", Message: message})
}

func corsMiddleware(allowedOrigins []string, tokenHeader string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", tokenHeader, requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || containsWildcard(allowedOrigins) {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
	}
	return cors.New(config)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

// requestIDMiddleware propagates the caller's request id or assigns a time-ordered one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			if generated, err := uuid.NewV7(); err == nil {
				requestID = generated.String()
			} else {
				requestID = uuid.NewString()
			}
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}
