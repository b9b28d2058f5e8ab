package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tensorcode/backend/internal/auth"
	"github.com/tensorcode/backend/internal/catalog"
	"github.com/tensorcode/backend/internal/compute"
	"github.com/tensorcode/backend/internal/database"
	"github.com/tensorcode/backend/internal/monitoring"
	"github.com/tensorcode/backend/internal/roadmaps"
	"go.uber.org/zap"
)

const testToken = "test-secret"

type testServer struct {
	handler http.Handler
	metrics *monitoring.Metrics
	now     time.Time
}

type testServerOptions struct {
	logger  *zap.Logger
	catalog catalog.Options
	roadmap roadmaps.Options
}

func newTestServer(testContext *testing.T, options testServerOptions) *testServer {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := database.Open(database.DriverSQLite, filepath.Join(testContext.TempDir(), "api.db"), logger)
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}
	if err := database.Migrate(db, logger); err != nil {
		testContext.Fatalf("failed to migrate database: %v", err)
	}

	server := &testServer{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time {
		server.now = server.now.Add(time.Second)
		return server.now
	}

	validator, err := auth.NewTokenValidator(auth.TokenValidatorConfig{Secret: testToken})
	if err != nil {
		testContext.Fatalf("failed to build validator: %v", err)
	}
	computeService, err := compute.NewService(compute.ServiceConfig{Database: db, Clock: clock, Logger: logger})
	if err != nil {
		testContext.Fatalf("failed to build compute service: %v", err)
	}
	catalogService, err := catalog.NewService(catalog.ServiceConfig{Database: db, Logger: logger, Options: options.catalog})
	if err != nil {
		testContext.Fatalf("failed to build catalog service: %v", err)
	}
	roadmapService, err := roadmaps.NewService(roadmaps.ServiceConfig{Database: db, Clock: clock, Logger: logger, Options: options.roadmap})
	if err != nil {
		testContext.Fatalf("failed to build roadmap service: %v", err)
	}

	server.metrics = monitoring.NewMetrics()
	handler, err := NewHTTPHandler(Dependencies{
		Validator: validator,
		Compute:   computeService,
		Catalog:   catalogService,
		Roadmaps:  roadmapService,
		Metrics:   server.metrics,
		Logger:    logger,
	})
	if err != nil {
		testContext.Fatalf("failed to build handler: %v", err)
	}
	server.handler = handler
	return server
}

// do sends an authenticated request with body encoded as JSON when non-nil.
func (s *testServer) do(testContext *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	testContext.Helper()
	request := newJSONRequest(testContext, method, path, body)
	request.Header.Set(auth.TokenHeader, testToken)
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func newJSONRequest(testContext *testing.T, method, path string, body any) *http.Request {
	testContext.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		payload, err := json.Marshal(body)
		if err != nil {
			testContext.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	return request
}

func decodeBody[T any](testContext *testing.T, recorder *httptest.ResponseRecorder) T {
	testContext.Helper()
	var value T
	if err := json.Unmarshal(recorder.Body.Bytes(), &value); err != nil {
		testContext.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return value
}

func expectStatus(testContext *testing.T, recorder *httptest.ResponseRecorder, status int) {
	testContext.Helper()
	if recorder.Code != status {
		testContext.Fatalf("expected status %d, got %d: %s", status, recorder.Code, recorder.Body.String())
	}
}

func expectError(testContext *testing.T, recorder *httptest.ResponseRecorder, status int, title, message string) {
	testContext.Helper()
	expectStatus(testContext, recorder, status)
	payload := decodeBody[errorPayload](testContext, recorder)
	if payload.Error != title || payload.Message != message {
		testContext.Fatalf("expected error %q/%q, got %q/%q", title, message, payload.Error, payload.Message)
	}
}
