package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/organization-service/internal/api/http"
	"github.com/spec-kit/organization-service/internal/api/http/handlers"
	"github.com/spec-kit/organization-service/internal/auth"
	"github.com/spec-kit/organization-service/internal/domain"
	"github.com/spec-kit/organization-service/internal/events"
	"github.com/spec-kit/organization-service/internal/observability"
	"github.com/spec-kit/organization-service/internal/persistence"
	"github.com/spec-kit/organization-service/internal/repository"
	"github.com/spec-kit/organization-service/internal/service"
)

type testServer struct {
	app   *fiber.App
	store *repository.MemoryStore
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	caller := store.SeedUser(domain.User{
		FirstName: "Root",
		LastName:  "Admin",
		Email:     "root@example.com",
		IsActive:  true,
	})

	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()

	orgSvc := service.NewOrganizationService(service.OrganizationDependencies{
		DepartmentRepo:  store.DepartmentRepo(),
		SpecialtyRepo:   store.SpecialtyRepo(),
		AffiliationRepo: store.AffiliationRepo(),
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	affSvc := service.NewAffiliationService(service.AffiliationDependencies{
		AffiliationRepo: store.AffiliationRepo(),
		UserRepo:        store.UserRepo(),
		DepartmentRepo:  store.DepartmentRepo(),
		SpecialtyRepo:   store.SpecialtyRepo(),
		Dispatcher:      dispatcher,
		Logger:          logger,
	})

	tokens := auth.NewTokenManager("router-test-secret", 60)
	token, _, err := tokens.GenerateToken(caller.ID, caller.Email)
	require.NoError(t, err)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("organization-service", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Departments:    handlers.NewDepartmentsHandler(orgSvc),
		Specialties:    handlers.NewSpecialtiesHandler(orgSvc),
		Affiliations:   handlers.NewAffiliationsHandler(affSvc),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.UserRepo()),
	})

	return &testServer{app: app, store: store, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/departments/", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestProtectedRoutesRejectUnknownSubject(t *testing.T) {
	srv := newTestServer(t)

	tokens := auth.NewTokenManager("router-test-secret", 60)
	token, _, err := tokens.GenerateToken("ghost-user", "ghost@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/departments/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDepartmentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/departments/", map[string]any{
		"name":        " cardiology ",
		"description": "heart care",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := body["data"].(map[string]any)
	assert.Equal(t, "CARDIOLOGY", created["name"])
	assert.NotEmpty(t, created["id"])

	resp, body = srv.do(t, http.MethodPost, "/departments/", map[string]any{"name": "CARDIOLOGY"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])

	resp, body = srv.do(t, http.MethodPost, "/departments/", map[string]any{"name": "  "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])

	resp, body = srv.do(t, http.MethodGet, "/departments/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)
}

func TestAffiliationFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	physician := srv.store.SeedUser(domain.User{
		FirstName: "Ana",
		LastName:  "Suarez",
		Email:     "ana@example.com",
		IsActive:  true,
	})

	resp, body := srv.do(t, http.MethodPost, "/departments/", map[string]any{"name": "cardiology"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	departmentID := body["data"].(map[string]any)["id"].(string)

	resp, body = srv.do(t, http.MethodPost, "/specialties/", map[string]any{
		"name":         "Cardiología",
		"departmentId": departmentID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	specialtyID := body["data"].(map[string]any)["id"].(string)

	resp, body = srv.do(t, http.MethodPost, "/affiliations/", map[string]any{
		"userId":      physician.ID,
		"role":        "medico",
		"specialtyId": specialtyID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	affiliation := body["data"].(map[string]any)
	assert.Equal(t, "MEDICO", affiliation["role"])
	assert.Equal(t, departmentID, affiliation["departmentId"])

	// The roster resolves the specialty from unaccented free text.
	resp, body = srv.do(t, http.MethodGet, "/affiliations/by-specialty?specialty=cardiologia", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	roster := body["data"].([]any)
	require.Len(t, roster, 1)
	record := roster[0].(map[string]any)
	assert.Equal(t, "Ana Suarez", record["fullName"])
	assert.Equal(t, "Active", record["status"])
	assert.Equal(t, "-", record["identificationType"])

	resp, body = srv.do(t, http.MethodGet, "/affiliations/by-specialty?specialty=neurologia", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestSpecialtyUpdateOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/departments/", map[string]any{"name": "cardiology"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	departmentID := body["data"].(map[string]any)["id"].(string)

	resp, body = srv.do(t, http.MethodPost, "/specialties/", map[string]any{
		"name":         "Hemodynamics",
		"departmentId": departmentID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	specialtyID := body["data"].(map[string]any)["id"].(string)

	resp, body = srv.do(t, http.MethodPut, "/specialties/"+specialtyID, map[string]any{
		"name": "Electrophysiology",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Electrophysiology", body["data"].(map[string]any)["name"])

	resp, body = srv.do(t, http.MethodGet, "/specialties/department/"+departmentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, body = srv.do(t, http.MethodPut, "/specialties/missing", map[string]any{"name": "X"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}
