package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/handler"
)

func analyticsApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := newServices(t)
	logger := zerolog.New(io.Discard)

	app := fiber.New()
	api := app.Group("/api/v1")
	handler.NewStudentHandler(svc.students, svc.notifications, logger).Register(api.Group("/students"))
	handler.NewAnalyticsHandler(svc.analytics, logger).Register(api.Group("/analytics"))
	return app
}

func seedRoster(t *testing.T, app *fiber.App) {
	t.Helper()
	roster := []map[string]string{
		{"id": "S1", "name": "Ada", "department": "CS"},
		{"id": "S2", "name": "Bob", "department": "CS"},
		{"id": "S3", "name": "Cy"},
	}
	for _, student := range roster {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/students", student)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
}

func TestAnalyticsHandler_EmptyRoster(t *testing.T) {
	app := analyticsApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/analytics/total", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"total_students":0}`, string(body.Data))

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/analytics/by-department", nil)
	require.JSONEq(t, `[]`, string(body.Data))

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/analytics/recent", nil)
	require.JSONEq(t, `[]`, string(body.Data))
}

func TestAnalyticsHandler_Statistics(t *testing.T) {
	app := analyticsApp(t)
	seedRoster(t, app)

	_, body := doJSON(t, app, http.MethodGet, "/api/v1/analytics/total", nil)
	require.JSONEq(t, `{"total_students":3}`, string(body.Data))

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/analytics/by-department", nil)
	require.JSONEq(t, `[{"department":null,"count":1},{"department":"CS","count":2}]`, string(body.Data))

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/analytics/recent?limit=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var recent []dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &recent))
	require.Len(t, recent, 2)
	require.JSONEq(t, `{"limit":2,"count":2}`, string(body.Meta))

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/analytics", nil)
	var summary dto.AnalyticsSummaryResponse
	require.NoError(t, json.Unmarshal(body.Data, &summary))
	require.EqualValues(t, 3, summary.TotalStudents)
	require.Len(t, summary.RecentOnboarded, 3)
}

func TestAnalyticsHandler_ActiveWindow(t *testing.T) {
	app := analyticsApp(t)
	seedRoster(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/students/S1/activity", map[string]string{"action": "login"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/analytics/active", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var window dto.ActiveWindowResponse
	require.NoError(t, json.Unmarshal(body.Data, &window))
	require.Equal(t, 7, window.Days)
	require.Len(t, window.Items, 1)
	require.Equal(t, "S1", window.Items[0].StudentID)
	require.Equal(t, "login", window.Items[0].Action)
}

func TestAnalyticsHandler_RejectsBadParameters(t *testing.T) {
	app := analyticsApp(t)

	for _, path := range []string{
		"/api/v1/analytics/recent?limit=0",
		"/api/v1/analytics/recent?limit=abc",
		"/api/v1/analytics/active?days=-3",
		"/api/v1/analytics/active?days=x",
	} {
		resp, body := doJSON(t, app, http.MethodGet, path, nil)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
		require.False(t, body.Success)
	}
}
