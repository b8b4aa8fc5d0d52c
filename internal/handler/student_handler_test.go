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
	"github.com/noah-isme/campus-admin-api/internal/events"
	"github.com/noah-isme/campus-admin-api/internal/handler"
)

func studentApp(t *testing.T) (*fiber.App, services) {
	t.Helper()
	svc := newServices(t)
	app := fiber.New()
	handler.NewStudentHandler(svc.students, svc.notifications, zerolog.New(io.Discard)).Register(app.Group("/api/v1/students"))
	return app, svc
}

func TestStudentHandler_CreateAndGet(t *testing.T) {
	app, svc := studentApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{
		"id": "S1", "name": "Ada", "department": "CS", "email": "ada@campus.edu",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/students/S1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var student dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &student))
	require.Equal(t, "Ada", student.Name)
	require.Equal(t, "CS", *student.Department)
	require.Equal(t, "ada@campus.edu", *student.Email)

	require.Equal(t, []string{events.StudentCreated}, svc.events.Types())
}

func TestStudentHandler_CreateRejections(t *testing.T) {
	app, _ := studentApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S1", "name": "Ada"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S1", "name": "Again"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.False(t, body.Success)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S2"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body.Details), "name")

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]interface{}{"id": "S3", "name": "Eve", "age": 20})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(body.Details), "age")

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S4", "name": "Bob", "email": "not-an-email"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/students/missing", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentHandler_ListIsAlwaysArray(t *testing.T) {
	app, _ := studentApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/students", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(body.Data))

	for _, id := range []string{"S1", "S2", "S3"} {
		resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": id, "name": "Student " + id})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/students?limit=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var limited []dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &limited))
	require.Len(t, limited, 2)

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/students?limit=0", nil)
	var all []dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &all))
	require.Len(t, all, 3)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/students?limit=-1", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandler_UpdateShapes(t *testing.T) {
	app, _ := studentApp(t)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S1", "name": "Ada", "email": "ada@campus.edu"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPut, "/api/v1/students/S1", map[string]string{"department": "Physics"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var student dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &student))
	require.Equal(t, "Physics", *student.Department)
	require.Equal(t, "Ada", student.Name)

	resp, body = doJSON(t, app, http.MethodPatch, "/api/v1/students/S1", map[string]string{"field": "name", "value": "Ada Lovelace"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body.Data, &student))
	require.Equal(t, "Ada Lovelace", student.Name)

	resp, body = doJSON(t, app, http.MethodPatch, "/api/v1/students/S1", map[string]string{"email": ""})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body.Data, &student))
	require.Nil(t, student.Email)

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/v1/students/S1", map[string]string{"field": "created_at", "value": "2020-01-01"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/students/S1", map[string]string{"id": "S9"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/students/S1", "not json")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/students/missing", map[string]string{"name": "Nobody"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentHandler_DeleteCascadesActivity(t *testing.T) {
	app, _ := studentApp(t)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S1", "name": "Ada"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students/S1/activity", map[string]string{"action": "login"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students/S1/activity", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/students/S1/activity", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var logs []dto.ActivityResponse
	require.NoError(t, json.Unmarshal(body.Data, &logs))
	require.Len(t, logs, 2)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/students/S1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/students/S1/activity", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/students/S1", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students/S1/activity", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentHandler_Notify(t *testing.T) {
	app, svc := studentApp(t)
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S1", "name": "Ada", "email": "ada@campus.edu"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students", map[string]string{"id": "S2", "name": "Bob"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/students/S1/notify", map[string]string{"message": "<b>Exam</b> moved"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sent dto.NotifyResponse
	require.NoError(t, json.Unmarshal(body.Data, &sent))
	require.Equal(t, "sent", sent.Delivery)
	require.Equal(t, "ada@campus.edu", sent.To)
	require.Equal(t, "Exam moved", sent.Message)
	require.Contains(t, svc.events.Types(), events.NotificationSent)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students/S2/notify", map[string]string{"message": "hello"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students/S404/notify", map[string]string{"message": "hello"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/students/S1/notify", map[string]string{"message": ""})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
