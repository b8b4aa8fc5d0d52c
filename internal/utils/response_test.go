package utils_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admin-api/internal/utils"
)

func respond(t *testing.T, handler fiber.Handler) (int, map[string]json.RawMessage) {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestOKCarriesMeta(t *testing.T) {
	status, body := respond(t, func(c *fiber.Ctx) error {
		return utils.OK(c, []string{"S1"}, "", fiber.Map{"count": 1, "limit": 10})
	})

	require.Equal(t, fiber.StatusOK, status)
	require.JSONEq(t, `true`, string(body["success"]))
	require.JSONEq(t, `"success"`, string(body["message"]))
	require.JSONEq(t, `["S1"]`, string(body["data"]))
	require.JSONEq(t, `{"count":1,"limit":10}`, string(body["meta"]))
	require.NotContains(t, body, "details")
}

func TestEmptySliceDataIsKept(t *testing.T) {
	_, body := respond(t, func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "students retrieved", []string{})
	})

	require.JSONEq(t, `[]`, string(body["data"]))
}

func TestSendSuccessWithStatus(t *testing.T) {
	status, body := respond(t, func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", fiber.Map{"id": "S1"})
	})

	require.Equal(t, fiber.StatusCreated, status)
	require.JSONEq(t, `{"id":"S1"}`, string(body["data"]))
}

func TestFailCarriesDetails(t *testing.T) {
	status, body := respond(t, func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{"name": "required"})
	})

	require.Equal(t, fiber.StatusBadRequest, status)
	require.JSONEq(t, `false`, string(body["success"]))
	require.JSONEq(t, `{"name":"required"}`, string(body["details"]))
	require.NotContains(t, body, "data")
}

func TestSendErrorDefaultsMessage(t *testing.T) {
	status, body := respond(t, func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "")
	})

	require.Equal(t, fiber.StatusNotFound, status)
	require.JSONEq(t, `"error"`, string(body["message"]))
}
