package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babashop/internal/http/handlers"
	"babashop/internal/services"
)

func TestErrorHandlerEnvelope(t *testing.T) {
	logs := captureLogs(t)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(recover.New())
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	app.Get("/panic", func(c *fiber.Ctx) error { panic("bad") })
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("%w: widget not found", services.ErrNotFound)
	})
	app.Get("/rule", func(c *fiber.Ctx) error {
		return fmt.Errorf("%w: cart is empty", services.ErrBusinessRule)
	})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrMethodNotAllowed })

	cases := []struct {
		path string
		code int
		msg  string
	}{
		{"/boom", 500, "internal server error"},
		{"/panic", 500, "internal server error"},
		{"/missing", 404, "widget not found"},
		{"/rule", 400, "cart is empty"},
		{"/fiber", 405, "Method Not Allowed"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil), -1)
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var env handlers.Envelope
		require.NoError(t, json.Unmarshal(raw, &env), tc.path)
		assert.Equal(t, tc.code, resp.StatusCode, tc.path)
		assert.Equal(t, tc.code, env.Code, tc.path)
		assert.Equal(t, tc.msg, env.Message, tc.path)
		assert.Nil(t, env.Data, tc.path)
	}

	// internals reach the log but not the client
	e := logs.find(t, "server.error")
	require.NotNil(t, e)
	assert.Equal(t, "error", e["kind"])
	assert.Equal(t, "db exploded", e["err"])
}

func TestUnknownRoute(t *testing.T) {
	ta := newTestApp(t)
	res := ta.do(t, "GET", "/api/nope", "", nil)
	assert.Equal(t, 404, res.Status)
	assert.Equal(t, 404, res.Code)
	assert.Equal(t, "route not found", res.Message)
}

func TestMalformedJSON(t *testing.T) {
	ta := newTestApp(t)
	res := ta.do(t, "POST", "/api/auth/login", "", `{"email":`)
	assert.Equal(t, 422, res.Status)
	assert.Equal(t, "request body must be a JSON object", res.Message)

	res = ta.do(t, "POST", "/api/auth/register", "", `[1,2]`)
	assert.Equal(t, 422, res.Status)
}

func TestHealthz(t *testing.T) {
	ta := newTestApp(t)
	res := ta.do(t, "GET", "/healthz", "", nil)
	assert.Equal(t, 200, res.Status)
	assert.JSONEq(t, `{"ok":true}`, string(res.Data))
}
