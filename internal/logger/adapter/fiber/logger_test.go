package fiber_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/partdesk/internal/logger"
	adapter "github.com/partdesk/partdesk/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP     string `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	User   string `json:"user"`
	Error  string `json:"error"`
}

var consoleAccess = logger.Log{ //nolint:gochecknoglobals
	EnableAccessLogToConsole: true,
	Console:                  logger.Console{Enabled: true},
}

func serve(t *testing.T, target string, cfg adapter.Config) (*bytes.Buffer, int) {
	t.Helper()

	var buf bytes.Buffer
	cfg.Output = &buf

	app := fiber.New()
	app.Use(adapter.New(cfg))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("hello test")
	})
	app.Get("/items", func(c *fiber.Ctx) error {
		c.Locals("user", "alice")

		return c.SendString("items")
	})
	app.Get("/boom", func(_ *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)
	require.NoError(t, err)

	return &buf, resp.StatusCode
}

func decode(t *testing.T, buf *bytes.Buffer) accessLine {
	t.Helper()

	var line accessLine
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())

	return line
}

func TestNew_ConsoleJSON(t *testing.T) {
	tests := []struct {
		target string
		status int
	}{
		{"/", fiber.StatusOK},
		{"/?test=123", fiber.StatusOK},
		{"//test", fiber.StatusNotFound},
		{"/no_path//?test=123", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			buf, status := serve(t, tt.target, adapter.Config{Config: consoleAccess})
			assert.Equal(t, tt.status, status)

			line := decode(t, buf)
			assert.Equal(t, tt.status, line.Status)
			assert.Equal(t, tt.target, line.URI)
			assert.Equal(t, fiber.MethodGet, line.Method)
			assert.Equal(t, "example.com", line.Host)
			assert.Equal(t, "0.0.0.0", line.IP)
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	buf, status := serve(t, "/", adapter.Config{})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, buf.String())

	buf, _ = serve(t, "/", adapter.Config{Config: logger.Log{Console: logger.Console{Enabled: true}}})
	assert.Empty(t, buf.String(), "console access log needs EnableAccessLogToConsole")
}

func TestNew_SkipPaths(t *testing.T) {
	buf, status := serve(t, "/healthz", adapter.Config{Config: consoleAccess, SkipPaths: []string{"/healthz"}})
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.Empty(t, buf.String())
}

func TestNew_Next(t *testing.T) {
	buf, _ := serve(t, "/", adapter.Config{
		Config: consoleAccess,
		Next:   func(*fiber.Ctx) bool { return true },
	})
	assert.Empty(t, buf.String())
}

func TestNew_Subject(t *testing.T) {
	subject := func(c *fiber.Ctx) string {
		s, _ := c.Locals("user").(string)

		return s
	}

	buf, _ := serve(t, "/items", adapter.Config{Config: consoleAccess, Subject: subject})
	assert.Equal(t, "alice", decode(t, buf).User)

	buf, _ = serve(t, "/", adapter.Config{Config: consoleAccess, Subject: subject})
	assert.Empty(t, decode(t, buf).User)
}

func TestNew_ChainError(t *testing.T) {
	buf, status := serve(t, "/boom", adapter.Config{Config: consoleAccess})
	assert.Equal(t, fiber.StatusTeapot, status)

	line := decode(t, buf)
	assert.Equal(t, fiber.StatusTeapot, line.Status)
	assert.Equal(t, "short and stout", line.Error)
}
