package exts

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindingForm struct {
	Alias string `json:"alias" validate:"required,lowercase,min=4,max=32"`
	Name  string `json:"name" validate:"required"`
}

func bindingApp() *fiber.App {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var data bindingForm
		if err := BindAndValidate(c, &data); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func postForm(t *testing.T, app *fiber.App, body string) int {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestBindAndValidateAccepts(t *testing.T) {
	app := bindingApp()
	assert.Equal(t, fiber.StatusOK, postForm(t, app, `{"alias":"general","name":"General"}`))
}

func TestBindAndValidateRejectsMissingField(t *testing.T) {
	app := bindingApp()
	assert.Equal(t, fiber.StatusBadRequest, postForm(t, app, `{"alias":"general"}`))
}

func TestBindAndValidateRejectsConstraintViolation(t *testing.T) {
	app := bindingApp()
	assert.Equal(t, fiber.StatusBadRequest, postForm(t, app, `{"alias":"AB","name":"General"}`))
}

func TestBindAndValidateRejectsMalformedBody(t *testing.T) {
	app := bindingApp()
	assert.Equal(t, fiber.StatusBadRequest, postForm(t, app, `{"alias":`))
}
