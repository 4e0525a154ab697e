package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/services"
	"github.com/nebulachat/messaging/pkg/internal/web/exts"
)

func createDirectChannel(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		RelatedUser string `json:"related_user" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	related, err := services.GetAccountWithName(data.RelatedUser)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "related user was not found")
	}

	channel, err := services.NewDirectChannel(user, related)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(channel)
}
