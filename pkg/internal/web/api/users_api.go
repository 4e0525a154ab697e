package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/services"
)

func getUserinfo(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	return c.JSON(user)
}

func listOnlineUsers(c *fiber.Ctx) error {
	users, err := services.Directory.ListOnline(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"online": users,
	})
}
