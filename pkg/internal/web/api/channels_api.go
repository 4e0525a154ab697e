package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/services"
	"github.com/nebulachat/messaging/pkg/internal/web/exts"
)

func listAvailableChannel(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	channels, err := services.ListAvailableChannel(user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(channels)
}

func getChannel(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)

	channel, _, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(channel)
}

func createChannel(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		Alias       string `json:"alias" validate:"required,lowercase,min=4,max=32"`
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	} else if err := services.GetChannelAliasAvailability(data.Alias); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	channel, err := services.NewChannel(user, data.Alias, data.Name, data.Description)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(channel)
}

func editChannel(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)

	var data struct {
		Alias       string `json:"alias" validate:"required,lowercase,min=4,max=32"`
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	channel, member, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	} else if member.PowerLevel < 50 {
		return fiber.NewError(fiber.StatusForbidden, "unable to edit channel, access denied")
	}

	channel, err = services.EditChannel(channel, data.Alias, data.Name, data.Description)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(channel)
}

func deleteChannel(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)

	channel, member, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	} else if channel.AccountID != user.ID && member.PowerLevel < 100 {
		return fiber.NewError(fiber.StatusForbidden, "unable to delete channel, access denied")
	}

	if err := services.DeleteChannel(channel); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
