package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nebulachat/messaging/pkg/internal/database"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/services"
	"github.com/nebulachat/messaging/pkg/internal/web/exts"
)

func listChannelMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)

	channel, _, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	members, err := services.ListChannelMember(channel.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(members)
}

func addChannelMember(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)

	var data struct {
		Target string `json:"target" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	channel, member, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	} else if member.PowerLevel < 50 {
		return fiber.NewError(fiber.StatusForbidden, "unable to invite, access denied")
	}

	target, err := services.GetAccountWithName(data.Target)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "target user was not found")
	}

	if err := services.AddChannelMember(target, channel); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}

func removeChannelMember(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)
	memberId, _ := c.ParamsInt("memberId", 0)

	channel, member, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	} else if member.PowerLevel < 50 && member.ID != uint(memberId) {
		return fiber.NewError(fiber.StatusForbidden, "unable to kick, access denied")
	}

	var target models.ChannelMember
	if err := database.C.Where(&models.ChannelMember{
		BaseModel: models.BaseModel{ID: uint(memberId)},
		ChannelID: channel.ID,
	}).First(&target).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if err := services.RemoveChannelMember(target, channel); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
