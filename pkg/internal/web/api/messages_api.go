package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/services"
	"github.com/nebulachat/messaging/pkg/internal/web/exts"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

func listMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)
	take := c.QueryInt("take", 50)
	offset := c.QueryInt("offset", 0)

	channel, _, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	messages, err := services.ListMessage(channel, take, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"count": services.CountMessage(channel),
		"data": lo.Map(messages, func(item models.Message, index int) any {
			return services.RenderMessage(item)
		}),
	})
}

func newMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)

	var data struct {
		Uuid        string   `json:"uuid" validate:"required,min=8"`
		Body        string   `json:"body"`
		Attachments []string `json:"attachments"`
		ReplyToID   *uint    `json:"reply_to_id"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	data.Body = strings.TrimSpace(data.Body)
	if len(data.Body) == 0 && len(data.Attachments) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty message was not allowed")
	}

	channel, member, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	} else if member.PowerLevel < 0 {
		return fiber.NewError(fiber.StatusForbidden, "unable to send message, access denied")
	}

	if data.ReplyToID != nil {
		if _, err := services.GetMessage(channel, *data.ReplyToID); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "message to reply was not found")
		}
	}

	message := models.Message{
		Uuid:        data.Uuid,
		Body:        data.Body,
		Attachments: datatypes.NewJSONSlice(data.Attachments),
		ReplyToID:   data.ReplyToID,
		ChannelID:   channel.ID,
		SenderID:    user.ID,
	}

	if message, err = services.NewMessage(message); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(services.RenderMessage(message))
}

func editMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)
	messageId, _ := c.ParamsInt("messageId", 0)

	var data struct {
		Body        string   `json:"body" validate:"required"`
		Attachments []string `json:"attachments"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	channel, _, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	message, err := services.GetMessageWithSender(channel, user, uint(messageId))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if message, err = services.EditMessage(message, data.Body, data.Attachments); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(services.RenderMessage(message))
}

func deleteMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)
	messageId, _ := c.ParamsInt("messageId", 0)

	channel, _, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	message, err := services.GetMessageWithSender(channel, user, uint(messageId))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if err := services.DeleteMessage(message); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}

func toggleReaction(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	channelId, _ := c.ParamsInt("channelId", 0)
	messageId, _ := c.ParamsInt("messageId", 0)

	var data struct {
		Emoji string `json:"emoji" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	channel, _, err := services.GetAvailableChannel(uint(channelId), user)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	message, err := services.GetMessage(channel, uint(messageId))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if message, err = services.ToggleReaction(message, user, data.Emoji); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(services.RenderMessage(message))
}
