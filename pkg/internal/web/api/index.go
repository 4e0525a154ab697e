package api

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/nebulachat/messaging/pkg/internal/services"
)

func authMiddleware(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if len(token) == 0 {
		token = c.Query("tk")
	}
	if len(token) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "no credential was provided")
	}

	user, err := services.Authenticate(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	c.Locals("user", user)
	return c.Next()
}

func MapAPIs(app *fiber.App, baseURL string) {
	app.Get("/ws", authMiddleware, websocket.New(messageGateway))

	api := app.Group(baseURL).Name("API")
	{
		api.Get("/users/me", authMiddleware, getUserinfo)
		api.Get("/users/online", listOnlineUsers)

		channels := api.Group("/channels").Use(authMiddleware).Name("Channels API")
		{
			channels.Get("/", listAvailableChannel)
			channels.Get("/:channelId", getChannel)
			channels.Post("/", createChannel)
			channels.Post("/dm", createDirectChannel)
			channels.Put("/:channelId", editChannel)
			channels.Delete("/:channelId", deleteChannel)

			channels.Get("/:channelId/members", listChannelMembers)
			channels.Post("/:channelId/members", addChannelMember)
			channels.Delete("/:channelId/members/:memberId", removeChannelMember)

			channels.Get("/:channelId/messages", listMessage)
			channels.Post("/:channelId/messages", newMessage)
			channels.Put("/:channelId/messages/:messageId", editMessage)
			channels.Delete("/:channelId/messages/:messageId", deleteMessage)
			channels.Post("/:channelId/messages/:messageId/reactions", toggleReaction)
		}
	}
}
