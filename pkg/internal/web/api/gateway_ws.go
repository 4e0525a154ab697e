package api

import (
	"context"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/services"
	"github.com/nebulachat/messaging/pkg/wire"
)

// wsSocket adapts a fiber websocket connection to the rooms broker. Pushes
// come from many goroutines; the gorilla-style conn allows one writer at a
// time, hence the mutex.
type wsSocket struct {
	id     string
	userId uint

	mutex sync.Mutex
	conn  *websocket.Conn
}

func (v *wsSocket) ID() string   { return v.id }
func (v *wsSocket) UserID() uint { return v.userId }

func (v *wsSocket) Push(payload []byte) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.conn.WriteMessage(websocket.TextMessage, payload)
}

func messageGateway(c *websocket.Conn) {
	user := c.Locals("user").(models.Account)
	ctx := context.Background()

	socket := &wsSocket{
		id:     uuid.NewString(),
		userId: user.ID,
		conn:   c,
	}

	// Push connection
	services.ClientRegister(ctx, user, socket)

	// Event loop
	for {
		_, packet, err := c.ReadMessage()
		if err != nil {
			break
		}

		// Decode into a fresh envelope; a frame that omits its payload must
		// not inherit the previous frame's.
		var task wire.Command
		if err := jsoniter.Unmarshal(packet, &task); err != nil {
			_ = socket.Push(wire.Command{
				Action:  "error",
				Message: "unable to unmarshal your command, requires json request",
			}.Marshal())
			continue
		}

		// Any inbound traffic counts as activity.
		_ = services.Directory.Touch(ctx, user.ID, socket.id)

		if reply := services.DealCommand(ctx, user, socket, task); reply != nil {
			if err := socket.Push(reply.Marshal()); err != nil {
				break
			}
		}
	}

	// Pop connection
	services.ClientUnregister(ctx, user, socket)
}
