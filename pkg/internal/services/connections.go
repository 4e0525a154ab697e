package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nebulachat/messaging/pkg/internal/cache"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/presence"
	"github.com/nebulachat/messaging/pkg/internal/rooms"
	"github.com/nebulachat/messaging/pkg/wire"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const roomsRelayTopic = "nebula.rooms"

var (
	ProcessID = uuid.NewString()

	Broker    *rooms.Broker
	Directory presence.Directory
)

// SetupRealtime wires the room broker and presence directory. With a cache
// configured both span every server process; without one they degrade to
// in-process state for single-node deployments.
func SetupRealtime() {
	ttl := viper.GetDuration("presence.ttl")
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	if cache.C != nil {
		Directory = presence.NewRedis(cache.C, ProcessID, ttl)
		Broker = rooms.NewBroker(rooms.NewRedisPubSub(cache.C, roomsRelayTopic))
	} else {
		log.Warn().Msg("No cache configured, presence and rooms are process local...")
		Directory = presence.NewLocal(ProcessID, ttl)
		Broker = rooms.NewBroker(rooms.NewLocalPubSub())
	}
}

// ClientRegister attaches an authenticated socket: broker registration, the
// user's self room, and a presence record. The user_online edge fires only
// for the user's first socket anywhere, so extra tabs do not flap status.
func ClientRegister(ctx context.Context, user models.Account, socket rooms.Socket) {
	// Read-then-act: two sockets racing their first connect may both see an
	// empty directory and both broadcast the edge. Receivers treat
	// user_online as idempotent state, so the duplicate costs nothing; the
	// offline edge below stays strict.
	records, err := Directory.Get(ctx, user.ID)
	first := err == nil && len(records) == 0

	Broker.Register(socket)
	Broker.Join(socket.ID(), rooms.UserRoom(user.ID))

	if err := Directory.Put(ctx, user.ID, socket.ID()); err != nil {
		log.Warn().Err(err).Uint("user", user.ID).Msg("Unable to record presence...")
	}

	if first {
		Broker.BroadcastAll(wire.EventUserOnline, wire.UserStatus{UserID: user.ID})
	}
}

// ClientUnregister detaches a socket. The user_offline edge fires only after
// the directory confirms no other live socket remains for the user, on this
// process or any other.
func ClientUnregister(ctx context.Context, user models.Account, socket rooms.Socket) {
	Broker.Unregister(socket.ID())

	if err := Directory.Remove(ctx, user.ID, socket.ID()); err != nil {
		log.Warn().Err(err).Uint("user", user.ID).Msg("Unable to clear presence...")
	}

	if records, err := Directory.Get(ctx, user.ID); err == nil && len(records) == 0 {
		Broker.BroadcastAll(wire.EventUserOffline, wire.UserStatus{UserID: user.ID})
	}
}

// DealCommand dispatches one inbound gateway command. A non-nil return is
// written back to the issuing socket only.
func DealCommand(ctx context.Context, user models.Account, socket rooms.Socket, task wire.Command) *wire.Command {
	switch task.Action {
	case wire.CommandJoinChannel:
		var req wire.ChannelRequest
		models.FitStruct(task.Payload, &req)

		// Membership is re-checked on every join, it can change mid-session.
		if _, _, err := GetAvailableChannel(req.ChannelID, user); err != nil {
			return lo.ToPtr(wire.CommandFromError(err))
		}
		Broker.Join(socket.ID(), rooms.ChannelRoom(req.ChannelID))
		return nil
	case wire.CommandLeaveChannel:
		var req wire.ChannelRequest
		models.FitStruct(task.Payload, &req)

		Broker.Leave(socket.ID(), rooms.ChannelRoom(req.ChannelID))
		return nil
	case wire.CommandTypingStart, wire.CommandTypingStop:
		var req wire.ChannelRequest
		models.FitStruct(task.Payload, &req)

		if err := RelayTypingStatus(user, socket, req.ChannelID, task.Action == wire.CommandTypingStart); err != nil {
			return lo.ToPtr(wire.CommandFromError(err))
		}
		return nil
	default:
		return &wire.Command{
			Action:  "error",
			Message: "command not found",
		}
	}
}
