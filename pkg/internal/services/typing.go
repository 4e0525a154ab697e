package services

import (
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/rooms"
	"github.com/nebulachat/messaging/pkg/wire"
)

// RelayTypingStatus fans a typing indicator out to the channel room,
// excluding the socket that produced it. The signal is relayed as-is and
// never persisted.
func RelayTypingStatus(user models.Account, socket rooms.Socket, channelId uint, typing bool) error {
	channel, _, err := GetAvailableChannel(channelId, user)
	if err != nil {
		return err
	}

	event := wire.EventTypingStop
	if typing {
		event = wire.EventTypingStart
	}

	Broker.Broadcast(rooms.ChannelRoom(channel.ID), event, wire.TypingSignal{
		ChannelID: channel.ID,
		UserID:    user.ID,
	}, socket.ID())

	return nil
}
