package services

import (
	"errors"

	"github.com/nebulachat/messaging/pkg/internal/database"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/nebulachat/messaging/pkg/internal/rooms"
	"github.com/nebulachat/messaging/pkg/wire"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func CountMessage(channel models.Channel) int64 {
	var count int64
	if err := database.C.Where(models.Message{
		ChannelID: channel.ID,
	}).Model(&models.Message{}).Count(&count).Error; err != nil {
		return 0
	}
	return count
}

func ListMessage(channel models.Channel, take int, offset int) ([]models.Message, error) {
	if take > 100 {
		take = 100
	}

	var messages []models.Message
	if err := database.C.
		Where(models.Message{
			ChannelID: channel.ID,
		}).Limit(take).Offset(offset).
		Order("created_at DESC").
		Preload("Sender").
		Preload("ReplyTo").
		Find(&messages).Error; err != nil {
		return messages, err
	}
	return messages, nil
}

func GetMessage(channel models.Channel, id uint) (models.Message, error) {
	var message models.Message
	if err := database.C.
		Where(models.Message{
			BaseModel: models.BaseModel{ID: id},
			ChannelID: channel.ID,
		}).
		Preload("Sender").
		First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message, ErrNotFound
		}
		return message, err
	}
	return message, nil
}

func GetMessageWithSender(channel models.Channel, user models.Account, id uint) (models.Message, error) {
	var message models.Message
	if err := database.C.Where(models.Message{
		BaseModel: models.BaseModel{ID: id},
		ChannelID: channel.ID,
		SenderID:  user.ID,
	}).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message, ErrNotFound
		}
		return message, err
	}
	return message, nil
}

// NewMessage persists a message and fans the created event out to the
// channel room. Retried sends are idempotent: a uuid already seen returns
// the original row instead of creating a duplicate.
func NewMessage(message models.Message) (models.Message, error) {
	var existing models.Message
	if err := database.C.Where("uuid = ?", message.Uuid).
		Preload("Sender").First(&existing).Error; err == nil {
		return existing, nil
	}

	if err := database.C.Save(&message).Error; err != nil {
		return message, err
	}

	// Another writer may commit its pointer update after ours even though
	// its row is older; recompute from the store instead of assuming the
	// fresh row is the newest.
	if err := RefreshLastMessage(message.ChannelID); err != nil {
		log.Warn().Err(err).Uint("channel", message.ChannelID).Msg("Unable to refresh channel last message...")
	}

	if reloaded, err := GetMessage(models.Channel{BaseModel: models.BaseModel{ID: message.ChannelID}}, message.ID); err == nil {
		message = reloaded
	}
	Broker.Broadcast(rooms.ChannelRoom(message.ChannelID), wire.EventMessageCreated, RenderMessage(message))

	return message, nil
}

func EditMessage(message models.Message, body string, attachments []string) (models.Message, error) {
	message.Body = body
	if attachments != nil {
		message.Attachments = datatypes.NewJSONSlice(attachments)
	}
	message.Edited = true

	if err := database.C.Save(&message).Error; err != nil {
		return message, err
	}

	Broker.Broadcast(rooms.ChannelRoom(message.ChannelID), wire.EventMessageUpdated, RenderMessage(message))
	return message, nil
}

func DeleteMessage(message models.Message) error {
	if err := database.C.Delete(&message).Error; err != nil {
		return err
	}

	if err := RefreshLastMessage(message.ChannelID); err != nil {
		log.Warn().Err(err).Uint("channel", message.ChannelID).Msg("Unable to refresh channel last message...")
	}

	Broker.Broadcast(rooms.ChannelRoom(message.ChannelID), wire.EventMessageDeleted, wire.MessageTombstone{
		MessageID: message.ID,
		ChannelID: message.ChannelID,
	})
	return nil
}

// ToggleReaction applies the shared merge function to the stored reaction
// set. The same function runs client-side for the optimistic copy, so the
// broadcast that follows converges both views to an identical result.
func ToggleReaction(message models.Message, user models.Account, emoji string) (models.Message, error) {
	merged := wire.ToggleReaction(message.Reactions, user.ID, emoji)
	message.Reactions = datatypes.NewJSONSlice(merged)

	if err := database.C.Save(&message).Error; err != nil {
		return message, err
	}

	Broker.Broadcast(rooms.ChannelRoom(message.ChannelID), wire.EventMessageUpdated, RenderMessage(message))
	return message, nil
}

// RefreshLastMessage recomputes a channel's last-message pointer from the
// authoritative per-channel timestamp ordering. Concurrent writers may race
// each other here; recomputing from the store instead of trusting the
// caller keeps the pointer correct regardless of arrival order.
func RefreshLastMessage(channelId uint) error {
	var newest models.Message
	err := database.C.Where("channel_id = ?", channelId).
		Order("created_at DESC").
		First(&newest).Error

	var pointer any
	switch {
	case err == nil:
		pointer = newest.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		pointer = nil
	default:
		return err
	}

	return database.C.Model(&models.Channel{}).
		Where("id = ?", channelId).
		Update("last_message_id", pointer).Error
}
