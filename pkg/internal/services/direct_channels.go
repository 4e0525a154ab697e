package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nebulachat/messaging/pkg/internal/database"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/samber/lo"
)

// GetDirectChannelBetween finds the direct channel shared by exactly the two
// given accounts, if one exists.
func GetDirectChannelBetween(firstId, secondId uint) (models.Channel, error) {
	var idx []uint
	if err := database.C.Model(&models.ChannelMember{}).
		Where("account_id = ?", firstId).
		Pluck("channel_id", &idx).Error; err != nil {
		return models.Channel{}, err
	}

	var channels []models.Channel
	if err := database.C.Preload("Members").
		Where("type = ? AND id IN ?", models.ChannelTypeDirect, idx).
		Find(&channels).Error; err != nil {
		return models.Channel{}, err
	}

	for _, channel := range channels {
		hit := lo.SomeBy(channel.Members, func(item models.ChannelMember) bool {
			return item.AccountID == secondId
		})
		if hit {
			return channel, nil
		}
	}

	return models.Channel{}, ErrNotFound
}

// NewDirectChannel creates the two-member channel between user and other.
// Exactly two members, immutable afterwards.
func NewDirectChannel(user models.Account, other models.Account) (models.Channel, error) {
	if user.ID == other.ID {
		return models.Channel{}, fmt.Errorf("unable to create direct channel with yourself")
	}
	if _, err := GetDirectChannelBetween(user.ID, other.ID); err == nil {
		return models.Channel{}, fmt.Errorf("direct channel between you already exists")
	}

	channel := models.Channel{
		Alias:     fmt.Sprintf("dm-%s", uuid.NewString()[:8]),
		Name:      fmt.Sprintf("%s & %s", user.Nick, other.Nick),
		Type:      models.ChannelTypeDirect,
		AccountID: user.ID,
		Members: []models.ChannelMember{
			{AccountID: user.ID, PowerLevel: 100},
			{AccountID: other.ID, PowerLevel: 100},
		},
	}

	err := database.C.Save(&channel).Error
	return channel, err
}
