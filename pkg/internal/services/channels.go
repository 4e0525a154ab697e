package services

import (
	"fmt"
	"regexp"

	"github.com/nebulachat/messaging/pkg/internal/database"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/samber/lo"
)

func GetChannelAliasAvailability(alias string) error {
	if !regexp.MustCompile("^[a-z0-9-]+$").MatchString(alias) {
		return fmt.Errorf("channel alias should only contains lowercase letters, numbers, and hyphens")
	}
	var count int64
	if err := database.C.Model(&models.Channel{}).
		Where("alias = ?", alias).Count(&count).Error; err != nil {
		return err
	} else if count > 0 {
		return fmt.Errorf("channel alias already taken")
	}
	return nil
}

func GetChannel(id uint) (models.Channel, error) {
	var channel models.Channel
	if err := database.C.Where(models.Channel{
		BaseModel: models.BaseModel{ID: id},
	}).Preload("LastMessage").First(&channel).Error; err != nil {
		return channel, err
	}

	return channel, nil
}

func GetChannelWithAlias(alias string) (models.Channel, error) {
	var channel models.Channel
	if err := database.C.Where(models.Channel{Alias: alias}).
		Preload("LastMessage").First(&channel).Error; err != nil {
		return channel, err
	}

	return channel, nil
}

// GetAvailableChannel resolves a channel and the requester's membership in
// it; a user touching a channel they are not a member of gets ErrNotAMember
// with no state mutated.
func GetAvailableChannel(id uint, user models.Account) (models.Channel, models.ChannelMember, error) {
	var member models.ChannelMember
	channel, err := GetChannel(id)
	if err != nil {
		return channel, member, err
	}

	if err := database.C.Where(models.ChannelMember{
		AccountID: user.ID,
		ChannelID: channel.ID,
	}).First(&member).Error; err != nil {
		return channel, member, ErrNotAMember
	}

	return channel, member, nil
}

func ListAvailableChannel(user models.Account) ([]models.Channel, error) {
	var members []models.ChannelMember
	if err := database.C.Where(&models.ChannelMember{
		AccountID: user.ID,
	}).Find(&members).Error; err != nil {
		return nil, err
	}

	idx := lo.Map(members, func(item models.ChannelMember, index int) uint {
		return item.ChannelID
	})

	var channels []models.Channel
	if err := database.C.Where("id IN ?", idx).
		Preload("LastMessage").
		Find(&channels).Error; err != nil {
		return channels, err
	}

	return channels, nil
}

func NewChannel(user models.Account, alias, name, description string) (models.Channel, error) {
	channel := models.Channel{
		Alias:       alias,
		Name:        name,
		Description: description,
		Type:        models.ChannelTypeCommon,
		AccountID:   user.ID,
		Members: []models.ChannelMember{
			{AccountID: user.ID, PowerLevel: 100},
		},
	}

	err := database.C.Save(&channel).Error
	return channel, err
}

func EditChannel(channel models.Channel, alias, name, description string) (models.Channel, error) {
	channel.Alias = alias
	channel.Name = name
	channel.Description = description

	err := database.C.Save(&channel).Error
	return channel, err
}

func DeleteChannel(channel models.Channel) error {
	if err := database.C.Delete(&channel).Error; err != nil {
		return err
	}
	database.C.Where("channel_id = ?", channel.ID).Delete(&models.Message{})
	database.C.Where("channel_id = ?", channel.ID).Delete(&models.ChannelMember{})

	return nil
}
