package services

import (
	"fmt"

	"github.com/nebulachat/messaging/pkg/internal/database"
	"github.com/nebulachat/messaging/pkg/internal/models"
)

func ListChannelMember(channelId uint) ([]models.ChannelMember, error) {
	var members []models.ChannelMember

	if err := database.C.
		Where(&models.ChannelMember{ChannelID: channelId}).
		Preload("Account").
		Find(&members).Error; err != nil {
		return members, err
	}

	return members, nil
}

func GetChannelMember(user models.Account, channelId uint) (models.ChannelMember, error) {
	var member models.ChannelMember

	if err := database.C.
		Where(&models.ChannelMember{AccountID: user.ID, ChannelID: channelId}).
		Find(&member).Error; err != nil {
		return member, err
	}

	return member, nil
}

// AddChannelMember invites an account into a group channel. Direct channel
// membership is fixed at creation and never changes.
func AddChannelMember(user models.Account, target models.Channel) error {
	if target.IsDirect() {
		return fmt.Errorf("direct channel membership is immutable")
	}

	var count int64
	if err := database.C.Model(&models.ChannelMember{}).
		Where("account_id = ? AND channel_id = ?", user.ID, target.ID).
		Count(&count).Error; err != nil {
		return err
	} else if count > 0 {
		return nil
	}

	member := models.ChannelMember{
		ChannelID: target.ID,
		AccountID: user.ID,
	}

	err := database.C.Save(&member).Error
	return err
}

func RemoveChannelMember(member models.ChannelMember, target models.Channel) error {
	if target.IsDirect() {
		return fmt.Errorf("direct channel membership is immutable")
	}

	return database.C.Delete(&member).Error
}
