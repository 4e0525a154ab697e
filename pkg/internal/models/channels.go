package models

type ChannelType = uint8

const (
	ChannelTypeCommon = ChannelType(iota)
	ChannelTypeDirect
)

type Channel struct {
	BaseModel

	Alias       string          `json:"alias" gorm:"uniqueIndex"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Members     []ChannelMember `json:"members"`
	Messages    []Message       `json:"messages"`
	Type        ChannelType     `json:"type"`
	AccountID   uint            `json:"account_id"`

	// LastMessageID always points at the newest non-deleted message in the
	// channel, or is nil when none remain. It is recomputed from the
	// per-channel timestamp ordering, never trusted from whichever update
	// arrived last.
	LastMessageID *uint    `json:"last_message_id"`
	LastMessage   *Message `json:"last_message" gorm:"foreignKey:LastMessageID"`
}

func (v Channel) IsDirect() bool {
	return v.Type == ChannelTypeDirect
}

type NotifyLevel = int8

const (
	NotifyLevelAll = NotifyLevel(iota)
	NotifyLevelMentioned
	NotifyLevelNone
)

type ChannelMember struct {
	BaseModel

	ChannelID  uint        `json:"channel_id"`
	AccountID  uint        `json:"account_id"`
	Channel    Channel     `json:"channel"`
	Account    Account     `json:"account"`
	Notify     NotifyLevel `json:"notify"`
	PowerLevel int         `json:"power_level"`
}
