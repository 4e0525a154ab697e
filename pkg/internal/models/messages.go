package models

import (
	"github.com/nebulachat/messaging/pkg/wire"
	"gorm.io/datatypes"
)

type Message struct {
	BaseModel

	// Uuid is generated by the sending client and echoed back on every
	// response and broadcast, so the sender can reconcile its optimistic
	// copy. Unique per channel to keep retried sends idempotent.
	Uuid        string                             `json:"uuid" gorm:"uniqueIndex"`
	Body        string                             `json:"body"`
	Attachments datatypes.JSONSlice[string]        `json:"attachments"`
	Reactions   datatypes.JSONSlice[wire.Reaction] `json:"reactions"`
	Edited      bool                               `json:"edited"`
	ReplyToID   *uint                              `json:"reply_to_id"`
	ReplyTo     *Message                           `json:"reply_to" gorm:"foreignKey:ReplyToID"`
	Channel     Channel                            `json:"channel"`
	Sender      Account                            `json:"sender"`
	ChannelID   uint                               `json:"channel_id"`
	SenderID    uint                               `json:"sender_id"`
}

func (v Message) ToWire() wire.Message {
	attachments := make([]wire.Attachment, 0, len(v.Attachments))
	for _, ref := range v.Attachments {
		attachments = append(attachments, wire.Attachment{Ref: ref})
	}
	return wire.Message{
		ID:          v.ID,
		Uuid:        v.Uuid,
		ChannelID:   v.ChannelID,
		SenderID:    v.SenderID,
		Body:        v.Body,
		Attachments: attachments,
		Reactions:   v.Reactions,
		Edited:      v.Edited,
		ReplyToID:   v.ReplyToID,
		CreatedAt:   v.CreatedAt,
	}
}
