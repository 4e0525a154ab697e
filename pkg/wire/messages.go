package wire

import "time"

// Message is the wire representation of a single chat message, as emitted in
// broadcasts and mutation responses. The ID is server-assigned; Uuid is the
// client-generated token carried along so a sender can match an incoming
// broadcast against its own unconfirmed copy.
type Message struct {
	ID          uint         `json:"id,omitempty"`
	Uuid        string       `json:"uuid"`
	ChannelID   uint         `json:"channel_id"`
	SenderID    uint         `json:"sender_id"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
	Edited      bool         `json:"edited,omitempty"`
	ReplyToID   *uint        `json:"reply_to_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Attachment pairs an opaque storage reference with the stable URL the
// attachment store resolved for it. Only Ref is accepted on the way in.
type Attachment struct {
	Ref string `json:"ref"`
	Url string `json:"url,omitempty"`
}
