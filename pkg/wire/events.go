package wire

// Client to server commands.
const (
	CommandJoinChannel  = "join_channel"
	CommandLeaveChannel = "leave_channel"
	CommandTypingStart  = "typing_start"
	CommandTypingStop   = "typing_stop"
)

// Server to client events.
const (
	EventMessageCreated = "message_created"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventUserOnline     = "user_online"
	EventUserOffline    = "user_offline"
)

type ChannelRequest struct {
	ChannelID uint `json:"channel_id"`
}

type TypingSignal struct {
	ChannelID uint `json:"channel_id"`
	UserID    uint `json:"user_id"`
}

type MessageTombstone struct {
	MessageID uint `json:"message_id"`
	ChannelID uint `json:"channel_id"`
}

type UserStatus struct {
	UserID uint `json:"user_id"`
}
