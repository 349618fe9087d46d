package models

// MessageType is the kind of inbound chat message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
)

// MessageLog is the append-only audit trail of the chat channel.
type MessageLog struct {
	Base
	UserID           string      `gorm:"type:uuid;not null;index" json:"user_id"`
	WhatsAppNumber   string      `gorm:"column:whatsapp_number;not null" json:"whatsapp_number"`
	ChannelMessageID string      `gorm:"uniqueIndex:idx_message_logs_channel_message_id,where:channel_message_id <> ''" json:"channel_message_id,omitempty"`
	MessageType      MessageType `gorm:"not null" json:"message_type"`
	OriginalMessage  string      `gorm:"type:text" json:"original_message"`
	ParsedData       string      `gorm:"type:text" json:"parsed_data,omitempty"`
	Response         string      `gorm:"type:text" json:"response"`
	TransactionID    *string     `gorm:"type:uuid" json:"transaction_id,omitempty"`
}
