package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Conversation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *string    `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Title     string     `gorm:"column:title;size:255;not null" json:"title"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	Messages  []*Message `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversation"
}

type Message struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation   *Conversation `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"conversation,omitempty"`
	Role           string        `gorm:"column:role;size:20;not null" json:"role"`
	Content        string        `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt      time.Time     `gorm:"not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string {
	return "message"
}
