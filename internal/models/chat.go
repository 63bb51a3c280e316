// Package models defines the GORM data model for the chatbot.
package models

import "time"

// Chat control modes. The control mode decides whether the dialogue engine
// or a human agent answers inbound messages.
const (
	ControlBot   = "bot"
	ControlAgent = "agent"
)

// Chat statuses.
const (
	ChatActive = "active"
	ChatClosed = "closed"
)

// Message sender types.
const (
	SenderUser  = "user"
	SenderBot   = "bot"
	SenderAgent = "agent"
)

// Chat is the persistent record of one WhatsApp user's conversation.
// ExternalUserID is the WhatsApp phone identity and uniquely determines
// the chat: first contact creates the row, every later contact reuses it.
type Chat struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	ExternalUserID  string `gorm:"size:255;not null;uniqueIndex"`
	Status          string `gorm:"size:50;default:active;index"` // active, closed
	ControlMode     string `gorm:"size:50;default:bot;index"`    // bot, agent
	AssignedAgentID *uint
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Messages []Message `gorm:"foreignKey:ChatID"`
}

// Message is one entry in a chat's append-only log. Rows are never updated
// or deleted; the log is the audit trail agents see in the panel.
type Message struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	ChatID      uint      `gorm:"not null;index"`
	SenderType  string    `gorm:"size:10;not null"` // user, bot, agent
	MessageKind string    `gorm:"size:50;not null"` // text, interactive_button, interactive_list
	Content     string    `gorm:"type:text;not null"`
	Timestamp   time.Time `gorm:"autoCreateTime;index"`
}
