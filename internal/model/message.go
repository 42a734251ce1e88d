package model

import (
	"strings"
	"time"
)

// MessageStatus is the processing state of an inbound message.
type MessageStatus string

const (
	MessageStatusUnprocessed MessageStatus = "unprocessed"
	MessageStatusProcessing  MessageStatus = "processing"
	MessageStatusProcessed   MessageStatus = "processed"
	MessageStatusFailed      MessageStatus = "failed"
)

// MessagePriority is the sender-side urgency of a message.
type MessagePriority string

const (
	MessagePriorityLow    MessagePriority = "low"
	MessagePriorityNormal MessagePriority = "normal"
	MessagePriorityHigh   MessagePriority = "high"
	MessagePriorityUrgent MessagePriority = "urgent"
)

// MessageType identifies the channel a message arrived on.
type MessageType string

const (
	MessageTypeEmail        MessageType = "email"
	MessageTypeChat         MessageType = "chat"
	MessageTypeNotification MessageType = "notification"
	MessageTypeSystem       MessageType = "system"
	MessageTypeTaskUpdate   MessageType = "task_update"
	MessageTypeAISummary    MessageType = "ai_summary"
)

// AccountRef is the projection of a linked account embedded in messages.
type AccountRef struct {
	ID                ID          `json:"id"`
	ServiceName       ServiceName `json:"serviceName"`
	AccountIdentifier string      `json:"accountIdentifier"`
}

// Message is an item collected from a linked account. Some API revisions
// report a processing Status, others only the IsRead flag; both are kept.
type Message struct {
	ID          ID              `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Summary     string          `json:"summary,omitempty"`
	Status      MessageStatus   `json:"status,omitempty"`
	Priority    MessagePriority `json:"priority,omitempty"`
	MessageType MessageType     `json:"messageType,omitempty"`
	IsRead      bool            `json:"isRead"`

	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`

	SourceAccount     *AccountRef `json:"sourceAccount,omitempty"`
	Task              *TaskRef    `json:"task,omitempty"`
	Owner             *Ref        `json:"owner,omitempty"`
	ExternalMessageID string      `json:"externalMessageId,omitempty"`
}

// MessageInput is the payload for creating a message.
type MessageInput struct {
	Title             string          `json:"title"`
	Content           string          `json:"content"`
	SourceAccountID   ID              `json:"sourceAccountId"`
	ExternalMessageID string          `json:"externalMessageId,omitempty"`
	Priority          MessagePriority `json:"priority,omitempty"`
}

// Validate returns the client-side validation messages for the input.
func (in MessageInput) Validate() []string {
	var errs []string
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, "Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		errs = append(errs, "Content is required")
	}
	if in.SourceAccountID == "" {
		errs = append(errs, "Source account is required")
	}
	return errs
}
