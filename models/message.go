package models

import (
	"strconv"
	"time"
)

// MessageSender identifies which side of the conversation wrote a message.
type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderAI   MessageSender = "ai"
)

// AssistantGreeting seeds every new session's transcript.
const AssistantGreeting = "Hi! I'm your AI presentation assistant. I can help you improve your slides, suggest content, change layouts, and more. What would you like to work on?"

// Message is one entry of a session's chat transcript.
type Message struct {
	ID        string        `json:"id"`
	Sender    MessageSender `json:"sender"`
	Text      string        `json:"text"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewMessage builds a transcript entry with a time-derived id.
func NewMessage(sender MessageSender, text string, now time.Time) Message {
	return Message{
		ID:        strconv.FormatInt(now.UnixNano(), 10),
		Sender:    sender,
		Text:      text,
		Timestamp: now,
	}
}
