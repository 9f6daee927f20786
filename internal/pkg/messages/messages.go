package messages

import (
	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "CAREDIAL/"
	// Notify queue name - summary-and-notify jobs
	Notify = st + "Notify"
	// StatusChange queue name - callback record state changed
	StatusChange = st + "StatusChange"
)

// CallbackMessage main message passing through the caredial system
type CallbackMessage struct {
	amessages.QueueMessage
	StructuredData map[string]string `json:"structuredData,omitempty"`
}

// NewMessageFrom creates a copy of a message
func NewMessageFrom(m *CallbackMessage) *CallbackMessage {
	return &CallbackMessage{QueueMessage: m.QueueMessage, StructuredData: m.StructuredData}
}
