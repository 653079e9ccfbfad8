package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// SmsMessage is an inbound SMS forwarded by the device listener.
type SmsMessage struct {
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// NewSmsMessage creates a message stamped with the current time
func NewSmsMessage(sender, body string) *SmsMessage {
	return &SmsMessage{
		Sender:     sender,
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SmsMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SmsMessageFromJSON decodes a message. A message without a body is rejected.
func SmsMessageFromJSON(data []byte) (*SmsMessage, error) {
	var msg SmsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, errors.New("sms message has no body")
	}
	return &msg, nil
}

// NotificationMessage is published for every user-facing notification.
type NotificationMessage struct {
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	TransactionID string    `json:"transactionId,omitempty"`
	BudgetID      string    `json:"budgetId,omitempty"`
	SentAt        time.Time `json:"sentAt"`
}

// ToJSON renders the notification in the {title, body, data} shape devices expect.
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	type data struct {
		TransactionID string `json:"transactionId,omitempty"`
		BudgetID      string `json:"budgetId,omitempty"`
	}
	return json.Marshal(struct {
		Title  string    `json:"title"`
		Body   string    `json:"body"`
		Data   data      `json:"data"`
		SentAt time.Time `json:"sentAt"`
	}{m.Title, m.Body, data{m.TransactionID, m.BudgetID}, m.SentAt})
}
