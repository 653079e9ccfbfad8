package worker

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
)

// Publisher sends notification messages to the broker.
type Publisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// AMQPNotifier adapts a Publisher to services.Notifier.
type AMQPNotifier struct {
	publisher Publisher
}

var _ services.Notifier = (*AMQPNotifier)(nil)

func NewAMQPNotifier(p Publisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: p}
}

func (n *AMQPNotifier) Notify(ctx context.Context, note services.Notification) error {
	return n.publisher.PublishNotification(ctx, &amqp.NotificationMessage{
		Title:         note.Title,
		Body:          note.Body,
		TransactionID: note.Data.TransactionID,
		BudgetID:      note.Data.BudgetID,
		SentAt:        note.SentAt,
	})
}
