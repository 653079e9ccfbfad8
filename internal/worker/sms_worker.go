package worker

import (
	"context"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
)

// Ingester is the part of services.Ingestor the worker drives.
type Ingester interface {
	Ingest(ctx context.Context, msg services.SMS) services.IngestResult
}

// Consumer delivers inbound SMS messages one at a time.
type Consumer interface {
	ConsumeSMS(ctx context.Context, handler func(context.Context, *amqp.SmsMessage) error) error
}

// SmsWorker feeds SMS messages from the queue into the ingestor.
type SmsWorker struct {
	ingester Ingester
	consumer Consumer
}

func NewSmsWorker(ingester Ingester, consumer Consumer) *SmsWorker {
	return &SmsWorker{ingester: ingester, consumer: consumer}
}

// Run consumes until ctx is cancelled.
func (w *SmsWorker) Run(ctx context.Context) error {
	return w.consumer.ConsumeSMS(ctx, w.HandleSmsMessage)
}

// HandleSmsMessage ingests one message. Every outcome is final, so the
// message is always acknowledged; skipped messages are only logged.
func (w *SmsWorker) HandleSmsMessage(ctx context.Context, msg *amqp.SmsMessage) error {
	res := w.ingester.Ingest(ctx, services.SMS{
		Sender:     msg.Sender,
		Body:       msg.Body,
		ReceivedAt: msg.ReceivedAt,
	})

	if res.Outcome == services.OutcomeAccepted {
		slog.InfoContext(ctx, "SMS message ingested",
			"sender", msg.Sender,
			"transaction_id", res.Transaction.ID)
		return nil
	}
	slog.DebugContext(ctx, "SMS message skipped",
		"sender", msg.Sender,
		"outcome", string(res.Outcome))
	return nil
}
