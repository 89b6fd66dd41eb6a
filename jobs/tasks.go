// Package jobs wires background delivery through Asynq. The HTTP side only
// enqueues; the worker binary consumes.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeSendSMS is the task type for one-time-code SMS delivery.
	TaskTypeSendSMS = "sms:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendSMSPayload describes the information required to send an SMS.
type SendSMSPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendSMSTask constructs an Asynq task.
func NewSendSMSTask(payload SendSMSPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendSMS, data), nil
}

// MailSender delivers a single email.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSDeliverer delivers a single SMS.
type SMSDeliverer interface {
	Send(ctx context.Context, to, body string) error
}

// NewSendEmailHandler returns the worker handler for TaskTypeSendEmail.
func NewSendEmailHandler(sender MailSender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := sender.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
			logger.Warn("send email", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		return nil
	}
}

// NewSendSMSHandler returns the worker handler for TaskTypeSendSMS.
func NewSendSMSHandler(sender SMSDeliverer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendSMSPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := sender.Send(ctx, payload.To, payload.Body); err != nil {
			logger.Warn("send sms", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		return nil
	}
}
