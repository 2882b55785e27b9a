// Package notify_service alerts operators when a document lands in FAILED.
// Notification errors are logged and never affect document status.
package notify_service

import (
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier receives failure events from the ingestion pipeline.
type Notifier interface {
	NotifyFailure(documentID int64, filename, reason string) error
}

// NopNotifier is used when no alerting backend is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyFailure(documentID int64, filename, reason string) error {
	return nil
}

// TwilioNotifier sends an SMS per failed document.
type TwilioNotifier struct {
	client     *twilio.RestClient
	fromNumber string
	toNumber   string
	logger     *slog.Logger
}

func NewTwilioNotifier(accountSID, authToken, fromNumber, toNumber string, logger *slog.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioNotifier{
		client:     client,
		fromNumber: fromNumber,
		toNumber:   toNumber,
		logger:     logger,
	}
}

func (n *TwilioNotifier) NotifyFailure(documentID int64, filename, reason string) error {
	body := fmt.Sprintf("Document processing failed: %s (id %d): %s", filename, documentID, reason)

	params := &twilioApi.CreateMessageParams{
		To:   &n.toNumber,
		From: &n.fromNumber,
		Body: &body,
	}

	message, err := n.client.Api.CreateMessage(params)
	if err != nil {
		n.logger.Error("Failed to send SMS",
			slog.String("error", err.Error()),
			slog.String("to", n.toNumber))
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	n.logger.Info("Sent failure alert",
		slog.Int64("document_id", documentID),
		slog.String("message_sid", *message.Sid))

	return nil
}
