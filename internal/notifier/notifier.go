// Package notifier delivers reminder notifications. Delivery is
// best-effort: one attempt per message, errors reported to the caller and
// never retried here.
package notifier

import (
	"context"
	"fmt"
	"time"

	awsclients "apptrack/internal/common/aws"
	"apptrack/internal/common/logger"
	"apptrack/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// Notifier is the transport the scheduler dispatches through. Urgent tells
// the transport the reminder is for the shortest lead time, which unlocks
// the SMS channel when configured.
type Notifier interface {
	Send(ctx context.Context, owner *models.Owner, subject, body string, urgent bool) (*models.Notification, error)
}

// Interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
}

// AWSNotifier sends reminder email through SES, plus SMS through SNS for
// urgent reminders when the owner has a phone number.
type AWSNotifier struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func New(ctx context.Context, config *Config, log logger.Logger) (*AWSNotifier, error) {
	sesClient, err := awsclients.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	return &AWSNotifier{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}, nil
}

// NewWithClients constructs a notifier around existing service clients.
// Tests use this to substitute mocks.
func NewWithClients(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func (n *AWSNotifier) Send(ctx context.Context, owner *models.Owner, subject, body string, urgent bool) (*models.Notification, error) {
	notification := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: owner.ID,
		Subject:     subject,
		Body:        body,
		SentAt:      time.Now().UTC().Format(time.RFC3339),
	}

	emailSent := false
	smsSent := false

	if n.config.EmailEnabled && owner.Email != "" {
		if err := n.sendEmail(ctx, owner.Email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": owner.Email,
			})
			notification.Channel = models.ChannelEmail
			notification.Status = models.NotificationStatusFailed
			return notification, err
		}
		notification.Channel = models.ChannelEmail
		emailSent = true
	}

	// SMS only for the shortest lead time, and only when a phone exists
	if n.config.SMSEnabled && owner.Phone != "" && urgent {
		if err := n.sendSMS(ctx, owner.Phone, body); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": owner.Phone,
			})
			notification.Channel = models.ChannelSMS
			notification.Status = models.NotificationStatusFailed
			return notification, err
		}
		if !emailSent {
			notification.Channel = models.ChannelSMS
		}
		smsSent = true
	}

	if emailSent || smsSent {
		notification.Status = models.NotificationStatusSent
	} else {
		notification.Status = models.NotificationStatusDisabled
	}

	return notification, nil
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
