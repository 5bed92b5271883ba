// internal/alerts/dispatcher.go
package alerts

import (
	"context"
	"fmt"
	"strings"

	commonaws "smartbharat-functions/internal/common/aws"
	"smartbharat-functions/internal/common/config"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Dispatcher forwards notifications that meet the priority threshold via
// SES email and SNS. Dispatch is best effort: failures are logged, never
// surfaced to the request that generated the notification.
type Dispatcher struct {
	config    config.AlertConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewDispatcher(cfg config.AlertConfig, log logger.Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "alerts"}),
	}

	if !cfg.Email.Enabled && !cfg.SMS.Enabled {
		return d, nil
	}

	ctx := context.Background()
	sesClient, err := commonaws.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("build SES client: %w", err)
	}
	snsClient, err := commonaws.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("build SNS client: %w", err)
	}
	d.sesClient = sesClient
	d.snsClient = snsClient
	return d, nil
}

// NewDispatcherWithClients injects fake clients for tests.
func NewDispatcherWithClients(cfg config.AlertConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "alerts"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// Dispatch forwards each qualifying notification. Returns the number sent.
func (d *Dispatcher) Dispatch(ctx context.Context, notifications []models.Notification) int {
	sent := 0
	for _, n := range notifications {
		if !models.PriorityAtLeast(n.Priority, d.config.SMS.PriorityThreshold) {
			continue
		}
		if d.config.Email.Enabled && d.sesClient != nil {
			if err := d.sendEmail(ctx, n); err != nil {
				d.logger.Error("alert email failed", map[string]interface{}{
					"type":  n.Type,
					"error": err.Error(),
				})
			} else {
				sent++
			}
		}
		if d.config.SMS.Enabled && d.snsClient != nil {
			if err := d.publish(ctx, n); err != nil {
				d.logger.Error("alert publish failed", map[string]interface{}{
					"type":  n.Type,
					"error": err.Error(),
				})
			} else {
				sent++
			}
		}
	}
	return sent
}

func (d *Dispatcher) sendEmail(ctx context.Context, n models.Notification) error {
	subject := fmt.Sprintf("[Smart Bharat] %s", n.Title)
	body := strings.Join([]string{n.Message, "", "Alert ID: " + uuid.NewString()}, "\n")

	_, err := d.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(d.config.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{d.config.Email.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (d *Dispatcher) publish(ctx context.Context, n models.Notification) error {
	_, err := d.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(d.config.SMS.TopicARN),
		Subject:  aws.String(n.Title),
		Message:  aws.String(n.Message),
	})
	return err
}
