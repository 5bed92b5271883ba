// internal/alerts/dispatcher_test.go
package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"

	"smartbharat-functions/internal/common/config"
	"smartbharat-functions/internal/common/logger"
	"smartbharat-functions/internal/models"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	return &ses.SendEmailOutput{}, f.err
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sns.PublishOutput{}, f.err
}

func alertConfig(emailEnabled, smsEnabled bool, threshold string) config.AlertConfig {
	var cfg config.AlertConfig
	cfg.Email.Enabled = emailEnabled
	cfg.Email.FromEmail = "alerts@smartbharat.example"
	cfg.Email.ToEmail = "farmer@smartbharat.example"
	cfg.SMS.Enabled = smsEnabled
	cfg.SMS.TopicARN = "arn:aws:sns:ap-south-1:123456789012:weather-alerts"
	cfg.SMS.PriorityThreshold = threshold
	return cfg
}

func TestDispatchFiltersBelowThreshold(t *testing.T) {
	sesClient := &fakeSES{}
	snsClient := &fakeSNS{}
	d := NewDispatcherWithClients(alertConfig(true, true, "high"), sesClient, snsClient, logger.NewTestLogger(t))

	sent := d.Dispatch(context.Background(), []models.Notification{
		{Type: "uv_alert", Title: "High UV Index", Message: "uv", Priority: "medium"},
		{Type: "heat_alert", Title: "High Temperature Alert", Message: "heat", Priority: "high"},
	})

	// Only the high-priority notification goes out, via both channels.
	assert.Equal(t, 2, sent)
	assert.Len(t, sesClient.inputs, 1)
	assert.Len(t, snsClient.inputs, 1)
	assert.Equal(t, "High Temperature Alert", *snsClient.inputs[0].Subject)
}

func TestDispatchMediumThreshold(t *testing.T) {
	snsClient := &fakeSNS{}
	d := NewDispatcherWithClients(alertConfig(false, true, "medium"), nil, snsClient, logger.NewTestLogger(t))

	sent := d.Dispatch(context.Background(), []models.Notification{
		{Type: "uv_alert", Title: "High UV Index", Message: "uv", Priority: "medium"},
		{Type: "rain_alert", Title: "Rain Expected", Message: "rain", Priority: "low"},
	})

	assert.Equal(t, 1, sent)
	assert.Len(t, snsClient.inputs, 1)
	assert.Equal(t, "uv", *snsClient.inputs[0].Message)
	assert.Equal(t, "arn:aws:sns:ap-south-1:123456789012:weather-alerts", *snsClient.inputs[0].TopicArn)
}

func TestDispatchEmailContents(t *testing.T) {
	sesClient := &fakeSES{}
	d := NewDispatcherWithClients(alertConfig(true, false, "high"), sesClient, nil, logger.NewTestLogger(t))

	sent := d.Dispatch(context.Background(), []models.Notification{
		{Type: "frost_alert", Title: "Frost Alert", Message: "protect crops", Priority: "high"},
	})

	assert.Equal(t, 1, sent)
	assert.Len(t, sesClient.inputs, 1)

	input := sesClient.inputs[0]
	assert.Equal(t, "alerts@smartbharat.example", *input.Source)
	assert.Equal(t, []string{"farmer@smartbharat.example"}, input.Destination.ToAddresses)
	assert.Equal(t, "[Smart Bharat] Frost Alert", *input.Message.Subject.Data)
	assert.Contains(t, *input.Message.Body.Text.Data, "protect crops")
	assert.Contains(t, *input.Message.Body.Text.Data, "Alert ID: ")
}

func TestDispatchFailuresAreCountedOut(t *testing.T) {
	sesClient := &fakeSES{err: errors.New("ses throttled")}
	snsClient := &fakeSNS{}
	d := NewDispatcherWithClients(alertConfig(true, true, "high"), sesClient, snsClient, logger.NewTestLogger(t))

	sent := d.Dispatch(context.Background(), []models.Notification{
		{Type: "heat_alert", Title: "High Temperature Alert", Message: "heat", Priority: "high"},
	})

	// The email failed but the SNS publish still went through.
	assert.Equal(t, 1, sent)
	assert.Len(t, snsClient.inputs, 1)
}

func TestNewDispatcherDisabledChannelsNeedNoAWS(t *testing.T) {
	d, err := NewDispatcher(alertConfig(false, false, "high"), logger.NewTestLogger(t))
	assert.NoError(t, err)

	sent := d.Dispatch(context.Background(), []models.Notification{
		{Type: "heat_alert", Title: "High Temperature Alert", Priority: "high"},
	})
	assert.Zero(t, sent)
}
