package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// fifoSuffix marks SQS queues and SNS topics that require a message group.
const fifoSuffix = ".fifo"

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// loadAWSConfig prefers static credentials and falls back to the default chain.
func loadAWSConfig(ctx context.Context, region string, creds *AWSCredentials) (aws.Config, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	if creds != nil {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// sqsPublisher sends one message per event. On a FIFO queue the message group
// is the record and the fingerprint deduplicates redeliveries.
type sqsPublisher struct {
	id       string
	queueURL string
	fifo     bool
	api      sqsAPI
	log      Logger
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if err := cfg.SQS.check(); err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.Region, cfg.SQS.Credentials)
	if err != nil {
		return nil, err
	}
	return &sqsPublisher{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		fifo:     strings.HasSuffix(cfg.SQS.QueueURL, fifoSuffix),
		api:      sqs.NewFromConfig(awsCfg),
		log:      orNoop(log),
	}, nil
}

func (p *sqsPublisher) ID() string   { return p.id }
func (p *sqsPublisher) Type() string { return TypeSQS }
func (p *sqsPublisher) Close() error { return nil }

func (p *sqsPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(p.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: make(map[string]sqstypes.MessageAttributeValue),
	}
	for k, v := range evt.attributes() {
		in.MessageAttributes[k] = sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	if p.fifo {
		in.MessageGroupId = aws.String(evt.GroupKey())
		in.MessageDeduplicationId = aws.String(evt.Fingerprint)
	}

	out, err := p.api.SendMessage(ctx, in)
	if err != nil {
		logDeliveryFailure(p.log, p, evt, err)
		return fmt.Errorf("sqs send: %w", err)
	}
	logDelivery(p.log, p, evt, aws.ToString(out.MessageId))
	return nil
}

// snsPublisher publishes one notification per event with a readable subject.
type snsPublisher struct {
	id       string
	topicARN string
	fifo     bool
	api      snsAPI
	log      Logger
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if err := cfg.SNS.check(); err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.Region, cfg.SNS.Credentials)
	if err != nil {
		return nil, err
	}
	return &snsPublisher{
		id:       cfg.ID,
		topicARN: cfg.SNS.TopicARN,
		fifo:     strings.HasSuffix(cfg.SNS.TopicARN, fifoSuffix),
		api:      sns.NewFromConfig(awsCfg),
		log:      orNoop(log),
	}, nil
}

func (p *snsPublisher) ID() string   { return p.id }
func (p *snsPublisher) Type() string { return TypeSNS }
func (p *snsPublisher) Close() error { return nil }

func (p *snsPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	in := &sns.PublishInput{
		TopicArn:          aws.String(p.topicARN),
		Message:           aws.String(string(body)),
		Subject:           aws.String(evt.Subject()),
		MessageAttributes: make(map[string]snstypes.MessageAttributeValue),
	}
	for k, v := range evt.attributes() {
		in.MessageAttributes[k] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	if p.fifo {
		in.MessageGroupId = aws.String(evt.GroupKey())
		in.MessageDeduplicationId = aws.String(evt.Fingerprint)
	}

	out, err := p.api.Publish(ctx, in)
	if err != nil {
		logDeliveryFailure(p.log, p, evt, err)
		return fmt.Errorf("sns publish: %w", err)
	}
	logDelivery(p.log, p, evt, aws.ToString(out.MessageId))
	return nil
}

func logDelivery(log Logger, p Publisher, evt Event, messageID string) {
	log.DebugObj("change event delivered", "publisher_delivery", map[string]any{
		"publisher_id":   p.ID(),
		"publisher_type": p.Type(),
		"kind":           evt.Kind,
		"resource_id":    evt.ResourceID,
		"message_id":     messageID,
	})
}

func logDeliveryFailure(log Logger, p Publisher, evt Event, err error) {
	log.ErrorObj("change event delivery failed", "publisher_error", map[string]any{
		"publisher_id":   p.ID(),
		"publisher_type": p.Type(),
		"kind":           evt.Kind,
		"resource_id":    evt.ResourceID,
		"error":          err.Error(),
	})
}
