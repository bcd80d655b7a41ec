package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	appLog "studycal/internal/log"
	"studycal/internal/model"
)

// Publisher is the subset of *sns.Client used here.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes a readable summary of each pin to an SNS topic.
type SNS struct {
	TopicARN string
	Client   Publisher
}

// NewSNS loads the default AWS configuration (environment, shared config,
// instance role). region overrides the configured region when set.
func NewSNS(ctx context.Context, topicARN, region string) (*SNS, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sns: load aws config: %w", err)
	}
	return &SNS{TopicARN: topicARN, Client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SNS) Notify(ctx context.Context, ev model.PinEvent) error {
	input := &sns.PublishInput{
		Message:  aws.String(Message(ev)),
		Subject:  aws.String("Ajuste de progreso: " + ev.CourseID),
		TopicArn: aws.String(s.TopicARN),
	}

	if _, err := s.Client.Publish(ctx, input); err != nil {
		appLog.Error("sns publish failed", err, "topic", s.TopicARN)
		return fmt.Errorf("error publishing to AWS SNS topic %s: %w", s.TopicARN, err)
	}
	appLog.Info("sns published", "topic", s.TopicARN, "course", ev.CourseID)
	return nil
}

// Message renders ev as plain text.
func Message(ev model.PinEvent) string {
	return fmt.Sprintf("Fecha: %s\nCurso: %s\nMateria: %s\nInicio fijado: %s\nNuevo inicio del curso: %s (antes %s)",
		ev.Timestamp.UTC().Format("Monday, Jan 02 2006"),
		ev.CourseID,
		ev.Subject,
		ev.Date,
		ev.Anchor,
		ev.PreviousAnchor,
	)
}
