package sns

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/token-check-api/internal/audit"
	"github.com/token-check-api/internal/config"
	"github.com/token-check-api/internal/pkg/sanitize"
)

// AlertPublisher relays ERROR-kind audit events to an SNS topic so operators
// get paged independently of the webhook channel. It implements audit.Sink
// and ignores every other kind.
type AlertPublisher struct {
	client   *sns.Client
	topicARN string
}

func NewAlertPublisher(cfg *config.Config) (*AlertPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &AlertPublisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.AlertTopicARN}, nil
}

func (p *AlertPublisher) Send(ctx context.Context, e audit.Event) error {
	if e.Kind != audit.KindError {
		return nil
	}
	subject := fmt.Sprintf("[token-checker] %s", e.Kind)
	message := e.Message
	if e.Data != nil {
		if raw, err := json.Marshal(sanitize.Data(e.Data)); err == nil {
			message = fmt.Sprintf("%s\n%s", e.Message, raw)
		}
	}
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Subject:  &subject,
		Message:  &message,
	})
	return err
}
