// Package pub publishes token lifecycle events to SNS, best-effort.
package pub

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"tokend/internal/ports"
	"tokend/internal/types"
)

const (
	EventCreated = "token.created"
	EventUpdated = "token.updated"
	EventDeleted = "token.deleted"
)

type snsPub struct{ cli *sns.Client }

// NewSNS returns a ports.Publisher backed by an SNS topic.
func NewSNS(c *sns.Client) ports.Publisher { return &snsPub{cli: c} }

func (s *snsPub) PublishRaw(ctx context.Context, arn string, payload []byte) error {
	_, err := s.cli.Publish(ctx, &sns.PublishInput{
		TopicArn: &arn,
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"content-type": {DataType: aws.String("String"), StringValue: aws.String("application/json")},
		},
	})
	return err
}

// Events fans token lifecycle notifications out to a single topic.
// Publication is best-effort: failures are logged and never surfaced to
// the request that triggered them. A nil *Events or an empty topic ARN
// disables publication entirely.
type Events struct {
	pub ports.Publisher
	arn string
}

func NewEvents(pub ports.Publisher, topicARN string) *Events {
	if pub == nil || topicARN == "" {
		return nil
	}
	return &Events{pub: pub, arn: topicARN}
}

type lifecycleEvent struct {
	Event     string `json:"event"`
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	ExpiresAt int64  `json:"expires_at"`
}

// Emit publishes one lifecycle event for rec.
func (e *Events) Emit(ctx context.Context, event string, rec types.TokenRecord) {
	if e == nil {
		return
	}
	b, err := json.Marshal(lifecycleEvent{
		Event:     event,
		ID:        rec.ID.String(),
		Owner:     rec.Owner,
		ExpiresAt: rec.ExpiresAt.Unix(),
	})
	if err != nil {
		log.WithError(err).Warn("failed to marshal lifecycle event")
		return
	}
	if err := e.pub.PublishRaw(ctx, e.arn, b); err != nil {
		log.WithError(err).WithField("event", event).Warn("failed to publish lifecycle event")
	}
}
