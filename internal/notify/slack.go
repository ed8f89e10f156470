package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackSink posts city bulletins to a Slack channel. It is normally
// subscribed only to event topics so chat channels are not flooded
// with every conversation message.
type SlackSink struct {
	client  *slack.Client
	channel string
	logger  *zap.Logger
}

// NewSlackSink creates a sink posting to the given channel id.
func NewSlackSink(botToken, channel string, logger *zap.Logger) *SlackSink {
	return &SlackSink{
		client:  slack.New(botToken),
		channel: channel,
		logger:  logger,
	}
}

// Run consumes the bus subscription until the context is cancelled.
func (s *SlackSink) Run(ctx context.Context, ch <-chan Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			text := fmt.Sprintf("*[%s] %s*\n%s", n.Topic, n.Title, n.Body)
			_, _, err := s.client.PostMessageContext(ctx, s.channel,
				slack.MsgOptionText(text, false))
			if err != nil {
				s.logger.Warn("slack post failed",
					zap.String("channel", s.channel),
					zap.Error(err))
			}
		}
	}
}
