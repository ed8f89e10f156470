package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordSink posts city bulletins to a Discord channel.
type DiscordSink struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewDiscordSink opens a Discord session for the given bot token.
func NewDiscordSink(token, channelID string, logger *zap.Logger) (*DiscordSink, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	return &DiscordSink{session: session, channelID: channelID, logger: logger}, nil
}

// Run consumes the bus subscription until the context is cancelled.
func (s *DiscordSink) Run(ctx context.Context, ch <-chan Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			text := fmt.Sprintf("**[%s] %s**\n%s", n.Topic, n.Title, n.Body)
			if _, err := s.session.ChannelMessageSend(s.channelID, text); err != nil {
				s.logger.Warn("discord post failed",
					zap.String("channel", s.channelID),
					zap.Error(err))
			}
		}
	}
}

// Close shuts down the Discord session.
func (s *DiscordSink) Close() error {
	return s.session.Close()
}
