package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Events published to the announce channel.
const (
	EventSubmission = "submission"
	EventChat       = "chat_message"
)

// Sink receives rendered notifications for completed submissions.
type Sink interface {
	Post(ctx context.Context, n Notification) error
}

// Publisher publishes a structured event to a channel. The gateway hub
// satisfies this.
type Publisher interface {
	Publish(ctx context.Context, channelID uuid.UUID, event string, payload any) error
}

// ChannelSink posts notifications to a fixed announce channel: the
// structured submission message first, then one standalone link message
// per file so the client's own link preview renders it.
type ChannelSink struct {
	pub       Publisher
	channelID uuid.UUID
	logger    *zap.Logger
}

// NewChannelSink creates a sink posting to the given channel.
func NewChannelSink(pub Publisher, channelID uuid.UUID, logger *zap.Logger) *ChannelSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelSink{pub: pub, channelID: channelID, logger: logger}
}

// Post publishes the notification and its standalone file links.
func (s *ChannelSink) Post(ctx context.Context, n Notification) error {
	if err := s.pub.Publish(ctx, s.channelID, EventSubmission, n); err != nil {
		return fmt.Errorf("post submission: %w", err)
	}
	for _, link := range n.FileLinks {
		msg := map[string]string{"content": "📎 **Attachment:** " + link}
		if err := s.pub.Publish(ctx, s.channelID, EventChat, msg); err != nil {
			return fmt.Errorf("post attachment link: %w", err)
		}
	}
	s.logger.Debug("submission posted",
		zap.String("channel_id", s.channelID.String()),
		zap.String("applicant", n.Author),
		zap.Int("file_links", len(n.FileLinks)),
	)
	return nil
}
