package reviewflow

import (
	"context"

	"github.com/randalmurphal/reviewflow/slack"
)

// SlackChat implements ChatClient on top of slack.Client. Message
// timestamps serve as thread references.
type SlackChat struct {
	client *slack.Client
}

var _ ChatClient = (*SlackChat)(nil)

// NewSlackChat creates a SlackChat adapter.
func NewSlackChat(client *slack.Client) *SlackChat {
	return &SlackChat{client: client}
}

// PostMessage posts text and returns the message timestamp.
func (c *SlackChat) PostMessage(ctx context.Context, channel, text, threadRef string) (string, error) {
	return c.client.PostMessage(ctx, channel, text, threadRef)
}

// UploadFile shares content as filename in the channel or thread.
func (c *SlackChat) UploadFile(ctx context.Context, channel string, content []byte, filename, threadRef string) error {
	return c.client.UploadFile(ctx, channel, filename, content, threadRef, "Code Review Report")
}
