// Package integrations wires the external service handlers (Todoist,
// Slack, Notion) into the agent's handler registry and provides the
// credential gate checked before execution.
package integrations

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"taskpilot-backend/internal/agent"
	"taskpilot-backend/internal/models"
)

// SlackIntegration handles the Slack action target.
type SlackIntegration struct {
	client         *slack.Client
	defaultChannel string
}

// NewSlackIntegration creates the Slack handlers over a bot-token client.
func NewSlackIntegration(botToken, defaultChannel string) *SlackIntegration {
	return &SlackIntegration{
		client:         slack.New(botToken),
		defaultChannel: defaultChannel,
	}
}

// SendMessage posts text to a channel. The channel defaults to the
// configured one when the model did not extract it.
func (s *SlackIntegration) SendMessage(ctx context.Context, p models.ActionParams) (*models.HandlerResult, error) {
	text := p.Text
	if text == "" {
		text = p.Content
	}
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", agent.ErrMissingIdentifier)
	}

	channel := p.Channel
	if channel == "" {
		channel = s.defaultChannel
	}

	_, _, err := s.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrUpstream, err)
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Message sent to %s.", channel),
	}, nil
}

// ListChannels returns the visible public channels.
func (s *SlackIntegration) ListChannels(ctx context.Context, _ models.ActionParams) (*models.HandlerResult, error) {
	channels, _, err := s.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           100,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrUpstream, err)
	}

	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, "#"+ch.Name)
	}
	return &models.HandlerResult{
		Message: fmt.Sprintf("Found %d channels.", len(names)),
		Data:    names,
	}, nil
}
