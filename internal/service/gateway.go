package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

type InvokeResult struct {
	Content  string
	Duration time.Duration
}

// chatModelFactory is swapped out by tests.
var chatModelFactory = newChatModel

// Invoke sends a single prompt to the named llm configuration and returns the
// normalized response text. Configuration errors surface before any network
// traffic happens.
func Invoke(ctx context.Context, configName string, promptText string) (*InvokeResult, error) {
	configuration, err := lookupConfiguration(configName)
	if err != nil {
		return nil, err
	}

	chatModel, err := chatModelFactory(ctx, configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", configuration.Name, err)
	}

	messages := []*schema.Message{
		{
			Role:    schema.User,
			Content: promptText,
		},
	}

	start := time.Now()
	response, err := chatModel.Generate(ctx, messages)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("llm request to %s failed: %w", configuration.Name, err)
	}

	slog.Info("llm invocation finished", "configuration", configuration.Name, "duration", duration)

	return &InvokeResult{
		Content:  normalizeContent(response),
		Duration: duration,
	}, nil
}

// normalizeContent flattens multi-part responses into plain text so the
// classifier always sees a single string.
func normalizeContent(message *schema.Message) string {
	if message == nil {
		return ""
	}

	if len(message.MultiContent) > 0 {
		var builder strings.Builder
		for _, part := range message.MultiContent {
			builder.WriteString(part.Text)
		}
		return builder.String()
	}

	return message.Content
}
