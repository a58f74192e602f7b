package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedlens/internal/models"
)

type fakeChatModel struct {
	response *schema.Message
	err      error
	prompts  []string
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	for _, message := range input {
		f.prompts = append(f.prompts, message.Content)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func withFakeChatModel(t *testing.T, fake *fakeChatModel) {
	t.Helper()

	original := chatModelFactory
	chatModelFactory = func(ctx context.Context, configuration *models.LLMConfiguration) (model.BaseChatModel, error) {
		return fake, nil
	}
	t.Cleanup(func() {
		chatModelFactory = original
	})
}

func TestInvokeReturnsContent(t *testing.T) {
	resetConfigurations(t)
	fake := &fakeChatModel{
		response: &schema.Message{
			Role:    schema.Assistant,
			Content: `{"filterLevel": "conversation"}`,
		},
	}
	withFakeChatModel(t, fake)

	result, err := Invoke(context.Background(), "deepseek-chat", "show all conversations")
	require.NoError(t, err)
	assert.Equal(t, `{"filterLevel": "conversation"}`, result.Content)
	require.Len(t, fake.prompts, 1)
	assert.Equal(t, "show all conversations", fake.prompts[0])
}

func TestInvokeFlattensMultiContent(t *testing.T) {
	resetConfigurations(t)
	fake := &fakeChatModel{
		response: &schema.Message{
			Role: schema.Assistant,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: "part one "},
				{Type: schema.ChatMessagePartTypeText, Text: "part two"},
			},
		},
	}
	withFakeChatModel(t, fake)

	result, err := Invoke(context.Background(), "deepseek-chat", "anything")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", result.Content)
}

func TestInvokeSurfacesModelError(t *testing.T) {
	resetConfigurations(t)
	fake := &fakeChatModel{err: errors.New("rate limited")}
	withFakeChatModel(t, fake)

	_, err := Invoke(context.Background(), "deepseek-chat", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestInvokeRejectsUnknownConfigurationBeforeAnyCall(t *testing.T) {
	resetConfigurations(t)
	fake := &fakeChatModel{response: &schema.Message{Content: "unused"}}
	withFakeChatModel(t, fake)

	_, err := Invoke(context.Background(), "no-such-configuration", "anything")
	assert.ErrorIs(t, err, ErrConfigurationNotFound)
	assert.Empty(t, fake.prompts)
}

func TestNormalizeContentNilMessage(t *testing.T) {
	assert.Equal(t, "", normalizeContent(nil))
}
