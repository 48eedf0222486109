package moonshot

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/acheronbot/acheron/internal/biz/domain"
)

const moonshotBaseURL = "https://api.moonshot.cn/v1"

// Client generates chat-mode replies via the Moonshot API using the
// OpenAI-compatible interface
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new Moonshot client
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "moonshot-v1-8k"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = moonshotBaseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// moodPrompts flavor the model reply to match the configured mood
var moodPrompts = map[domain.Mood]string{
	domain.MoodCalm:    "You answer in a calm, watchful, slightly ominous tone.",
	domain.MoodCold:    "You answer in a cold, curt, vaguely threatening tone.",
	domain.MoodCryptic: "You answer in a cryptic, riddling tone.",
}

// Reply produces a short conversational reply in the current mood
func (c *Client) Reply(ctx context.Context, text string, mood domain.Mood) (string, error) {
	prompt, ok := moodPrompts[mood]
	if !ok {
		prompt = moodPrompts[domain.MoodCalm]
	}
	systemPrompt := "You are Acheron, a dark personal-assistant chat bot. " + prompt +
		" Reply with a single short sentence."

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.7,
		MaxTokens:   80,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}
