package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChatModel      = "gpt-4o-mini"
	DefaultTemperature    = 0.3
)

// Client talks to the OpenAI API for both embeddings and chat
// completions. It satisfies Embedder and Generator.
type Client struct {
	api         openai.Client
	embedModel  string
	chatModel   string
	temperature float64
	maxTokens   int64
}

type ClientOption func(*Client) *Client

func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) *Client {
		c.embedModel = model
		return c
	}
}

func WithChatModel(model string) ClientOption {
	return func(c *Client) *Client {
		c.chatModel = model
		return c
	}
}

func WithTemperature(t float64) ClientOption {
	return func(c *Client) *Client {
		c.temperature = t
		return c
	}
}

// WithMaxTokens caps completion length. Zero leaves it to the model.
func WithMaxTokens(n int64) ClientOption {
	return func(c *Client) *Client {
		c.maxTokens = n
		return c
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		api:         openai.NewClient(option.WithAPIKey(apiKey)),
		embedModel:  DefaultEmbeddingModel,
		chatModel:   DefaultChatModel,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}

	return content, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	// The API tags each vector with its input index; do not assume
	// response order.
	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}
