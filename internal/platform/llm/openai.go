package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel = openai.GPT3Dot5Turbo

	contentMaxTokens = 1000
	titleMaxTokens   = 50
	titleExcerptLen  = 200
)

var ErrEmptyCompletion = errors.New("model returned no content")

// Draft is the title and body returned by a generator.
type Draft struct {
	Title   string
	Content string
}

// Generator produces blog drafts. Implementations must honour ctx cancellation.
type Generator interface {
	GenerateBlogPost(ctx context.Context, topic, style string) (*Draft, error)
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAIGenerator struct {
	client chatCompleter
	model  string
}

// NewOpenAIGenerator builds a generator. baseURL overrides the API endpoint when set.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// GenerateBlogPost writes the body first, then asks for a headline based on its opening.
func (g *OpenAIGenerator) GenerateBlogPost(ctx context.Context, topic, style string) (*Draft, error) {
	content, err := g.complete(ctx, "You are a professional blog writer.", stylePrompt(topic, style), contentMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyCompletion
	}

	titlePrompt := fmt.Sprintf("Generate a concise, engaging title for this blog post: %s...", excerpt(content, titleExcerptLen))
	title, err := g.complete(ctx, "You are a professional headline writer.", titlePrompt, titleMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate title: %w", err)
	}
	title = strings.TrimSpace(strings.ReplaceAll(title, `"`, ""))
	if title == "" {
		title = "Blog Post About " + topic
	}

	return &Draft{Title: title, Content: content}, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func stylePrompt(topic, style string) string {
	switch style {
	case "professional":
		return fmt.Sprintf("Write a professional blog post about %s. Use formal language and include relevant facts.", topic)
	case "casual":
		return fmt.Sprintf("Write a casual, conversational blog post about %s. Use informal language and a friendly tone.", topic)
	case "technical":
		return fmt.Sprintf("Write a technical blog post about %s. Include technical details and use industry-specific terminology.", topic)
	default:
		return fmt.Sprintf("Write a blog post about %s.", topic)
	}
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
