package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"bloodlab/internal/logger"
)

// ChatGPTAnalyzer implements Analyzer with the OpenAI chat completions API
type ChatGPTAnalyzer struct {
	client *openai.Client
	config Config
	log    zerolog.Logger
}

// NewChatGPTAnalyzer creates an analyzer from config
func NewChatGPTAnalyzer(config Config) (*ChatGPTAnalyzer, error) {
	if config.APIKey == "" {
		return nil, &AnalysisError{Op: "NewChatGPTAnalyzer", Err: ErrMissingAPIKey}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return NewChatGPTAnalyzerWithClient(openai.NewClientWithConfig(clientConfig), config), nil
}

// NewChatGPTAnalyzerWithClient creates an analyzer with an explicit client
func NewChatGPTAnalyzerWithClient(client *openai.Client, config Config) *ChatGPTAnalyzer {
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}

	return &ChatGPTAnalyzer{
		client: client,
		config: config,
		log:    logger.WithComponent("analysis-chatgpt"),
	}
}

// Analyze sends the lab results to the model and returns the generated report
func (a *ChatGPTAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	const op = "Analyze"

	if strings.TrimSpace(text) == "" {
		return "", &AnalysisError{Op: op, Err: ErrEmptyText}
	}

	startTime := time.Now()
	a.log.Debug().
		Str("model", a.config.Model).
		Int("text_length", len(text)).
		Msg("Sending analysis request")

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildUserPrompt(text),
			},
		},
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	})
	if err != nil {
		return "", &AnalysisError{Op: op, Model: a.config.Model, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &AnalysisError{Op: op, Model: a.config.Model, Err: ErrNoChoices}
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &AnalysisError{Op: op, Model: a.config.Model, Err: ErrEmptyResponse}
	}

	a.log.Info().
		Str("model", a.config.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("duration", time.Since(startTime)).
		Msg("Analysis completed")

	return content, nil
}
