package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-parts-service/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultModel = "gpt-4o-mini"

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for compatible gateways
}

type OpenAIForecaster struct {
	client *openai.Client
	model  string
	logger logger.ZapLogger
}

func NewOpenAIForecaster(cfg *OpenAIConfig, log logger.ZapLogger) (*OpenAIForecaster, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("forecast api key is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAIForecaster{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: log,
	}, nil
}

func (f *OpenAIForecaster) Forecast(ctx context.Context, partName string, history []Point) (*Result, error) {
	prompt, err := buildPrompt(partName, history)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := f.client.CreateChatCompletion(ctx, req)
	if err != nil {
		f.logger.Error("forecast request failed", zap.String("part", partName), zap.Error(err))
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("forecast returned no choices")
	}

	var result Result
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return &result, nil
}

const systemPrompt = `You are an inventory analyst. Reply with a single JSON object of the form
{"forecast":{"daily_avg":number,"three_month":number,"six_month":number,"one_year":number},"insights":string}.`

func buildPrompt(partName string, history []Point) (string, error) {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Analyze the following historical consumption data for the part %q.
The data shows the quantity checked out on specific dates.

Historical Data:
%s

Based on this data, provide a consumption forecast and actionable insights.
Calculate the average daily usage, then project the total consumption for the next 3 months, 6 months, and 1 year.
Provide one key insight about the consumption pattern.`, partName, data), nil
}
