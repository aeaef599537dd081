package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mkalnins/labelctl/internal/models"
)

// OpenAI implements Classifier against the OpenAI chat completions API
// with a strict JSON-schema response format over the closed label set.
type OpenAI struct {
	client     *openai.Client
	model      string
	labels     []string
	schema     json.RawMessage
	timeout    time.Duration
	maxRetries int
}

// OpenAIConfig holds the settings for the OpenAI classifier client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Labels     []string
	Timeout    time.Duration
	MaxRetries int
}

// NewOpenAI creates an OpenAI-backed classifier.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for classifier service")
	}
	if len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("classifier requires a non-empty label set")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	schema, err := responseSchema(cfg.Labels)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		labels:     cfg.Labels,
		schema:     schema,
		timeout:    timeout,
		maxRetries: retries,
	}, nil
}

// Model returns the configured model identifier.
func (c *OpenAI) Model() string {
	return c.model
}

// Classify requests a label vector for one text. Transport errors are
// retried with exponential backoff up to the configured attempt bound;
// schema-violating responses are likewise rejected and retried. The
// returned vector covers exactly the recognized label set.
func (c *OpenAI) Classify(ctx context.Context, system, user string) (map[string]int, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "classification",
				Strict: true,
				Schema: c.schema,
			},
		},
	}

	backoff := time.Second
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		vector, err := c.classifyOnce(ctx, req)
		if err == nil {
			return vector, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("classify failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *OpenAI) classifyOnce(ctx context.Context, req openai.ChatCompletionRequest) (map[string]int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rsp, err := c.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return nil, err
	}
	if len(rsp.Choices) == 0 || rsp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty response from classifier service")
	}

	var vector map[string]int
	if err := json.Unmarshal([]byte(rsp.Choices[0].Message.Content), &vector); err != nil {
		return nil, fmt.Errorf("malformed classifier response: %w", err)
	}
	if err := models.ValidateLabels("", vector, c.labels); err != nil {
		return nil, err
	}

	return vector, nil
}

// responseSchema builds the strict JSON schema for the closed label set:
// every label required as an integer 0/1, no additional properties.
func responseSchema(labels []string) (json.RawMessage, error) {
	properties := make(map[string]interface{}, len(labels))
	for _, name := range labels {
		properties[name] = map[string]interface{}{
			"type": "integer",
			"enum": []int{0, 1},
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"required":             labels,
		"additionalProperties": false,
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal response schema: %w", err)
	}
	return json.RawMessage(data), nil
}
