// Copyright 2024 Survey Insights Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package openai wraps the go-openai client for schema-constrained insight
// completions. The wrapped client holds only immutable configuration and is
// safe to share across concurrent request handlers.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrMissingAPIKey indicates the required credential was absent at startup.
// This is a deployment misconfiguration, not a transient condition.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// UpstreamError represents a failure of the completion backend: a non-success
// API status or a network-level error. A status code of zero means the
// request never produced an HTTP response.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream request failed: %s", e.Message)
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

// Client wraps the go-openai client with logging and error classification.
type Client struct {
	client *openai.Client
	logger *zap.Logger
}

// NewClient creates a client for the given API key and endpoint. An empty
// endpoint falls back to the library default.
func NewClient(apiKey, endpoint string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}

	return NewClientWithConfig(cfg, logger), nil
}

// NewClientWithConfig creates a client from an explicit go-openai config.
// Used by tests to point at a mock server.
func NewClientWithConfig(cfg openai.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// InsightCompletionRequest describes a two-turn, schema-constrained
// completion request.
type InsightCompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPayload  string
	MaxTokens    int
	Temperature  float32
	SchemaName   string
	Schema       json.Marshaler
}

// CreateInsightCompletion sends the prompt to the completion backend with a
// JSON-schema output constraint and returns the raw message text. A single
// attempt is made per request; the caller is responsible for resubmission.
func (c *Client) CreateInsightCompletion(ctx context.Context, req InsightCompletionRequest) (string, error) {
	completionReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPayload},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
			},
		},
	}

	c.logger.Debug("Creating insight completion",
		zap.String("model", req.Model),
		zap.String("schema", req.SchemaName),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Float64("temperature", float64(req.Temperature)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, completionReq)
	if err != nil {
		return "", c.classifyError(err)
	}

	if len(resp.Choices) == 0 {
		// Tolerated: the normalizer shapes empty output into an empty insight.
		c.logger.Warn("Completion returned no choices", zap.String("model", req.Model))
		return "", nil
	}

	c.logger.Debug("Insight completion successful",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// classifyError maps go-openai failures onto the upstream error type so
// callers can distinguish backend failures from their own.
func (c *Client) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		c.logger.Error("OpenAI API error",
			zap.Int("status_code", apiErr.HTTPStatusCode),
			zap.String("message", apiErr.Message),
		)
		return &UpstreamError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		c.logger.Error("OpenAI request error",
			zap.Int("status_code", reqErr.HTTPStatusCode),
			zap.Error(reqErr.Err),
		)
		return &UpstreamError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    err.Error(),
		}
	}

	c.logger.Error("OpenAI client error", zap.Error(err))
	return &UpstreamError{Message: err.Error()}
}
