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

package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"summary": {Type: jsonschema.String},
		},
		Required:             []string{"summary"},
		AdditionalProperties: false,
	}
}

func testRequest() InsightCompletionRequest {
	schema := testSchema()
	return InsightCompletionRequest{
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are an analyst.",
		UserPayload:  `{"surveyTitle":"2024 Culture Survey"}`,
		MaxTokens:    1000,
		Temperature:  0.4,
		SchemaName:   "Insight",
		Schema:       &schema,
	}
}

// mockCompletionServer serves canned chat completion responses and captures
// the raw request bodies it receives.
func mockCompletionServer(t *testing.T, status int, body string, captured *[][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			*captured = append(*captured, raw)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := openai.DefaultConfig("sk-test-api-key-12345678901234567890")
	cfg.BaseURL = baseURL + "/v1"
	return NewClientWithConfig(cfg, zaptest.NewLogger(t))
}

func chatResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     100,
			"completion_tokens": 50,
			"total_tokens":      150,
		},
	})
	return string(body)
}

func TestNewClientMissingAPIKey(t *testing.T) {
	client, err := NewClient("", "", zaptest.NewLogger(t))
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, client)
}

func TestCreateInsightCompletionSuccess(t *testing.T) {
	content := `{"summary":"Mostly positive.","actions":["a","b","c"]}`
	srv := mockCompletionServer(t, http.StatusOK, chatResponse(content), nil)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	got, err := client.CreateInsightCompletion(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestCreateInsightCompletionRequestShape(t *testing.T) {
	var captured [][]byte
	srv := mockCompletionServer(t, http.StatusOK, chatResponse("{}"), &captured)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.CreateInsightCompletion(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, captured, 1)

	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string          `json:"name"`
				Schema json.RawMessage `json:"schema"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	require.NoError(t, json.Unmarshal(captured[0], &body))

	assert.Equal(t, "gpt-4o-mini", body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "You are an analyst.", body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
	assert.Contains(t, body.Messages[1].Content, "surveyTitle")

	assert.Equal(t, "json_schema", body.ResponseFormat.Type)
	assert.Equal(t, "Insight", body.ResponseFormat.JSONSchema.Name)
	assert.Contains(t, string(body.ResponseFormat.JSONSchema.Schema), "summary")
}

func TestCreateInsightCompletionUpstreamError(t *testing.T) {
	errBody := `{"error":{"message":"The server had an error","type":"server_error"}}`
	srv := mockCompletionServer(t, http.StatusInternalServerError, errBody, nil)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.CreateInsightCompletion(context.Background(), testRequest())
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
	assert.Contains(t, upstream.Message, "server had an error")
}

func TestCreateInsightCompletionNetworkError(t *testing.T) {
	srv := mockCompletionServer(t, http.StatusOK, chatResponse("{}"), nil)
	srv.Close() // refuse connections

	client := newTestClient(t, srv.URL)
	_, err := client.CreateInsightCompletion(context.Background(), testRequest())
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 0, upstream.StatusCode)
}

func TestCreateInsightCompletionNoChoices(t *testing.T) {
	body := `{"id":"chatcmpl-test","object":"chat.completion","choices":[],"usage":{"total_tokens":0}}`
	srv := mockCompletionServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	got, err := client.CreateInsightCompletion(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestUpstreamErrorMessage(t *testing.T) {
	withStatus := &UpstreamError{StatusCode: 502, Message: "bad gateway"}
	assert.Contains(t, withStatus.Error(), "status 502")

	network := &UpstreamError{Message: "connection refused"}
	assert.Contains(t, network.Error(), "upstream request failed")
}
