package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vibeloop/ops-copilot/internal/pkg/httpretry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAI answers questions through the OpenAI chat completions API.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient httpretry.HTTPDoer
}

// chatMessage represents a message in the completion conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request to chat completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatResponse is the response from chat completions.
type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates an OpenAI answerer. An empty API key leaves it disabled.
func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		// Completions calls go through the retrying client so transient
		// 429/5xx responses do not surface as failed answers.
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 2),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (o *OpenAI) SetBaseURL(url string) { o.baseURL = url }

// Enabled reports whether an API key is configured.
func (o *OpenAI) Enabled() bool { return o.apiKey != "" }

// Answer asks the model to phrase an answer from the prompt context.
func (o *OpenAI) Answer(ctx context.Context, question string, pc PromptContext) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	summary, err := json.Marshal(pc)
	if err != nil {
		return "", fmt.Errorf("encoding prompt context: %w", err)
	}

	prompt := fmt.Sprintf(
		"You are an AI ops copilot for a small business. "+
			"Answer the question using the provided summary. "+
			"Be concise, mention 1-2 key numbers, and end with one action.\n"+
			"Question: %s\nSummary: %s",
		question, summary,
	)

	request := chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
		MaxTokens:   500,
	}

	response, err := o.call(ctx, request)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI")
	}
	return response.Choices[0].Message.Content, nil
}

// call makes a request to the chat completions endpoint.
func (o *OpenAI) call(ctx context.Context, request chatRequest) (*chatResponse, error) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w (body: %s)", err, string(body))
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s", response.Error.Message)
	}
	return &response, nil
}
