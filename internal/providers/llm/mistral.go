package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Mistral calls the Mistral chat-completions API.
type Mistral struct {
	client *resty.Client
	model  string
}

func NewMistral(endpoint, apiKey, model string) *Mistral {
	if model == "" {
		model = "mistral-large-latest"
	}

	c := resty.New().
		SetBaseURL(endpoint).
		SetAuthToken(apiKey).
		SetTimeout(60 * time.Second)

	return &Mistral{client: c, model: model}
}

func (m *Mistral) Close() error { return nil }

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mistralRequest struct {
	Model       string           `json:"model"`
	Messages    []mistralMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
}

type mistralResponse struct {
	Choices []struct {
		Message mistralMessage `json:"message"`
	} `json:"choices"`
}

func (m *Mistral) Complete(ctx context.Context, system, prompt string) (string, error) {
	body := mistralRequest{
		Model: m.model,
		Messages: []mistralMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("mistral API returned HTTP %d", resp.StatusCode())
	}

	var out mistralResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("mistral API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
