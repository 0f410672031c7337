package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

type GPT struct {
	APIToken    string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	HTTPClient  *http.Client
}

type ChatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []*ChatMessage `json:"messages"`
	Temperature float32        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Stop        []string       `json:"stop,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message *ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (gpt *GPT) Chat(ctx context.Context, prompt *ChatPrompt) (*ChatMessage, error) {
	bodyJSON, err := json.Marshal(ChatCompletionRequest{
		Model:       gpt.Model,
		Messages:    prompt.History,
		Temperature: gpt.Temperature,
		MaxTokens:   gpt.MaxTokens,
		Stop:        prompt.Stop,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		strings.TrimSuffix(gpt.BaseURL, "/")+"/chat/completions",
		bytes.NewBuffer(bodyJSON),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+gpt.APIToken)
	req.Header.Add("Content-Type", "application/json")
	client := gpt.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return gpt.parseResponseBody(res.StatusCode, res.Body)
}

func (gpt *GPT) parseResponseBody(status int, body io.Reader) (*ChatMessage, error) {
	var buf bytes.Buffer
	tee := io.TeeReader(body, &buf)
	var response ChatCompletionResponse
	err := json.NewDecoder(tee).Decode(&response)
	if err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", status, err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("openai error (status %d, %s): %s", status, response.Error.Type, response.Error.Message)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", status, buf.String())
	}
	if len(response.Choices) == 0 || response.Choices[0].Message == nil {
		return nil, fmt.Errorf("no choices in response: %s", buf.String())
	}
	return response.Choices[0].Message, nil
}

func NewGPTEngine(apiToken string, model string) *GPT {
	return &GPT{
		APIToken: apiToken,
		Model:    model,
		BaseURL:  DefaultOpenAIBaseURL,
	}
}

func (gpt *GPT) WithBaseURL(baseURL string) *GPT {
	if baseURL != "" {
		gpt.BaseURL = baseURL
	}
	return gpt
}

func (gpt *GPT) WithTemperature(temperature float32) *GPT {
	gpt.Temperature = temperature
	return gpt
}

func (gpt *GPT) WithMaxTokens(maxTokens int) *GPT {
	gpt.MaxTokens = maxTokens
	return gpt
}
