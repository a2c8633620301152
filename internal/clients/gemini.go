package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// GeminiClient calls the Gemini generateContent REST endpoint
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiClient creates a client for the given model
func NewGeminiClient(apiKey, model, baseURL string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  resty.New().SetTimeout(30 * time.Second),
	}
}

func (g *GeminiClient) Name() string {
	return "gemini"
}

func (g *GeminiClient) IsEnabled() bool {
	return g.apiKey != ""
}

// Generate returns the text of the first candidate. An empty string with a
// nil error means the model produced no text.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.IsEnabled() {
		return "", ErrNotConfigured
	}

	text, err := g.generate(ctx, prompt)
	metrics.RecordExternalCall(g.Name(), err)
	if err != nil {
		logrus.Errorf("Gemini API error: %v", err)
	}
	return text, err
}

func (g *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		Post(fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model))
	if err != nil {
		return "", err
	}

	var result geminiResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if resp.StatusCode() != 200 {
		if result.Error != nil {
			return "", fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode(), result.Error.Message)
		}
		return "", fmt.Errorf("gemini API returned status %d", resp.StatusCode())
	}

	if len(result.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (g *GeminiClient) Check(ctx context.Context) error {
	if !g.IsEnabled() {
		return ErrNotConfigured
	}
	_, err := g.generate(ctx, "Reply with the single word: ok")
	return err
}
