// Package gemini implements the reply generator against the Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"ReplyBot/internal/config"
	"ReplyBot/internal/ports"
)

const maxReplyLength = 280

const instructionTemplate = `You are an AI assistant generating Twitter replies based on a user's past style.
Generate a reply to the target tweet, adhering strictly to the provided speaking style.

Constraints:
- Max length: %d characters.
- Match the tone and vocabulary of the speaking style reference.
- Be humble and conversational if the style dictates.
- **CRITICAL: Output *ONLY* the raw tweet reply text.** No introductions, explanations, quotes, or extra formatting.

Speaking Style Reference Text:
--- START STYLE ---
%s
--- END STYLE ---

Tweet to Reply To:
--- START TWEET ---
%s
--- END TWEET ---

Generated Reply:`

// Client implements ports.ReplyGenerator backed by the Gemini API.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	style      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ReplyGenerator = (*Client)(nil)

// New builds a client from configuration and loads the speaking style file.
// A missing or empty style file is a startup failure.
func New(cfg config.GeminiConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	raw, err := os.ReadFile(cfg.SpeakingStyleFile)
	if err != nil {
		return nil, fmt.Errorf("read speaking style file: %w", err)
	}
	style := strings.TrimSpace(string(raw))
	if style == "" {
		return nil, fmt.Errorf("speaking style file %s is empty", cfg.SpeakingStyleFile)
	}

	logger.Info("loaded speaking style",
		"path", cfg.SpeakingStyleFile, "bytes", len(raw), "model", cfg.Model)

	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		style:    style,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}, nil
}

type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate produces reply text for the given tweet content. Blocked or empty
// generations come back as an empty string with a nil error so the caller can
// treat them as an ordinary soft skip; only transport and API failures error.
func (c *Client) Generate(ctx context.Context, text string, imageURLs []string) (string, error) {
	if strings.TrimSpace(text) == "" && len(imageURLs) == 0 {
		c.logger.Warn("received empty tweet content, nothing to generate from")
		return "", nil
	}

	prompt := fmt.Sprintf(instructionTemplate, maxReplyLength, c.style, text)

	parts := []requestPart{{Text: prompt}}
	for _, img := range c.fetchImages(ctx, imageURLs) {
		parts = append(parts, requestPart{InlineData: &img})
	}

	body, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	if len(decoded.Candidates) == 0 {
		c.logger.Warn("gemini response has no candidates",
			"block_reason", decoded.PromptFeedback.BlockReason)
		return "", nil
	}

	var sb strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	reply := cleanReply(sb.String())
	if reply == "" {
		c.logger.Warn("gemini reply empty after cleaning",
			"finish_reason", decoded.Candidates[0].FinishReason)
	}
	return reply, nil
}

// cleanReply trims, strips leaked prompt boilerplate, and caps the reply at
// the platform length limit.
func cleanReply(raw string) string {
	reply := strings.TrimSpace(raw)
	if reply == "" {
		return ""
	}

	lower := strings.ToLower(reply)
	for _, prefix := range []string{"generated reply:", "reply:"} {
		if strings.HasPrefix(lower, prefix) {
			reply = strings.TrimSpace(reply[len(prefix):])
			break
		}
	}

	if runes := []rune(reply); len(runes) > maxReplyLength {
		reply = string(runes[:maxReplyLength])
	}

	return strings.TrimSpace(reply)
}
