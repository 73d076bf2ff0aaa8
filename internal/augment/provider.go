package augment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"tradewind/internal/logger"
)

// Provider is the text-completion endpoint the directional call goes to.
type Provider interface {
	ID() string
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIChatClient talks to an OpenAI-compatible /v1/chat/completions
// endpoint with limited retry on 429/5xx.
type OpenAIChatClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	ExtraHeaders map[string]string
}

func (c *OpenAIChatClient) ID() string {
	if c.Model != "" {
		return c.Model
	}
	return "openai"
}

func (c *OpenAIChatClient) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	url := c.endpoint()

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})
	body, _ := json.Marshal(map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": 0.5,
	})

	logger.TraceAugmentRequest(c.ID(), systemPrompt, userPrompt)

	httpc := &http.Client{Timeout: timeout}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("augment request: POST %s model=%s key=%s", url, c.Model, maskKey(c.APIKey))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
		}
		for k, v := range c.ExtraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := httpc.Do(req)
		if err != nil {
			return "", err
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode/100 == 2 {
			content := gjson.GetBytes(raw, "choices.0.message.content").String()
			if strings.TrimSpace(content) == "" {
				return "", fmt.Errorf("empty completion")
			}
			logger.TraceAugmentResponse(c.ID(), content)
			return content, nil
		}

		msg := strings.TrimSpace(gjson.GetBytes(raw, "error.message").String())
		if msg == "" {
			msg = resp.Status
		}
		lastErr = fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
		if retryable(resp.StatusCode) && attempt < maxRetries {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			if wait == 0 {
				// 0.8s, 1.6s, 3.2s ... capped at 8s
				wait = 800 * time.Millisecond << attempt
				if wait > 8*time.Second {
					wait = 8 * time.Second
				}
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		break
	}
	return "", lastErr
}

func (c *OpenAIChatClient) endpoint() string {
	url := c.BaseURL
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func maskKey(key string) string {
	if key == "" {
		return "(none)"
	}
	if len(key) > 4 {
		return "****" + key[len(key)-4:]
	}
	return "****"
}
