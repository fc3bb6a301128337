package engine

// openai.go is the minimal chat-completions client used for both remote
// classification and remote response generation.  Every failure mode maps
// onto one of two sentinel errors so callers can log the downgrade reason
// without ever surfacing it to the user:
//
//   - ErrRemoteUnavailable — network error, timeout, non-2xx status, or an
//     error object in the response body.
//   - ErrMalformedReply    — a 2xx response whose body cannot be interpreted.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRemoteUnavailable is returned when the remote model cannot be reached
// or reports a non-success status.  Recovered locally, never user-visible.
var ErrRemoteUnavailable = errors.New("engine: remote model unavailable")

// ErrMalformedReply is returned when the remote model answers successfully
// but the body cannot be decoded.  Recovered locally, never user-visible.
var ErrMalformedReply = errors.New("engine: malformed remote reply")

// --- minimal OpenAI wire types ---

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// chatClient issues single chat-completion calls against an OpenAI-compatible
// endpoint.  It is safe for concurrent use; the per-call deadline is injected
// through the context so classify and respond can carry different timeouts
// over the same underlying connection pool.
type chatClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// complete sends one chat-completion request bounded by timeout and returns
// the content of the first choice.
func (c *chatClient) complete(ctx context.Context, messages []oaiMessage, maxTokens int, temperature float64, timeout time.Duration) (string, error) {
	body := oaiRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("engine: marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("engine: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrRemoteUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", fmt.Errorf("%w: decode API response: %v", ErrMalformedReply, err)
	}

	if oaiResp.Error != nil {
		return "", fmt.Errorf("%w: API error (%s): %s", ErrRemoteUnavailable, oaiResp.Error.Type, oaiResp.Error.Message)
	}

	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedReply)
	}

	return strings.TrimSpace(oaiResp.Choices[0].Message.Content), nil
}

// stripCodeFence removes surrounding Markdown code-fence markup from a model
// reply.  Models frequently wrap JSON in ```json ... ``` even when told not to.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
