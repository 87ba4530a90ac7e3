package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"syscall"

	"github.com/haverlock/undercroft/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxRetries = 3

const generateSystemPrompt = "You are a creative game master generating challenges for a text-based RPG. " +
	"Return ONLY valid JSON with fields: prompt, correctAnswer, hint1, hint2, hint3, " +
	"expectedAnswerPattern, desc, alternateAnswers."

const evaluateSystemPrompt = "You are an RPG Game Master. Evaluate if the player's response matches " +
	"the correct answer semantically. " +
	"Return ONLY JSON with fields: isCorrect (bool), confidence (float), " +
	"reasoning (string), effectiveness (FULL/PARTIAL/NONE)."

const hintSystemPrompt = "You are a creative RPG Game Master. Provide a hint for a challenge. " +
	"Return ONLY the hint text. No JSON, no quotes, no conversational filler."

// Config describes the chat-completions endpoint the client talks to.
type Config struct {
	// Endpoint is the chat-completions URL.
	Endpoint string
	// Model names the model requested per call.
	Model string
	// Temperature is the sampling temperature.
	Temperature float64
	// MaxRetries bounds attempts per call. Zero means the default of 3.
	MaxRetries int
	// HTTPClient overrides the transport; nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg    Config
	tracer trace.Tracer
}

// NewClient builds a boundary client from config, filling defaults.
func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &Client{
		cfg:    cfg,
		tracer: otel.Tracer("github.com/haverlock/undercroft/internal/llm"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateChallenge asks the model for a new challenge definition.
func (c *Client) GenerateChallenge(ctx context.Context, prompt string) (string, bool) {
	return c.send(ctx, "llm.generate_challenge", generateSystemPrompt, prompt)
}

// EvaluateResponse asks the model to judge a player response.
func (c *Client) EvaluateResponse(ctx context.Context, response, expectedPattern, challengeContext string) (string, bool) {
	userPrompt := fmt.Sprintf(
		"Challenge: %s\nExpected Answer: %s\nPlayer's Response: %s\n",
		challengeContext, expectedPattern, response,
	)
	return c.send(ctx, "llm.evaluate_response", evaluateSystemPrompt, userPrompt)
}

// GenerateHint asks the model for hint text at the given intensity.
func (c *Client) GenerateHint(ctx context.Context, prompt, expectedAnswer string, level int) (string, bool) {
	var levelDescription string
	switch level {
	case 2:
		levelDescription = "Level 2: More direct, narrows down possibilities."
	case 3:
		levelDescription = "Level 3: Very obvious, almost gives the answer away."
	default:
		levelDescription = "Level 1: Very subtle, a cryptic nudge or thematic clue."
	}

	userPrompt := fmt.Sprintf(
		"Challenge: %s\nAnswer: %s\nTarget Intensity: %s\nGenerate the hint now:",
		prompt, expectedAnswer, levelDescription,
	)
	hint, ok := c.send(ctx, "llm.generate_hint", hintSystemPrompt, userPrompt)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(hint), true
}

// IsAvailable probes the sibling /models endpoint with a short timeout.
func (c *Client) IsAvailable(ctx context.Context) bool {
	probeURL := strings.Replace(c.cfg.Endpoint, "/chat/completions", "/models", 1)

	probeCtx, cancel := context.WithTimeout(ctx, timeouts.AvailabilityProbe)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// send runs one traced, retried round-trip and returns the assistant
// content.
func (c *Client) send(ctx context.Context, spanName, systemPrompt, userPrompt string) (string, bool) {
	ctx, span := c.tracer.Start(ctx, spanName)
	defer span.End()

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		span.SetAttributes(attribute.String("llm.failure", "encode"))
		return "", false
	}

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		content, err := c.roundTrip(ctx, body)
		if err == nil {
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return content, true
		}
		if isConnectionRefused(err) {
			// A definitively down endpoint is not worth the retry budget.
			log.Printf("llm request refused endpoint=%s err=%v", c.cfg.Endpoint, err)
			span.SetAttributes(attribute.String("llm.failure", "connection_refused"))
			return "", false
		}
		log.Printf("llm request failed attempt=%d/%d err=%v", attempt, c.cfg.MaxRetries, err)
	}
	span.SetAttributes(attribute.String("llm.failure", "retries_exhausted"))
	return "", false
}

func (c *Client) roundTrip(ctx context.Context, body []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeouts.ModelRequest)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}
