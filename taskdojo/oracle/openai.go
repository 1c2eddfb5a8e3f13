package oracle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultMaxFailures = 3
	defaultCooldown    = 10 * time.Minute

	// Flat per-call cost estimate used for monthly accounting.
	chatCallCostUSD  = 0.002
	imageCallCostUSD = 0.04
)

type ClientConfig struct {
	APIKey     string
	ChatModel  string
	ImageModel string
}

// Client is the OpenAI-backed oracle. Every method falls back to the static
// pool on error; a run of consecutive failures disables real calls until
// the cooldown elapses.
type Client struct {
	api      *openai.Client
	fallback *Fallback
	status   *Status
	usage    UsageRecorder
	cfg      ClientConfig
}

var _ Oracle = (*Client)(nil)

func NewClient(cfg ClientConfig, fallback *Fallback, usage UsageRecorder) *Client {
	var api *openai.Client
	if cfg.APIKey != "" {
		api = openai.NewClient(cfg.APIKey)
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openai.CreateImageModelDallE3
	}
	return &Client{
		api:      api,
		fallback: fallback,
		status:   NewStatus(defaultMaxFailures, defaultCooldown),
		usage:    usage,
		cfg:      cfg,
	}
}

// Status exposes the failure gate for tests and the ops surface.
func (c *Client) Status() *Status { return c.status }

func (c *Client) ready() bool {
	return c.api != nil && c.status.Available(time.Now())
}

func (c *Client) recordUsage(ctx context.Context, cost float64) {
	if c.usage == nil {
		return
	}
	playerID, ok := PlayerIDFromContext(ctx)
	if !ok {
		return
	}
	if err := c.usage.RecordUsage(ctx, playerID, 1, cost); err != nil {
		slog.Warn("Failed to record AI usage",
			slog.String("type", "oracle"),
			slog.Int64("player_id", playerID),
			slog.Any("error", err))
	}
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		c.status.RecordFailure(time.Now())
		return "", err
	}
	c.status.RecordSuccess()
	c.recordUsage(ctx, chatCallCostUSD)
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) GenerateName(ctx context.Context, kind NameKind, hint string) string {
	if !c.ready() {
		return c.fallback.GenerateName(ctx, kind, hint)
	}
	out, err := c.chat(ctx,
		fmt.Sprintf("You name %s characters for a gamified task tracker. Reply with the name only, at most five words.", kind),
		hint)
	if err != nil || out == "" {
		slog.Warn("Oracle name generation failed, using fallback",
			slog.String("type", "oracle"),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
		return c.fallback.GenerateName(ctx, kind, hint)
	}
	return strings.Trim(out, `"`)
}

func (c *Client) GenerateImage(ctx context.Context, prompt string, kind NameKind) []byte {
	if !c.ready() {
		return nil
	}
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.cfg.ImageModel,
		Prompt:         fmt.Sprintf("%s, stylized ink illustration of a %s", prompt, kind),
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil || len(resp.Data) == 0 {
		c.status.RecordFailure(time.Now())
		slog.Warn("Oracle image generation failed",
			slog.String("type", "oracle"),
			slog.Any("error", err))
		return nil
	}
	c.status.RecordSuccess()
	c.recordUsage(ctx, imageCallCostUSD)
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil
	}
	return raw
}

func (c *Client) GenerateNarrative(ctx context.Context, chapter int, name string) string {
	if !c.ready() {
		return c.fallback.GenerateNarrative(ctx, chapter, name)
	}
	out, err := c.chat(ctx,
		"You write two-sentence victory narration for a task-tracker boss battle. Dark, wry tone.",
		fmt.Sprintf("Chapter %d boss defeated: %s", chapter, name))
	if err != nil || out == "" {
		return c.fallback.GenerateNarrative(ctx, chapter, name)
	}
	return out
}

func (c *Client) AssessDifficulty(ctx context.Context, title, genre string) string {
	if !c.ready() {
		return c.fallback.AssessDifficulty(ctx, title, genre)
	}
	out, err := c.chat(ctx,
		"Rate the effort of a personal task. Reply with exactly one of: easy, normal, hard, very_hard, extreme.",
		fmt.Sprintf("title: %s\ngenre: %s", title, genre))
	if err != nil {
		return c.fallback.AssessDifficulty(ctx, title, genre)
	}
	switch out {
	case "easy", "normal", "hard", "very_hard", "extreme":
		return out
	}
	return c.fallback.AssessDifficulty(ctx, title, genre)
}

type verifyResponse struct {
	Approved   bool    `json:"approved"`
	Feedback   string  `json:"feedback"`
	Multiplier float64 `json:"multiplier"`
}

func clampMultiplier(m float64) float64 {
	if m < 0.5 {
		return 0.5
	}
	if m > 1.5 {
		return 1.5
	}
	return m
}

func (c *Client) VerifyCompletion(ctx context.Context, title, difficulty, report string, strictness int) Verdict {
	if !c.ready() {
		return c.fallback.VerifyCompletion(ctx, title, difficulty, report, strictness)
	}
	tone := "lenient"
	switch {
	case strictness >= 3:
		tone = "very strict"
	case strictness == 2:
		tone = "strict"
	}
	out, err := c.chat(ctx,
		fmt.Sprintf(`You are a %s reviewer of task-completion reports. Reply with JSON: {"approved":bool,"feedback":string,"multiplier":number between 0.5 and 1.5}.`, tone),
		fmt.Sprintf("task: %s (difficulty %s)\nreport: %s", title, difficulty, report))
	if err != nil {
		return c.fallback.VerifyCompletion(ctx, title, difficulty, report, strictness)
	}

	var parsed verifyResponse
	if jsonErr := json.Unmarshal([]byte(extractJSON(out)), &parsed); jsonErr != nil {
		slog.Warn("Oracle verification returned malformed JSON, using fallback",
			slog.String("type", "oracle"),
			slog.Any("error", jsonErr))
		return c.fallback.VerifyCompletion(ctx, title, difficulty, report, strictness)
	}
	return Verdict{
		Approved:   parsed.Approved,
		Feedback:   parsed.Feedback,
		Multiplier: clampMultiplier(parsed.Multiplier),
	}
}

// extractJSON strips code fences and surrounding prose around a JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
