package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/sridarsri23/BrainBridge/internal/ai"
	"github.com/sridarsri23/BrainBridge/internal/logger"
	"github.com/sridarsri23/BrainBridge/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel        = "gemini-2.5-flash"
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200
	defaultTimeout      = 20 * time.Second
	baseBackoff         = time.Second
	// quota errors asking to wait longer than this are not retried.
	maxQuotaDelay = 10 * time.Second
)

var wait = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9.]+)\s*(ms|s|sec|second|seconds)\b`)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Generator.
type Options struct {
	APIKey            string
	Model             string
	MaxRetries        int
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxLogLength      int
	Logger            *zap.Logger
}

// Generator wraps the Google GenAI client and implements ai.Reasoner.
type Generator struct {
	models     modelsAPI
	model      string
	maxRetries int
	timeout    time.Duration
	limiter    *rate.Limiter
	maxLogLen  int
	logger     *zap.Logger
}

var _ ai.Reasoner = (*Generator)(nil)

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, opts), nil
}

func newGenerator(models modelsAPI, opts Options) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Generator{
		models:     models,
		model:      model,
		maxRetries: retries,
		timeout:    timeout,
		limiter:    limiter,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(opts.Logger, Provider, model),
	}
}

// GenerateContent sends the prompt with the given system instruction and returns
// the concatenated text of the response. Temporary failures are retried up to
// the configured number of attempts.
func (g *Generator) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	temperature := float32(0.2)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	}
	if system = strings.TrimSpace(system); system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		output, err := g.attempt(ctx, prompt, cfg)
		if err == nil {
			g.logger.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
			)
			return output, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries || ctx.Err() != nil {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func (g *Generator) attempt(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(callCtx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", ai.NewTransientError(err)
		}
		return "", err
	}

	output := responseText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// retryDelay decides whether err is worth another attempt and how long to wait first.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	backoff := baseBackoff * time.Duration(math.Pow(2, float64(attempt-1)))

	if ai.IsTransient(err) {
		return backoff, true
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch apiErr.Code {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return backoff, true
	case http.StatusTooManyRequests:
		delay, ok := quotaDelay(apiErr)
		if !ok {
			return backoff, true
		}
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	default:
		return 0, false
	}
}

func quotaDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d, true
		}
	}

	m := retryAfterPattern.FindStringSubmatch(apiErr.Message)
	if len(m) < 3 {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	unit := time.Second
	if strings.EqualFold(m[2], "ms") {
		unit = time.Millisecond
	}
	return time.Duration(value * float64(unit)), true
}
