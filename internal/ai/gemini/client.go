package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/hh-resume-bot/internal/logger"
	"github.com/spigell/hh-resume-bot/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	Provider = "gemini"

	defaultModel      = "gemini-2.5-pro"
	defaultMaxRetries = 3
	defaultBackoff    = 2 * time.Second
	defaultQuotaDelay = 5 * time.Second
	maxQuotaDelay     = 30 * time.Second

	jsonMIMEType = "application/json"
	temperature  = 0.4
)

var quotaDelayRe = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator sends structured JSON requests to Gemini.
type Generator struct {
	models     contentModels
	model      string
	maxRetries int
	logger     *zap.Logger

	wait func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
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

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Generator{
		models:     client.Models,
		model:      model,
		maxRetries: maxRetries,
		logger:     logger.WithCommonFields(log, Provider, model),
		wait:       utils.WaitFor,
	}, nil
}

// GenerateJSON asks the model for a JSON document matching schema and returns its raw text.
// Server errors and short quota delays are retried up to maxRetries attempts.
func (g *Generator) GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		ResponseMIMEType:  jsonMIMEType,
		ResponseSchema:    schema,
		Temperature:       genai.Ptr[float32](temperature),
	}

	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err == nil {
			output := responseText(resp)
			if output == "" {
				return "", errors.New("gemini api returned empty response")
			}
			return output, nil
		}

		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == attempts {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := g.waitFor(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) waitFor(ctx context.Context, d time.Duration) error {
	if g.wait == nil {
		return utils.WaitFor(ctx, d)
	}
	return g.wait(ctx, d)
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
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func retryDelay(err error, attempt int) (time.Duration, bool) {
	code, message, ok := apiError(err)
	if !ok {
		return 0, false
	}

	switch {
	case code == http.StatusTooManyRequests:
		delay := quotaDelay(message)
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	case code >= http.StatusInternalServerError:
		return time.Duration(attempt) * defaultBackoff, true
	default:
		return 0, false
	}
}

func apiError(err error) (int, string, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value.Code, value.Message, true
	}

	var pointer *genai.APIError
	if errors.As(err, &pointer) && pointer != nil {
		return pointer.Code, pointer.Message, true
	}

	return 0, "", false
}

func quotaDelay(message string) time.Duration {
	match := quotaDelayRe.FindStringSubmatch(message)
	if len(match) < 2 {
		return defaultQuotaDelay
	}

	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return defaultQuotaDelay
	}

	return time.Duration(seconds * float64(time.Second))
}
