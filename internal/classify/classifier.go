// Package classify assigns each ticket one technology label via the
// OpenRouter classification service. The label set is closed; every
// failure mode collapses to model.LabelUnclassified so callers never
// see an error from this boundary.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/opsdesk/ticketlens/internal/model"
	"github.com/opsdesk/ticketlens/internal/resilience"
	"github.com/opsdesk/ticketlens/pkg/openrouter"
)

const systemPrompt = "You are a precise, conservative classifier. " +
	"Given an incident description, answer with EXACTLY ONE WORD that is one of the allowed labels. " +
	"Do not add any other text."

const userPromptFormat = `Allowed labels: %s

Rules:
- Reply with exactly one word from the allowed labels.
- No punctuation, no quotes, no explanations.
- If uncertain, pick the closest label.

TEXT:
%s`

// Config tunes the classifier.
type Config struct {
	// Model overrides the client's default model when non-empty.
	Model string

	// RequestsPerSecond throttles calls to the service. Zero or
	// negative means unlimited.
	RequestsPerSecond float64

	// RetryBackoff is the pause before the single retry. Defaults to
	// 600ms.
	RetryBackoff time.Duration
}

// Classifier is the gateway to the external classification service.
type Classifier struct {
	client  openrouter.Client
	model   string
	limiter *rate.Limiter
	backoff time.Duration
}

// New creates a Classifier on top of an OpenRouter client.
func New(client openrouter.Client, cfg Config) *Classifier {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 600 * time.Millisecond
	}
	return &Classifier{
		client:  client,
		model:   cfg.Model,
		limiter: rate.NewLimiter(limit, 1),
		backoff: backoff,
	}
}

// Classify returns one allowed label for the given ticket text, or
// model.LabelUnclassified. A transport failure or an out-of-set answer
// is retried exactly once; a second failure degrades to the fallback.
// Blank text short-circuits without calling the service.
func (c *Classifier) Classify(ctx context.Context, text string) model.Label {
	if strings.TrimSpace(text) == "" {
		return model.LabelUnclassified
	}

	label, err := resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts: 2,
		Backoff:     c.backoff,
		OnRetry:     resilience.RetryLogger("openrouter", "classify"),
	}, func(ctx context.Context) (model.Label, error) {
		return c.askOnce(ctx, text)
	})
	if err != nil {
		zap.L().Debug("classify: degraded to fallback label", zap.Error(err))
		return model.LabelUnclassified
	}
	return label
}

func (c *Classifier) askOnce(ctx context.Context, text string) (model.Label, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "classify: rate limit wait")
	}

	temperature := 0.0
	resp, err := c.client.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:       c.model,
		Temperature: &temperature,
		Messages: []openrouter.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptFormat, allowedLine(), text)},
		},
	})
	if err != nil {
		return "", err
	}

	var raw string
	if len(resp.Choices) > 0 {
		raw = resp.Choices[0].Message.Content
	}

	label, ok := model.ParseLabel(normalize(raw))
	if !ok {
		return "", eris.Errorf("classify: answer %q outside allowed set", raw)
	}
	return label, nil
}

// normalize reduces a free-form service answer to a candidate token:
// lower-cased, first whitespace-delimited word, stripped of quoting and
// punctuation.
func normalize(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || r == '`'
	})
}

func allowedLine() string {
	labels := model.AllowedLabels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
