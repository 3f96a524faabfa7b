package summary

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Fixed outcome messages stored in place of a summary when generation is not
// possible. Callers distinguish outcomes through Result.Outcome.
const (
	MessageUnavailable = "Summary not available."
	MessageFailed      = "Summary could not be generated."
	MessageRateLimited = "Summary could not be generated due to API rate limits."
)

const minContentLength = 200

const promptTemplate = "Please act as a news editor. Summarize the following article concisely in a neutral, professional tone. The summary should be about 6-7 sentences long:\n\n---\n\n"

// ErrRateLimited is returned by providers when the upstream service rejects a
// request due to quota exhaustion. It is the only retryable provider error.
var ErrRateLimited = errors.New("summarization rate limit exceeded")

type Outcome string

const (
	OutcomeGenerated   Outcome = "generated"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
	OutcomeRateLimited Outcome = "rate_limited"
)

type Result struct {
	Text    string
	Outcome Outcome
}

// Generated reports whether the result carries a real summary rather than a
// fixed failure message.
func (r Result) Generated() bool {
	return r.Outcome == OutcomeGenerated
}

// Provider is a single-call boundary to an external generative-text service.
type Provider interface {
	Summarize(ctx context.Context, prompt string) (string, error)
	Name() string
}

type Service struct {
	provider Provider
	limiter  *rate.Limiter
	retries  int
	backoff  time.Duration
}

// NewService wraps a provider with rate limiting and rate-limit-aware retry.
// retries is the number of additional attempts after a rate-limited first
// attempt; the wait before retry n is backoff × n.
func NewService(provider Provider, retries int, backoff time.Duration, ratePerMin int) *Service {
	var limiter *rate.Limiter
	if ratePerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMin)), 1)
	}

	return &Service{
		provider: provider,
		limiter:  limiter,
		retries:  retries,
		backoff:  backoff,
	}
}

// Run produces a summary for the given article content. It never returns an
// error: every failure mode degrades to a fixed message with a distinct
// outcome.
func (s *Service) Run(ctx context.Context, content string) Result {
	if len(content) < minContentLength {
		slog.Warn("Content too short for summarization, skipping", "content_length", len(content))
		return Result{Text: MessageUnavailable, Outcome: OutcomeUnavailable}
	}

	prompt := promptTemplate + content

	for attempt := 1; ; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return Result{Text: MessageFailed, Outcome: OutcomeFailed}
			}
		}

		text, err := s.provider.Summarize(ctx, prompt)
		if err == nil {
			slog.Debug("Summary generated", "provider", s.provider.Name(), "attempt", attempt, "summary_length", len(text))
			return Result{Text: text, Outcome: OutcomeGenerated}
		}

		if !errors.Is(err, ErrRateLimited) {
			slog.Error("Summarization failed", "provider", s.provider.Name(), "error", err)
			return Result{Text: MessageFailed, Outcome: OutcomeFailed}
		}

		if attempt > s.retries {
			slog.Error("Summarization abandoned after repeated rate limits", "provider", s.provider.Name(), "attempts", attempt)
			return Result{Text: MessageRateLimited, Outcome: OutcomeRateLimited}
		}

		wait := s.backoff * time.Duration(attempt)
		slog.Warn("Rate limit hit, backing off before retry", "provider", s.provider.Name(), "attempt", attempt, "max_retries", s.retries, "wait", wait.String())

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return Result{Text: MessageRateLimited, Outcome: OutcomeRateLimited}
		}
	}
}
