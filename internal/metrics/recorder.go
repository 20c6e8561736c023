package metrics

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/llm"
)

// Recorder fans generation metrics out to Sentry and CloudWatch.
// Either backend may be nil.
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder creates a Recorder over the given backends
func NewRecorder(sentryMetrics *SentryMetrics, cloudwatchClient *Client) *Recorder {
	return &Recorder{sentry: sentryMetrics, cloudwatch: cloudwatchClient}
}

// RecordTokenUsage records token usage of one remote call
func (r *Recorder) RecordTokenUsage(ctx context.Context, stage, model string, usage llm.Usage) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordTokenUsage(ctx, stage, model, usage)
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordTokenUsage(stage, model, usage)
	}
}

// RecordGenerationDuration records the duration of one generation stage
func (r *Recorder) RecordGenerationDuration(ctx context.Context, stage string, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordGenerationDuration(ctx, stage, duration, success)
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordGenerationDuration(stage, duration, success)
	}
}

// RecordImageFallback records a placeholder portrait
func (r *Recorder) RecordImageFallback(ctx context.Context, reason string) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordImageFallback(ctx, reason)
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordImageFallback(reason)
	}
}

// RecordAPIRequest records one console request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	}
}
