package recognize

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"scantext/internal/acquire"
	"scantext/internal/logger"
	"scantext/pkg/models"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency bounds how many engine calls run at once. Default 2.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRateLimit caps engine calls per second, smoothing bursts against hosted
// API quotas. Zero disables limiting.
func WithRateLimit(callsPerSecond float64) Option {
	return func(c *Coordinator) {
		if callsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(callsPerSecond), 1)
		}
	}
}

// WithFailureHandler registers a callback invoked once per failed image, in
// addition to the failure flag on the result. The callback may be invoked
// concurrently from recognition goroutines.
func WithFailureHandler(fn func(ordinal int, err error)) Option {
	return func(c *Coordinator) { c.onFailure = fn }
}

// Coordinator drives an OCR engine over an ordered batch of acquired images.
//
// Each image is recognized exactly once. Recognition runs concurrently, but
// results are collected by ordinal, so output order always reflects
// acquisition order rather than completion order. A per-image failure does not
// abort the batch: the failed image yields an empty-text result with its
// failure flag set, keeping result count equal to image count. Only context
// cancellation aborts the whole batch.
type Coordinator struct {
	engine      Engine
	concurrency int
	limiter     *rate.Limiter
	onFailure   func(ordinal int, err error)
	log         zerolog.Logger
}

// NewCoordinator creates a coordinator around the given engine.
func NewCoordinator(engine Engine, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:      engine,
		concurrency: 2,
		log:         logger.WithComponent("recognize"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recognize runs the engine over every image and returns one result per
// image, ordered by ordinal. The returned error is non-nil only when the
// whole batch was aborted (empty input or context cancellation); individual
// failures are reported through the results and the failure handler.
func (c *Coordinator) Recognize(ctx context.Context, images []models.AcquiredImage) ([]models.RecognitionResult, error) {
	const op = "Recognize"

	if len(images) == 0 {
		return nil, WrapRecognitionError(op, ErrEmptyBatch, "")
	}

	c.log.Info().
		Str("engine", c.engine.Name()).
		Int("images", len(images)).
		Msg("Starting recognition batch")

	results := make([]models.RecognitionResult, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, img := range images {
		g.Go(func() error {
			text, err := c.recognizeOne(gctx, img)
			if err != nil {
				// Context cancellation aborts the batch; anything else is a
				// per-image failure that must not.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Warn().
					Err(err).
					Int("ordinal", img.Ordinal).
					Str("path", img.Path).
					Msg("Image recognition failed, continuing batch")
				if c.onFailure != nil {
					c.onFailure(img.Ordinal, err)
				}
				results[i] = models.RecognitionResult{Ordinal: img.Ordinal, Failed: true}
				return nil
			}
			results[i] = models.RecognitionResult{Ordinal: img.Ordinal, Text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, WrapRecognitionError(op, err, "batch aborted")
	}

	c.log.Info().
		Int("images", len(images)).
		Int("failed", countFailed(results)).
		Msg("Recognition batch completed")

	return results, nil
}

func (c *Coordinator) recognizeOne(ctx context.Context, img models.AcquiredImage) (string, error) {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return "", &RecognitionError{Op: "recognizeOne", Ordinal: img.Ordinal, Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	return c.engine.Recognize(ctx, data, acquire.MimeType(img.Format))
}

func countFailed(results []models.RecognitionResult) int {
	n := 0
	for _, r := range results {
		if r.Failed {
			n++
		}
	}
	return n
}
