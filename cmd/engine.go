package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"scantext/internal/config"
	"scantext/internal/recognize"
)

// createEngine builds the OCR engine selected by name. The returned closer
// releases any underlying API client.
func createEngine(ctx context.Context, name string, languages []string, log zerolog.Logger) (recognize.Engine, func(), error) {
	switch name {
	case config.EngineTesseract:
		return recognize.NewTesseractEngine(languages...), func() {}, nil

	case config.EngineDocumentAI:
		engine, err := recognize.NewDocumentAIEngine(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Document AI engine")
			return nil, nil, fmt.Errorf("failed to create Document AI engine: %w", err)
		}
		return engine, func() { _ = engine.Close() }, nil

	case config.EngineVision:
		hasCredentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
		if !hasCredentials {
			log.Error().Msg("Google Cloud credentials not configured")
			return nil, nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n"+
				"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n"+
				"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n"+
				"2. Export GOOGLE_CREDENTIALS with inline JSON:\n"+
				"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",...}'\n\n"+
				"3. Or select the offline engine: --engine %s", config.EngineTesseract)
		}
		engine, err := recognize.NewVisionEngine(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create Vision engine")
			return nil, nil, fmt.Errorf("failed to create Vision engine: %w", err)
		}
		return engine, func() { _ = engine.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown OCR engine %q", name)
	}
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}
