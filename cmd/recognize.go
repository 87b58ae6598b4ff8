package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"scantext/internal/acquire"
	"scantext/internal/config"
	"scantext/internal/format"
	"scantext/internal/logger"
	"scantext/internal/recognize"
	"scantext/pkg/models"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [image...]",
	Short: "Extract text from one or more document images",
	Long: `Run OCR over the given images and print the combined document text.

A single image yields its recognized text unchanged. Multiple images are
combined in argument order with per-image page headers, exactly as the
convert pipeline would assemble them. A failed image keeps its section in
the output with empty text so page numbering stays aligned with the input.

Hosted engines (vision, documentai) need Google Cloud credentials:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
The tesseract engine runs locally and needs no credentials.`,
	Example: `  # Recognize a single photo to stdout
  scantext recognize page.jpg

  # Recognize a three-page scan with the offline engine
  scantext recognize --engine tesseract p1.png p2.png p3.png

  # Save the combined text and include per-image results as JSON
  scantext recognize --json -o result.json p1.png p2.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

// RecognizeOutput represents the JSON output structure when --json is used
type RecognizeOutput struct {
	Text               string                     `json:"text"`
	Engine             string                     `json:"engine"`
	ImageCount         int                        `json:"image_count"`
	FailedCount        int                        `json:"failed_count"`
	Results            []models.RecognitionResult `json:"results"`
	ProcessedAt        time.Time                  `json:"processed_at"`
	ProcessingDuration string                     `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
	recognizeCmd.Flags().String("engine", "", "OCR engine: vision, documentai, tesseract (default from config)")
	recognizeCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("recognize-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	engineName, _ := cmd.Flags().GetString("engine")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if engineName == "" {
		engineName = cfg.OCREngine
	}

	log.Info().
		Strs("images", args).
		Str("engine", engineName).
		Int("timeout", timeoutSecs).
		Msg("Starting recognition")

	// Validate and load every input before touching the engine
	images := make([]models.AcquiredImage, 0, len(args))
	for i, path := range args {
		img, err := acquire.LoadImage(path, i)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Cannot load input image")
			return fmt.Errorf("cannot load %s: %w", path, err)
		}
		images = append(images, img)
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	engine, closeEngine, err := createEngine(ctx, engineName, cfg.OCRLanguages, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	coord := recognize.NewCoordinator(engine,
		recognize.WithConcurrency(cfg.OCRConcurrency),
		recognize.WithRateLimit(cfg.OCRRateLimit),
	)

	startTime := time.Now()
	results, err := coord.Recognize(ctx, images)
	if err != nil {
		log.Error().Err(err).Msg("Recognition failed")
		return fmt.Errorf("recognition failed: %w", err)
	}

	text := format.Document(results)
	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
			fmt.Fprintf(os.Stderr, "warning: no text recognized from image %d (%s)\n", r.Ordinal+1, args[r.Ordinal])
		}
	}

	log.Info().
		Int("images", len(results)).
		Int("failed", failed).
		Dur("duration", time.Since(startTime)).
		Int("text_length", len(text)).
		Msg("Recognition completed")

	var outputData []byte
	if jsonOutput {
		out := RecognizeOutput{
			Text:               text,
			Engine:             engineName,
			ImageCount:         len(results),
			FailedCount:        failed,
			Results:            results,
			ProcessedAt:        time.Now(),
			ProcessingDuration: time.Since(startTime).String(),
		}
		outputData, err = json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		outputData = []byte(text)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			log.Error().Err(err).Str("output_file", outputPath).Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().Str("output_file", outputPath).Int("bytes", len(outputData)).Msg("Results written to file")
	} else {
		if _, err := os.Stdout.Write(outputData); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if !jsonOutput {
			fmt.Println()
		}
	}

	return nil
}
