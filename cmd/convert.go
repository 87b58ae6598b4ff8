package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scantext/internal/acquire"
	"scantext/internal/config"
	"scantext/internal/export"
	"scantext/internal/logger"
	"scantext/internal/recognize"
	"scantext/internal/session"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Acquire images, recognize their text, and export the document",
	Long: `Run the full capture-to-text pipeline in a single session: acquire
images from exactly one source, run OCR over the batch, assemble the
document text, and export it into the app-scoped output directory as
plain text and/or a paginated PDF with the source images embedded.

Acquisition sources (exactly one is required):
  --capture FILE   a captured photo (already upright)
  --gallery FILE   a picked gallery image
  --scan DIR       a multi-page scan session directory; page images are
                   taken in name order up to the configured page limit,
                   and a scan.pdf produced by the scanner is picked up
                   alongside them

Export files are named {appName}-{ddMMyyyy-HHmmssSSS}.{ext} and recorded
in the output directory's media index manifest.`,
	Example: `  # Photo to text file
  scantext convert --capture photo.jpg --to txt

  # Gallery image to PDF, printing the recognized text as well
  scantext convert --gallery page.png --to pdf --print

  # Multi-page scan to both formats, offline OCR
  scantext convert --scan ./scan-session --to both --engine tesseract

  # Keep the scanner's own combined PDF too
  scantext convert --scan ./scan-session --to txt --keep-scan-pdf`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("capture", "", "Captured photo to convert")
	convertCmd.Flags().String("gallery", "", "Gallery image to convert")
	convertCmd.Flags().String("scan", "", "Scan session directory to convert")
	convertCmd.Flags().String("to", "txt", "Export format: txt, pdf, or both")
	convertCmd.Flags().Bool("print", false, "Print the recognized text to stdout")
	convertCmd.Flags().Bool("keep-scan-pdf", false, "Also persist the scanner's combined PDF")
	convertCmd.Flags().String("engine", "", "OCR engine: vision, documentai, tesseract (default from config)")
	convertCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("convert")

	capturePath, _ := cmd.Flags().GetString("capture")
	galleryPath, _ := cmd.Flags().GetString("gallery")
	scanDir, _ := cmd.Flags().GetString("scan")
	to, _ := cmd.Flags().GetString("to")
	printText, _ := cmd.Flags().GetBool("print")
	keepScanPDF, _ := cmd.Flags().GetBool("keep-scan-pdf")
	engineName, _ := cmd.Flags().GetString("engine")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	sources := 0
	for _, s := range []string{capturePath, galleryPath, scanDir} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("exactly one of --capture, --gallery, --scan is required")
	}
	if to != "txt" && to != "pdf" && to != "both" {
		return fmt.Errorf("--to must be txt, pdf, or both, got %q", to)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if engineName == "" {
		engineName = cfg.OCREngine
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
	writer := export.NewWriter(cfg.AppName, cfg.OutputDir, export.Geometry{
		PageWidth:         cfg.PageWidth,
		PageHeight:        cfg.PageHeight,
		FontSize:          cfg.FontSize,
		VerticalPadding:   cfg.VerticalPadding,
		HorizontalPadding: cfg.HorizontalPadding,
	})

	sess := session.New(coord, writer)
	defer sess.Close()
	go drainNotices(sess)

	log.Info().
		Str("session_id", sess.ID).
		Str("engine", engineName).
		Str("to", to).
		Msg("Starting conversion")

	if err := acquireInto(ctx, sess, capturePath, galleryPath, scanDir, cfg.ScanPageLimit); err != nil {
		return err
	}
	if len(sess.Images()) == 0 {
		log.Info().Msg("Acquisition returned no images, nothing to convert")
		return nil
	}

	if err := sess.Recognize(ctx); err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	if printText {
		fmt.Println(sess.Text())
	}

	if to == "txt" || to == "both" {
		artifact, err := sess.ExportText(ctx)
		if err != nil {
			return fmt.Errorf("could not save text export: %w", err)
		}
		fmt.Println(artifact.Path)
	}
	if to == "pdf" || to == "both" {
		artifact, err := sess.ExportPDF(ctx)
		if err != nil {
			return fmt.Errorf("could not save PDF export: %w", err)
		}
		fmt.Println(artifact.Path)
	}
	if keepScanPDF && sess.HasScanPDF() {
		artifact, err := sess.ExportScanPDF(ctx)
		if err != nil {
			return fmt.Errorf("could not save scanner PDF: %w", err)
		}
		fmt.Println(artifact.Path)
	}

	return nil
}

func acquireInto(ctx context.Context, sess *session.Session, capturePath, galleryPath, scanDir string, pageLimit int) error {
	switch {
	case capturePath != "":
		return sess.Capture(ctx, acquire.FileCamera{Path: capturePath})
	case galleryPath != "":
		return sess.Import(ctx, acquire.FileGallery{Path: galleryPath})
	default:
		return sess.Scan(ctx, acquire.DirScanner{Dir: scanDir, PageLimit: pageLimit})
	}
}

// drainNotices surfaces transient pipeline notices as they arrive.
func drainNotices(sess *session.Session) {
	log := logger.WithComponent("convert")
	for msg := range sess.Notices() {
		log.Warn().Msg(msg)
	}
}
