package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scantext/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "scantext",
	Short: "scantext - turn document images into editable text and PDF",
	Long: `scantext captures or imports document images, extracts their text with
on-device or hosted OCR, and exports the result as plain text or as a
paginated PDF with the source images embedded.

Images come from one of three acquisition sources: a captured photo, a
gallery pick, or a multi-page document scan. Recognition runs once per
acquired batch and keeps results in page order even when the OCR engine
completes them out of order.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("scantext executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
