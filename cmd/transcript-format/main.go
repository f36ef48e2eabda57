// Package main is the batch command line for formatting transcript PDFs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
	"github.com/Epistemic-Technology/transcript-mcp/internal/operations"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "transcript-format <transcript.pdf>",
	Short: "Format a press-conference transcript PDF for publication",
	Long: `transcript-format drops the cover page of a transcript PDF, proofreads the
text with OpenAI in token-bounded chunks and renders the result as PDF, DOCX or
plain text. The input filename must contain the conference date as YYYYMMDD;
the output is named after it, e.g. 2025.3.28知事記者会見.pdf.`,
	Args:          cobra.ExactArgs(1),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFormat,
}

func init() {
	rootCmd.Flags().String("config", "", "config file (default: ./transcript.yaml or ~/.config/transcript-mcp/transcript.yaml)")
	rootCmd.Flags().String("format", "", "output format: pdf, docx or txt (default from config)")
	rootCmd.Flags().String("out-dir", ".", "directory for the formatted document")
	rootCmd.Flags().String("model", "", "OpenAI model (default from config)")
	rootCmd.Flags().Int("chunk-tokens", 0, "maximum tokens per chunk (default from config)")
	rootCmd.Flags().String("font", "", "Japanese TrueType font to embed in pdf output, e.g. ipaexg.ttf")
	rootCmd.Flags().String("log-level", "", "log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Format = models.OutputFormat(v)
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	if v, _ := cmd.Flags().GetInt("chunk-tokens"); v != 0 {
		cfg.ChunkTokens = v
	}
	if v, _ := cmd.Flags().GetString("font"); v != "" {
		cfg.Layout.FontPath = v
	}
	return cfg, nil
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	log, err := logger.NewLogger(logger.LogConfig{Output: "stderr", Level: level})
	if err != nil {
		return err
	}

	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := operations.ProcessTranscript(ctx, models.TranscriptRequest{
		Filename: filepath.Base(input),
		Data:     data,
		Format:   cfg.Format,
	}, cfg, log)
	if err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	out := filepath.Join(outDir, res.Filename)
	if err := os.WriteFile(out, res.Document, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, operations.UserMessage(err))
		os.Exit(1)
	}
}
