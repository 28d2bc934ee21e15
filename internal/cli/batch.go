package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimtrace/internal/pipeline"
	"github.com/ppiankov/claimtrace/internal/report"
	"github.com/ppiankov/claimtrace/internal/worker"
)

var (
	concurrency   int
	outputDir     string
	batchDeadline time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many inputs listed in a file",
	Long: `Batch verifies several inputs concurrently:
- Read input references from a file (one per line, # for comments)
- Each reference may be a URL, a text/HTML/PDF file path, or literal text
- Write a JSON and a Markdown report per input

Example:
  claimtrace batch inputs.txt
  claimtrace batch inputs.txt --concurrency 4 --output-dir ./reports
  claimtrace batch inputs.txt --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of inputs verified at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimtrace-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchDeadline, "timeout", 30*time.Minute, "total timeout for the whole batch")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	rt, err := pipeline.Build(cfg, logger, nil, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, batchDeadline)
	defer cancelTimeout()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  claimtrace Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchDeadline)
	fmt.Fprintf(os.Stderr, "  LLM:          %s\n", rt.Provider.Name())
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(rt, concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	var total report.Summary

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Ref, result.Error)
			continue
		}

		rep := report.New(result.Ref, "", "", result.Results)
		slug := fmt.Sprintf("%03d-%s", i+1, sanitizeFilename(result.Ref))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := report.WriteFiles(rep, jsonPath, mdPath, cfg.Output.IncludeFooter && !noFooter); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Ref, err)
			continue
		}

		successCount++
		addSummary(&total, rep.Summary)
		fmt.Fprintf(os.Stderr, "✓ %s (%d claims: %d supported, %d contradicted, %d neutral, %d errors)\n",
			result.Ref, rep.Summary.Total, rep.Summary.Supported, rep.Summary.Contradicted, rep.Summary.Neutral, rep.Summary.Errors)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Inputs:    %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Claims:    %d\n", total.Total)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

func addSummary(dst *report.Summary, s report.Summary) {
	dst.Total += s.Total
	dst.Supported += s.Supported
	dst.Contradicted += s.Contradicted
	dst.Neutral += s.Neutral
	dst.Errors += s.Errors
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename turns an input reference into a short file name
func sanitizeFilename(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	s = unsafeFilename.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		return "input"
	}
	return s
}
