package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimtrace/internal/pipeline"
	"github.com/ppiankov/claimtrace/internal/report"
)

var (
	outJSON  string
	outMD    string
	timeout  time.Duration
	noFooter bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <text|file|url|->",
	Short: "Verify the claims in a text, file, PDF or web page",
	Long: `Verify extracts the factual claims from one input and checks each claim:
- Rate the claim's quality
- Reason about it, splitting it into sub-claims when confidence is low
- Search the web and assess the trust of the sources found
- Write an explanation grounded in that evidence

The input may be literal text, a path to a text/HTML/PDF file, an http(s)
URL, or "-" to read standard input.

Example:
  claimtrace verify "The Eiffel Tower is 330 metres tall."
  claimtrace verify article.pdf --json report.json --md report.md
  cat notes.txt | claimtrace verify - --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 0, "overall timeout (default: pipeline.batch_timeout)")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	verifyCmd.Flags().String("extractor", "", "claim extractor (llm, heuristic)")
	verifyCmd.Flags().Bool("insecure", false, "skip TLS certificate verification (use for self-signed certs)")

	_ = viper.BindPFlag("pipeline.extractor", verifyCmd.Flags().Lookup("extractor"))
	_ = viper.BindPFlag("http.insecure_tls", verifyCmd.Flags().Lookup("insecure"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	ref := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Pipeline.BatchTimeout = timeout
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	rt, err := pipeline.Build(cfg, logger, nil, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", ref)
		fmt.Fprintf(os.Stderr, "Provider:  %s\n", rt.Provider.Name())
		fmt.Fprintln(os.Stderr)
	}

	doc, err := rt.Loader.Load(ctx, ref)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}
	if doc.Truncated {
		logger.Warn("input truncated", "max_chars", cfg.Input.MaxChars)
	}

	outcome := rt.Verifier.Verify(ctx, doc.Text)
	rep := report.New(doc.Ref, string(outcome.Kind), outcome.BatchID, outcome.Flatten())

	if outJSON == "-" {
		if err := report.WriteJSON(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
	} else if err := report.WriteFiles(rep, outJSON, "", false); err != nil {
		return err
	}
	if err := report.WriteFiles(rep, "", outMD, cfg.Output.IncludeFooter && !noFooter); err != nil {
		return err
	}

	if outJSON == "" && outMD == "" {
		// nothing written to disk: print the Markdown report
		if err := report.WriteMarkdown(cmd.OutOrStdout(), rep, false); err != nil {
			return err
		}
	}
	report.PrintSummary(os.Stderr, rep)

	if outcome.Kind == pipeline.OutcomeExtractionFailed {
		return fmt.Errorf("claim extraction failed: %s", outcome.Reason)
	}
	return nil
}
