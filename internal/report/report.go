// Package report renders verification results as JSON, Markdown and a
// short terminal summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/claimtrace/internal/model"
)

// Report wraps the results of one verified input
type Report struct {
	Input       string                          `json:"input"`
	BatchID     string                          `json:"batch_id,omitempty"`
	Outcome     string                          `json:"outcome,omitempty"`
	GeneratedAt time.Time                       `json:"generated_at"`
	Summary     Summary                         `json:"summary"`
	Results     []model.ClaimVerificationResult `json:"results"`
}

// Summary counts results by status
type Summary struct {
	Total        int `json:"total"`
	Supported    int `json:"supported"`
	Contradicted int `json:"contradicted"`
	Neutral      int `json:"neutral"`
	Errors       int `json:"errors"`
}

// New builds a report. Sentinel results (no claims, extraction failure)
// are counted like any other result.
func New(input, outcome, batchID string, results []model.ClaimVerificationResult) *Report {
	if results == nil {
		results = []model.ClaimVerificationResult{}
	}
	return &Report{
		Input:       input,
		BatchID:     batchID,
		Outcome:     outcome,
		GeneratedAt: time.Now().UTC(),
		Summary:     Summarize(results),
		Results:     results,
	}
}

// Summarize counts results by status
func Summarize(results []model.ClaimVerificationResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case model.StatusSupported:
			s.Supported++
		case model.StatusContradicted:
			s.Contradicted++
		case model.StatusNeutral:
			s.Neutral++
		case model.StatusError:
			s.Errors++
		}
	}
	return s
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteMarkdown writes a human-readable report
func WriteMarkdown(w io.Writer, r *Report, footer bool) error {
	var sb strings.Builder

	sb.WriteString("# Claim verification report\n\n")
	fmt.Fprintf(&sb, "- **Input:** %s\n", r.Input)
	if r.BatchID != "" {
		fmt.Fprintf(&sb, "- **Batch:** `%s`\n", r.BatchID)
	}
	fmt.Fprintf(&sb, "- **Generated:** %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **Claims:** %d (supported %d, contradicted %d, neutral %d, errors %d)\n\n",
		r.Summary.Total, r.Summary.Supported, r.Summary.Contradicted, r.Summary.Neutral, r.Summary.Errors)

	for i, res := range r.Results {
		writeResult(&sb, i, res)
	}

	if footer {
		sb.WriteString("---\n\n")
		sb.WriteString("_Verdicts are produced by language models over web search evidence. ")
		sb.WriteString("Check the cited sources before relying on them._\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func writeResult(sb *strings.Builder, i int, res model.ClaimVerificationResult) {
	title := res.Claim
	if title == "" {
		title = res.ID
	}
	fmt.Fprintf(sb, "## %d. %s\n\n", i+1, title)
	fmt.Fprintf(sb, "**Status:** %s", statusLabel(res.Status))
	if res.Confidence != nil {
		fmt.Fprintf(sb, " (confidence %.2f)", *res.Confidence)
	}
	sb.WriteString("\n\n")

	if res.Explanation != "" {
		sb.WriteString(res.Explanation + "\n\n")
	}
	if res.Nuance != "" {
		fmt.Fprintf(sb, "> %s\n\n", res.Nuance)
	}
	if res.CorrectedInformation != "" {
		fmt.Fprintf(sb, "**Correction:** %s\n\n", res.CorrectedInformation)
	}
	if res.ErrorMessage != "" {
		fmt.Fprintf(sb, "**Error (%s):** %s\n\n", res.ErrorKind, res.ErrorMessage)
	}
	if res.TrustAnalysis != nil {
		fmt.Fprintf(sb, "**Trust score:** %.2f\n\n", res.TrustAnalysis.Score)
	}

	evidence := model.EvidenceSources(res.Sources)
	if len(evidence) > 0 {
		sb.WriteString("| Source | Authority | Trust |\n|---|---|---|\n")
		for _, src := range evidence {
			trust := "-"
			if src.TrustScore != nil {
				trust = fmt.Sprintf("%.2f", *src.TrustScore)
			}
			name := src.Title
			if src.URL != "" {
				name = fmt.Sprintf("[%s](%s)", escapeCell(src.Title), src.URL)
			}
			if src.Accessible != nil && !*src.Accessible {
				name += " (unreachable)"
			}
			fmt.Fprintf(sb, "| %s | %s | %s |\n", name, src.Authority, trust)
		}
		sb.WriteString("\n")
	}
}

func statusLabel(s model.ClaimStatus) string {
	switch s {
	case model.StatusSupported:
		return "✓ supported"
	case model.StatusContradicted:
		return "✗ contradicted"
	case model.StatusNeutral:
		return "~ neutral"
	default:
		return "! " + string(s)
	}
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ", "[", "(", "]", ")").Replace(s)
}

// WriteFiles writes the JSON and Markdown renderings to the given paths.
// Empty paths are skipped.
func WriteFiles(r *Report, jsonPath, mdPath string, footer bool) error {
	if jsonPath != "" {
		if err := writeFile(jsonPath, func(w io.Writer) error { return WriteJSON(w, r) }); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if mdPath != "" {
		if err := writeFile(mdPath, func(w io.Writer) error { return WriteMarkdown(w, r, footer) }); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	return nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return render(f)
}

// PrintSummary writes the terminal summary block
func PrintSummary(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Verification Summary\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Input:         %s\n", truncate(r.Input, 60))
	fmt.Fprintf(w, "  Claims:        %d\n", r.Summary.Total)
	fmt.Fprintf(w, "  Supported:     %d\n", r.Summary.Supported)
	fmt.Fprintf(w, "  Contradicted:  %d\n", r.Summary.Contradicted)
	fmt.Fprintf(w, "  Neutral:       %d\n", r.Summary.Neutral)
	fmt.Fprintf(w, "  Errors:        %d\n", r.Summary.Errors)
	fmt.Fprintf(w, "\n")

	for _, res := range r.Results {
		claim := res.Claim
		if claim == "" {
			claim = res.Explanation
		}
		fmt.Fprintf(w, "  %-16s %s\n", statusLabel(res.Status), truncate(claim, 70))
	}
	fmt.Fprintf(w, "\n")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
