package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimtrace/internal/model"
)

// InputVerifier loads one input reference (text file, URL, PDF) and
// verifies the claims in it
type InputVerifier interface {
	VerifyInput(ctx context.Context, ref string) ([]model.ClaimVerificationResult, error)
}

// InputJob represents the verification of one input reference
type InputJob struct {
	Ref      string
	Verifier InputVerifier
}

// Execute executes the verification job
func (j *InputJob) Execute(ctx context.Context) Result {
	results, err := j.Verifier.VerifyInput(ctx, j.Ref)
	return &InputResult{
		Ref:     j.Ref,
		Results: results,
		Error:   err,
	}
}

// InputResult represents the result of one input verification
type InputResult struct {
	Ref     string
	Results []model.ClaimVerificationResult
	Error   error
}

// GetError returns the error from the input result
func (r *InputResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple inputs concurrently
type BatchProcessor struct {
	verifier    InputVerifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier InputVerifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessRefs verifies inputs concurrently. The result at position i
// belongs to refs[i]; inputs never started because ctx ended carry the
// context error.
func (b *BatchProcessor) ProcessRefs(ctx context.Context, refs []string) []*InputResult {
	out := Map(ctx, b.concurrency, refs, func(ctx context.Context, _ int, ref string) *InputResult {
		job := &InputJob{Ref: ref, Verifier: b.verifier}
		return job.Execute(ctx).(*InputResult)
	})

	for i, res := range out {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = errors.New("input was not processed")
			}
			out[i] = &InputResult{Ref: refs[i], Error: fmt.Errorf("not started: %w", err)}
		}
	}
	return out
}

// ProcessFile reads input references from a file and verifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*InputResult, error) {
	refs, err := ReadRefsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessRefs(ctx, refs), nil
}

// ReadRefsFromFile reads input references from a file (one per line).
// Blank lines and # comments are skipped; duplicates are dropped.
func ReadRefsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var refs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			refs = append(refs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return refs, nil
}
