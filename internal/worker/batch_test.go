package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInputVerifier returns one supported claim per reference, or fails
// for references listed in failing
type fakeInputVerifier struct {
	failing map[string]bool
}

func (f *fakeInputVerifier) VerifyInput(ctx context.Context, ref string) ([]model.ClaimVerificationResult, error) {
	// stagger completion so ordering is actually exercised
	time.Sleep(time.Duration(len(ref)%4) * 3 * time.Millisecond)
	if f.failing[ref] {
		return nil, errors.New("load input: not found")
	}
	return []model.ClaimVerificationResult{{
		ID:                 "batch-0",
		Claim:              "claim from " + ref,
		Status:             model.StatusSupported,
		ProcessingComplete: true,
		OriginalText:       ref,
	}}, nil
}

func writeRefs(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inputs.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func TestBatchProcessor_ProcessRefs(t *testing.T) {
	refs := []string{"notes.txt", "https://example.org/article", "-", "paper.pdf", "x"}
	processor := NewBatchProcessor(&fakeInputVerifier{}, 3)

	results := processor.ProcessRefs(context.Background(), refs)
	require.Len(t, results, len(refs))
	for i, res := range results {
		assert.Equal(t, refs[i], res.Ref)
		require.NoError(t, res.GetError())
		require.Len(t, res.Results, 1)
		assert.Equal(t, "claim from "+refs[i], res.Results[0].Claim)
	}
}

func TestBatchProcessor_FailingInputIsIsolated(t *testing.T) {
	processor := NewBatchProcessor(&fakeInputVerifier{failing: map[string]bool{"missing.txt": true}}, 2)

	results := processor.ProcessRefs(context.Background(), []string{"a.txt", "missing.txt", "b.txt"})
	require.Len(t, results, 3)
	assert.NoError(t, results[0].GetError())
	assert.EqualError(t, results[1].GetError(), "load input: not found")
	assert.Nil(t, results[1].Results)
	assert.NoError(t, results[2].GetError())
}

func TestBatchProcessor_ProcessRefs_Empty(t *testing.T) {
	results := NewBatchProcessor(&fakeInputVerifier{}, 2).ProcessRefs(context.Background(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestReadRefsFromFile(t *testing.T) {
	path := writeRefs(t,
		"# claims to check this week",
		"report.pdf",
		"",
		"   https://example.org/post   ",
		"report.pdf",
		"Water boils at 100 degrees Celsius.",
	)

	refs, err := ReadRefsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf", "https://example.org/post", "Water boils at 100 degrees Celsius."}, refs)
}

func TestReadRefsFromFile_Missing(t *testing.T) {
	_, err := ReadRefsFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open file")
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeRefs(t, "one.txt", "# skip", "two.txt")
	processor := NewBatchProcessor(&fakeInputVerifier{}, 2)

	results, err := processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "one.txt", results[0].Ref)
	assert.Equal(t, "two.txt", results[1].Ref)

	results, err = processor.ProcessFile(context.Background(), writeRefs(t, "", "# only comments"))
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = processor.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read inputs")
}

func TestBatchProcessor_ManyRefs(t *testing.T) {
	refs := make([]string, 60)
	for i := range refs {
		refs[i] = fmt.Sprintf("input-%02d.txt", i)
	}
	processor := NewBatchProcessor(&fakeInputVerifier{}, 2)

	done := make(chan []*InputResult)
	go func() { done <- processor.ProcessRefs(context.Background(), refs) }()

	select {
	case results := <-done:
		require.Len(t, results, len(refs))
		for i, res := range results {
			assert.Equal(t, refs[i], res.Ref)
			assert.NoError(t, res.GetError())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("batch stalled with many refs")
	}
}

func TestBatchProcessor_CancelledKeepsPositions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refs := []string{"a.txt", "b.txt", "c.txt"}
	results := NewBatchProcessor(&fakeInputVerifier{}, 1).ProcessRefs(ctx, refs)
	require.Len(t, results, len(refs))
	for i, res := range results {
		assert.Equal(t, refs[i], res.Ref)
		assert.ErrorIs(t, res.GetError(), context.Canceled)
	}
}
