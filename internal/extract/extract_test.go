package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMExtractor_Extract(t *testing.T) {
	mock := &llm.MockProvider{Responses: []string{"```json\n" +
		`{"claims": ["The sky is blue.", " ", "Paris is in France.", "the sky is blue."]}` + "\n```"}}

	claims, err := NewLLMExtractor(mock).Extract(context.Background(), "The sky is blue. Paris is in France.")
	require.NoError(t, err)
	assert.Equal(t, []string{"The sky is blue.", "Paris is in France."}, claims)
	assert.Contains(t, mock.Requests()[0].Prompt, "Paris is in France.")
}

func TestLLMExtractor_NoClaimsIsNotAnError(t *testing.T) {
	mock := &llm.MockProvider{Responses: []string{`{"claims": []}`}}

	claims, err := NewLLMExtractor(mock).Extract(context.Background(), "Hello there!")
	require.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Empty(t, claims)
}

func TestLLMExtractor_Errors(t *testing.T) {
	_, err := NewLLMExtractor(&llm.MockProvider{Err: errors.New("401 unauthorized")}).Extract(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, llm.ErrorPermanent, llm.ClassifyError(err))

	_, err = NewLLMExtractor(&llm.MockProvider{Responses: []string{"no json here"}}).Extract(context.Background(), "x")
	assert.ErrorIs(t, err, llm.ErrNoJSON)
}

func TestHeuristicExtractor_Extract(t *testing.T) {
	text := `The sky is blue. Is Paris in France? Hello!
	The Eiffel Tower opened in 1889. Laksa originated in Malaysia. Wow, amazing views everywhere.`

	claims, err := NewHeuristicExtractor().Extract(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The sky is blue.",
		"The Eiffel Tower opened in 1889.",
		"Laksa originated in Malaysia.",
	}, claims)
}

func TestHeuristicExtractor_Dedupes(t *testing.T) {
	claims, err := NewHeuristicExtractor().Extract(context.Background(), "Water is wet. water is wet. Water is wet.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Water is wet."}, claims)
}

func TestHeuristicExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHeuristicExtractor().Extract(ctx, "The sky is blue.")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("Short. This sentence is long enough.\nAnother one follows here! e.g.this stays", 12, 500)
	assert.Equal(t, []string{
		"This sentence is long enough.",
		"Another one follows here!",
		"e.g.this stays",
	}, sentences)

	long := strings.Repeat("a", 600) + "."
	assert.Empty(t, splitSentences(long, 12, 500))
}

func TestVisibleText(t *testing.T) {
	page := `<html><head><style>p{}</style><script>var x = 1;</script></head>
<body><h1>Paris</h1><p>Paris is the capital of France.</p><noscript>enable js</noscript><p>It has 2 million people.</p></body></html>`

	text, err := VisibleText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Contains(t, text, "Paris is the capital of France.")
	assert.Contains(t, text, "It has 2 million people.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "enable js")
}
