// Package input turns a user reference (literal text, file, PDF, URL or
// stdin) into plain text ready for claim extraction.
package input

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/claimtrace/internal/extract"
)

// ErrEmptyDocument is returned when a source yields no text
var ErrEmptyDocument = errors.New("no extractable text")

// Kind identifies where a document came from
type Kind string

const (
	KindText  Kind = "text"
	KindStdin Kind = "stdin"
	KindFile  Kind = "file"
	KindPDF   Kind = "pdf"
	KindHTML  Kind = "html"
	KindURL   Kind = "url"
)

// Document is loaded input text
type Document struct {
	Ref       string
	Kind      Kind
	Title     string
	Text      string
	Truncated bool
}

// Loader resolves input references
type Loader struct {
	fetcher  *Fetcher
	maxChars int
	stdin    io.Reader
}

// NewLoader creates a loader. maxChars <= 0 disables truncation.
func NewLoader(fetcher *Fetcher, maxChars int, stdin io.Reader) *Loader {
	if stdin == nil {
		stdin = os.Stdin
	}
	return &Loader{fetcher: fetcher, maxChars: maxChars, stdin: stdin}
}

// Load resolves ref. "-" reads stdin, http(s) references are fetched,
// existing paths are read from disk and anything else is literal text.
func (l *Loader) Load(ctx context.Context, ref string) (*Document, error) {
	doc, err := l.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" && doc.Kind != KindText {
		return nil, fmt.Errorf("load %s: %w", ref, ErrEmptyDocument)
	}
	doc.Text, doc.Truncated = truncate(doc.Text, l.maxChars)
	return doc, nil
}

func (l *Loader) load(ctx context.Context, ref string) (*Document, error) {
	switch {
	case ref == "-":
		b, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &Document{Ref: ref, Kind: KindStdin, Text: string(b)}, nil

	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return l.loadURL(ctx, ref)
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return loadFile(ref)
	}
	return &Document{Ref: "text", Kind: KindText, Text: ref}, nil
}

func loadFile(path string) (*Document, error) {
	title := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := PDFFileText(path)
		if err != nil {
			return nil, err
		}
		return &Document{Ref: path, Kind: KindPDF, Title: title, Text: text}, nil
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		text, err := extract.VisibleText(f)
		if err != nil {
			return nil, err
		}
		return &Document{Ref: path, Kind: KindHTML, Title: title, Text: text}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return &Document{Ref: path, Kind: KindFile, Title: title, Text: string(b)}, nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (*Document, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("load %s: URL inputs are not enabled", rawURL)
	}

	res, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc := &Document{Ref: res.FinalURL, Kind: KindURL, Title: res.Subject}
	contentType := strings.ToLower(res.ContentType)
	switch {
	case strings.Contains(contentType, "pdf") || strings.HasSuffix(strings.ToLower(res.FinalURL), ".pdf"):
		doc.Text, err = PDFText(res.Body)
	case strings.Contains(contentType, "html") || looksLikeHTML(res.Body):
		doc.Text, err = extract.VisibleText(bytes.NewReader(res.Body))
	default:
		doc.Text = string(res.Body)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func looksLikeHTML(b []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(b[:min(len(b), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// truncate caps text at maxChars runes, backing up to the last space when
// one is close.
func truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}

	runes := []rune(text)
	cut := string(runes[:maxChars])
	if i := strings.LastIndexAny(cut, " \n\t"); i > len(cut)*9/10 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut), true
}
