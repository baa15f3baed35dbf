package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/aktagon/llmkit/anthropic"
)

// HTTPError is a non-success status from a context fetch.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// ContextFetcher pulls source material for a run from a remote URL. HTML
// pages are converted to markdown; PDF responses are uploaded to Anthropic's
// Files API and referenced by ID in the write stage.
type ContextFetcher struct {
	client       *http.Client
	converter    *md.Converter
	anthropicKey string
}

func NewContextFetcher(client *http.Client, anthropicKey string) *ContextFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ContextFetcher{
		client:       client,
		converter:    md.NewConverter("", true, nil),
		anthropicKey: anthropicKey,
	}
}

// Fetch downloads the URL and converts it into a ContextResult.
func (f *ContextFetcher) Fetch(ctx context.Context, url string) (*ContextResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	if isPDF(url, resp) {
		return f.handlePDF(resp)
	}
	return f.handleHTML(resp)
}

// FromFile reads a local file into a ContextResult. PDFs take the same upload
// path as fetched ones; anything else is read as text.
func (f *ContextFetcher) FromFile(path string) (*ContextResult, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		file, err := anthropic.UploadFile(path, f.anthropicKey)
		if err != nil {
			return nil, fmt.Errorf("uploading PDF file: %w", err)
		}
		return &ContextResult{FileID: file.ID}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}
	return &ContextResult{Text: string(data)}, nil
}

func isPDF(url string, resp *http.Response) bool {
	if strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return true
	}
	return strings.Contains(resp.Header.Get("Content-Type"), "application/pdf")
}

func (f *ContextFetcher) handleHTML(resp *http.Response) (*ContextResult, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	markdown, err := f.converter.ConvertString(string(body))
	if err != nil {
		return nil, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return &ContextResult{Text: markdown}, nil
}

func (f *ContextFetcher) handlePDF(resp *http.Response) (*ContextResult, error) {
	tempFile, err := os.CreateTemp("", "context-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		tempFile.Close()
		return nil, fmt.Errorf("downloading PDF content: %w", err)
	}
	tempFile.Close()

	file, err := anthropic.UploadFile(tempFile.Name(), f.anthropicKey)
	if err != nil {
		return nil, fmt.Errorf("uploading PDF file: %w", err)
	}
	return &ContextResult{FileID: file.ID}, nil
}
