package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// MinContentLength is the threshold below which extracted text is treated as
// absent. Articles are never persisted with less content than this.
const MinContentLength = 200

const (
	minBlockCount  = 3
	minBlockLength = 40
	maxBlocks      = 12
)

var (
	// ErrNoContent signals that neither extraction strategy produced text.
	ErrNoContent = errors.New("no content extracted")
	// ErrTooShort signals that extracted text did not reach MinContentLength.
	ErrTooShort = errors.New("extracted content too short")
)

// contentSelectors is tried in order during heuristic fallback, publisher
// specific patterns first, generic paragraph selectors last. The first
// selector matching at least minBlockCount blocks wins.
var contentSelectors = []string{
	`[data-component="text-block"]`,
	`.ssrcss-1q0x1qg-Paragraph`,
	`.story-body__inner p`,
	`.zn-body__paragraph`,
	`.el__leafmedia--sourced-paragraph`,
	`.StandardArticleBody_body p`,
	`article p`,
	`.article-content p`,
	`.entry-content p`,
	`.post-content p`,
	`p`,
}

var strippedTags = []string{"script", "style", "nav", "header", "footer", "aside", "iframe"}

type Extractor struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewExtractor(httpClient *http.Client, userAgent string, timeout time.Duration) *Extractor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Run retrieves the article at pageURL and returns its plain-text body.
// It downloads the page once, attempts readability extraction first and falls
// back to selector-based scraping of the same document. Absence of usable
// content is always reported through ErrNoContent or ErrTooShort, never as an
// empty string with a nil error.
func (e *Extractor) Run(ctx context.Context, pageURL string) (string, error) {
	data, err := e.fetch(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}

	if text, err := e.extractReadable(data, pageURL); err == nil {
		return text, nil
	} else {
		slog.Debug("Readability extraction failed, trying fallback", "url", pageURL, "error", err)
	}

	text, err := e.extractFallback(data)
	if err != nil {
		return "", err
	}

	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// extractReadable runs the structured readability extraction over the
// downloaded document.
func (e *Extractor) extractReadable(data []byte, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid article URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) <= MinContentLength {
		return "", ErrTooShort
	}

	slog.Debug("Content extracted via readability", "url", pageURL, "content_length", len(text))
	return text, nil
}

// extractFallback scrapes paragraph blocks out of the raw HTML using the
// prioritized selector list.
func (e *Extractor) extractFallback(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(strings.Join(strippedTags, ", ")).Remove()

	var blocks []string
	for _, selector := range contentSelectors {
		elements := doc.Find(selector)
		if elements.Length() < minBlockCount {
			continue
		}

		elements.Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > minBlockLength {
				blocks = append(blocks, text)
			}
		})

		if len(blocks) > 0 {
			break
		}
	}

	if len(blocks) == 0 {
		return "", ErrNoContent
	}

	if len(blocks) > maxBlocks {
		blocks = blocks[:maxBlocks]
	}

	text := strings.TrimSpace(strings.Join(blocks, "\n\n"))
	if len(text) <= MinContentLength {
		return "", ErrTooShort
	}

	return text, nil
}
