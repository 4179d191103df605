// Package extract fetches an article URL and derives the metadata stored
// with the bookmark: title, author, description, and reading metrics.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"linemark/internal/config"
)

// maxBodyBytes caps how much of a response we read. Articles beyond this
// are counted from the truncated text.
const maxBodyBytes = 2 << 20

// Failure reason codes, kept on the record for diagnostics and retry.
const (
	ReasonUnreachable        = "unreachable"
	ReasonTimeout            = "timeout"
	ReasonUnsupportedContent = "unsupported_content_type"
)

// HTTPErrorReason builds the reason code for a non-2xx response.
func HTTPErrorReason(code int) string {
	return fmt.Sprintf("http_error:%d", code)
}

// Failure describes why extraction produced no metadata. It is absorbed by
// the intake pipeline, never propagated as a submission error.
type Failure struct {
	Reason string
}

func (f *Failure) Error() string {
	return "extraction failed: " + f.Reason
}

// Metadata holds everything extraction derives from a page.
type Metadata struct {
	Title       string
	Author      string
	Description string
	TextContent string
	WordCount   int
	ReadingTime int // minutes
}

// Extractor fetches article pages with a bounded-time HTTP client.
type Extractor struct {
	client    *http.Client
	userAgent string
	wpm       int
}

// New creates an Extractor from configuration.
func New(cfg *config.Config) *Extractor {
	wpm := cfg.Extraction.ReadingSpeedWPM
	if wpm <= 0 {
		wpm = 200
	}
	return &Extractor{
		client: &http.Client{
			Timeout: cfg.ExtractTimeout(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: cfg.Extraction.UserAgent,
		wpm:       wpm,
	}
}

// Extract fetches a normalized URL and parses its metadata. Exactly one of
// the return values is non-nil. Re-running it for the same URL is safe; it
// holds no state between calls.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (*Metadata, *Failure) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return nil, &Failure{Reason: ReasonUnreachable}
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &Failure{Reason: ReasonTimeout}
		}
		return nil, &Failure{Reason: ReasonUnreachable}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{Reason: HTTPErrorReason(resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return nil, &Failure{Reason: ReasonUnsupportedContent}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, &Failure{Reason: ReasonTimeout}
		}
		return nil, &Failure{Reason: ReasonUnreachable}
	}

	meta := e.parse(body, articleURL)
	return meta, nil
}

// parse derives metadata from the page: goquery for the head tags,
// readability for the main text.
func (e *Extractor) parse(body []byte, articleURL string) *Metadata {
	meta := &Metadata{}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		meta.Title = firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		)
		meta.Description = firstNonEmpty(
			metaContent(doc, `meta[name="description"]`),
			metaContent(doc, `meta[property="og:description"]`),
		)
		meta.Author = firstNonEmpty(
			metaContent(doc, `meta[name="author"]`),
			metaContent(doc, `meta[property="article:author"]`),
		)
	}

	if parsedURL, err := url.Parse(articleURL); err == nil {
		if article, err := readability.FromReader(bytes.NewReader(body), parsedURL); err == nil {
			meta.TextContent = strings.TrimSpace(article.TextContent)
			if meta.Title == "" {
				meta.Title = strings.TrimSpace(article.Title)
			}
			if meta.Author == "" {
				meta.Author = strings.TrimSpace(article.Byline)
			}
			if meta.Description == "" {
				meta.Description = strings.TrimSpace(article.Excerpt)
			}
		}
	}

	meta.WordCount = len(strings.Fields(meta.TextContent))
	meta.ReadingTime = readingTime(meta.WordCount, e.wpm)
	return meta
}

// readingTime is word count over reading speed, rounded up, minimum 1.
func readingTime(words, wpm int) int {
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
