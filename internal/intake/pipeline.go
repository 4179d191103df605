// Package intake turns submitted URLs into stored articles: normalize,
// dedup, extract, classify, insert. A flaky fetch degrades the record
// instead of losing the save.
package intake

import (
	"context"
	"errors"
	"log"
	"net/url"
	"time"

	"linemark/internal/classify"
	"linemark/internal/database"
	"linemark/internal/extract"
	"linemark/internal/urlnorm"
)

// Result holds the per-message outcome of a text submission.
type Result struct {
	Submitted  int // new articles created
	Duplicates int // already-saved URLs, returned unchanged
	Invalid    int // malformed URLs, rejected with no side effect
	Degraded   int // created with placeholder metadata after a failed fetch
	Articles   []database.Article
}

// Pipeline is the article intake path shared by the chat webhook, the
// dashboard, and the CLI.
type Pipeline struct {
	db          *database.DB
	extractor   *extract.Extractor
	cls         *classify.Classifier
	stripParams []string
}

// New creates an intake pipeline.
func New(db *database.DB, extractor *extract.Extractor, cls *classify.Classifier, stripParams []string) *Pipeline {
	return &Pipeline{
		db:          db,
		extractor:   extractor,
		cls:         cls,
		stripParams: stripParams,
	}
}

// Submit saves one URL for an owner. Returns the article and whether it was
// created by this call; resubmitting a saved URL returns the existing record
// with created=false. Malformed URLs fail with urlnorm.ErrInvalidURL before
// any side effect.
func (p *Pipeline) Submit(ctx context.Context, ownerID, rawURL string) (*database.Article, bool, error) {
	normalized, err := urlnorm.Normalize(rawURL, p.stripParams)
	if err != nil {
		return nil, false, err
	}
	fingerprint := urlnorm.Fingerprint(normalized)

	// Already saved: skip the fetch entirely. The insert below still runs
	// ON CONFLICT, so a concurrent first submission cannot double-create.
	if existing, err := p.db.GetArticleByFingerprint(ownerID, fingerprint); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, false, err
	}

	na := database.NewArticle{
		OwnerID:        ownerID,
		URL:            rawURL,
		URLFingerprint: fingerprint,
	}

	meta, fail := p.extractor.Extract(ctx, normalized)
	if fail != nil {
		// Partial record: the save intent survives the failed fetch, and
		// the reason code stays on the record for a later refetch.
		log.Printf("extraction failed for %s: %s", normalized, fail.Reason)
		na.Title = placeholderTitle(normalized)
		na.Category = classify.DefaultCategory
		na.WordCount = 0
		na.ReadingTime = 1
		na.FetchStatus = "failed"
		na.FetchReason = fail.Reason
	} else {
		na.Title = meta.Title
		if na.Title == "" {
			na.Title = placeholderTitle(normalized)
		}
		na.Author = meta.Author
		na.Description = meta.Description
		na.Category = p.cls.Classify(meta.Title, meta.TextContent)
		na.WordCount = meta.WordCount
		na.ReadingTime = meta.ReadingTime
		na.FetchStatus = "ok"
	}

	na.Score = p.cls.Score(classify.ScoreInput{
		Category:  na.Category,
		Stage:     string(database.StageInbox),
		WordCount: na.WordCount,
	}, time.Now())

	return p.db.InsertOrGetArticle(na)
}

// SubmitText extracts every URL from a chat message and submits each one.
// Individual failures never abort the rest of the message.
func (p *Pipeline) SubmitText(ctx context.Context, ownerID, text string) *Result {
	r := &Result{}
	for _, rawURL := range ExtractURLs(text) {
		article, created, err := p.Submit(ctx, ownerID, rawURL)
		if err != nil {
			if errors.Is(err, urlnorm.ErrInvalidURL) {
				r.Invalid++
				continue
			}
			log.Printf("submitting %s for %s: %v", rawURL, ownerID, err)
			r.Invalid++
			continue
		}

		r.Articles = append(r.Articles, *article)
		if !created {
			r.Duplicates++
			continue
		}
		r.Submitted++
		if article.FetchStatus == "failed" {
			r.Degraded++
		}
	}

	if r.Submitted+r.Duplicates+r.Invalid > 0 {
		log.Printf("intake for %s: %d new, %d duplicate, %d invalid, %d degraded",
			ownerID, r.Submitted, r.Duplicates, r.Invalid, r.Degraded)
	}
	return r
}

// Refetch re-runs extraction for a saved article and writes the results
// back. Safe to call repeatedly; stage, archived flag, and created_at are
// never touched.
func (p *Pipeline) Refetch(ctx context.Context, ownerID, articleID string) (*database.Article, error) {
	article, err := p.db.GetArticle(ownerID, articleID)
	if err != nil {
		return nil, err
	}

	normalized, err := urlnorm.Normalize(article.URL, p.stripParams)
	if err != nil {
		return nil, err
	}

	e := database.Extraction{
		Title:       article.Title,
		Author:      article.Author,
		Description: article.Description,
		Category:    article.Category,
		WordCount:   article.WordCount,
		ReadingTime: article.ReadingTime,
	}

	meta, fail := p.extractor.Extract(ctx, normalized)
	if fail != nil {
		// Keep the existing metadata; only the failure marker changes.
		e.FetchStatus = "failed"
		e.FetchReason = fail.Reason
	} else {
		e.Title = meta.Title
		if e.Title == "" {
			e.Title = placeholderTitle(normalized)
		}
		e.Author = meta.Author
		e.Description = meta.Description
		e.Category = p.cls.Classify(meta.Title, meta.TextContent)
		e.WordCount = meta.WordCount
		e.ReadingTime = meta.ReadingTime
		e.FetchStatus = "ok"
	}

	e.Score = p.cls.Score(classify.ScoreInput{
		Category:  e.Category,
		Stage:     string(article.Stage),
		WordCount: e.WordCount,
	}, time.Now())

	if err := p.db.UpdateExtraction(ownerID, articleID, e); err != nil {
		return nil, err
	}
	return p.db.GetArticle(ownerID, articleID)
}

// placeholderTitle is the host of the normalized URL, used when extraction
// yields nothing better.
func placeholderTitle(normalized string) string {
	if u, err := url.Parse(normalized); err == nil && u.Host != "" {
		return u.Host
	}
	return normalized
}
