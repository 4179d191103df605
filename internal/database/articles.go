package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const articleColumns = `id, owner_id, url, url_fingerprint, title, author,
	description, category, word_count, reading_time, stage, score,
	fetch_status, fetch_reason, archived, created_at, updated_at`

// InsertOrGetArticle inserts a new article for (owner, fingerprint) or
// returns the existing one unchanged. The dedup relies on the unique index,
// not a prior select, so two near-simultaneous submissions of the same URL
// cannot both insert.
func (db *DB) InsertOrGetArticle(a NewArticle) (*Article, bool, error) {
	id := uuid.NewString()
	result, err := db.conn.Exec(
		`INSERT INTO articles (id, owner_id, url, url_fingerprint, title, author,
			description, category, word_count, reading_time, stage, score,
			fetch_status, fetch_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'inbox', ?, ?, ?)
		ON CONFLICT(owner_id, url_fingerprint) DO NOTHING`,
		id, a.OwnerID, a.URL, a.URLFingerprint, a.Title, a.Author,
		a.Description, a.Category, a.WordCount, a.ReadingTime, a.Score,
		a.FetchStatus, a.FetchReason,
	)
	if err != nil {
		return nil, false, fmt.Errorf("inserting article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	created := rows == 1

	row := db.conn.QueryRow(
		`SELECT `+articleColumns+` FROM articles
		WHERE owner_id = ? AND url_fingerprint = ?`,
		a.OwnerID, a.URLFingerprint,
	)
	article, err := scanArticle(row)
	if err != nil {
		return nil, false, fmt.Errorf("reading back article: %w", err)
	}
	return article, created, nil
}

// GetArticleByFingerprint returns an owner's article for a dedup key, or
// ErrNotFound. Used to skip extraction for already-saved URLs; creation
// still goes through InsertOrGetArticle's constraint-backed insert.
func (db *DB) GetArticleByFingerprint(ownerID, fingerprint string) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT `+articleColumns+` FROM articles
		WHERE owner_id = ? AND url_fingerprint = ?`,
		ownerID, fingerprint,
	)
	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

// GetArticle returns an owner's article by ID, or ErrNotFound.
func (db *DB) GetArticle(ownerID, id string) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT `+articleColumns+` FROM articles WHERE owner_id = ? AND id = ?`,
		ownerID, id,
	)
	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

// UpdateStage moves an owner's article to a new stage and stores the score
// recomputed for it. Returns ErrNotFound when the owner has no such article.
func (db *DB) UpdateStage(ownerID, id string, stage Stage, score int) error {
	if _, err := ParseStage(string(stage)); err != nil {
		return err
	}
	result, err := db.conn.Exec(
		`UPDATE articles SET stage = ?, score = ?, updated_at = datetime('now')
		WHERE owner_id = ? AND id = ?`,
		string(stage), score, ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("updating stage: %w", err)
	}
	return requireRow(result)
}

// SetArchived toggles the soft-delete flag on an owner's article.
func (db *DB) SetArchived(ownerID, id string, archived bool) error {
	result, err := db.conn.Exec(
		`UPDATE articles SET archived = ?, updated_at = datetime('now')
		WHERE owner_id = ? AND id = ?`,
		boolToInt(archived), ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("updating archived flag: %w", err)
	}
	return requireRow(result)
}

// UpdateExtraction writes re-extraction results back to an owner's article.
// Stage, archived flag, and created_at are untouched, so repeated
// re-extraction of the same URL is safe.
func (db *DB) UpdateExtraction(ownerID, id string, e Extraction) error {
	result, err := db.conn.Exec(
		`UPDATE articles SET title = ?, author = ?, description = ?,
			category = ?, word_count = ?, reading_time = ?, score = ?,
			fetch_status = ?, fetch_reason = ?, updated_at = datetime('now')
		WHERE owner_id = ? AND id = ?`,
		e.Title, e.Author, e.Description, e.Category, e.WordCount,
		e.ReadingTime, e.Score, e.FetchStatus, e.FetchReason, ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("updating extraction: %w", err)
	}
	return requireRow(result)
}

// QueryArticles returns an owner's articles, optionally narrowed by stage
// and archived flag, ordered by score then recency. Every query is scoped
// to one owner; there is no call shape that crosses owners.
func (db *DB) QueryArticles(ownerID string, f Filter) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE owner_id = ?`
	args := []any{ownerID}

	if f.Stage != nil {
		query += " AND stage = ?"
		args = append(args, string(*f.Stage))
	}
	if f.Archived != nil {
		query += " AND archived = ?"
		args = append(args, boolToInt(*f.Archived))
	}
	query += " ORDER BY score DESC, created_at DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInto(a *Article, row rowScanner) error {
	var stage string
	var archived int
	if err := row.Scan(&a.ID, &a.OwnerID, &a.URL, &a.URLFingerprint,
		&a.Title, &a.Author, &a.Description, &a.Category, &a.WordCount,
		&a.ReadingTime, &stage, &a.Score, &a.FetchStatus, &a.FetchReason,
		&archived, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return err
	}
	a.Stage = Stage(stage)
	a.Archived = archived != 0
	return nil
}

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	if err := scanInto(&a, row); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := scanInto(&a, rows); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
