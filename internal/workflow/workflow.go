// Package workflow moves articles between Kanban stages. Besides validating
// the stage value it recomputes the article's score, since the stage is one
// of the scoring inputs.
package workflow

import (
	"time"

	"linemark/internal/classify"
	"linemark/internal/database"
)

// Engine applies stage transitions. Any stage can move to any other; the
// board is not a one-way pipeline, and completed articles may be reopened.
type Engine struct {
	db  *database.DB
	cls *classify.Classifier
}

// New creates a workflow engine.
func New(db *database.DB, cls *classify.Classifier) *Engine {
	return &Engine{db: db, cls: cls}
}

// Move transitions an owner's article to the stage named by raw.
// Returns database.ErrInvalidStage for values outside the enumeration and
// database.ErrNotFound when the owner has no such article; in both cases
// nothing is applied.
func (e *Engine) Move(ownerID, articleID, raw string, now time.Time) (*database.Article, error) {
	stage, err := database.ParseStage(raw)
	if err != nil {
		return nil, err
	}

	article, err := e.db.GetArticle(ownerID, articleID)
	if err != nil {
		return nil, err
	}

	score := e.cls.Score(classify.ScoreInput{
		Category:  article.Category,
		Stage:     string(stage),
		WordCount: article.WordCount,
	}, now)

	if err := e.db.UpdateStage(ownerID, articleID, stage, score); err != nil {
		return nil, err
	}
	return e.db.GetArticle(ownerID, articleID)
}
