// Package classify assigns categories to extracted articles and computes
// the priority score used to rank them on the board.
package classify

import (
	"sort"
	"strings"
	"time"

	"linemark/internal/config"
)

// DefaultCategory is assigned when no keyword set matches.
const DefaultCategory = "General"

const (
	minScore = 0
	maxScore = 1000
)

// Classifier holds the immutable keyword and weight tables. Construct one
// per process from config; it carries no mutable state.
type Classifier struct {
	categories map[string][]string
	scoring    config.Scoring
}

// New creates a Classifier from configuration.
func New(cfg *config.Config) *Classifier {
	return &Classifier{
		categories: cfg.Categories,
		scoring:    cfg.Scoring,
	}
}

// Classify picks the category whose keyword set has the most hits in title
// and text. Title hits count double since titles are short and deliberate.
// Ties go to the category with the higher base score, then by name for
// determinism. No hits at all yields DefaultCategory.
func (c *Classifier) Classify(title, text string) string {
	lowerTitle := strings.ToLower(title)
	lowerText := strings.ToLower(text)

	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)

	best := DefaultCategory
	bestHits := 0
	for _, name := range names {
		hits := 0
		for _, kw := range c.categories[name] {
			hits += strings.Count(lowerTitle, kw) * 2
			hits += strings.Count(lowerText, kw)
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && c.baseScore(name) > c.baseScore(best)) {
			best = name
			bestHits = hits
		}
	}
	return best
}

// ScoreInput is everything the scoring function looks at besides the clock.
type ScoreInput struct {
	Category  string
	Stage     string
	WordCount int
}

// Score computes the priority score: base + category weight + time-of-day
// bonus + stage bonus + a saturating word-count term, clamped to
// [0, 1000]. It is a pure function of its inputs; callers pass the clock.
func (c *Classifier) Score(in ScoreInput, now time.Time) int {
	s := c.scoring.Base

	s += c.baseScore(in.Category)
	s += c.timeOfDayBonus(now.Hour())
	s += c.scoring.StageBonuses[in.Stage]
	s += c.wordCountBonus(in.WordCount)

	if s > maxScore {
		s = maxScore
	}
	if s < minScore {
		s = minScore
	}
	return s
}

func (c *Classifier) baseScore(category string) int {
	if v, ok := c.scoring.CategoryScores[category]; ok {
		return v
	}
	return c.scoring.DefaultCategory
}

// timeOfDayBonus favors the morning (06-10) and evening (19-22) reading
// windows from the original prioritization scheme.
func (c *Classifier) timeOfDayBonus(hour int) int {
	switch {
	case hour >= 6 && hour <= 10:
		return c.scoring.MorningBonus
	case hour >= 19 && hour <= 22:
		return c.scoring.EveningBonus
	}
	return 0
}

// wordCountBonus grows linearly with length and saturates at the cap, so
// longer substantive articles never rank below near-empty ones.
func (c *Classifier) wordCountBonus(words int) int {
	if words < 0 {
		words = 0
	}
	divisor := c.scoring.WordCountDivisor
	if divisor <= 0 {
		divisor = 10
	}
	bonus := words / divisor
	if bonus > c.scoring.WordCountCap {
		bonus = c.scoring.WordCountCap
	}
	return bonus
}
