package classify

import (
	"testing"
	"time"

	"linemark/internal/config"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return New(config.Default())
}

func TestClassifyByKeywords(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name  string
		title string
		text  string
		want  string
	}{
		{"programming article", "A Golang tutorial", "Writing idiomatic code with the standard library", "Programming"},
		{"business article", "Market outlook", "Finance and economy commentary on investment trends", "Business"},
		{"health article", "Nutrition basics", "Medical advice on fitness and wellness", "Health"},
		{"no keywords", "Untitled", "Nothing matching any table entry here", DefaultCategory},
		{"empty input", "", "", DefaultCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.title, tt.text); got != tt.want {
				t.Errorf("Classify(%q, ...) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestClassifyTitleWeighsDouble(t *testing.T) {
	c := newTestClassifier(t)
	// One title hit (x2) should beat one body hit.
	got := c.Classify("golang tips", "finance")
	if got != "Programming" {
		t.Errorf("expected title match to win, got %q", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier(t)
	first := c.Classify("science and business", "research market")
	for i := 0; i < 10; i++ {
		if got := c.Classify("science and business", "research market"); got != first {
			t.Fatalf("classification not deterministic: %q vs %q", got, first)
		}
	}
}

func TestScoreMonotonicInWordCount(t *testing.T) {
	c := newTestClassifier(t)
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	prev := -1
	for _, words := range []int{0, 100, 500, 1000, 1500, 5000} {
		s := c.Score(ScoreInput{Category: "Technology", Stage: "inbox", WordCount: words}, now)
		if s < prev {
			t.Errorf("score decreased with word count %d: %d < %d", words, s, prev)
		}
		prev = s
	}
}

func TestScoreWithinRange(t *testing.T) {
	c := newTestClassifier(t)
	morning := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	s := c.Score(ScoreInput{Category: "AI", Stage: "reading", WordCount: 100000}, morning)
	if s < 0 || s > 1000 {
		t.Errorf("score out of range: %d", s)
	}
}

func TestScoreTimeOfDayBonus(t *testing.T) {
	c := newTestClassifier(t)
	in := ScoreInput{Category: "Technology", Stage: "inbox", WordCount: 500}

	morning := c.Score(in, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	evening := c.Score(in, time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))
	midday := c.Score(in, time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC))

	if morning-midday != 100 {
		t.Errorf("expected morning bonus 100, got %d", morning-midday)
	}
	if evening-midday != 80 {
		t.Errorf("expected evening bonus 80, got %d", evening-midday)
	}
}

func TestScoreStageBonus(t *testing.T) {
	c := newTestClassifier(t)
	now := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)

	inbox := c.Score(ScoreInput{Category: "General", Stage: "inbox", WordCount: 0}, now)
	reading := c.Score(ScoreInput{Category: "General", Stage: "reading", WordCount: 0}, now)
	reviewing := c.Score(ScoreInput{Category: "General", Stage: "reviewing", WordCount: 0}, now)

	if reading-inbox != 30 {
		t.Errorf("expected reading bonus 30, got %d", reading-inbox)
	}
	if reviewing-inbox != 20 {
		t.Errorf("expected reviewing bonus 20, got %d", reviewing-inbox)
	}
}

func TestScorePure(t *testing.T) {
	c := newTestClassifier(t)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	in := ScoreInput{Category: "Science", Stage: "reviewing", WordCount: 1234}

	first := c.Score(in, now)
	for i := 0; i < 20; i++ {
		if got := c.Score(in, now); got != first {
			t.Fatalf("score not pure: %d vs %d", got, first)
		}
	}
}
