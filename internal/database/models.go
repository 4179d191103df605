package database

import "errors"

// Store-surface errors. Callers distinguish them with errors.Is.
var (
	// ErrNotFound is returned when no article matches an owner/id pair.
	ErrNotFound = errors.New("article not found")
	// ErrInvalidStage is returned for a stage value outside the Kanban
	// enumeration. Nothing is applied when it is returned.
	ErrInvalidStage = errors.New("invalid stage")
)

// Stage is one of the four Kanban workflow states. Any other string is
// rejected at the boundary by ParseStage.
type Stage string

const (
	StageInbox     Stage = "inbox"
	StageReading   Stage = "reading"
	StageReviewing Stage = "reviewing"
	StageCompleted Stage = "completed"
)

// Stages lists the valid stages in board order.
var Stages = []Stage{StageInbox, StageReading, StageReviewing, StageCompleted}

// ParseStage validates a raw stage string against the closed enumeration.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	for _, valid := range Stages {
		if s == valid {
			return s, nil
		}
	}
	return "", ErrInvalidStage
}

// Article is a saved bookmark owned by a single user.
type Article struct {
	ID             string
	OwnerID        string
	URL            string // original submitted URL
	URLFingerprint string // hash of the normalized URL, dedup key
	Title          string
	Author         string
	Description    string
	Category       string
	WordCount      int
	ReadingTime    int // minutes
	Stage          Stage
	Score          int
	FetchStatus    string // "ok" or "failed"
	FetchReason    string // failure reason code, empty on success
	Archived       bool
	CreatedAt      string
	UpdatedAt      string
}

// NewArticle carries the fields of an article about to be inserted.
type NewArticle struct {
	OwnerID        string
	URL            string
	URLFingerprint string
	Title          string
	Author         string
	Description    string
	Category       string
	WordCount      int
	ReadingTime    int
	Score          int
	FetchStatus    string
	FetchReason    string
}

// Extraction carries the re-extraction writeback fields.
type Extraction struct {
	Title       string
	Author      string
	Description string
	Category    string
	WordCount   int
	ReadingTime int
	Score       int
	FetchStatus string
	FetchReason string
}

// Filter narrows QueryArticles results. Nil fields match everything.
type Filter struct {
	Stage    *Stage
	Archived *bool
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles int
	ByStage       map[Stage]int
	Archived      int
	FetchFailed   int
	Owners        int
}
