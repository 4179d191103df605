package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"linemark/internal/database"
	"linemark/internal/urlnorm"
)

// articleJSON is the dashboard wire shape of an article.
type articleJSON struct {
	ID                 string `json:"id"`
	URL                string `json:"url"`
	Title              string `json:"title"`
	Author             string `json:"author,omitempty"`
	Description        string `json:"description,omitempty"`
	Category           string `json:"category"`
	WordCount          int    `json:"word_count"`
	ReadingTimeMinutes int    `json:"reading_time_minutes"`
	Stage              string `json:"stage"`
	Score              int    `json:"score"`
	FetchStatus        string `json:"fetch_status"`
	FetchReason        string `json:"fetch_reason,omitempty"`
	Archived           bool   `json:"archived"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func toJSON(a *database.Article) articleJSON {
	return articleJSON{
		ID:                 a.ID,
		URL:                a.URL,
		Title:              a.Title,
		Author:             a.Author,
		Description:        a.Description,
		Category:           a.Category,
		WordCount:          a.WordCount,
		ReadingTimeMinutes: a.ReadingTime,
		Stage:              string(a.Stage),
		Score:              a.Score,
		FetchStatus:        a.FetchStatus,
		FetchReason:        a.FetchReason,
		Archived:           a.Archived,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

// handleWebhook accepts chat messages. Each event carries the sender and
// the raw message text; every URL found in the text is submitted. Per-URL
// failures are absorbed, so a well-formed payload always gets a 200.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Events []struct {
			OwnerID string `json:"owner_id"`
			Text    string `json:"text"`
		} `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	saved := 0
	duplicates := 0
	for _, ev := range payload.Events {
		if ev.OwnerID == "" {
			continue
		}
		result := s.pipeline.SubmitText(r.Context(), ev.OwnerID, ev.Text)
		saved += result.Submitted
		duplicates += result.Duplicates
	}

	writeJSON(w, http.StatusOK, map[string]int{"saved": saved, "duplicates": duplicates})
}

// handleArticles serves GET /api/articles (query) and POST /api/articles
// (direct intake from the dashboard).
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleQueryArticles(w, r)
	case http.MethodPost:
		s.handleSubmitArticles(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleQueryArticles(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query parameter required", http.StatusBadRequest)
		return
	}

	var filter database.Filter
	if raw := r.URL.Query().Get("stage"); raw != "" {
		stage, err := database.ParseStage(raw)
		if err != nil {
			http.Error(w, "invalid stage", http.StatusBadRequest)
			return
		}
		filter.Stage = &stage
	}
	if raw := r.URL.Query().Get("archived"); raw != "" {
		archived := raw == "true" || raw == "1"
		filter.Archived = &archived
	}

	articles, err := s.db.QueryArticles(owner, filter)
	if err != nil {
		log.Printf("querying articles for %s: %v", owner, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]articleJSON, 0, len(articles))
	for i := range articles {
		out = append(out, toJSON(&articles[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": out})
}

func (s *Server) handleSubmitArticles(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Owner string `json:"owner"`
		Text  string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Owner == "" {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	result := s.pipeline.SubmitText(r.Context(), payload.Owner, payload.Text)
	out := make([]articleJSON, 0, len(result.Articles))
	for i := range result.Articles {
		out = append(out, toJSON(&result.Articles[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saved":      result.Submitted,
		"duplicates": result.Duplicates,
		"invalid":    result.Invalid,
		"articles":   out,
	})
}

// handleArticleAction routes POST /api/articles/{id}/{stage|archive|unarchive|refetch}.
func (s *Server) handleArticleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id, action := parts[0], parts[1]

	var payload struct {
		Owner string `json:"owner"`
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Owner == "" {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	switch action {
	case "stage":
		article, err := s.engine.Move(payload.Owner, id, payload.Stage, now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSON(article))
	case "archive", "unarchive":
		if err := s.db.SetArchived(payload.Owner, id, action == "archive"); err != nil {
			writeError(w, err)
			return
		}
		article, err := s.db.GetArticle(payload.Owner, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSON(article))
	case "refetch":
		article, err := s.pipeline.Refetch(r.Context(), payload.Owner, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toJSON(article))
	default:
		http.NotFound(w, r)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, "article not found", http.StatusNotFound)
	case errors.Is(err, database.ErrInvalidStage):
		http.Error(w, "invalid stage", http.StatusBadRequest)
	case errors.Is(err, urlnorm.ErrInvalidURL):
		http.Error(w, "invalid url", http.StatusBadRequest)
	default:
		log.Printf("api error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
