package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"linemark/internal/database"
	"linemark/internal/intake"
	"linemark/internal/notes"
	"linemark/internal/workflow"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server exposes the intake webhook, the dashboard API, and the Kanban
// board pages. It is a thin adapter: every operation goes through the
// intake pipeline or the workflow engine.
type Server struct {
	db       *database.DB
	engine   *workflow.Engine
	pipeline *intake.Pipeline
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, engine *workflow.Engine, pipeline *intake.Pipeline) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	// Parse base template first, then clone it per page so each page gets
	// its own {{define "content"}}.
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"board.html", "article.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, engine: engine, pipeline: pipeline, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve builds a Server and blocks on ListenAndServe.
func Serve(db *database.DB, engine *workflow.Engine, pipeline *intake.Pipeline, port int) error {
	s, err := New(db, engine, pipeline)
	if err != nil {
		return err
	}
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.Handler())
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/webhook", s.handleWebhook)
	s.mux.HandleFunc("/api/articles", s.handleArticles)
	s.mux.HandleFunc("/api/articles/", s.handleArticleAction)
	s.mux.HandleFunc("/board", s.handleBoard)
	s.mux.HandleFunc("/article/", s.handleArticlePage)
	s.mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query parameter required", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/board?owner="+owner, http.StatusFound)
}

// board column shown per stage.
type boardColumn struct {
	Stage    database.Stage
	Articles []database.Article
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query parameter required", http.StatusBadRequest)
		return
	}

	active := false
	articles, err := s.db.QueryArticles(owner, database.Filter{Archived: &active})
	if err != nil {
		log.Printf("querying board for %s: %v", owner, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	byStage := make(map[database.Stage][]database.Article)
	for _, a := range articles {
		byStage[a.Stage] = append(byStage[a.Stage], a)
	}
	columns := make([]boardColumn, 0, len(database.Stages))
	for _, stage := range database.Stages {
		columns = append(columns, boardColumn{Stage: stage, Articles: byStage[stage]})
	}

	s.render(w, "board.html", map[string]any{
		"Owner":   owner,
		"Columns": columns,
		"Total":   len(articles),
	})
}

func (s *Server) handleArticlePage(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/article/")
	owner := r.URL.Query().Get("owner")
	if id == "" || owner == "" {
		http.NotFound(w, r)
		return
	}

	article, err := s.db.GetArticle(owner, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, "article.html", map[string]any{
		"Owner":   owner,
		"Article": article,
		"Notes":   renderMarkdown(notes.Build(article)),
	})
}

func (s *Server) render(w http.ResponseWriter, page string, data map[string]any) {
	tmpl, ok := s.pages[page]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("rendering %s: %v", page, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

// now is a seam for tests that pin the scoring clock.
var now = time.Now
