package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"linemark/internal/classify"
	"linemark/internal/config"
	"linemark/internal/database"
	"linemark/internal/extract"
	"linemark/internal/intake"
	"linemark/internal/notes"
	"linemark/internal/server"
	"linemark/internal/workflow"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "linemark",
	Short:   "Chat-driven article bookmarking with a Kanban reading board",
	Long:    "linemark saves article URLs sent over chat, extracts their metadata, and tracks reading progress on a Kanban board.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// .env is optional; real deployments set the environment directly.
		godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(refetchCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(statusCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("linemark", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/linemark/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to adjust categories, score weights, and the server port.")
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook and dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		cls := classify.New(cfg)
		pipe := intake.New(db, extract.New(cfg), cls, cfg.Intake.TrackingParams)
		engine := workflow.New(db, cls)

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, engine, pipe, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- add command ---

var addCmd = &cobra.Command{
	Use:   "add <owner> <text>",
	Short: "Save every URL found in the given text",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := newPipeline(db)
		result := pipe.SubmitText(context.Background(), args[0], args[1])

		fmt.Printf("Saved: %d new, %d duplicate, %d invalid\n",
			result.Submitted, result.Duplicates, result.Invalid)
		for _, a := range result.Articles {
			marker := ""
			if a.FetchStatus == "failed" {
				marker = fmt.Sprintf("  (fetch failed: %s)", a.FetchReason)
			}
			fmt.Printf("  [%s] %s%s\n", a.Stage, a.Title, marker)
		}
		return nil
	},
}

// --- list command ---

var (
	listStage    string
	listArchived bool
)

var listCmd = &cobra.Command{
	Use:   "list <owner>",
	Short: "List an owner's articles, highest score first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		filter := database.Filter{Archived: &listArchived}
		if listStage != "" {
			stage, err := database.ParseStage(listStage)
			if err != nil {
				return fmt.Errorf("unknown stage %q (valid: inbox, reading, reviewing, completed)", listStage)
			}
			filter.Stage = &stage
		}

		articles, err := db.QueryArticles(args[0], filter)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("No articles found.")
			return nil
		}

		for _, a := range articles {
			fmt.Printf("%-36s  %4d  %-9s  %s\n", a.ID, a.Score, a.Stage, a.Title)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStage, "stage", "", "Filter by stage")
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "Show archived articles")
}

// --- move command ---

var moveCmd = &cobra.Command{
	Use:   "move <owner> <article-id> <stage>",
	Short: "Move an article to another stage",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		engine := workflow.New(db, classify.New(cfg))
		article, err := engine.Move(args[0], args[1], args[2], time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Moved %q to %s (score %d)\n", article.Title, article.Stage, article.Score)
		return nil
	},
}

// --- archive command ---

var archiveUndo bool

var archiveCmd = &cobra.Command{
	Use:   "archive <owner> <article-id>",
	Short: "Archive an article (soft delete)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.SetArchived(args[0], args[1], !archiveUndo); err != nil {
			return err
		}
		if archiveUndo {
			fmt.Println("Article unarchived.")
		} else {
			fmt.Println("Article archived.")
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveUndo, "undo", false, "Unarchive instead")
}

// --- refetch command ---

var refetchCmd = &cobra.Command{
	Use:   "refetch <owner> <article-id>",
	Short: "Re-run metadata extraction for an article",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		article, err := newPipeline(db).Refetch(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		if article.FetchStatus == "failed" {
			fmt.Printf("Fetch failed again (%s); kept previous metadata.\n", article.FetchReason)
			return nil
		}
		fmt.Printf("Refetched %q: %d words, %d min, category %s\n",
			article.Title, article.WordCount, article.ReadingTime, article.Category)
		return nil
	},
}

// --- notes command ---

var notesCmd = &cobra.Command{
	Use:   "notes <owner> <article-id>",
	Short: "Print study notes for an article",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		article, err := db.GetArticle(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Print(notes.Build(article))
		return nil
	},
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Articles:")
		fmt.Printf("  Total saved: %d\n", stats.TotalArticles)
		for _, stage := range database.Stages {
			fmt.Printf("  %-10s %d\n", stage+":", stats.ByStage[stage])
		}
		fmt.Printf("  Archived: %d\n", stats.Archived)
		fmt.Printf("  Fetch failures pending retry: %d\n", stats.FetchFailed)
		fmt.Printf("\nOwners: %d\n", stats.Owners)
		fmt.Printf("Database: %s\n", db.Path())
		return nil
	},
}

func newPipeline(db *database.DB) *intake.Pipeline {
	return intake.New(db, extract.New(cfg), classify.New(cfg), cfg.Intake.TrackingParams)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(filepath.Join(dataDir, "linemark.db"))
}
