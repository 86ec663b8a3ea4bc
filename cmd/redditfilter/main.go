package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/TobiSchelling/redditfilter/internal/config"
	"github.com/TobiSchelling/redditfilter/internal/database"
	"github.com/TobiSchelling/redditfilter/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
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
	Use:     "redditfilter",
	Short:   "Filter Reddit submission and comment dumps",
	Long:    "redditfilter cleans Reddit submission and comment tables for corpus building: it drops removed, low-score, link-only, duplicate, bot and off-language rows and can anonymize authors.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setLogFlags(verbose)

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
		if path != "" {
			log.Printf("Using config %s", path)
		}
		setLogFlags(verbose || cfg.Logging.Verbose)
		return nil
	},
}

func setLogFlags(verbose bool) {
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("redditfilter", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/redditfilter/",
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
		fmt.Println("Edit it to set thresholds, idioms and output options.")
		return nil
	},
}

// --- run command ---

var (
	commentsFile    string
	submissionsFile string
	outputDir       string
	minScore        int
	minCommentWords int
	idioms          []string
	filterEdited    bool
	filterLanguage  bool
	targetLanguage  string
	replaceURLs     bool
	anonymizeOutput bool
	sqlitePath      string
	writeReport     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Filter a submissions and a comments file into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRunFlags(cmd, cfg); err != nil {
			return err
		}

		pipe := pipeline.New(pipeline.OptionsFromConfig(cfg), nil)
		result, err := pipe.Execute(commentsFile, submissionsFile)
		if err != nil {
			return err
		}

		printSteps("Submissions", result.SubmissionSteps)
		printSteps("Comments", result.CommentSteps)

		fmt.Println("\nOutput:")
		for _, path := range result.Outputs {
			fmt.Printf("  %s\n", path)
		}
		if cfg.Output.SQLite != "" {
			fmt.Printf("  run %s recorded in %s\n", result.RunID, cfg.Output.SQLite)
		}
		return nil
	},
}

func init() {
	bindRunFlags(runCmd.Flags())
	runCmd.MarkFlagRequired("comments-file")
	runCmd.MarkFlagRequired("submissions-file")
}

func bindRunFlags(f *pflag.FlagSet) {
	f.StringVar(&commentsFile, "comments-file", "", "Comments input (csv, tsv or jsonl, optionally .zst)")
	f.StringVar(&submissionsFile, "submissions-file", "", "Submissions input (csv, tsv or jsonl, optionally .zst)")
	f.StringVarP(&outputDir, "output-dir", "o", "./filtered_data", "Directory for filtered output")
	f.IntVar(&minScore, "min-score", 2, "Minimum score for posts and comments")
	f.IntVar(&minCommentWords, "min-comment-words", 10, "Minimum words per comment")
	// Idioms may contain commas, so each flag carries exactly one phrase.
	f.StringArrayVar(&idioms, "idioms", nil, "Phrase that drops a comment (repeatable)")
	f.BoolVar(&filterEdited, "filter-edited", false, "Keep only edited comments")
	f.BoolVar(&filterLanguage, "filter-language", false, "Keep only rows in the target language")
	f.StringVar(&targetLanguage, "target-language", "en", "ISO 639-1 code for the language filter")
	f.BoolVar(&replaceURLs, "replace-urls", false, "Replace links in kept text with <URL>")
	f.BoolVar(&anonymizeOutput, "anonymize", false, "Hash authors and redact emails, phone numbers and mentions")
	f.StringVar(&sqlitePath, "sqlite", "", "Record the run and kept rows in this SQLite database")
	f.BoolVar(&writeReport, "report", false, "Write filter_report.md and filter_report.html")
}

// applyRunFlags copies explicitly set run flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if f.Changed("min-score") {
		cfg.Filters.MinScore = minScore
	}
	if f.Changed("min-comment-words") {
		cfg.Filters.MinCommentWords = minCommentWords
	}
	if f.Changed("idioms") {
		cfg.Filters.Idioms = idioms
	}
	if f.Changed("filter-edited") {
		cfg.Filters.FilterEdited = filterEdited
	}
	if f.Changed("filter-language") {
		cfg.Filters.FilterLanguage = filterLanguage
	}
	if f.Changed("target-language") {
		cfg.Filters.TargetLanguage = targetLanguage
	}
	if f.Changed("replace-urls") {
		cfg.Filters.ReplaceURLs = replaceURLs
	}
	if f.Changed("anonymize") {
		cfg.Anonymize.Enabled = anonymizeOutput
	}
	if f.Changed("sqlite") {
		cfg.Output.SQLite = sqlitePath
	}
	if f.Changed("report") {
		cfg.Output.Report = writeReport
	}
	return cfg.Validate()
}

func printSteps(title string, steps []pipeline.StepResult) {
	fmt.Printf("\n%s:\n", title)
	for i, step := range steps {
		fmt.Printf("  %2d. %-14s %7d -> %-7d (-%d)\n", i+1, step.Name, step.Before, step.After, step.Dropped())
	}
}

// --- status command ---

var (
	statusDB    string
	statusLimit int
	statusRun   string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded runs from a SQLite export",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := statusDB
		if path == "" {
			path = cfg.Output.SQLite
		}
		if path == "" {
			return fmt.Errorf("no database given: pass --db or set output.sqlite")
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("database not found: %s", path)
		}

		db, err := database.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		if statusRun != "" {
			return writeRunDetail(cmd.OutOrStdout(), db, statusRun)
		}
		return writeStatus(cmd.OutOrStdout(), db, statusLimit)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusDB, "db", "", "SQLite database written by run --sqlite")
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 5, "Number of recent runs to list")
	statusCmd.Flags().StringVar(&statusRun, "run", "", "Show the options and stages of one run")
}

func writeStatus(w io.Writer, db *database.DB, limit int) error {
	stats, err := db.GetStats()
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	fmt.Fprintf(w, "Database: %s\n\n", db.Path())
	fmt.Fprintf(w, "Runs: %d\n", stats.Runs)
	if stats.LastRunStartedAt != "" {
		fmt.Fprintf(w, "Last run: %s\n", stats.LastRunStartedAt)
	}
	fmt.Fprintf(w, "\nStored rows: %d\n", stats.Records)
	fmt.Fprintf(w, "  Submissions: %d\n", stats.SubmissionRecords)
	fmt.Fprintf(w, "  Comments: %d\n", stats.CommentRecords)

	runs, err := db.GetRecentRuns(limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nRecent runs:")
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s\n", r.StartedAt, r.ID)
		fmt.Fprintf(w, "    submissions %d -> %d  (%s)\n", r.SubmissionsIn, r.SubmissionsOut, r.SubmissionsFile)
		fmt.Fprintf(w, "    comments    %d -> %d  (%s)\n", r.CommentsIn, r.CommentsOut, r.CommentsFile)
	}
	return nil
}

// writeRunDetail prints one recorded run with its per-stage row counts.
func writeRunDetail(w io.Writer, db *database.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		return fmt.Errorf("getting run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", id)
	}
	steps, err := db.GetRunSteps(id)
	if err != nil {
		return fmt.Errorf("getting run steps: %w", err)
	}

	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Started: %s\n", run.StartedAt)
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", *run.FinishedAt)
	}
	fmt.Fprintf(w, "Submissions: %s (%d -> %d)\n", run.SubmissionsFile, run.SubmissionsIn, run.SubmissionsOut)
	fmt.Fprintf(w, "Comments: %s (%d -> %d)\n", run.CommentsFile, run.CommentsIn, run.CommentsOut)
	if run.OptionsJSON != nil {
		fmt.Fprintf(w, "Options: %s\n", *run.OptionsJSON)
	}

	current := ""
	for _, s := range steps {
		if s.Dataset != current {
			current = s.Dataset
			fmt.Fprintf(w, "\n%s:\n", current)
		}
		fmt.Fprintf(w, "  %2d. %-14s %7d -> %-7d (-%d)\n", s.Position, s.Name, s.RowsIn, s.RowsOut, s.Dropped())
	}
	return nil
}
