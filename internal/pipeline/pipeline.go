package pipeline

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/redditfilter/internal/anonymize"
	"github.com/TobiSchelling/redditfilter/internal/config"
	"github.com/TobiSchelling/redditfilter/internal/dataset"
	"github.com/TobiSchelling/redditfilter/internal/filter"
	"github.com/TobiSchelling/redditfilter/internal/language"
	"github.com/TobiSchelling/redditfilter/internal/media"
)

// Dataset names used in step results, the SQLite export and the report.
const (
	Submissions = "submissions"
	Comments    = "comments"
)

// ErrSameOutput is returned by Execute when both inputs would be written to
// the same output file.
var ErrSameOutput = errors.New("submissions and comments map to the same output file")

// Options are the effective settings of one run.
type Options struct {
	MinScore        int      `json:"min_score"`
	MinCommentWords int      `json:"min_comment_words"`
	Idioms          []string `json:"idioms"`
	FilterEdited    bool     `json:"filter_edited"`
	FilterLanguage  bool     `json:"filter_language"`
	TargetLanguage  string   `json:"target_language"`
	ReplaceURLs     bool     `json:"replace_urls"`
	ExtraBots       []string `json:"extra_bots"`
	TopicKeywords   []string `json:"topic_keywords"`
	Anonymize       bool     `json:"anonymize"`
	Salt            string   `json:"-"`
	OutputDir       string   `json:"output_dir"`
	SQLite          string   `json:"sqlite,omitempty"`
	Report          bool     `json:"report"`
}

// OptionsFromConfig maps a loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinScore:        cfg.Filters.MinScore,
		MinCommentWords: cfg.Filters.MinCommentWords,
		Idioms:          cfg.Filters.Idioms,
		FilterEdited:    cfg.Filters.FilterEdited,
		FilterLanguage:  cfg.Filters.FilterLanguage,
		TargetLanguage:  cfg.Filters.TargetLanguage,
		ReplaceURLs:     cfg.Filters.ReplaceURLs,
		ExtraBots:       cfg.Filters.ExtraBots,
		TopicKeywords:   cfg.Filters.TopicKeywords,
		Anonymize:       cfg.Anonymize.Enabled,
		Salt:            cfg.Salt(),
		OutputDir:       cfg.Output.Dir,
		SQLite:          cfg.Output.SQLite,
		Report:          cfg.Output.Report,
	}
}

// StepResult holds the row counts around a single stage.
type StepResult struct {
	Name   string
	Before int
	After  int
}

// Dropped returns how many rows the stage removed.
func (s StepResult) Dropped() int {
	return s.Before - s.After
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID           string
	Submissions     *dataset.Table
	Comments        *dataset.Table
	SubmissionSteps []StepResult
	CommentSteps    []StepResult
	Outputs         []string
}

// Pipeline runs the submission and comment stage chains.
type Pipeline struct {
	opts     Options
	detector language.Detector
	bots     *filter.Denylist
	anon     *anonymize.Anonymizer
}

// New creates a new pipeline. A nil detector selects the trigram detector.
func New(opts Options, detector language.Detector) *Pipeline {
	if detector == nil {
		detector = language.NewDetector()
	}
	p := &Pipeline{
		opts:     opts,
		detector: detector,
		bots:     filter.NewDenylist(opts.ExtraBots...),
	}
	if opts.Anonymize {
		if opts.Salt == "" {
			log.Printf("Warning: no anonymization salt set, using the built-in default")
		}
		p.anon = anonymize.New(opts.Salt)
	}
	return p
}

type stage struct {
	name string
	run  func(*dataset.Table) *dataset.Table
}

func (p *Pipeline) submissionStages() []stage {
	stages := []stage{
		{"media", func(t *dataset.Table) *dataset.Table {
			if n := media.Count(t); n > 0 {
				log.Printf("Clearing media fields on %d media posts", n)
			}
			return media.Clean(t)
		}},
		{"removed", func(t *dataset.Table) *dataset.Table { return filter.Removed(t, filter.ColSelftext) }},
		{"score", func(t *dataset.Table) *dataset.Table { return filter.Score(t, p.opts.MinScore) }},
		{"url_only", func(t *dataset.Table) *dataset.Table { return filter.URLOnly(t, filter.ColSelftext) }},
	}
	if p.opts.ReplaceURLs {
		stages = append(stages, stage{"tokenize_urls", func(t *dataset.Table) *dataset.Table {
			return filter.TokenizeURLs(t, filter.ColTitle, filter.ColSelftext)
		}})
	}
	stages = append(stages,
		stage{"duplicates", filter.Duplicates},
		stage{"bots", func(t *dataset.Table) *dataset.Table { return filter.Bots(t, p.bots) }},
	)
	if len(p.opts.TopicKeywords) > 0 {
		stages = append(stages, stage{"topics", func(t *dataset.Table) *dataset.Table {
			return filter.Topics(t, p.opts.TopicKeywords, filter.ColTitle, filter.ColSelftext)
		}})
	}
	if p.opts.FilterLanguage {
		stages = append(stages, p.languageStage(filter.ColTitle, filter.ColSelftext))
	}
	return stages
}

func (p *Pipeline) commentStages() []stage {
	stages := []stage{
		{"removed", func(t *dataset.Table) *dataset.Table { return filter.Removed(t, filter.ColBody) }},
		{"score", func(t *dataset.Table) *dataset.Table { return filter.Score(t, p.opts.MinScore) }},
		{"url_only", func(t *dataset.Table) *dataset.Table { return filter.URLOnly(t, filter.ColBody) }},
	}
	if p.opts.ReplaceURLs {
		stages = append(stages, stage{"tokenize_urls", func(t *dataset.Table) *dataset.Table {
			return filter.TokenizeURLs(t, filter.ColBody)
		}})
	}
	if p.opts.FilterEdited {
		stages = append(stages, stage{"edited", filter.Edited})
	}
	stages = append(stages,
		stage{"duplicates", filter.Duplicates},
		stage{"bots", func(t *dataset.Table) *dataset.Table { return filter.Bots(t, p.bots) }},
		stage{"idioms", func(t *dataset.Table) *dataset.Table { return filter.Idioms(t, filter.ColBody, p.opts.Idioms) }},
	)
	if len(p.opts.TopicKeywords) > 0 {
		stages = append(stages, stage{"topics", func(t *dataset.Table) *dataset.Table {
			return filter.Topics(t, p.opts.TopicKeywords, filter.ColBody)
		}})
	}
	stages = append(stages, stage{"word_count", func(t *dataset.Table) *dataset.Table {
		return filter.MinWords(t, filter.ColBody, p.opts.MinCommentWords)
	}})
	if p.opts.FilterLanguage {
		stages = append(stages, p.languageStage(filter.ColBody))
	}
	return stages
}

func (p *Pipeline) languageStage(columns ...string) stage {
	return stage{"language", func(t *dataset.Table) *dataset.Table {
		out, res := language.Filter(t, p.opts.TargetLanguage, p.detector, columns...)
		log.Printf("Language filter on %s: %d kept, %d other language, %d undetectable",
			t.Name, res.Kept, res.OtherLang, res.Undetectable)
		return out
	}}
}

func apply(t *dataset.Table, stages []stage) (*dataset.Table, []StepResult) {
	steps := make([]StepResult, 0, len(stages))
	for _, s := range stages {
		before := t.Len()
		t = s.run(t)
		steps = append(steps, StepResult{Name: s.name, Before: before, After: t.Len()})
		log.Printf("  %s: %d -> %d rows", s.name, before, t.Len())
	}
	return t, steps
}

// RunSubmissions applies the submission stages in order.
func (p *Pipeline) RunSubmissions(t *dataset.Table) (*dataset.Table, []StepResult) {
	log.Printf("Filtering submissions from %s (%d rows)...", t.Name, t.Len())
	return apply(t, p.submissionStages())
}

// RunComments applies the comment stages in order.
func (p *Pipeline) RunComments(t *dataset.Table) (*dataset.Table, []StepResult) {
	log.Printf("Filtering comments from %s (%d rows)...", t.Name, t.Len())
	return apply(t, p.commentStages())
}

// Run filters both tables and, when enabled, anonymizes the survivors.
func (p *Pipeline) Run(submissions, comments *dataset.Table) *Result {
	r := &Result{RunID: uuid.NewString()}

	r.Submissions, r.SubmissionSteps = p.RunSubmissions(submissions)
	r.Comments, r.CommentSteps = p.RunComments(comments)

	if p.anon != nil {
		log.Println("Anonymizing authors and redacting text...")
		r.Submissions, r.SubmissionSteps = p.anonymize(r.Submissions, r.SubmissionSteps, filter.ColTitle, filter.ColSelftext)
		r.Comments, r.CommentSteps = p.anonymize(r.Comments, r.CommentSteps, filter.ColBody)
	}

	return r
}

func (p *Pipeline) anonymize(t *dataset.Table, steps []StepResult, textColumns ...string) (*dataset.Table, []StepResult) {
	out := p.anon.Table(t, filter.ColAuthor, textColumns...)
	return out, append(steps, StepResult{Name: "anonymize", Before: t.Len(), After: out.Len()})
}

// Execute loads both inputs, runs the stages and writes filtered_<name>.csv
// for each into the output directory, plus the optional SQLite export and
// run report.
func (p *Pipeline) Execute(commentsPath, submissionsPath string) (*Result, error) {
	started := time.Now()

	subsOut := dataset.OutputPath(p.opts.OutputDir, submissionsPath)
	commentsOut := dataset.OutputPath(p.opts.OutputDir, commentsPath)
	// Case-insensitive, as on case-folding filesystems.
	if strings.EqualFold(subsOut, commentsOut) {
		return nil, &dataset.IOError{Op: "write", Path: commentsOut, Err: ErrSameOutput}
	}

	submissions, err := dataset.Load(submissionsPath, dataset.SubmissionColumns)
	if err != nil {
		return nil, err
	}
	comments, err := dataset.Load(commentsPath, dataset.CommentColumns)
	if err != nil {
		return nil, err
	}

	r := p.Run(submissions, comments)

	outputs := []struct {
		path  string
		table *dataset.Table
	}{
		{subsOut, r.Submissions},
		{commentsOut, r.Comments},
	}
	for _, o := range outputs {
		if err := dataset.WriteCSV(o.path, o.table); err != nil {
			return r, err
		}
		log.Printf("Wrote %d rows to %s", o.table.Len(), o.path)
		r.Outputs = append(r.Outputs, o.path)
	}

	if p.opts.SQLite != "" {
		if err := p.export(r, started, commentsPath, submissionsPath); err != nil {
			return r, fmt.Errorf("sqlite export: %w", err)
		}
	}

	if p.opts.Report {
		mdPath, _, err := p.buildReport(r, started, commentsPath, submissionsPath).Write(p.opts.OutputDir)
		if err != nil {
			return r, fmt.Errorf("writing report: %w", err)
		}
		r.Outputs = append(r.Outputs, mdPath)
	}

	return r, nil
}

// Summary lists the options as name/value pairs in a stable order.
func (o Options) Summary() [][2]string {
	list := func(v []string) string {
		if len(v) == 0 {
			return "(none)"
		}
		return strings.Join(v, ", ")
	}
	return [][2]string{
		{"min_score", strconv.Itoa(o.MinScore)},
		{"min_comment_words", strconv.Itoa(o.MinCommentWords)},
		{"idioms", list(o.Idioms)},
		{"filter_edited", strconv.FormatBool(o.FilterEdited)},
		{"filter_language", strconv.FormatBool(o.FilterLanguage)},
		{"target_language", o.TargetLanguage},
		{"replace_urls", strconv.FormatBool(o.ReplaceURLs)},
		{"extra_bots", list(o.ExtraBots)},
		{"topic_keywords", list(o.TopicKeywords)},
		{"anonymize", strconv.FormatBool(o.Anonymize)},
		{"output_dir", o.OutputDir},
	}
}
