// Package report renders a summary of a filtering run as Markdown and HTML.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MarkdownFile = "filter_report.md"
	HTMLFile     = "filter_report.html"
)

//go:embed templates/report.html
var templateFS embed.FS

var (
	md   = goldmark.New(goldmark.WithExtensions(extension.Table))
	page = template.Must(template.ParseFS(templateFS, "templates/report.html"))
)

// Stage is the row count change of one filter stage.
type Stage struct {
	Name   string
	Before int
	After  int
}

// Section describes one dataset's trip through the pipeline.
type Section struct {
	Dataset string
	Input   string
	Output  string
	Stages  []Stage
}

// Option is one effective setting shown in the report.
type Option struct {
	Name  string
	Value string
}

// Report is everything a run report shows.
type Report struct {
	RunID     string
	Generated time.Time
	Options   []Option
	Sections  []Section
}

// Markdown builds the report body.
func (r *Report) Markdown() string {
	var sections []string

	header := "# Filter report"
	var meta []string
	if r.RunID != "" {
		meta = append(meta, fmt.Sprintf("Run `%s`", r.RunID))
	}
	if !r.Generated.IsZero() {
		meta = append(meta, "generated "+r.Generated.UTC().Format(time.RFC3339))
	}
	if len(meta) > 0 {
		header += "\n\n" + strings.Join(meta, ", ")
	}
	sections = append(sections, header)

	if len(r.Options) > 0 {
		lines := []string{"## Options", "", "| Option | Value |", "|---|---|"}
		for _, o := range r.Options {
			lines = append(lines, fmt.Sprintf("| %s | %s |", cell(o.Name), cell(o.Value)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	for _, s := range r.Sections {
		sections = append(sections, sectionMarkdown(s))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func sectionMarkdown(s Section) string {
	lines := []string{"## " + titleCase(s.Dataset), ""}
	if s.Input != "" {
		line := fmt.Sprintf("Input: `%s`", s.Input)
		if s.Output != "" {
			line += fmt.Sprintf(", output: `%s`", s.Output)
		}
		lines = append(lines, line, "")
	}

	if len(s.Stages) == 0 {
		lines = append(lines, "No stages ran.")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "| Stage | Rows in | Rows out | Dropped |", "|---|---:|---:|---:|")
	for _, st := range s.Stages {
		lines = append(lines, fmt.Sprintf("| %s | %d | %d | %d |", cell(st.Name), st.Before, st.After, st.Before-st.After))
	}

	in, out := s.Stages[0].Before, s.Stages[len(s.Stages)-1].After
	lines = append(lines, "", fmt.Sprintf("Kept **%d** of **%d** rows (%s).", out, in, percent(out, in)))
	return strings.Join(lines, "\n")
}

func percent(part, whole int) string {
	if whole == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// HTML renders the report as a standalone HTML page.
func (r *Report) HTML() (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	var buf bytes.Buffer
	err := page.Execute(&buf, map[string]any{
		"Title": "Filter report",
		"Body":  template.HTML(body.String()), //nolint: gosec
	})
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return buf.String(), nil
}

// Write stores filter_report.md and filter_report.html in dir and returns
// their paths.
func (r *Report) Write(dir string) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating report directory: %w", err)
	}

	mdPath := filepath.Join(dir, MarkdownFile)
	if err := os.WriteFile(mdPath, []byte(r.Markdown()), 0o644); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", mdPath, err)
	}

	html, err := r.HTML()
	if err != nil {
		return "", "", err
	}
	htmlPath := filepath.Join(dir, HTMLFile)
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", htmlPath, err)
	}

	return mdPath, htmlPath, nil
}
