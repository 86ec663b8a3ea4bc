package report

import (
	"os"
	"strings"
	"testing"
	"time"
)

func sampleReport() *Report {
	return &Report{
		RunID:     "abc-123",
		Generated: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
		Options: []Option{
			{Name: "min_score", Value: "2"},
			{Name: "idioms", Value: "lol|rofl"},
		},
		Sections: []Section{
			{
				Dataset: "submissions",
				Input:   "subs.csv",
				Output:  "out/filtered_subs.csv",
				Stages: []Stage{
					{Name: "media", Before: 4, After: 4},
					{Name: "score", Before: 4, After: 3},
				},
			},
			{Dataset: "comments", Input: "comments.csv"},
		},
	}
}

func TestMarkdown(t *testing.T) {
	got := sampleReport().Markdown()

	for _, want := range []string{
		"# Filter report",
		"Run `abc-123`, generated 2026-10-17T09:30:00Z",
		"| min_score | 2 |",
		`| idioms | lol\|rofl |`,
		"## Submissions",
		"Input: `subs.csv`, output: `out/filtered_subs.csv`",
		"| score | 4 | 3 | 1 |",
		"Kept **3** of **4** rows (75.0%).",
		"## Comments",
		"No stages ran.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected markdown to contain %q\n%s", want, got)
		}
	}
}

func TestMarkdownEmptyInput(t *testing.T) {
	r := &Report{Sections: []Section{{
		Dataset: "comments",
		Stages:  []Stage{{Name: "score", Before: 0, After: 0}},
	}}}
	if got := r.Markdown(); !strings.Contains(got, "(n/a)") {
		t.Errorf("expected n/a percentage for empty input, got\n%s", got)
	}
}

func TestHTML(t *testing.T) {
	html, err := sampleReport().HTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<title>Filter report</title>") {
		t.Error("expected page title")
	}
	if !strings.Contains(html, "<h1>Filter report</h1>") {
		t.Error("expected rendered heading")
	}
	if !strings.Contains(html, "<table>") {
		t.Error("expected markdown tables to render as HTML tables")
	}
	if strings.Contains(html, "&lt;h1&gt;") {
		t.Error("rendered body was escaped")
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir() + "/nested"
	mdPath, htmlPath, err := sampleReport().Write(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(mdPath, MarkdownFile) || !strings.HasSuffix(htmlPath, HTMLFile) {
		t.Errorf("unexpected paths %s, %s", mdPath, htmlPath)
	}
	data, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("reading markdown: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Filter report") {
		t.Errorf("unexpected markdown file content %q", data)
	}
	if _, err := os.Stat(htmlPath); err != nil {
		t.Errorf("expected html file: %v", err)
	}
}
