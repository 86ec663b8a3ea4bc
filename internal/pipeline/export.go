package pipeline

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/TobiSchelling/redditfilter/internal/database"
	"github.com/TobiSchelling/redditfilter/internal/dataset"
	"github.com/TobiSchelling/redditfilter/internal/report"
)

func inOut(steps []StepResult, fallback int) (int, int) {
	if len(steps) == 0 {
		return fallback, fallback
	}
	return steps[0].Before, steps[len(steps)-1].After
}

// export records the run, its steps and the surviving rows in SQLite.
func (p *Pipeline) export(r *Result, started time.Time, commentsPath, submissionsPath string) error {
	db, err := database.Open(p.opts.SQLite)
	if err != nil {
		return err
	}
	defer db.Close()

	opts, err := json.Marshal(p.opts)
	if err != nil {
		return err
	}
	optsJSON := string(opts)
	finished := time.Now().UTC().Format(time.RFC3339)

	run := database.Run{
		ID:              r.RunID,
		StartedAt:       started.UTC().Format(time.RFC3339),
		FinishedAt:      &finished,
		CommentsFile:    commentsPath,
		SubmissionsFile: submissionsPath,
		OptionsJSON:     &optsJSON,
	}
	run.SubmissionsIn, run.SubmissionsOut = inOut(r.SubmissionSteps, r.Submissions.Len())
	run.CommentsIn, run.CommentsOut = inOut(r.CommentSteps, r.Comments.Len())

	var steps []database.RunStep
	for _, group := range []struct {
		name  string
		steps []StepResult
	}{
		{Submissions, r.SubmissionSteps},
		{Comments, r.CommentSteps},
	} {
		for i, s := range group.steps {
			steps = append(steps, database.RunStep{
				Dataset:  group.name,
				Position: i + 1,
				Name:     s.Name,
				RowsIn:   s.Before,
				RowsOut:  s.After,
			})
		}
	}

	if _, err := db.InsertRun(run, steps); err != nil {
		return err
	}
	if _, err := db.InsertRecords(r.RunID, Submissions, r.Submissions); err != nil {
		return err
	}
	if _, err := db.InsertRecords(r.RunID, Comments, r.Comments); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) buildReport(r *Result, started time.Time, commentsPath, submissionsPath string) *report.Report {
	rep := &report.Report{RunID: r.RunID, Generated: started}
	for _, kv := range p.opts.Summary() {
		rep.Options = append(rep.Options, report.Option{Name: kv[0], Value: kv[1]})
	}

	section := func(name, input string, steps []StepResult) report.Section {
		s := report.Section{
			Dataset: name,
			Input:   input,
			Output:  dataset.OutputPath(p.opts.OutputDir, input),
		}
		for _, st := range steps {
			s.Stages = append(s.Stages, report.Stage{Name: st.Name, Before: st.Before, After: st.After})
		}
		return s
	}
	rep.Sections = []report.Section{
		section(Submissions, submissionsPath, r.SubmissionSteps),
		section(Comments, commentsPath, r.CommentSteps),
	}
	return rep
}
