package database

// Run is one recorded filtering run.
type Run struct {
	ID              string
	StartedAt       string
	FinishedAt      *string
	CommentsFile    string
	SubmissionsFile string
	OptionsJSON     *string
	CommentsIn      int
	CommentsOut     int
	SubmissionsIn   int
	SubmissionsOut  int
}

// RunStep is the row count change of one stage in a run.
type RunStep struct {
	RunID    string
	Dataset  string // "submissions" or "comments"
	Position int
	Name     string
	RowsIn   int
	RowsOut  int
}

// Dropped returns how many rows the step removed.
func (s RunStep) Dropped() int {
	return s.RowsIn - s.RowsOut
}

// Stats contains aggregate database statistics.
type Stats struct {
	Runs              int
	Records           int
	SubmissionRecords int
	CommentRecords    int
	LastRunStartedAt  string
}
