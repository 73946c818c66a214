package tidy

import (
	"database/sql"
	"time"
)

// OperationRecord is one CLI invocation that changed files or rules.
type OperationRecord struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// RuleRun is the persisted outcome of one rule applied to one directory.
type RuleRun struct {
	ID          string
	Directory   string
	Operation   Operation
	Extension   string
	Modifier    string
	Pattern     string
	Destination string
	Summary     string
	Selected    int
	Succeeded   int
	Failed      int
	StartedAt   time.Time
	FinishedAt  time.Time
	Failures    []FileFailure
}

// FileFailure is a per-file error recorded with a RuleRun.
type FileFailure struct {
	FileName string
	Error    string
}

// Database stores the run history.
type Database interface {
	// CreateOperation records the start of a CLI operation and returns it with its ID.
	CreateOperation(operation, parameters string, startedAt time.Time) (*OperationRecord, error)

	// FinishOperation marks an operation finished with the given status.
	FinishOperation(id int64, status string, finishedAt time.Time) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*OperationRecord, error)

	// CreateRuleRun stores a run together with its failures.
	CreateRuleRun(run *RuleRun) error

	// ListRuleRuns returns the most recent runs, newest first, without failures.
	ListRuleRuns(limit int) ([]*RuleRun, error)

	// FindRuleRun returns a run with its failures, or nil if it does not exist.
	FindRuleRun(id string) (*RuleRun, error)

	// Close closes the database connection.
	Close() error
}

// newRuleRun converts a Report into its persisted form.
func newRuleRun(id string, report *Report) *RuleRun {
	rule := report.Rule
	run := &RuleRun{
		ID:          id,
		Directory:   report.Directory,
		Operation:   rule.Operation(),
		Extension:   rule.Extension(),
		Modifier:    rule.Modifier().String(),
		Pattern:     rule.Pattern(),
		Destination: rule.Destination(),
		Summary:     report.Summary,
		Selected:    report.Selected,
		Succeeded:   report.Succeeded,
		Failed:      report.Failed(),
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
	}
	for _, fe := range report.Failures {
		run.Failures = append(run.Failures, FileFailure{FileName: fe.Name, Error: fe.Err.Error()})
	}
	return run
}
