package tidy

import "time"

// Report summarizes one batch: what was selected and which files failed.
type Report struct {
	Directory  string
	Rule       Rule
	Summary    string
	Selected   int
	Succeeded  int
	Failures   []*FileError
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the number of files whose operation failed.
func (r *Report) Failed() int {
	return len(r.Failures)
}

func (r *Report) fail(op Operation, name string, err error) *FileError {
	fe := &FileError{Op: op, Name: name, Err: err}
	r.Failures = append(r.Failures, fe)
	return fe
}
