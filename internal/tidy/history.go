package tidy

import "fmt"

// GetHistory returns the most recent rule runs, newest first.
func (s *Service) GetHistory(limit int) ([]*RuleRun, error) {
	if s.database == nil {
		return nil, fmt.Errorf("no database configured")
	}
	runs, err := s.database.ListRuleRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing rule runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a single rule run with its per-file failures.
func (s *Service) GetRun(id string) (*RuleRun, error) {
	if s.database == nil {
		return nil, fmt.Errorf("no database configured")
	}
	run, err := s.database.FindRuleRun(id)
	if err != nil {
		return nil, fmt.Errorf("finding rule run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("rule run not found: %s", id)
	}
	return run, nil
}

// GetOperations returns the most recent CLI operations, newest first.
func (s *Service) GetOperations(limit int) ([]*OperationRecord, error) {
	if s.database == nil {
		return nil, fmt.Errorf("no database configured")
	}
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
