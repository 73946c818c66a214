package tidy

import (
	"errors"
	"fmt"
)

// Service is the orchestration layer that coordinates organizers, the
// monitor and the run history for the CLI.
type Service struct {
	database Database
	fsmgr    FilesystemManager
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewService creates a Service. database may be nil, in which case runs are
// not recorded.
func NewService(database Database, fsmgr FilesystemManager, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		database: database,
		fsmgr:    fsmgr,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

func (s *Service) organizer(dir string) *Organizer {
	return NewOrganizer(dir, s.fsmgr, s.logger, s.clock)
}

// Index returns the current date index of dir.
func (s *Service) Index(dir string) (DateIndex, error) {
	return s.organizer(dir).BuildIndex()
}

// ApplyRule runs a single rule against dir and records the outcome.
func (s *Service) ApplyRule(dir string, rule Rule) (*Report, error) {
	report, err := s.organizer(dir).Apply(rule)
	if err != nil {
		return nil, err
	}

	if s.database != nil {
		run := newRuleRun(s.idgen.New(), report)
		if err := s.database.CreateRuleRun(run); err != nil {
			return report, fmt.Errorf("recording rule run: %w", err)
		}
		s.logger.Debug("rule run recorded", "id", run.ID)
	}
	return report, nil
}

// RunDirectory applies every rule registered for dir, in order. A fatal
// error in one rule is logged and the remaining rules still run; all such
// errors are returned joined.
func (s *Service) RunDirectory(monitor *Monitor, dir string) ([]*Report, error) {
	if !monitor.Has(dir) {
		return nil, fmt.Errorf("directory is not monitored: %s", dir)
	}

	var (
		reports []*Report
		errs    []error
	)
	for _, rule := range monitor.Rules(dir) {
		report, err := s.ApplyRule(dir, rule)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			s.logger.Error("rule failed", "dir", dir, "rule", Describe(rule), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
		}
	}
	return reports, errors.Join(errs...)
}

// RunAll runs the rules of every monitored directory.
func (s *Service) RunAll(monitor *Monitor) ([]*Report, error) {
	var (
		reports []*Report
		errs    []error
	)
	for _, dir := range monitor.Directories() {
		r, err := s.RunDirectory(monitor, dir)
		reports = append(reports, r...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Info("run complete", "directories", len(monitor.Directories()), "rules", len(reports))
	return reports, errors.Join(errs...)
}
