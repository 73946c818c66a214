package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tidy-go/internal/config"
	"tidy-go/internal/database"
	"tidy-go/internal/fs"
	"tidy-go/internal/ruleset"
	"tidy-go/internal/tidy"
)

// TidyApp is the application layer between the CLI and the tidy Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths and rule lines, and persists the rules file
// and the operation record on Close.
type TidyApp struct {
	cfg     *config.Config
	db      tidy.Database
	fsmgr   tidy.FilesystemManager
	clock   tidy.Clock
	service *tidy.Service
	monitor *tidy.Monitor
	dirty   bool
	op      *Operation
	logFile *os.File
}

// NewTidyApp creates a fully wired TidyApp from the given config.
// operation identifies the CLI command being run (e.g. "AddRule", "RunAll").
// The caller must call Close when done.
func NewTidyApp(cfg *config.Config, operation string) (*TidyApp, error) {
	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)

	monitor, err := ruleset.ReadFromFile(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	clock := tidy.RealClock{}
	svc := tidy.NewService(db, fsmgr, &slogAdapter{l: logger}, clock, tidy.UUIDGenerator{})

	return &TidyApp{
		cfg:     cfg,
		db:      db,
		fsmgr:   fsmgr,
		clock:   clock,
		service: svc,
		monitor: monitor,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}, nil
}

// persistOperation saves the operation record, giving it an auto-increment ID.
// Only commands that change files or rules call it. Without a database the
// operation stays in memory.
func (a *TidyApp) persistOperation(parameters ...string) error {
	if a.db == nil || a.op.Persisted() {
		return nil
	}
	a.op.Parameters = strings.Join(parameters, " ")
	rec, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters, a.clock.Now())
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = rec.ID
	return nil
}

// track marks the operation failed when err is non-nil and returns err.
func (a *TidyApp) track(err error) error {
	if err != nil {
		a.op.Status = StatusError
	}
	return err
}

// resolveDir resolves rawPath and checks that it is a directory.
func (a *TidyApp) resolveDir(rawPath string) (string, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if !p.IsDir() {
		return "", fmt.Errorf("not a directory: %s", p)
	}
	return p.String(), nil
}

// monitoredDir turns rawPath into the absolute form stored in the rules file.
// The directory does not need to exist, so stale entries can be removed.
func (a *TidyApp) monitoredDir(rawPath string) (string, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	if !a.monitor.Has(abs) {
		return "", fmt.Errorf("directory is not monitored: %s", abs)
	}
	return abs, nil
}

// AddDirectory registers rawPath for monitoring and returns its absolute path.
func (a *TidyApp) AddDirectory(rawPath string) (string, error) {
	dir, err := a.resolveDir(rawPath)
	if err != nil {
		return "", err
	}
	if !a.monitor.Has(dir) {
		a.monitor.Add(dir)
		a.dirty = true
	}
	return dir, nil
}

// RemoveDirectory stops monitoring rawPath and drops its rules.
func (a *TidyApp) RemoveDirectory(rawPath string) error {
	dir, err := a.monitoredDir(rawPath)
	if err != nil {
		return err
	}
	a.monitor.RemoveDirectory(dir)
	a.dirty = true
	return nil
}

// Directories returns the monitored directories in rules-file order.
func (a *TidyApp) Directories() []string {
	return a.monitor.Directories()
}

// AddRule parses line and appends it to the rules of rawPath, monitoring
// the directory first if needed.
func (a *TidyApp) AddRule(rawPath, line string) (tidy.Rule, error) {
	rule, err := ruleset.ParseRule(line)
	if err != nil {
		return tidy.Rule{}, err
	}
	dir, err := a.resolveDir(rawPath)
	if err != nil {
		return tidy.Rule{}, err
	}
	a.monitor.Add(dir, rule)
	a.dirty = true
	return rule, nil
}

// RemoveRule removes the rule encoded by line from rawPath.
func (a *TidyApp) RemoveRule(rawPath, line string) error {
	rule, err := ruleset.ParseRule(line)
	if err != nil {
		return err
	}
	dir, err := a.monitoredDir(rawPath)
	if err != nil {
		return err
	}
	if !a.monitor.Remove(dir, rule) {
		return fmt.Errorf("rule %q is not registered for %s", ruleset.FormatRule(rule), dir)
	}
	a.dirty = true
	return nil
}

// Rules returns the rules of rawPath.
func (a *TidyApp) Rules(rawPath string) ([]tidy.Rule, error) {
	dir, err := a.monitoredDir(rawPath)
	if err != nil {
		return nil, err
	}
	return a.monitor.Rules(dir), nil
}

// Run applies every rule of the monitored directory rawPath.
func (a *TidyApp) Run(rawPath string) ([]*tidy.Report, error) {
	dir, err := a.monitoredDir(rawPath)
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation(dir); err != nil {
		return nil, err
	}
	reports, err := a.service.RunDirectory(a.monitor, dir)
	return reports, a.track(err)
}

// RunAll applies the rules of every monitored directory.
func (a *TidyApp) RunAll() ([]*tidy.Report, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	reports, err := a.service.RunAll(a.monitor)
	return reports, a.track(err)
}

// Apply runs a one-off rule against rawPath without saving it.
func (a *TidyApp) Apply(rawPath, line string) (*tidy.Report, error) {
	rule, err := ruleset.ParseRule(line)
	if err != nil {
		return nil, err
	}
	dir, err := a.resolveDir(rawPath)
	if err != nil {
		return nil, err
	}
	return a.apply(dir, rule)
}

// ApplyLine runs a one-off directory line such as
// "/home/user/Downloads|copy|.png|nd7" without saving it.
func (a *TidyApp) ApplyLine(line string) (*tidy.Report, error) {
	rawPath, rule, err := ruleset.ParseDirectoryLine(line)
	if err != nil {
		return nil, err
	}
	dir, err := a.resolveDir(rawPath)
	if err != nil {
		return nil, err
	}
	return a.apply(dir, rule)
}

func (a *TidyApp) apply(dir string, rule tidy.Rule) (*tidy.Report, error) {
	if err := a.persistOperation(ruleset.FormatDirectoryLine(dir, rule)); err != nil {
		return nil, err
	}
	report, err := a.service.ApplyRule(dir, rule)
	return report, a.track(err)
}

// Index returns the date buckets of rawPath.
func (a *TidyApp) Index(rawPath string) (tidy.DateIndex, error) {
	dir, err := a.resolveDir(rawPath)
	if err != nil {
		return nil, err
	}
	return a.service.Index(dir)
}

// GetHistory returns the most recent rule runs.
func (a *TidyApp) GetHistory(limit int) ([]*tidy.RuleRun, error) {
	return a.service.GetHistory(limit)
}

// GetRun returns one rule run with its per-file failures.
func (a *TidyApp) GetRun(id string) (*tidy.RuleRun, error) {
	return a.service.GetRun(id)
}

// GetOperations returns the most recent CLI operations.
func (a *TidyApp) GetOperations(limit int) ([]*tidy.OperationRecord, error) {
	return a.service.GetOperations(limit)
}

// Save writes the rules file if the rules changed since the last save.
func (a *TidyApp) Save() error {
	if !a.dirty {
		return nil
	}
	if err := ruleset.WriteToFile(a.cfg.RulesPath, a.monitor); err != nil {
		a.op.Status = StatusError
		return fmt.Errorf("saving rules: %w", err)
	}
	a.dirty = false
	return nil
}

// Close finalizes the operation and closes all resources.
// Changed rules are written back to the rules file and a persisted
// operation record is marked finished.
func (a *TidyApp) Close() error {
	var firstErr error

	if err := a.Save(); err != nil {
		firstErr = err
	}

	if a.db != nil {
		if a.op.Persisted() {
			if err := a.db.FinishOperation(a.op.ID, a.op.Status, a.clock.Now()); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("finishing operation: %w", err)
			}
		}
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
