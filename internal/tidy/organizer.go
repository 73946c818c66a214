package tidy

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// copySuffix is appended to the stem of duplicated files.
	copySuffix = "-copy"

	// renameDateLayout formats the date part of renamed files: 2015-Nov-16.
	renameDateLayout = "2006-Jan-02"
)

// Organizer applies rules to the flat file listing of one directory.
// It rebuilds its date index from the filesystem on every call and keeps no
// state between rules.
type Organizer struct {
	dir    string
	fsmgr  FilesystemManager
	logger Logger
	clock  Clock
}

// NewOrganizer creates an Organizer for dir.
func NewOrganizer(dir string, fsmgr FilesystemManager, logger Logger, clock Clock) *Organizer {
	return &Organizer{
		dir:    dir,
		fsmgr:  fsmgr,
		logger: logger,
		clock:  clock,
	}
}

// Dir returns the directory this organizer manages.
func (o *Organizer) Dir() string {
	return o.dir
}

// BuildIndex lists the directory and groups its regular files by
// modification date.
func (o *Organizer) BuildIndex() (DateIndex, error) {
	entries, err := o.fsmgr.ListFiles(o.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryUnreadable, o.dir, err)
	}
	return NewDateIndex(entries), nil
}

// Select builds a fresh index and returns the buckets mod selects.
func (o *Organizer) Select(mod Modifier) (DateIndex, error) {
	if err := mod.Validate(); err != nil {
		return nil, err
	}
	idx, err := o.BuildIndex()
	if err != nil {
		return nil, err
	}
	return mod.Resolve(idx, DateOf(o.clock.Now()))
}

// Apply runs rule over the directory. Errors returned here are fatal and
// happen before any file is touched; per-file failures are collected in the
// Report and the batch continues.
func (o *Organizer) Apply(rule Rule) (*Report, error) {
	if rule.IsZero() {
		return nil, fmt.Errorf("%w: rule has no operation", ErrInvalidRule)
	}

	selected, err := o.Select(rule.Modifier())
	if err != nil {
		return nil, err
	}

	report := &Report{
		Directory: o.dir,
		Rule:      rule,
		Summary:   Describe(rule),
		StartedAt: o.clock.Now(),
	}
	o.logger.Info(report.Summary, "dir", o.dir)

	switch rule.Operation() {
	case OpCopy:
		o.copy(selected, rule, report)
	case OpMove:
		if err := o.move(selected, rule, report); err != nil {
			return nil, err
		}
	case OpDelete:
		o.delete(selected, rule, report)
	case OpRename:
		o.rename(selected, rule, report)
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidRule, rule.Operation())
	}

	report.FinishedAt = o.clock.Now()
	o.logger.Info("rule applied",
		"dir", o.dir,
		"operation", string(rule.Operation()),
		"selected", report.Selected,
		"succeeded", report.Succeeded,
		"failed", report.Failed(),
	)
	return report, nil
}

// eachFile calls fn for every file in ascending date order that passes the
// rule's extension and pattern filters.
func eachFile(selected DateIndex, rule Rule, fn func(date Date, name string)) {
	for _, d := range selected.Dates() {
		for _, name := range selected[d] {
			if !rule.matchesExtension(name) || !rule.matchesPattern(name) {
				continue
			}
			fn(d, name)
		}
	}
}

func (o *Organizer) failed(report *Report, op Operation, name string, err error) {
	fe := report.fail(op, name, err)
	o.logger.Warn("file operation failed", "op", string(op), "file", name, "error", fe.Err)
}

// copy duplicates each file as <stem>-copy<ext>, overwriting an existing
// duplicate. Any source whose stem already ends in -copy is skipped and not
// counted as selected, including user files such as draft-copy.txt.
func (o *Organizer) copy(selected DateIndex, rule Rule, report *Report) {
	eachFile(selected, rule, func(_ Date, name string) {
		stem, ext := splitName(name)
		if strings.HasSuffix(stem, copySuffix) {
			return
		}
		report.Selected++

		dst := filepath.Join(o.dir, stem+copySuffix+ext)
		if err := o.fsmgr.CopyFile(filepath.Join(o.dir, name), dst); err != nil {
			o.failed(report, OpCopy, name, err)
			return
		}
		report.Succeeded++
		o.logger.Debug("file copied", "file", name, "copy", filepath.Base(dst))
	})
}

// move relocates each file into the destination, keeping its name.
// The destination is created up front; failing to create it is fatal.
func (o *Organizer) move(selected DateIndex, rule Rule, report *Report) error {
	dest := rule.Destination()
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(o.dir, dest)
	}
	if err := o.fsmgr.MkdirAll(dest); err != nil {
		return fmt.Errorf("creating destination %s: %w", dest, err)
	}

	eachFile(selected, rule, func(_ Date, name string) {
		report.Selected++
		if err := o.fsmgr.Rename(filepath.Join(o.dir, name), filepath.Join(dest, name)); err != nil {
			o.failed(report, OpMove, name, err)
			return
		}
		report.Succeeded++
		o.logger.Debug("file moved", "file", name, "dest", dest)
	})
	return nil
}

// delete removes each file permanently. A failure skips only that file.
func (o *Organizer) delete(selected DateIndex, rule Rule, report *Report) {
	eachFile(selected, rule, func(_ Date, name string) {
		report.Selected++
		if err := o.fsmgr.Remove(filepath.Join(o.dir, name)); err != nil {
			o.failed(report, OpDelete, name, err)
			return
		}
		report.Succeeded++
		o.logger.Debug("file deleted", "file", name)
	})
}

// rename gives each file a name built from its modification date and a
// per-bucket counter: 2015-Nov-16-000.txt, 2015-Nov-16-001.txt, ...
// The counter restarts for every date and only advances on a rename. A
// number whose name is already taken by another file is passed over, the
// occupant keeping it as if it had been renamed.
func (o *Organizer) rename(selected DateIndex, rule Rule, report *Report) {
	var (
		current Date
		counter int
	)
	eachFile(selected, rule, func(date Date, name string) {
		if date != current {
			current, counter = date, 0
		}
		report.Selected++

		_, ext := splitName(name)
		var target string
		for {
			target = fmt.Sprintf("%s-%03d%s", date.Format(renameDateLayout), counter, ext)
			if target == name {
				break
			}
			exists, err := o.fsmgr.Exists(filepath.Join(o.dir, target))
			if err != nil {
				o.failed(report, OpRename, name, err)
				return
			}
			if !exists {
				break
			}
			o.logger.Debug("rename target taken", "file", name, "name", target)
			counter++
		}
		if target == name {
			counter++
			report.Succeeded++
			return
		}

		if err := o.fsmgr.Rename(filepath.Join(o.dir, name), filepath.Join(o.dir, target)); err != nil {
			o.failed(report, OpRename, name, err)
			return
		}
		counter++
		report.Succeeded++
		o.logger.Debug("file renamed", "file", name, "name", target)
	})
}
