package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-directory file listing extra ignore patterns.
const IgnoreFileName = ".tidyignore"

// defaultIgnorePatterns are always applied regardless of config or .tidyignore.
var defaultIgnorePatterns = []string{IgnoreFileName}

// ignoreRule is one parsed line of an ignore list.
type ignoreRule struct {
	glob   string
	negate bool // "!pattern" re-includes names matched by an earlier rule
}

// IgnoreMatcher decides which file names are hidden from the organizer.
// Patterns are filepath.Match globs tested against the file name; later
// rules win, so "!keep.log" after "*.log" keeps keep.log visible.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines, lines starting with '#' and malformed globs are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var rules []ignoreRule
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		r := ignoreRule{glob: raw}
		if strings.HasPrefix(raw, "!") {
			r = ignoreRule{glob: raw[1:], negate: true}
		}
		if _, err := filepath.Match(r.glob, ""); err != nil {
			continue
		}
		rules = append(rules, r)
	}
	return &IgnoreMatcher{rules: rules}
}

// Match reports whether the file called name should be ignored.
func (m *IgnoreMatcher) Match(name string) bool {
	ignored := false
	for _, r := range m.rules {
		// Patterns were checked in NewIgnoreMatcher, so Match cannot fail.
		if ok, _ := filepath.Match(r.glob, name); ok {
			ignored = !r.negate
		}
	}
	return ignored
}

// ParseIgnoreFile reads an ignore file and returns its lines.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
