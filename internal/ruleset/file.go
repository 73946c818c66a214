package ruleset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tidy-go/internal/tidy"
)

// Manager reads and writes the rules file. Each unindented line names a
// directory; the tab-indented lines below it are that directory's rules:
//
//	/home/user/Downloads
//		copy|.png|nd7
//		delete|all|all|-copy
type Manager struct{}

// Read decodes a Monitor from r. Blank lines and lines starting with '#' are skipped.
func (m *Manager) Read(r io.Reader) (*tidy.Monitor, error) {
	mon := tidy.NewMonitor()
	current := ""

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if !strings.HasPrefix(line, "\t") {
			current = strings.TrimRight(line, " \r")
			mon.Add(current)
			continue
		}

		if current == "" {
			return nil, fmt.Errorf("line %d: rule %q appears before any directory", lineNo, trimmed)
		}
		rule, err := ParseRule(trimmed)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		mon.Add(current, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return mon, nil
}

// Write encodes mon to w, directories in insertion order.
func (m *Manager) Write(w io.Writer, mon *tidy.Monitor) error {
	bw := bufio.NewWriter(w)
	for _, dir := range mon.Directories() {
		fmt.Fprintln(bw, dir)
		for _, rule := range mon.Rules(dir) {
			fmt.Fprintf(bw, "\t%s\n", FormatRule(rule))
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}

// ReadFromFile reads the rules file at path. A missing file yields an empty Monitor.
func ReadFromFile(path string) (*tidy.Monitor, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tidy.NewMonitor(), nil
		}
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	mon, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading rules from %s: %w", path, err)
	}
	return mon, nil
}

// WriteToFile replaces the rules file at path with mon, creating its
// directory if needed.
func WriteToFile(path string, mon *tidy.Monitor) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create rules file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, mon); err != nil {
		return fmt.Errorf("writing rules to %s: %w", path, err)
	}
	return f.Close()
}
