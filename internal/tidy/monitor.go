package tidy

import "slices"

// Monitor maps monitored directories to the rules applied to them.
// Directories keep insertion order so the rules file round-trips stably.
type Monitor struct {
	dirs  []string
	rules map[string][]Rule
}

// NewMonitor creates an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{rules: make(map[string][]Rule)}
}

// Add registers dir if needed and appends any rules not already present.
func (m *Monitor) Add(dir string, rules ...Rule) {
	if _, ok := m.rules[dir]; !ok {
		m.dirs = append(m.dirs, dir)
		m.rules[dir] = nil
	}
	for _, r := range rules {
		if !slices.Contains(m.rules[dir], r) {
			m.rules[dir] = append(m.rules[dir], r)
		}
	}
}

// Remove drops rule from dir. It reports whether the rule was present.
func (m *Monitor) Remove(dir string, rule Rule) bool {
	rules, ok := m.rules[dir]
	if !ok {
		return false
	}
	i := slices.Index(rules, rule)
	if i < 0 {
		return false
	}
	m.rules[dir] = slices.Delete(rules, i, i+1)
	return true
}

// RemoveDirectory stops monitoring dir and drops its rules.
// It reports whether dir was monitored.
func (m *Monitor) RemoveDirectory(dir string) bool {
	if _, ok := m.rules[dir]; !ok {
		return false
	}
	delete(m.rules, dir)
	m.dirs = slices.DeleteFunc(m.dirs, func(d string) bool { return d == dir })
	return true
}

// Clear removes every directory and rule.
func (m *Monitor) Clear() {
	m.dirs = nil
	m.rules = make(map[string][]Rule)
}

// Has reports whether dir is monitored.
func (m *Monitor) Has(dir string) bool {
	_, ok := m.rules[dir]
	return ok
}

// Directories returns the monitored directories in insertion order.
func (m *Monitor) Directories() []string {
	return slices.Clone(m.dirs)
}

// Rules returns a copy of the rules for dir.
func (m *Monitor) Rules(dir string) []Rule {
	return slices.Clone(m.rules[dir])
}
