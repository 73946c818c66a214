package tidy

import (
	"fmt"
	"strconv"
	"strings"
)

// ModifierKind identifies which date predicate a Modifier applies.
type ModifierKind int

const (
	modifierInvalid ModifierKind = iota
	ModifierAll
	ModifierRange
	ModifierNewer
	ModifierOlder
)

// Modifier selects date buckets of a DateIndex.
//
// Newer and Older compare against a pivot date, either relative to today
// (Days) or fixed (Pivot). Both comparisons are strict.
type Modifier struct {
	Kind  ModifierKind
	Start Date
	End   Date
	Days  int
	Pivot Date
}

// All selects every bucket.
func All() Modifier { return Modifier{Kind: ModifierAll} }

// Range selects buckets with start <= date <= end. The bounds are taken as given.
func Range(start, end Date) Modifier {
	return Modifier{Kind: ModifierRange, Start: start, End: end}
}

// NewerThan selects buckets strictly after today minus days.
func NewerThan(days int) Modifier { return Modifier{Kind: ModifierNewer, Days: days} }

// OlderThan selects buckets strictly before today minus days.
func OlderThan(days int) Modifier { return Modifier{Kind: ModifierOlder, Days: days} }

// NewerThanDate selects buckets strictly after d.
func NewerThanDate(d Date) Modifier { return Modifier{Kind: ModifierNewer, Pivot: d} }

// OlderThanDate selects buckets strictly before d.
func OlderThanDate(d Date) Modifier { return Modifier{Kind: ModifierOlder, Pivot: d} }

// ParseModifier parses the textual modifier forms:
//
//	all                       every date
//	[2015.11.01,2015.11.16]   inclusive range
//	nd7 / od7                 newer / older than 7 days ago
//	n2015.11.01 / o2015.11.01 newer / older than a fixed date
func ParseModifier(s string) (Modifier, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "all":
		return All(), nil

	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, "]") {
			return Modifier{}, fmt.Errorf("%w: unterminated range %q", ErrInvalidModifier, s)
		}
		bounds := strings.Split(s[1:len(s)-1], ",")
		if len(bounds) != 2 {
			return Modifier{}, fmt.Errorf("%w: range %q needs exactly two dates", ErrInvalidModifier, s)
		}
		start, err := ParseDate(bounds[0])
		if err != nil {
			return Modifier{}, fmt.Errorf("parsing range start: %w", err)
		}
		end, err := ParseDate(bounds[1])
		if err != nil {
			return Modifier{}, fmt.Errorf("parsing range end: %w", err)
		}
		return Range(start, end), nil

	case strings.HasPrefix(s, "n"), strings.HasPrefix(s, "o"):
		kind := ModifierNewer
		if s[0] == 'o' {
			kind = ModifierOlder
		}
		rest := s[1:]
		if strings.HasPrefix(rest, "d") {
			days, err := strconv.Atoi(rest[1:])
			if err != nil || days < 0 {
				return Modifier{}, fmt.Errorf("%w: day count in %q must be a non-negative integer", ErrInvalidModifier, s)
			}
			return Modifier{Kind: kind, Days: days}, nil
		}
		if rest == "" || rest[0] < '0' || rest[0] > '9' {
			return Modifier{}, fmt.Errorf("%w: %q", ErrInvalidModifier, s)
		}
		pivot, err := ParseDate(rest)
		if err != nil {
			return Modifier{}, fmt.Errorf("parsing modifier %q: %w", s, err)
		}
		return Modifier{Kind: kind, Pivot: pivot}, nil
	}

	return Modifier{}, fmt.Errorf("%w: %q", ErrInvalidModifier, s)
}

// Validate checks the modifier is well formed.
func (m Modifier) Validate() error {
	switch m.Kind {
	case ModifierAll:
		return nil
	case ModifierRange:
		if m.Start.IsZero() || m.End.IsZero() {
			return fmt.Errorf("%w: range needs both a start and an end date", ErrInvalidModifier)
		}
		return nil
	case ModifierNewer, ModifierOlder:
		if m.Days < 0 {
			return fmt.Errorf("%w: day count %d is negative", ErrInvalidModifier, m.Days)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown kind %d", ErrInvalidModifier, m.Kind)
}

// pivot returns the comparison date for Newer/Older modifiers.
func (m Modifier) pivot(today Date) Date {
	if !m.Pivot.IsZero() {
		return m.Pivot
	}
	return today.AddDays(-m.Days)
}

// Resolve returns a fresh index holding only the buckets m selects.
// The input index is not modified.
func (m Modifier) Resolve(idx DateIndex, today Date) (DateIndex, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Kind == ModifierAll {
		return idx.Clone(), nil
	}

	out := make(DateIndex)
	for d, files := range idx {
		if m.matches(d, today) {
			out[d] = append([]string(nil), files...)
		}
	}
	return out, nil
}

func (m Modifier) matches(d, today Date) bool {
	switch m.Kind {
	case ModifierAll:
		return true
	case ModifierRange:
		return d.Compare(m.Start) >= 0 && d.Compare(m.End) <= 0
	case ModifierNewer:
		return d.After(m.pivot(today))
	case ModifierOlder:
		return d.Before(m.pivot(today))
	}
	return false
}

// String returns the textual form accepted by ParseModifier.
func (m Modifier) String() string {
	switch m.Kind {
	case ModifierAll:
		return "all"
	case ModifierRange:
		return fmt.Sprintf("[%s,%s]", m.Start, m.End)
	case ModifierNewer, ModifierOlder:
		prefix := "n"
		if m.Kind == ModifierOlder {
			prefix = "o"
		}
		if !m.Pivot.IsZero() {
			return prefix + m.Pivot.String()
		}
		return fmt.Sprintf("%sd%d", prefix, m.Days)
	}
	return "invalid"
}

// Phrase describes the modifier for status lines, e.g. "older than 30 days".
func (m Modifier) Phrase() string {
	switch m.Kind {
	case ModifierAll:
		return "from all time"
	case ModifierRange:
		return fmt.Sprintf("from %s to %s", m.Start, m.End)
	case ModifierNewer, ModifierOlder:
		word := "newer"
		if m.Kind == ModifierOlder {
			word = "older"
		}
		if !m.Pivot.IsZero() {
			return fmt.Sprintf("%s than %s", word, m.Pivot)
		}
		unit := "days"
		if m.Days == 1 {
			unit = "day"
		}
		return fmt.Sprintf("%s than %d %s", word, m.Days, unit)
	}
	return "from an invalid date range"
}
