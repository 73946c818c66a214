package tidy

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the textual form used in modifiers and index output.
const dateLayout = "2006.01.02"

// Date is a calendar date with no time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the local calendar date of t.
func DateOf(t time.Time) Date {
	y, m, d := t.Local().Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses "2015.11.16" or "2015-11-16". Single-digit month and day
// parts are accepted. The result must be a real calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	sep := "."
	if strings.Contains(s, "-") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	// time.Date normalizes out-of-range values, so a round trip catches 2015.02.30.
	if DateOf(d.Time()) != d {
		return Date{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateFormat, s)
	}
	return d, nil
}

// Time returns local midnight at the start of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// Format formats d with a time layout, e.g. "2006-Jan-02".
func (d Date) Format(layout string) string {
	return d.Time().Format(layout)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DateIndex groups file names by their last-modified calendar date.
// Each bucket keeps the order in which files were discovered.
type DateIndex map[Date][]string

// Add appends name to the bucket for date, creating the bucket if needed.
func (idx DateIndex) Add(date Date, name string) {
	idx[date] = append(idx[date], name)
}

// Dates returns the bucket keys in ascending order.
func (idx DateIndex) Dates() []Date {
	dates := make([]Date, 0, len(idx))
	for d := range idx {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, Date.Compare)
	return dates
}

// Len returns the total number of files across all buckets.
func (idx DateIndex) Len() int {
	n := 0
	for _, files := range idx {
		n += len(files)
	}
	return n
}

// Clone returns a deep copy of the index.
func (idx DateIndex) Clone() DateIndex {
	out := make(DateIndex, len(idx))
	for d, files := range idx {
		out[d] = slices.Clone(files)
	}
	return out
}

// NewDateIndex groups entries by modification date in the order given.
func NewDateIndex(entries []FileEntry) DateIndex {
	idx := make(DateIndex)
	for _, e := range entries {
		idx.Add(e.Date(), e.Name)
	}
	return idx
}
