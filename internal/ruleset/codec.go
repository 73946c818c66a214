// Package ruleset reads and writes rule lines and the rules file that maps
// monitored directories to their rules.
package ruleset

import (
	"fmt"
	"strings"

	"tidy-go/internal/tidy"
)

const fieldSep = "|"

// schema lists how many '|'-separated fields each operation accepts:
//
//	copy   op|ext|modifier
//	rename op|ext|modifier[|pattern]
//	delete op|ext|modifier[|pattern]
//	move   op|ext|modifier|pattern|destination   (pattern may be empty)
var schema = map[tidy.Operation]struct{ min, max int }{
	tidy.OpCopy:   {3, 3},
	tidy.OpRename: {3, 4},
	tidy.OpDelete: {3, 4},
	tidy.OpMove:   {5, 5},
}

// ParseRule decodes a rule line such as "move|.png|od30|shot|/archive".
func ParseRule(line string) (tidy.Rule, error) {
	fields := strings.Split(strings.TrimSpace(line), fieldSep)
	op := tidy.Operation(strings.ToLower(strings.TrimSpace(fields[0])))

	shape, ok := schema[op]
	if !ok {
		return tidy.Rule{}, fmt.Errorf("%w: unknown operation %q in %q", tidy.ErrInvalidRule, fields[0], line)
	}
	if len(fields) < shape.min || len(fields) > shape.max {
		return tidy.Rule{}, fmt.Errorf("%w: %s takes %s fields, got %d in %q",
			tidy.ErrInvalidRule, op, fieldCount(shape.min, shape.max), len(fields), line)
	}

	mod, err := tidy.ParseModifier(fields[2])
	if err != nil {
		return tidy.Rule{}, fmt.Errorf("parsing rule %q: %w", line, err)
	}

	var opts []tidy.RuleOption
	if len(fields) > 3 && fields[3] != "" {
		opts = append(opts, tidy.WithPattern(fields[3]))
	}
	if len(fields) > 4 {
		opts = append(opts, tidy.WithDestination(strings.TrimSpace(fields[4])))
	}

	rule, err := tidy.NewRule(op, fields[1], mod, opts...)
	if err != nil {
		return tidy.Rule{}, fmt.Errorf("parsing rule %q: %w", line, err)
	}
	return rule, nil
}

func fieldCount(min, max int) string {
	if min == max {
		return fmt.Sprint(min)
	}
	return fmt.Sprintf("%d to %d", min, max)
}

// FormatRule encodes rule in the form ParseRule reads. Delete rules always
// carry a (possibly empty) pattern field.
func FormatRule(rule tidy.Rule) string {
	fields := []string{string(rule.Operation()), rule.Extension(), rule.Modifier().String()}
	switch rule.Operation() {
	case tidy.OpRename:
		if rule.Pattern() != "" {
			fields = append(fields, rule.Pattern())
		}
	case tidy.OpDelete:
		fields = append(fields, rule.Pattern())
	case tidy.OpMove:
		fields = append(fields, rule.Pattern(), rule.Destination())
	}
	return strings.Join(fields, fieldSep)
}

// ParseDirectoryLine decodes "directory|op|ext|modifier[|pattern[|destination]]".
func ParseDirectoryLine(line string) (string, tidy.Rule, error) {
	dir, rest, ok := strings.Cut(strings.TrimSpace(line), fieldSep)
	if !ok || dir == "" {
		return "", tidy.Rule{}, fmt.Errorf("%w: missing directory in %q", tidy.ErrInvalidRule, line)
	}
	rule, err := ParseRule(rest)
	if err != nil {
		return "", tidy.Rule{}, err
	}
	return dir, rule, nil
}

// FormatDirectoryLine encodes dir and rule as one line.
func FormatDirectoryLine(dir string, rule tidy.Rule) string {
	return dir + fieldSep + FormatRule(rule)
}
