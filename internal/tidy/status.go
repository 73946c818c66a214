package tidy

import (
	"fmt"
	"strings"
)

// Describe returns the one-line summary logged before a rule runs, e.g.
//
//	Moving all .log files older than 30 days containing "app" to /var/archive...
func Describe(rule Rule) string {
	var b strings.Builder
	b.WriteString(rule.Operation().verb())
	b.WriteString(" all ")
	if rule.Extension() != AllExtensions {
		b.WriteString(rule.Extension())
		b.WriteString(" ")
	}
	b.WriteString("files ")
	b.WriteString(rule.Modifier().Phrase())
	if rule.Pattern() != "" {
		fmt.Fprintf(&b, " containing %q", rule.Pattern())
	}
	if rule.Destination() != "" {
		b.WriteString(" to ")
		b.WriteString(rule.Destination())
	}
	b.WriteString("...")
	return b.String()
}
