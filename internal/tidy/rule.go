package tidy

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Operation is the kind of change a Rule applies to selected files.
type Operation string

const (
	OpCopy   Operation = "copy"
	OpMove   Operation = "move"
	OpDelete Operation = "delete"
	OpRename Operation = "rename"
)

// AllExtensions is the extension filter that matches every file.
const AllExtensions = "all"

// verb returns the progressive form used in status lines.
func (op Operation) verb() string {
	switch op {
	case OpCopy:
		return "Copying"
	case OpMove:
		return "Moving"
	case OpDelete:
		return "Deleting"
	case OpRename:
		return "Renaming"
	}
	return string(op)
}

// ruleFields is the validated shape of a Rule. Each operation accepts a
// fixed set of fields:
//
//	copy   {ext, modifier}
//	move   {ext, modifier, pattern?, destination}
//	delete {ext, modifier, pattern?}
//	rename {ext, modifier, pattern?}
type ruleFields struct {
	Operation   Operation `validate:"required,oneof=copy move delete rename"`
	Extension   string    `validate:"required,extfilter"`
	Pattern     string    `validate:"excluded_if=Operation copy"`
	Destination string    `validate:"required_if=Operation move,excluded_if=Operation copy,excluded_if=Operation delete,excluded_if=Operation rename"`
	Modifier    Modifier
}

var validate = newRuleValidator()

func newRuleValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("extfilter", validExtensionFilter); err != nil {
		panic(fmt.Sprintf("registering extfilter validation: %v", err))
	}
	return v
}

// validExtensionFilter accepts "all" or a single dotted extension such as ".png".
func validExtensionFilter(fl validator.FieldLevel) bool {
	ext := fl.Field().String()
	if ext == AllExtensions {
		return true
	}
	return len(ext) > 1 && ext[0] == '.' && !strings.ContainsAny(ext[1:], `./\|`)
}

// RuleOption sets an optional Rule field.
type RuleOption func(*ruleFields)

// WithPattern restricts a rule to files whose base name contains pattern.
func WithPattern(pattern string) RuleOption {
	return func(f *ruleFields) { f.Pattern = pattern }
}

// WithDestination sets the directory files are moved into.
func WithDestination(dir string) RuleOption {
	return func(f *ruleFields) { f.Destination = dir }
}

// Rule is an immutable request to apply one operation to the files of a
// directory that pass its extension, date and pattern filters.
type Rule struct {
	fields ruleFields
}

// NewRule validates and builds a Rule.
func NewRule(op Operation, ext string, mod Modifier, opts ...RuleOption) (Rule, error) {
	f := ruleFields{
		Operation: Operation(strings.ToLower(strings.TrimSpace(string(op)))),
		Extension: strings.TrimSpace(ext),
		Modifier:  mod,
	}
	if strings.EqualFold(f.Extension, AllExtensions) {
		f.Extension = AllExtensions
	}
	for _, opt := range opts {
		opt(&f)
	}

	if err := validate.Struct(f); err != nil {
		return Rule{}, describeValidationError(err)
	}
	if err := mod.Validate(); err != nil {
		return Rule{}, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return Rule{fields: f}, nil
}

func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "required_if":
			msgs = append(msgs, field+" is required for move")
		case "excluded_if":
			msgs = append(msgs, fmt.Sprintf("%s is not allowed for %v", field, fe.Param()[len("Operation "):]))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("unknown operation %q", fe.Value()))
		case "extfilter":
			msgs = append(msgs, fmt.Sprintf("extension %q must be \"all\" or look like \".ext\"", fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRule, strings.Join(msgs, "; "))
}

func (r Rule) Operation() Operation { return r.fields.Operation }
func (r Rule) Extension() string    { return r.fields.Extension }
func (r Rule) Modifier() Modifier   { return r.fields.Modifier }
func (r Rule) Pattern() string      { return r.fields.Pattern }
func (r Rule) Destination() string  { return r.fields.Destination }

// IsZero reports whether r was never built by NewRule.
func (r Rule) IsZero() bool { return r.fields.Operation == "" }

// matchesExtension compares name's extension case-insensitively.
func (r Rule) matchesExtension(name string) bool {
	if r.fields.Extension == AllExtensions {
		return true
	}
	_, ext := splitName(name)
	return strings.EqualFold(ext, r.fields.Extension)
}

// matchesPattern tests the pattern against the base name without extension.
func (r Rule) matchesPattern(name string) bool {
	if r.fields.Pattern == "" {
		return true
	}
	stem, _ := splitName(name)
	return strings.Contains(stem, r.fields.Pattern)
}

// splitName splits a file name into stem and extension. Leading dots belong
// to the stem, so ".bashrc" has no extension.
func splitName(name string) (stem, ext string) {
	trimmed := strings.TrimLeft(name, ".")
	ext = filepath.Ext(trimmed)
	return name[:len(name)-len(ext)], ext
}
