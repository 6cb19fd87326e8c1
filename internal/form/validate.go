package form

import (
	"errors"
	"unicode/utf8"
)

// ErrNotValidated is reported for a Valid that did not come from Validate.
var ErrNotValidated = errors.New("form was not validated")

// Problem is one user-facing error, tied to a field or, with an empty Field, to the
// whole form.
type Problem struct {
	Field   string
	Message string
}

// InvalidEntry is a problem with one field.
func InvalidEntry(field, message string) Problem {
	return Problem{Field: field, Message: message}
}

// ServerError is a problem reported for the form as a whole.
func ServerError(message string) Problem {
	return Problem{Message: message}
}

// ServerErrors wraps each message as a whole-form problem.
func ServerErrors(messages []string) []Problem {
	out := make([]Problem, len(messages))
	for i, m := range messages {
		out[i] = ServerError(m)
	}
	return out
}

func (p Problem) String() string { return p.Message }

// Check is a single predicate over a field value.
type Check struct {
	Message string
	OK      func(value string) bool
}

// Rule lists the checks of one field. Name is the field name used in problems.
type Rule[K comparable] struct {
	Key    K
	Name   string
	Checks []Check
}

// NotBlank fails on an empty value.
func NotBlank(message string) Check {
	return Check{Message: message, OK: func(v string) bool { return v != "" }}
}

// MinLength fails when the value has fewer than n characters.
func MinLength(n int, message string) Check {
	return Check{Message: message, OK: func(v string) bool { return utf8.RuneCountInString(v) >= n }}
}

// Valid is proof that a form passed validation. Only Validate can produce one that
// reports OK; the zero value does not.
type Valid[K comparable] struct {
	form Form[K]
	ok   bool
}

// OK reports whether v was produced by a successful Validate.
func (v Valid[K]) OK() bool { return v.ok }

// Value returns the validated value of the field with key k.
func (v Valid[K]) Value(k K) string { return v.form.Value(k) }

// Validate runs every rule. A field yields at most one problem, from its first failing
// check; all fields are checked. A missing field validates as "".
func (f Form[K]) Validate(rules []Rule[K]) (Valid[K], []Problem) {
	var problems []Problem
	for _, rule := range rules {
		value := f.Value(rule.Key)
		for _, check := range rule.Checks {
			if !check.OK(value) {
				problems = append(problems, InvalidEntry(rule.Name, check.Message))
				break
			}
		}
	}
	if len(problems) > 0 {
		return Valid[K]{}, problems
	}
	return Valid[K]{form: f, ok: true}, nil
}
