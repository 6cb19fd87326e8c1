// Package form implements the field collection, trimming and validation shared by every
// form of the client.
package form

import "strings"

// Field is one input of a form. Key is the variant tag; a form holds at most one field
// per key.
type Field[K comparable] struct {
	Key   K
	Value string
}

// Form is an ordered set of fields plus the submitting flag.
type Form[K comparable] struct {
	fields     []Field[K]
	submitting bool
}

// New returns a form holding fields in the given order. Later duplicates replace
// earlier ones.
func New[K comparable](fields ...Field[K]) Form[K] {
	var f Form[K]
	for _, field := range fields {
		f.Upsert(field)
	}
	return f
}

// Upsert replaces the field with the same key in place, or appends it.
func (f *Form[K]) Upsert(field Field[K]) {
	for i := range f.fields {
		if f.fields[i].Key == field.Key {
			f.fields[i].Value = field.Value
			return
		}
	}
	f.fields = append(f.fields, field)
}

// Fields returns a copy of the fields in order.
func (f Form[K]) Fields() []Field[K] {
	out := make([]Field[K], len(f.fields))
	copy(out, f.fields)
	return out
}

// Value returns the value of the field with key k, or "" when absent.
func (f Form[K]) Value(k K) string {
	for _, field := range f.fields {
		if field.Key == k {
			return field.Value
		}
	}
	return ""
}

func (f Form[K]) Len() int { return len(f.fields) }

func (f Form[K]) Submitting() bool { return f.submitting }

// SetSubmitting marks whether a submission of this form is in flight.
func (f *Form[K]) SetSubmitting(v bool) { f.submitting = v }

// Trim returns a copy with every value whitespace-trimmed.
func (f Form[K]) Trim() Form[K] {
	out := Form[K]{fields: make([]Field[K], len(f.fields)), submitting: f.submitting}
	for i, field := range f.fields {
		out.fields[i] = Field[K]{Key: field.Key, Value: strings.TrimSpace(field.Value)}
	}
	return out
}
