// Package schema holds the declarative field rules evaluated against form values.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind tells the console how to parse raw input for a field.
type Kind string

const (
	KindText     Kind = "text"
	KindLongText Kind = "longtext"
	KindNumber   Kind = "number"
	KindMoney    Kind = "money"
	KindBool     Kind = "bool"
	KindDate     Kind = "date"
	KindRelation Kind = "relation"
	KindImage    Kind = "image"
)

// Relation describes how a field referencing other records is sent to the server.
type Relation string

const (
	RelationNone Relation = ""
	RelationOne  Relation = "one"  // object -> its id
	RelationMany Relation = "many" // list of objects -> list of ids
	RelationFile Relation = "file" // uploaded file reference -> its storage key
)

// Presence requires a non-empty value. Whitespace-only strings, empty lists and
// empty objects count as empty.
type Presence struct {
	Message string
}

// Pattern requires string values to match Expr. Empty values are left to Presence.
type Pattern struct {
	Expr    *regexp.Regexp
	Message string
}

// Range bounds numeric values. Nil bounds are open.
type Range struct {
	Min     *float64
	Max     *float64
	Message string
}

// Length bounds the rune count of string values.
type Length struct {
	Max     int
	Message string
}

// Field declares one editable field and the rules it must satisfy.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Relation Relation
	// Search names the entity queried by the typeahead bound to a relation field.
	Search   string
	Presence *Presence
	Pattern  *Pattern
	Range    *Range
	Length   *Length
}

// Schema is the ordered rule set for one entity form.
type Schema struct {
	Fields []Field
}

// Errors maps field name to its ordered failure messages.
type Errors map[string][]string

// Field returns the declaration for name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate evaluates every rule against values.
// PRE: none
// POST: returns an empty (non-nil) map when all rules pass
// INVARIANT: values is not mutated
func (s Schema) Validate(values map[string]any) Errors {
	errs := Errors{}
	for _, f := range s.Fields {
		if msgs := f.check(values[f.Name]); len(msgs) > 0 {
			errs[f.Name] = msgs
		}
	}
	return errs
}

func (f Field) check(v any) []string {
	var msgs []string
	empty := IsEmpty(v)
	if f.Presence != nil && empty {
		msgs = append(msgs, orDefault(f.Presence.Message, f.label()+" is required"))
	}
	if empty {
		return msgs
	}
	if f.Pattern != nil {
		s, ok := v.(string)
		if !ok || !f.Pattern.Expr.MatchString(s) {
			msgs = append(msgs, orDefault(f.Pattern.Message, f.label()+" is invalid"))
		}
	}
	if f.Range != nil {
		n, ok := Number(v)
		switch {
		case !ok:
			msgs = append(msgs, f.label()+" must be a number")
		case f.Range.Min != nil && n < *f.Range.Min, f.Range.Max != nil && n > *f.Range.Max:
			msgs = append(msgs, orDefault(f.Range.Message, f.label()+" is out of range"))
		}
	}
	if f.Length != nil {
		if s, ok := v.(string); ok && utf8.RuneCountInString(s) > f.Length.Max {
			msgs = append(msgs, orDefault(f.Length.Message,
				fmt.Sprintf("%s cannot exceed %d characters", f.label(), f.Length.Max)))
		}
	}
	return msgs
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Remaining returns how many characters are left before the Length rule trips,
// or -1 when the field has no Length rule.
func (f Field) Remaining(v any) int {
	if f.Length == nil {
		return -1
	}
	s, _ := v.(string)
	return f.Length.Max - utf8.RuneCountInString(s)
}

// Parse converts raw form input into the value stored for the field.
// Unparseable numbers are kept as strings so Validate reports them.
func (f Field) Parse(raw string) any {
	switch f.Kind {
	case KindNumber, KindMoney:
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		if f.Kind == KindMoney {
			raw = strings.ReplaceAll(raw, ",", ".")
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
		return raw
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "on", "true", "1", "yes":
			return true
		}
		return false
	case KindDate:
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		return raw
	}
	return raw
}

// Collapse returns a copy of values with relation fields reduced to bare
// references: objects become their id, lists become id lists and uploaded
// files become their storage key.
// INVARIANT: values is not mutated
func (s Schema) Collapse(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, f := range s.Fields {
		v, ok := out[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Relation {
		case RelationOne:
			out[f.Name] = reference(v, "id")
		case RelationFile:
			out[f.Name] = reference(v, "key")
		case RelationMany:
			items, ok := v.([]any)
			if !ok {
				continue
			}
			ids := make([]any, 0, len(items))
			for _, item := range items {
				if ref := reference(item, "id"); ref != nil {
					ids = append(ids, ref)
				}
			}
			out[f.Name] = ids
		}
	}
	return out
}

func reference(v any, key string) any {
	if m, ok := v.(map[string]any); ok {
		return m[key]
	}
	return v
}

// IsEmpty reports whether v counts as missing for a Presence rule.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Number converts JSON-ish numeric values to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Bound is a convenience for building Range rules.
func Bound(v float64) *float64 { return &v }

func orDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
