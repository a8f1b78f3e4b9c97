package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// valueKind tags a templateValue the way the design notes call for: a
// sum type over the shapes a step's resolved inputs can take, rather
// than ad-hoc runtime type switches scattered through the walk.
type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindNumber
	kindBool
	kindMapping
	kindSequence
)

// templateValue is the tagged value the template walk operates on.
// Only the kindString arm ever invokes placeholder substitution; every
// other arm passes through unchanged, mapping or sequence members
// aside (which are walked recursively).
type templateValue struct {
	kind vKind
	str  string
	num  float64
	b    bool
	m    map[string]templateValue
	seq  []templateValue
}

type vKind = valueKind

func valueOf(v any) templateValue {
	switch t := v.(type) {
	case nil:
		return templateValue{kind: kindNull}
	case string:
		return templateValue{kind: kindString, str: t}
	case bool:
		return templateValue{kind: kindBool, b: t}
	case float64:
		return templateValue{kind: kindNumber, num: t}
	case float32:
		return templateValue{kind: kindNumber, num: float64(t)}
	case int:
		return templateValue{kind: kindNumber, num: float64(t)}
	case int64:
		return templateValue{kind: kindNumber, num: float64(t)}
	case map[string]any:
		m := make(map[string]templateValue, len(t))
		for k, vv := range t {
			m[k] = valueOf(vv)
		}
		return templateValue{kind: kindMapping, m: m}
	case []any:
		seq := make([]templateValue, len(t))
		for i, vv := range t {
			seq[i] = valueOf(vv)
		}
		return templateValue{kind: kindSequence, seq: seq}
	default:
		// Unknown leaf types (custom structs passed straight through by
		// a caller) are treated as opaque strings via their default
		// formatting so the walk always terminates.
		return templateValue{kind: kindString, str: fmt.Sprint(t)}
	}
}

func (v templateValue) native() any {
	switch v.kind {
	case kindNull:
		return nil
	case kindString:
		return v.str
	case kindNumber:
		return v.num
	case kindBool:
		return v.b
	case kindMapping:
		out := make(map[string]any, len(v.m))
		for k, vv := range v.m {
			out[k] = vv.native()
		}
		return out
	case kindSequence:
		out := make([]any, len(v.seq))
		for i, vv := range v.seq {
			out[i] = vv.native()
		}
		return out
	default:
		return nil
	}
}

// resolveTemplates walks an arbitrary input tree, substituting
// placeholders in string leaves against scope. Mappings are descended
// key by key, sequences element by element; non-string leaves keep their
// value, but int, int64 and float32 leaves come back as float64, and
// leaf types other than string, number, bool, map[string]any and []any
// come back as their fmt.Sprint text.
func resolveTemplates(input any, scope map[string]any) any {
	return resolveValue(valueOf(input), scope).native()
}

func resolveValue(v templateValue, scope map[string]any) templateValue {
	switch v.kind {
	case kindString:
		return resolveStringValue(v.str, scope)
	case kindMapping:
		out := make(map[string]templateValue, len(v.m))
		for k, vv := range v.m {
			out[k] = resolveValue(vv, scope)
		}
		return templateValue{kind: kindMapping, m: out}
	case kindSequence:
		out := make([]templateValue, len(v.seq))
		for i, vv := range v.seq {
			out[i] = resolveValue(vv, scope)
		}
		return templateValue{kind: kindSequence, seq: out}
	default:
		return v
	}
}

// resolveStringValue substitutes "{{name}}" placeholders. When the
// entire string is exactly one placeholder, the substituted value's
// native type is preserved (so a number stays a number); otherwise the
// result is stringified into the surrounding text.
func resolveStringValue(s string, scope map[string]any) templateValue {
	if lhs, ok := wholePlaceholder(s); ok {
		if val, found := lookupScope(lhs, scope); found {
			return valueOf(val)
		}
		return templateValue{kind: kindString, str: ""}
	}

	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start
		b.WriteString(rest[:start])
		name := strings.TrimSpace(rest[start+2 : end])
		if val, found := lookupScope(name, scope); found {
			b.WriteString(stringifyValue(val))
		}
		rest = rest[end+2:]
	}
	return templateValue{kind: kindString, str: b.String()}
}

func wholePlaceholder(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{{") || !strings.HasSuffix(trimmed, "}}") {
		return "", false
	}
	inner := strings.TrimSpace(trimmed[2 : len(trimmed)-2])
	if strings.Contains(inner, "{{") {
		return "", false
	}
	return inner, true
}

func lookupScope(name string, scope map[string]any) (any, bool) {
	v, ok := scope[name]
	return v, ok
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
