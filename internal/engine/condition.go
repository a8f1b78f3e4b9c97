package engine

import (
	"strconv"
	"strings"
)

// conditionOp is the only two operators the mini-language supports.
// This is a deliberate non-goal (see the workflow action's condition
// design note): no general expression evaluator is planned.
type conditionOp int

const (
	opEquals conditionOp = iota
	opGreaterOrEqual
	opInvalid
)

// parseCondition splits a condition string on its operator. The first
// operator found wins; "==" and ">=" cannot both appear meaningfully in
// a single well-formed condition.
func parseCondition(s string) (lhs, rhs string, op conditionOp) {
	if idx := strings.Index(s, "=="); idx >= 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+2:]), opEquals
	}
	if idx := strings.Index(s, ">="); idx >= 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+2:]), opGreaterOrEqual
	}
	return "", "", opInvalid
}

// evaluateCondition resolves templates in cond against scope, then
// evaluates the narrow grammar described in the component design:
// "A == B" (trimmed string equality) or "A >= B" (numeric comparison).
// Anything that doesn't parse, or whose numbers don't parse, or whose
// comparison is false causes the step to be skipped.
func evaluateCondition(cond string, scope map[string]any) bool {
	resolved, ok := resolveTemplates(cond, scope).(string)
	if !ok {
		resolved = stringifyValue(resolveTemplates(cond, scope))
	}

	lhs, rhs, op := parseCondition(resolved)
	switch op {
	case opEquals:
		return strings.TrimSpace(lhs) == strings.TrimSpace(rhs)
	case opGreaterOrEqual:
		lf, errL := strconv.ParseFloat(strings.TrimSpace(lhs), 64)
		rf, errR := strconv.ParseFloat(strings.TrimSpace(rhs), 64)
		if errL != nil || errR != nil {
			return false
		}
		return lf >= rf
	default:
		return false
	}
}

// evaluateConditions runs every condition in the list; an empty list
// means "always run". All must hold for the step to proceed.
func evaluateConditions(conditions []string, scope map[string]any) bool {
	for _, c := range conditions {
		if !evaluateCondition(c, scope) {
			return false
		}
	}
	return true
}
