package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronSpec is a parsed five-field cron expression (minute hour
// day-of-month month day-of-week), each field either "*" or a
// comma-separated list of integers. No retrieved example repo ships a
// cron-expression parser as buildable source (robfig/cron appears only
// in unreviewable manifest-only stubs under other_examples/), so this
// is a deliberately minimal hand implementation: enough field coverage
// for the scheduler's own tests and typical "every N minutes/hours at
// :00" deployment schedules, without ranges or step syntax ("1-5",
// "*/15").
type CronSpec struct {
	minute, hour, dom, month, dow fieldMatcher
}

type fieldMatcher struct {
	wildcard bool
	values   map[int]struct{}
}

func parseField(raw string, min, max int) (fieldMatcher, error) {
	if raw == "*" {
		return fieldMatcher{wildcard: true}, nil
	}
	values := make(map[int]struct{})
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fieldMatcher{}, fmt.Errorf("cron: invalid field value %q: %w", part, err)
		}
		if n < min || n > max {
			return fieldMatcher{}, fmt.Errorf("cron: value %d out of range [%d,%d]", n, min, max)
		}
		values[n] = struct{}{}
	}
	return fieldMatcher{values: values}, nil
}

func (f fieldMatcher) matches(n int) bool {
	if f.wildcard {
		return true
	}
	_, ok := f.values[n]
	return ok
}

// ParseCronSpec parses a standard five-field expression
// "minute hour dom month dow".
func ParseCronSpec(expr string) (CronSpec, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return CronSpec{}, fmt.Errorf("cron: expected 5 fields, got %d in %q", len(fields), expr)
	}

	minute, err := parseField(fields[0], 0, 59)
	if err != nil {
		return CronSpec{}, err
	}
	hour, err := parseField(fields[1], 0, 23)
	if err != nil {
		return CronSpec{}, err
	}
	dom, err := parseField(fields[2], 1, 31)
	if err != nil {
		return CronSpec{}, err
	}
	month, err := parseField(fields[3], 1, 12)
	if err != nil {
		return CronSpec{}, err
	}
	dow, err := parseField(fields[4], 0, 6)
	if err != nil {
		return CronSpec{}, err
	}

	return CronSpec{minute: minute, hour: hour, dom: dom, month: month, dow: dow}, nil
}

// Matches reports whether t falls on this schedule, at minute
// resolution.
func (c CronSpec) Matches(t time.Time) bool {
	return c.minute.matches(t.Minute()) &&
		c.hour.matches(t.Hour()) &&
		c.dom.matches(t.Day()) &&
		c.month.matches(int(t.Month())) &&
		c.dow.matches(int(t.Weekday()))
}
