package resources

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rules maps a descriptor field to a pipe-separated rule string.
//
//	Rules{"name": "required|slug|max:64"}
type Rules map[string]string

// FieldErrors collects messages per field.
type FieldErrors map[string][]string

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// First returns the first message recorded for field.
func (e FieldErrors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// String renders every message, fields sorted.
func (e FieldErrors) String() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(strings.Join(e[f], ", "))
	}
	return b.String()
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_.][a-z0-9]+)*$`)

// Check applies rules to data. A field stops at its first failing rule.
func Check(data map[string]string, rules Rules) FieldErrors {
	errs := FieldErrors{}
	for field, ruleStr := range rules {
		value := data[field]
		for _, rule := range strings.Split(ruleStr, "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}
			name, param, _ := strings.Cut(rule, ":")
			if msg, ok := apply(field, value, name, param); !ok {
				errs.add(field, msg)
				break
			}
		}
	}
	return errs
}

func apply(field, value, rule, param string) (string, bool) {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("the %s field is required", field), false
		}

	case "slug":
		if value != "" && !slugPattern.MatchString(value) {
			return fmt.Sprintf("the %s must be a lower-case slug", field), false
		}

	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("the %s may not be greater than %d characters", field, n), false
		}

	default:
		return fmt.Sprintf("unknown rule %q for %s", rule, field), false
	}
	return "", true
}
