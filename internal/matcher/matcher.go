// Package matcher classifies log lines as failed authentication attempts.
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

type rule struct {
	name   string
	folded string
	expr   *regexp.Regexp
}

// Matcher holds literal markers compared case-insensitively and optional
// regular expressions compared as written.
type Matcher struct {
	folder cases.Caser
	rules  []rule
}

// New builds a matcher. Literal patterns are folded with Unicode case folding;
// blank patterns are skipped. An invalid expression is returned as an error.
func New(patterns []string, expressions []string) (*Matcher, error) {
	m := &Matcher{folder: cases.Fold()}
	for _, p := range patterns {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		m.rules = append(m.rules, rule{name: trimmed, folded: m.folder.String(trimmed)})
	}
	for _, e := range expressions {
		if strings.TrimSpace(e) == "" {
			continue
		}
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("compile expression %q: %w", e, err)
		}
		m.rules = append(m.rules, rule{name: e, expr: re})
	}
	return m, nil
}

// Match reports the first rule the line satisfies.
func (m *Matcher) Match(line string) (string, bool) {
	if m == nil || len(m.rules) == 0 {
		return "", false
	}
	var folded string
	for _, r := range m.rules {
		if r.expr != nil {
			if r.expr.MatchString(line) {
				return r.name, true
			}
			continue
		}
		if folded == "" {
			folded = m.folder.String(line)
		}
		if strings.Contains(folded, r.folded) {
			return r.name, true
		}
	}
	return "", false
}

// Rules returns the configured rule names in evaluation order.
func (m *Matcher) Rules() []string {
	names := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		names = append(names, r.name)
	}
	return names
}
