// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Line is one cleaned output line together with the section it appeared in.
type Line struct {
	Section string
	Text    string
}

// Output is the tokenized form of a smartctl text report.
type Output struct {
	// Header is the "smartctl x.y ..." banner line.
	Header string
	// Fields maps normalized labels to their values in order of appearance.
	Fields map[string][]string
	// Lines are all non-empty cleaned lines.
	Lines []Line
	// Sections holds the raw lines of every "=== START OF ... SECTION ===" block.
	Sections map[string][]string
	// AttributeRows are the rows of the ATA attribute table.
	AttributeRows []string
	// SelfTestRows are the rows of the self-test log, most recent first.
	SelfTestRows []string
}

type tableMode int

const (
	noTable tableMode = iota
	attributeTable
	selfTestTable
)

var (
	sectionRe     = regexp.MustCompile(`^===\s*START OF (.+?)\s*(SECTION)?\s*===$`)
	selfTestRowRe = regexp.MustCompile(`^\s*(#\s*\d+|\d+)\s`)
	attributeRow  = regexp.MustCompile(`^\s*\d+\s+\S+`)
)

var placeholders = map[string]struct{}{
	"-":                      {},
	"--":                     {},
	"---":                    {},
	"n/a":                    {},
	"na":                     {},
	"none":                   {},
	"unknown":                {},
	"not available":          {},
	"<not available>":        {},
	"[no information found]": {},
}

// Tokenize splits raw smartctl text into labelled fields, tables and sections.
// Lines that cannot be tokenized are skipped.
func Tokenize(raw string) *Output {
	out := &Output{
		Fields:   make(map[string][]string),
		Sections: make(map[string][]string),
	}

	section := ""
	mode := noTable
	for _, rawLine := range strings.Split(raw, "\n") {
		text := cleanLine(rawLine)
		if strings.TrimSpace(text) == "" {
			mode = noTable
			continue
		}
		trimmed := strings.TrimSpace(text)

		if m := sectionRe.FindStringSubmatch(trimmed); m != nil {
			section = NormalizeLabel(m[1])
			mode = noTable
			continue
		}
		if out.Header == "" && strings.HasPrefix(trimmed, "smartctl ") {
			out.Header = trimmed
		}

		out.Lines = append(out.Lines, Line{Section: section, Text: text})
		if section != "" {
			out.Sections[section] = append(out.Sections[section], text)
		}

		switch mode {
		case attributeTable:
			if attributeRow.MatchString(text) {
				out.AttributeRows = append(out.AttributeRows, trimmed)
			}
			continue
		case selfTestTable:
			if selfTestRowRe.MatchString(text) {
				out.SelfTestRows = append(out.SelfTestRows, trimmed)
			}
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "ID#"):
			mode = attributeTable
			continue
		case strings.HasPrefix(trimmed, "Num") && strings.Contains(trimmed, "Test"):
			mode = selfTestTable
			continue
		}

		label, value, ok := splitField(trimmed)
		if !ok {
			continue
		}
		out.Fields[label] = append(out.Fields[label], value)
	}

	return out
}

// Field returns the first non-placeholder value of the label.
func (o *Output) Field(label string) (string, bool) {
	for _, v := range o.Fields[NormalizeLabel(label)] {
		if !IsPlaceholder(v) {
			return v, true
		}
	}
	return "", false
}

// FieldValues returns every value recorded for the label.
func (o *Output) FieldValues(label string) []string {
	return o.Fields[NormalizeLabel(label)]
}

// Has reports whether the label appeared, even with a placeholder value.
func (o *Output) Has(label string) bool {
	_, ok := o.Fields[NormalizeLabel(label)]
	return ok
}

// FieldWithPrefix returns the label and first value of a field whose label starts with prefix.
func (o *Output) FieldWithPrefix(prefix string) (string, string, bool) {
	prefix = NormalizeLabel(prefix)
	for _, line := range o.Lines {
		label, value, ok := splitField(strings.TrimSpace(line.Text))
		if ok && strings.HasPrefix(label, prefix) {
			return label, value, true
		}
	}
	return "", "", false
}

// ContainsLine reports whether any line contains substr, ignoring case.
func (o *Output) ContainsLine(substr string) bool {
	substr = strings.ToLower(substr)
	for _, line := range o.Lines {
		if strings.Contains(strings.ToLower(line.Text), substr) {
			return true
		}
	}
	return false
}

// NormalizeLabel trims, case-folds and collapses the whitespace of a field label.
func NormalizeLabel(label string) string {
	return cases.Fold().String(strings.Join(strings.Fields(label), " "))
}

// IsPlaceholder reports whether a value is empty or one of smartctl's "not applicable" markers.
func IsPlaceholder(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	_, ok := placeholders[strings.ToLower(value)]
	return ok
}

func splitField(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	label := NormalizeLabel(line[:idx])
	if label == "" || !strings.ContainsFunc(label, unicode.IsLetter) {
		return "", "", false
	}
	return label, strings.TrimSpace(line[idx+1:]), true
}

// cleanLine turns locale specific whitespace into ASCII spaces and drops
// invisible and control characters. Tabs become a two space column gap.
func cleanLine(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t':
			b.WriteString("  ")
		case r == unicode.ReplacementChar:
		case unicode.Is(unicode.Cf, r):
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}
