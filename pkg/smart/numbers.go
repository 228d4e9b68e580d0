// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// digits grouped by thousands with any of the separators locales use
	groupedIntRe = regexp.MustCompile(`^[+-]?\d{1,3}(?:[,.' ]\d{3})+$`)
	plainIntRe   = regexp.MustCompile(`^[+-]?\d+$`)
	leadingNumRe = regexp.MustCompile(`^[+-]?\d[\d,.' ]*`)
	leadingDigRe = regexp.MustCompile(`^[+-]?\d+`)
	hexRe        = regexp.MustCompile(`0x[0-9a-fA-F]+`)
)

// parseInt parses an exact integer, accepting thousands separators.
// Anything else, including placeholders, yields false.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	switch {
	case plainIntRe.MatchString(s):
	case groupedIntRe.MatchString(s):
		s = stripSeparators(s)
	default:
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// leadingInt parses the integer a value starts with, e.g. 31 from
// "31 (Min/Max 18/45)" or 1234 from "1,234 [5.00 GB]".
func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	candidate := strings.TrimRight(leadingNumRe.FindString(s), ",.' ")
	if candidate == "" {
		return 0, false
	}
	if v, ok := parseInt(candidate); ok {
		return v, true
	}
	return parseInt(leadingDigRe.FindString(s))
}

// parseHex returns the first 0x prefixed number in s.
func parseHex(s string) (int64, bool) {
	m := hexRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(m[2:], 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', '\'', ' ':
			return -1
		}
		return r
	}, s)
}

func intPtr(v int64) *int64 {
	return &v
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

// fieldInt returns the leading integer of a labelled field, or nil.
func fieldInt(out *Output, label string) *int64 {
	v, ok := out.Field(label)
	if !ok {
		return nil
	}
	n, ok := leadingInt(v)
	if !ok {
		return nil
	}
	return &n
}

// fieldString returns a labelled field value, or nil for missing and placeholder values.
func fieldString(out *Output, labels ...string) *string {
	for _, label := range labels {
		if v, ok := out.Field(label); ok {
			return strPtr(v)
		}
	}
	return nil
}
