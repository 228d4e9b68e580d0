// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var vendorPatterns = []struct {
	pattern *regexp.Regexp
	vendor  string
}{
	{regexp.MustCompile(`(?i)^DL2400`), "Seagate"},
	{regexp.MustCompile(`(?i)TOSHIBA`), "Toshiba"},
	{regexp.MustCompile(`(?i)^MG0[345678]`), "Toshiba"},
	{regexp.MustCompile(`(?i)INTEL`), "Intel"},
	{regexp.MustCompile(`(?i)KIOXIA`), "Kioxia"},
	{regexp.MustCompile(`(?i)WESTERN`), "WesternDigital"},
	{regexp.MustCompile(`(?i)WDC`), "WesternDigital"},
	{regexp.MustCompile(`(?i)^WD[0-9]`), "WesternDigital"},
	{regexp.MustCompile(`(?i)SEAGATE`), "Seagate"},
	{regexp.MustCompile(`(?i)^ST[0-9]`), "Seagate"},
	{regexp.MustCompile(`(?i)HGST`), "HGST"},
	{regexp.MustCompile(`(?i)^HU[HS]`), "HGST"},
	{regexp.MustCompile(`(?i)MICRON`), "Micron"},
	{regexp.MustCompile(`(?i)CRUCIAL`), "Micron"},
	{regexp.MustCompile(`(?i)^CT[0-9]`), "Micron"},
	{regexp.MustCompile(`(?i)MTFDD`), "Micron"},
	{regexp.MustCompile(`(?i)SANDISK`), "SanDisk"},
	{regexp.MustCompile(`(?i)SAMSUNG`), "Samsung"},
	{regexp.MustCompile(`(?i)^MZ[0-9A-Z]`), "Samsung"},
}

// FindVendor infers the manufacturer from the model and model family. It is
// used for metric labels only; the parsed device keeps the reported vendor.
func FindVendor(deviceModel, modelFamily string) string {
	for _, entry := range vendorPatterns {
		if entry.pattern.MatchString(deviceModel) || entry.pattern.MatchString(modelFamily) {
			return entry.vendor
		}
	}
	return ""
}

// system vendors known to rebrand drives, and the manufacturers they source from
var oemVendors = []struct {
	match, label string
	sources      []string
}{
	{"lenovo", "Lenovo", []string{"toshiba", "seagate", "hgst"}},
	{"dell", "Dell", []string{"seagate", "western digital", "toshiba"}},
	{"hp", "HP", []string{"western digital", "seagate", "toshiba"}},
	{"supermicro", "Supermicro", []string{"intel", "samsung"}},
}

var oemSources = []struct {
	match, label string
}{
	{"seagate", "Seagate"},
	{"western digital", "WD"},
	{"toshiba", "Toshiba"},
	{"hgst", "HGST"},
	{"samsung", "Samsung"},
	{"intel", "Intel"},
}

// detectOEMRelationship returns e.g. "Dell (Seagate OEM)" when a drive sold
// under a system vendor's name was built by another manufacturer.
func detectOEMRelationship(vendor, model, product string) string {
	vendor = strings.ToLower(vendor)
	model = strings.ToLower(model)
	product = strings.ToLower(product)
	if vendor == "" {
		return ""
	}

	sourceLabel := func(source string) string {
		for _, s := range oemSources {
			if s.match == source {
				return s.label
			}
		}
		return source
	}
	mentions := func(source string) bool {
		return strings.Contains(model, source) || strings.Contains(product, source)
	}

	for _, oem := range oemVendors {
		if !strings.Contains(vendor, oem.match) {
			continue
		}
		for _, source := range oem.sources {
			if mentions(source) {
				return fmt.Sprintf("%s (%s OEM)", oem.label, sourceLabel(source))
			}
		}
	}

	// the product sometimes names the actual manufacturer
	caser := cases.Title(language.English)
	for _, source := range oemSources {
		if strings.Contains(product, source.match) && !strings.Contains(vendor, source.match) {
			return fmt.Sprintf("%s (%s OEM)", caser.String(vendor), source.label)
		}
	}
	return ""
}
