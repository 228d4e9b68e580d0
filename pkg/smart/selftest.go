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
	// # 1  Short offline       Completed without error       00%     27830         -
	ataTestRowRe = regexp.MustCompile(`^#\s*(\d+)\s+(.+?)\s{2,}(.+?)\s+(\d+)%\s+(\d+)\s*(\S*)`)
	// # 2  Background long   Failed in segment -->       3   26500              1234 [0x3 0x11 0x0]
	scsiTestRowRe = regexp.MustCompile(`^#\s*(\d+)\s+(.+?)\s{2,}(.+?)\s{2,}(\S+)\s+(\d+|NOW)\s+(\S+)`)
	// 0   Short             Completed without error                8890            -     -   -   -    -
	nvmeTestRowRe = regexp.MustCompile(`^(\d+)\s+(.+?)\s{2,}(.+?)\s{2,}(\d+)\s+(\S+)`)
	// Self-test status: Short self-test in progress (12% completed)
	nvmeRunningRe = regexp.MustCompile(`(?i)^(.+?)\s+in progress\s*\(\s*(\d+)%\s*completed\s*\)`)
)

// offline data collection capability bits
const (
	capSelfTest   = 0x10
	capConveyance = 0x20
	capSelective  = 0x40

	nvmeOACSSelfTest = 0x10
)

// TestCapabilities lists the self-test kinds a device advertises.
type TestCapabilities struct {
	Short      bool
	Long       bool
	Selective  bool
	Conveyance bool
}

// ParseSelfTests returns the self-test log, most recent first as smartctl
// prints it. A missing log yields an empty, non-nil slice.
func ParseSelfTests(out *Output) []TestEntry {
	tests := make([]TestEntry, 0, len(out.SelfTestRows)+1)
	if entry, ok := runningNVMeTest(out); ok {
		tests = append(tests, entry)
	}
	for _, row := range out.SelfTestRows {
		if entry, ok := parseTestRow(row); ok {
			tests = append(tests, entry)
		}
	}
	return tests
}

// runningNVMeTest turns the NVMe "Self-test status" line of a running test
// into an in_progress entry. It has no log slot yet, so Num is -1.
func runningNVMeTest(out *Output) (TestEntry, bool) {
	status, ok := out.Field("self-test status")
	if !ok {
		return TestEntry{}, false
	}
	m := nvmeRunningRe.FindStringSubmatch(strings.TrimSpace(status))
	if m == nil {
		return TestEntry{}, false
	}
	completed, ok := parseInt(m[2])
	if !ok || completed > 100 {
		return TestEntry{}, false
	}

	description := strings.TrimSpace(m[1])
	entry := TestEntry{
		Num:              -1,
		Type:             classifyTestType(description),
		Description:      description,
		Status:           TestInProgress,
		StatusText:       strings.TrimSpace(status),
		RemainingPercent: intPtr(100 - completed),
	}
	if hours := fieldInt(out, "power on hours"); hours != nil {
		entry.Hours = *hours
	}
	return entry, true
}

func parseTestRow(row string) (TestEntry, bool) {
	row = strings.TrimSpace(row)

	if m := ataTestRowRe.FindStringSubmatch(row); m != nil {
		entry := newTestEntry(m[1], m[2], m[3], m[5], m[6])
		entry.RemainingPercent = optionalInt(m[4])
		return entry, true
	}
	if m := scsiTestRowRe.FindStringSubmatch(row); m != nil {
		hours := m[5]
		if hours == "NOW" {
			hours = "0"
		}
		return newTestEntry(m[1], m[2], m[3], hours, m[6]), true
	}
	if m := nvmeTestRowRe.FindStringSubmatch(row); m != nil {
		return newTestEntry(m[1], m[2], m[3], m[4], m[5]), true
	}
	return TestEntry{}, false
}

func newTestEntry(num, description, status, hours, lba string) TestEntry {
	entry := TestEntry{
		Description: strings.TrimSpace(description),
		StatusText:  strings.TrimSpace(status),
	}
	entry.Num, _ = strconv.Atoi(num)
	entry.Type = classifyTestType(entry.Description)
	entry.Status = classifyTestStatus(entry.StatusText)
	if h, ok := parseInt(hours); ok {
		entry.Hours = h
	}
	entry.FailingLBA = optionalInt(lba)
	if entry.FailingLBA == nil {
		if v, ok := parseHex(lba); ok {
			entry.FailingLBA = &v
		}
	}
	return entry
}

func classifyTestType(description string) TestType {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "short"):
		return TestShort
	case strings.Contains(d, "extended"), strings.Contains(d, "long"):
		return TestLong
	case strings.Contains(d, "selective"):
		return TestSelective
	case strings.Contains(d, "conveyance"):
		return TestConveyance
	}
	return ""
}

func classifyTestStatus(status string) TestStatus {
	s := strings.ToLower(status)
	switch {
	case strings.HasPrefix(s, "completed without error"), s == "completed":
		return TestCompletedNoError
	case strings.Contains(s, "in progress"):
		return TestInProgress
	case strings.Contains(s, "abort"), strings.Contains(s, "interrupted"):
		return TestAborted
	case strings.HasPrefix(s, "completed"), strings.Contains(s, "fail"),
		strings.Contains(s, "fatal"), strings.Contains(s, "error"):
		return TestCompletedWithError
	}
	return TestUnknown
}

// ParseTestCapabilities reads the advertised self-test support. It never looks
// at the self-test history: a device may support tests it has never run.
// Selective support is detected on its own, apart from short/long support.
func ParseTestCapabilities(devInterface string, out *Output) TestCapabilities {
	caps := TestCapabilities{}

	switch family(devInterface) {
	case InterfaceNVMe:
		if label, value, ok := out.FieldWithPrefix("optional admin commands"); ok {
			mask, hasMask := parseHex(label)
			if (hasMask && mask&nvmeOACSSelfTest != 0) || strings.Contains(value, "Self_Test") {
				caps.Short, caps.Long = true, true
			}
		}
	case InterfaceATA:
		mask, text, ok := ataCapabilityBlock(out)
		if ok && mask >= 0 {
			caps.Short = mask&capSelfTest != 0
			caps.Long = caps.Short
			caps.Conveyance = mask&capConveyance != 0
			caps.Selective = mask&capSelective != 0
		} else if ok {
			caps.Short = advertises(text, "self-test supported")
			caps.Long = caps.Short
			caps.Conveyance = advertises(text, "conveyance self-test supported")
			caps.Selective = advertises(text, "selective self-test supported")
		}
		if !caps.Selective {
			caps.Selective = out.ContainsLine("SMART Selective self-test log data structure")
		}
	default:
		if out.Has("long (extended) self-test duration") {
			caps.Short, caps.Long = true, true
		}
	}

	return caps
}

// ataCapabilityBlock returns the "Offline data collection capabilities" bitmask
// (-1 when unreadable) and the lower-cased text of its continuation lines.
func ataCapabilityBlock(out *Output) (int64, []string, bool) {
	for i, line := range out.Lines {
		trimmed := strings.TrimSpace(line.Text)
		if !strings.HasPrefix(strings.ToLower(trimmed), "capabilities:") {
			continue
		}
		mask := int64(-1)
		if v, ok := parseHex(trimmed); ok {
			mask = v
		}
		text := []string{strings.ToLower(trimmed)}
		for _, next := range out.Lines[i+1:] {
			if !strings.HasPrefix(next.Text, " ") {
				break
			}
			text = append(text, strings.ToLower(strings.TrimSpace(next.Text)))
		}
		return mask, text, true
	}
	return 0, nil, false
}

// advertises matches a whole capability sentence, so "No Selective Self-test
// supported." and "Conveyance Self-test supported." do not count as plain self-test support.
func advertises(lines []string, phrase string) bool {
	for _, line := range lines {
		idx := strings.Index(line, phrase)
		if idx < 0 {
			continue
		}
		prefix := strings.TrimSpace(line[:idx])
		if prefix == "" || strings.HasSuffix(prefix, ")") {
			return true
		}
	}
	return false
}
