// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"regexp"
	"strings"
)

var (
	// "4,000,787,030,016 bytes [4.00 TB]"
	bytesThenHumanRe = regexp.MustCompile(`(?i)^(\d[\d,.' ]*?)\s*bytes?\s*\[([^\]]+)\]`)
	// "4.00 TB (4,000,787,030,016 bytes)"
	humanThenBytesRe = regexp.MustCompile(`(?i)^(.+?)\s*\(\s*(\d[\d,.' ]*?)\s*bytes?\s*\)`)
	// NVMe: "1,000,204,886,016 [1.00 TB]"
	nvmeCapacityRe = regexp.MustCompile(`^(\d[\d,.' ]*?)\s*\[([^\]]+)\]`)

	sectorSizesRe = regexp.MustCompile(`(?i)(\d+)\s*bytes\s+logical(?:\s*/\s*physical|,\s*(\d+)\s*bytes\s+physical)`)
)

// ParseCapacityValue extracts the printed capacity and the exact byte count
// from an ATA/SCSI "User Capacity" value. The byte count comes from its own
// numeric token; the human string is kept verbatim and never parsed.
func ParseCapacityValue(value string) Capacity {
	value = strings.TrimSpace(value)
	if IsPlaceholder(value) {
		return Capacity{}
	}
	if m := bytesThenHumanRe.FindStringSubmatch(value); m != nil {
		return newCapacity(m[2], m[1])
	}
	if m := humanThenBytesRe.FindStringSubmatch(value); m != nil {
		return newCapacity(m[1], m[2])
	}
	return Capacity{Human: strPtr(value)}
}

// parseNVMeCapacityValue handles the byte-count-first NVMe layout, which has no "bytes" marker.
func parseNVMeCapacityValue(value string) Capacity {
	value = strings.TrimSpace(value)
	if m := nvmeCapacityRe.FindStringSubmatch(value); m != nil {
		return newCapacity(m[2], m[1])
	}
	return Capacity{}
}

func newCapacity(human, bytes string) Capacity {
	c := Capacity{}
	if h := strings.TrimSpace(human); h != "" {
		c.Human = strPtr(h)
	}
	if n, ok := parseInt(bytes); ok {
		c.Bytes = &n
	}
	return c
}

// ParseCapacity picks the capacity line matching the device family.
func ParseCapacity(out *Output) Capacity {
	if v, ok := out.Field("user capacity"); ok {
		return ParseCapacityValue(v)
	}
	for _, label := range []string{"total nvm capacity", "namespace 1 size/capacity"} {
		if v, ok := out.Field(label); ok {
			if c := parseNVMeCapacityValue(v); c.Bytes != nil {
				return c
			}
		}
	}
	return Capacity{}
}

// ParseSectorSizes returns the logical and physical sector sizes as reported by smartctl.
func ParseSectorSizes(out *Output) (logical, physical *int64) {
	for _, label := range []string{"sector sizes", "sector size"} {
		v, ok := out.Field(label)
		if !ok {
			continue
		}
		if m := sectorSizesRe.FindStringSubmatch(v); m != nil {
			logical = optionalInt(m[1])
			physical = logical
			if m[2] != "" {
				physical = optionalInt(m[2])
			}
			return logical, physical
		}
	}

	logical = fieldInt(out, "logical block size")
	physical = fieldInt(out, "physical block size")
	if logical == nil {
		logical = fieldInt(out, "namespace 1 formatted lba size")
	}
	if physical == nil {
		physical = logical
	}
	return logical, physical
}

// resolveSectorSizes prefers the operating system's logical size and keeps
// smartctl's only when the two disagree.
func resolveSectorSizes(toolLogical, physical, osLogical *int64) SectorSizes {
	s := SectorSizes{Logical: toolLogical, Physical: physical}
	if osLogical == nil {
		return s
	}
	s.Logical = osLogical
	if toolLogical != nil && *toolLogical != *osLogical {
		s.SmartctlLogical = toolLogical
	}
	return s
}
