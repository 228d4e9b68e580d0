// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Well known ATA attribute ids.
const (
	AttrStartStopCount        = 4
	AttrReallocatedSectors    = 5
	AttrPowerOnHours          = 9
	AttrReportedUncorrectable = 187
	AttrAirflowTemperature    = 190
	AttrLoadCycleCount        = 193
	AttrTemperature           = 194
	AttrReallocatedEvents     = 196
	AttrPendingSectors        = 197
	AttrOfflineUncorrectable  = 198
	AttrTemperatureAlt        = 231
)

// brief format flag letters, in bit order
const briefFlags = "POSRCK"

var scsiPowerOnRe = []*regexp.Regexp{
	regexp.MustCompile(`(?i)accumulated power on time, hours:minutes\s+([\d,]+):(\d+)`),
	regexp.MustCompile(`(?i)number of hours powered up\s*=\s*([\d,]+)`),
}

// ParseATAAttributes converts the rows of the attribute table into Attributes.
// Both the default and the brief (-f brief) table layouts are understood. Rows
// that cannot be read are skipped and later rows reusing an id are dropped.
func ParseATAAttributes(rows []string) []Attribute {
	attrs := make([]Attribute, 0, len(rows))
	seen := make(map[int]struct{}, len(rows))

	for _, row := range rows {
		attr, ok := parseAttributeRow(row)
		if !ok {
			log.Debug().Str("row", row).Msg("skipping malformed attribute row")
			continue
		}
		if _, dup := seen[attr.ID]; dup {
			log.Debug().Int("id", attr.ID).Msg("skipping duplicate attribute id")
			continue
		}
		seen[attr.ID] = struct{}{}
		attrs = append(attrs, attr)
	}

	return attrs
}

func parseAttributeRow(row string) (Attribute, bool) {
	fields := strings.Fields(row)
	if len(fields) < 8 {
		return Attribute{}, false
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil || id < 0 || id > 255 {
		return Attribute{}, false
	}

	attr := Attribute{ID: id, Name: fields[1]}

	var failed, rawFields []string
	if strings.HasPrefix(strings.ToLower(fields[2]), "0x") {
		// ID# ATTRIBUTE_NAME FLAG VALUE WORST THRESH TYPE UPDATED WHEN_FAILED RAW_VALUE
		if len(fields) < 10 {
			return Attribute{}, false
		}
		flag, err := strconv.ParseUint(fields[2][2:], 16, 16)
		if err != nil {
			return Attribute{}, false
		}
		attr.Flag = uint16(flag)
		attr.Type = parseAttributeType(fields[6])
		attr.Updated = parseUpdateMode(fields[7])
		failed = fields[8:9]
		rawFields = fields[9:]
	} else {
		// ID# ATTRIBUTE_NAME FLAGS VALUE WORST THRESH FAIL RAW_VALUE
		attr.Flag = parseBriefFlags(fields[2])
		attr.Type = AttributeOldAge
		if attr.Flag&0x01 != 0 {
			attr.Type = AttributePreFail
		}
		attr.Updated = UpdatedOffline
		if attr.Flag&0x02 != 0 {
			attr.Updated = UpdatedOnline
		}
		failed = fields[6:7]
		rawFields = fields[7:]
	}

	attr.Value = optionalInt(fields[3])
	attr.Worst = optionalInt(fields[4])
	attr.Threshold = optionalInt(fields[5])
	attr.WhenFailed = parseWhenFailed(failed[0])
	attr.RawString = strings.Join(rawFields, " ")
	attr.Raw = rawValue(attr.RawString)

	return attr, true
}

func optionalInt(s string) *int64 {
	if v, ok := parseInt(s); ok {
		return &v
	}
	return nil
}

// rawValue returns the numeric raw value when the raw column is an integer,
// optionally followed by a parenthesised annotation such as "(Min/Max 18/45)".
func rawValue(raw string) *int64 {
	if v, ok := parseInt(raw); ok {
		return &v
	}
	if i := strings.Index(raw, " ("); i > 0 && strings.HasSuffix(raw, ")") {
		if v, ok := parseInt(raw[:i]); ok {
			return &v
		}
	}
	return nil
}

func parseBriefFlags(s string) uint16 {
	var flag uint16
	for i, r := range s {
		if i >= len(briefFlags) {
			break
		}
		if r == rune(briefFlags[i]) {
			flag |= 1 << i
		}
	}
	return flag
}

func parseAttributeType(s string) AttributeType {
	if strings.EqualFold(s, "pre-fail") {
		return AttributePreFail
	}
	return AttributeOldAge
}

func parseUpdateMode(s string) UpdateMode {
	if strings.EqualFold(s, "offline") {
		return UpdatedOffline
	}
	return UpdatedOnline
}

func parseWhenFailed(s string) WhenFailed {
	switch strings.ToLower(s) {
	case "failing_now", "now":
		return FailedNow
	case "in_the_past", "past":
		return FailedPast
	}
	return FailedNone
}

// ParseNVMeAttributes reads the flat SMART/Health Information log page.
func ParseNVMeAttributes(out *Output) *NvmeAttributes {
	attrs := &NvmeAttributes{
		Temperature:             fieldInt(out, "temperature"),
		AvailableSpare:          fieldInt(out, "available spare"),
		AvailableSpareThreshold: fieldInt(out, "available spare threshold"),
		PercentageUsed:          fieldInt(out, "percentage used"),
		DataUnitsRead:           fieldInt(out, "data units read"),
		DataUnitsWritten:        fieldInt(out, "data units written"),
		HostReadCommands:        fieldInt(out, "host read commands"),
		HostWriteCommands:       fieldInt(out, "host write commands"),
		ControllerBusyTime:      fieldInt(out, "controller busy time"),
		PowerCycles:             fieldInt(out, "power cycles"),
		PowerOnHours:            fieldInt(out, "power on hours"),
		UnsafeShutdowns:         fieldInt(out, "unsafe shutdowns"),
		MediaErrors:             fieldInt(out, "media and data integrity errors"),
		ErrorLogEntries:         fieldInt(out, "error information log entries"),
		WarningTempTime:         fieldInt(out, "warning comp. temperature time"),
		CriticalTempTime:        fieldInt(out, "critical comp. temperature time"),
	}
	if v, ok := out.Field("critical warning"); ok {
		if n, ok := parseHex(v); ok {
			attrs.CriticalWarning = &n
		} else if n, ok := parseInt(v); ok {
			attrs.CriticalWarning = &n
		}
	}
	return attrs
}

// ParseSCSIAttributes maps the SCSI log pages onto the closest ATA attributes.
// Only value-less rows are produced: SCSI has no normalized value or threshold.
func ParseSCSIAttributes(out *Output) []Attribute {
	var attrs []Attribute

	add := func(id int, name, raw string, value *int64) {
		if value == nil {
			return
		}
		attrs = append(attrs, Attribute{ID: id, Name: name, Raw: value, RawString: raw, WhenFailed: FailedNone})
	}

	if raw, ok := out.Field("accumulated start-stop cycles"); ok {
		add(AttrStartStopCount, "Start_Stop_Count", raw, fieldInt(out, "accumulated start-stop cycles"))
	}
	if raw, ok := out.Field("elements in grown defect list"); ok {
		add(AttrReallocatedSectors, "Reallocated_Sector_Ct", raw, fieldInt(out, "elements in grown defect list"))
	}
	if hours, raw := scsiPowerOnHours(out); hours != nil {
		add(AttrPowerOnHours, "Power_On_Hours", raw, hours)
	}
	if raw, ok := out.Field("accumulated load-unload cycles"); ok {
		add(AttrLoadCycleCount, "Load_Cycle_Count", raw, fieldInt(out, "accumulated load-unload cycles"))
	}
	if raw, ok := out.Field("current drive temperature"); ok {
		add(AttrTemperature, "Temperature_Celsius", raw, fieldInt(out, "current drive temperature"))
	}

	return attrs
}

func scsiPowerOnHours(out *Output) (*int64, string) {
	for _, line := range out.Lines {
		for _, re := range scsiPowerOnRe {
			if m := re.FindStringSubmatch(line.Text); m != nil {
				if v, ok := parseInt(m[1]); ok {
					return &v, strings.TrimSpace(m[0])
				}
			}
		}
	}
	return nil, ""
}

// ParseSCSIErrorCounters reads the read/write/verify rows of the error counter log.
func ParseSCSIErrorCounters(out *Output) *SCSIErrorCounters {
	counters := &SCSIErrorCounters{
		NonMediumErrorCount: fieldInt(out, "non-medium error count"),
	}
	found := counters.NonMediumErrorCount != nil

	row := func(label string) (corrected, uncorrected *int64, gigabytes *float64) {
		v, ok := out.Field(label)
		if !ok {
			return nil, nil, nil
		}
		// ECC fast, ECC delayed, rereads/rewrites, total corrected, invocations, GB processed, total uncorrected
		cols := strings.Fields(v)
		if len(cols) != 7 {
			return nil, nil, nil
		}
		found = true
		corrected = optionalInt(cols[3])
		uncorrected = optionalInt(cols[6])
		if gb, err := strconv.ParseFloat(cols[5], 64); err == nil {
			gigabytes = &gb
		}
		return corrected, uncorrected, gigabytes
	}

	counters.ReadCorrected, counters.ReadUncorrected, counters.ReadGigabytes = row("read")
	counters.WriteCorrected, counters.WriteUncorrected, counters.WriteGigabytes = row("write")
	counters.VerifyCorrected, counters.VerifyUncorrected, _ = row("verify")

	if !found {
		return nil
	}
	return counters
}
