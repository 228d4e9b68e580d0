// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"strings"
)

type tempUnit int

const (
	unitUnknown tempUnit = iota
	unitCelsius
	unitFahrenheit
)

// BuildDiagnostics derives the interface independent snapshot from the
// attribute model. Counters missing from the model stay nil.
func BuildDiagnostics(devInterface string, out *Output, attrs []Attribute, nvme *NvmeAttributes, scsi *SCSIErrorCounters) Diagnostics {
	d := Diagnostics{}
	caps := ParseTestCapabilities(devInterface, out)
	d.SupportsShort = caps.Short
	d.SupportsLong = caps.Long
	d.SupportsSelective = caps.Selective
	d.SupportsConveyance = caps.Conveyance

	switch family(devInterface) {
	case InterfaceNVMe:
		if nvme != nil {
			if v, ok := out.Field("temperature"); ok {
				d.Temperature = parseTemperature(v, unitUnknown)
			}
			d.PowerOnHours = nvme.PowerOnHours
			d.UncorrectableErrors = nvme.MediaErrors
		}
	default:
		d.Temperature = attributeTemperature(attrs)
		if d.Temperature == nil {
			if v, ok := out.Field("current temperature"); ok {
				d.Temperature = parseTemperature(v, unitUnknown)
			}
		}
		d.PowerOnHours = powerOnHours(attrs)
		d.ReallocatedSectors = sumRaw(attrs, AttrReallocatedSectors)
		d.ReallocatedEvents = sumRaw(attrs, AttrReallocatedEvents)
		d.PendingSectors = sumRaw(attrs, AttrPendingSectors)
		d.UncorrectableErrors = sumRaw(attrs, AttrReportedUncorrectable, AttrOfflineUncorrectable)
		if scsi != nil {
			d.UncorrectableErrors = sumPtr(scsi.ReadUncorrected, scsi.WriteUncorrected, scsi.VerifyUncorrected)
		}
	}

	return d
}

// attributeRaw returns the numeric raw value, falling back to the integer the
// raw string starts with ("27842h+14m+12.345s").
func attributeRaw(a Attribute) *int64 {
	if a.Raw != nil {
		return a.Raw
	}
	if v, ok := leadingInt(a.RawString); ok {
		return &v
	}
	return nil
}

func sumRaw(attrs []Attribute, ids ...int) *int64 {
	var vals []*int64
	for _, id := range ids {
		if a, ok := findAttribute(attrs, id); ok {
			vals = append(vals, attributeRaw(a))
		}
	}
	return sumPtr(vals...)
}

// sumPtr adds the present values; nil when none is present.
func sumPtr(vals ...*int64) *int64 {
	var total *int64
	for _, v := range vals {
		if v == nil {
			continue
		}
		if total == nil {
			total = intPtr(0)
		}
		*total += *v
	}
	return total
}

func attributeTemperature(attrs []Attribute) *int64 {
	for _, id := range []int{AttrTemperature, AttrAirflowTemperature, AttrTemperatureAlt} {
		a, ok := findAttribute(attrs, id)
		if !ok {
			continue
		}
		// 190 and 231 are vendor specific; 231 is SSD_Life_Left on most SSDs.
		if id != AttrTemperature && !isTemperatureName(a.Name) {
			continue
		}
		if t := parseTemperature(a.RawString, unitFromName(a.Name)); t != nil {
			return t
		}
	}
	return nil
}

func isTemperatureName(name string) bool {
	return unitFromName(name) != unitUnknown || strings.Contains(strings.ToLower(name), "temp")
}

func unitFromName(name string) tempUnit {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "fahrenheit"):
		return unitFahrenheit
	case strings.Contains(lower, "cel"):
		return unitCelsius
	}
	return unitUnknown
}

func powerOnHours(attrs []Attribute) *int64 {
	a, ok := findAttribute(attrs, AttrPowerOnHours)
	if !ok {
		return nil
	}
	v := attributeRaw(a)
	if v == nil {
		return nil
	}
	hours := *v
	name := strings.ToLower(a.Name)
	switch {
	case strings.Contains(name, "half_minutes"):
		hours /= 120
	case strings.Contains(name, "minutes"):
		hours /= 60
	case strings.Contains(name, "seconds"):
		hours /= 3600
	}
	return &hours
}

// parseTemperature reads a temperature and converts it to Celsius when the
// text carries a Fahrenheit marker. Without any marker the fallback unit is
// used; an unknown unit leaves the value unconverted.
func parseTemperature(text string, fallback tempUnit) *int64 {
	text = strings.TrimSpace(text)
	v, ok := leadingInt(text)
	if !ok {
		return nil
	}

	unit := fallback
	rest := strings.TrimSpace(strings.TrimLeft(text, "+-0123456789"))
	rest = strings.TrimSpace(strings.TrimLeft(rest, "°º"))
	switch word := strings.ToLower(firstWord(rest)); word {
	case "f", "fahrenheit":
		unit = unitFahrenheit
	case "c", "celsius":
		unit = unitCelsius
	}

	if unit == unitFahrenheit {
		v = FahrenheitToCelsius(v)
	}
	return &v
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " ,;()[]"); i >= 0 {
		return s[:i]
	}
	return s
}

// FahrenheitToCelsius computes round((f-32)*5/9) in integer arithmetic,
// rounding halves away from zero.
func FahrenheitToCelsius(f int64) int64 {
	n := (f - 32) * 5
	q, r := n/9, n%9
	switch {
	case 2*r >= 9:
		q++
	case 2*r <= -9:
		q--
	}
	return q
}
