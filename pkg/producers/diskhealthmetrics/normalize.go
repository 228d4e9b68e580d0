// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

// SSD wear attributes. remaining marks attributes whose normalized value
// counts down from 100 instead of a raw percentage used.
var wearAttributes = []struct {
	id        int
	remaining bool
}{
	{233, true}, // Media_Wearout_Indicator
	{231, true}, // SSD_Life_Left
	{202, true}, // Percent_Lifetime_Remain
	{177, true}, // Wear_Leveling_Count
}

// normalizeDevice converts a parsed device into the exporter's record.
func normalizeDevice(dev *smart.Device, cfg DiskHealthMetricsConfig) NormalizedSmartData {
	diag := dev.Diagnostics

	data := NormalizedSmartData{
		NodeName:            cfg.NodeName,
		InstanceID:          cfg.InstanceID,
		Device:              dev.Path,
		DeviceInfo:          newDeviceInfo(dev),
		CapacityBytes:       dev.Capacity.Bytes,
		Assessment:          string(dev.Assessment),
		HealthStatus:        healthStatus(dev.Assessment),
		TemperatureCelsius:  diag.Temperature,
		ReallocatedSectors:  diag.ReallocatedSectors,
		PendingSectors:      diag.PendingSectors,
		UncorrectableErrors: diag.UncorrectableErrors,
		PowerOnHours:        diag.PowerOnHours,
		SSDLifeUsed:         ssdLifeUsed(dev),
		ErrorCounts:         errorCounts(dev),
		Attributes:          normalizeAttributes(dev.Attributes, cfg.AllAttributes, cfg.IncludeZeroValues),
	}
	return data
}

func newDeviceInfo(dev *smart.Device) *DeviceInfo {
	info := &DeviceInfo{
		ModelFamily:     deref(dev.ModelFamily),
		DeviceModel:     deref(dev.Model),
		SerialNumber:    deref(dev.Serial),
		FirmwareVersion: deref(dev.FirmwareVersion),
		Vendor:          deref(dev.Vendor),
		Interface:       dev.SmartctlInterface,
		DevInterface:    dev.DevInterface,
	}

	if info.Vendor == "" {
		info.Vendor = FindVendor(info.DeviceModel, info.ModelFamily)
	}
	info.OEM = detectOEMRelationship(info.Vendor, info.DeviceModel, info.ModelFamily)

	switch {
	case dev.DevInterface == smart.InterfaceNVMe:
		info.Media = "nvme"
	case dev.RotationRate != nil && *dev.RotationRate == 0:
		info.Media = "ssd"
	case dev.RotationRate != nil:
		info.Media = "hdd"
		info.RPM = *dev.RotationRate
	}
	return info
}

func healthStatus(a smart.Assessment) *bool {
	var healthy bool
	switch a {
	case smart.AssessmentPass, smart.AssessmentWarn:
		healthy = true
	case smart.AssessmentFail:
		healthy = false
	default:
		return nil
	}
	return &healthy
}

func ssdLifeUsed(dev *smart.Device) *int64 {
	if dev.NVMe != nil {
		return dev.NVMe.PercentageUsed
	}
	for _, w := range wearAttributes {
		attr, ok := dev.Attribute(w.id)
		if !ok {
			continue
		}
		if w.remaining && attr.Value != nil {
			used := 100 - *attr.Value
			return &used
		}
		if !w.remaining && attr.Raw != nil {
			return attr.Raw
		}
	}
	return nil
}

// errorCounts collects the error counters the device reports, by type.
func errorCounts(dev *smart.Device) map[string]int64 {
	counts := make(map[string]int64)
	add := func(name string, v *int64) {
		if v != nil {
			counts[name] = *v
		}
	}
	addAttr := func(name string, id int) {
		if attr, ok := dev.Attribute(id); ok {
			add(name, attr.Raw)
		}
	}

	switch {
	case dev.NVMe != nil:
		add("media_errors", dev.NVMe.MediaErrors)
		add("error_log_entries", dev.NVMe.ErrorLogEntries)
		add("unsafe_shutdowns", dev.NVMe.UnsafeShutdowns)
	case dev.SCSI != nil:
		add("read_uncorrected", dev.SCSI.ReadUncorrected)
		add("write_uncorrected", dev.SCSI.WriteUncorrected)
		add("verify_uncorrected", dev.SCSI.VerifyUncorrected)
		add("non_medium", dev.SCSI.NonMediumErrorCount)
	default:
		addAttr("reported_uncorrect", smart.AttrReportedUncorrectable)
		addAttr("command_timeout", 188)
		addAttr("udma_crc_error_count", 199)
	}
	return counts
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
