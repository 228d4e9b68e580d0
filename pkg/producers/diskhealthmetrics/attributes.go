// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	"golang.org/x/text/cases"
)

// knownAttribute describes an ATA attribute id. Vendors reuse ids for other
// purposes, so only the criticality is taken from here; names come from the drive.
type knownAttribute struct {
	ID       int
	Name     string
	Critical bool
}

// https://en.wikipedia.org/wiki/Self-Monitoring,_Analysis_and_Reporting_Technology
// https://www.hdsentinel.com/smart/smartattr.php
var knownAttributes = map[int]knownAttribute{
	1:   {ID: 1, Name: "Raw_Read_Error_Rate", Critical: true},
	3:   {ID: 3, Name: "Spin_Up_Time", Critical: true},
	4:   {ID: 4, Name: "Start_Stop_Count"},
	5:   {ID: 5, Name: "Reallocated_Sector_Ct", Critical: true},
	7:   {ID: 7, Name: "Seek_Error_Rate", Critical: true},
	9:   {ID: 9, Name: "Power_On_Hours"},
	10:  {ID: 10, Name: "Spin_Retry_Count", Critical: true},
	11:  {ID: 11, Name: "Calibration_Retry_Count", Critical: true},
	12:  {ID: 12, Name: "Power_Cycle_Count"},
	171: {ID: 171, Name: "Program_Fail_Count", Critical: true},
	172: {ID: 172, Name: "Erase_Fail_Count", Critical: true},
	177: {ID: 177, Name: "Wear_Leveling_Count"},
	184: {ID: 184, Name: "End-to-End_Error", Critical: true},
	187: {ID: 187, Name: "Reported_Uncorrect", Critical: true},
	188: {ID: 188, Name: "Command_Timeout", Critical: true},
	190: {ID: 190, Name: "Airflow_Temperature_Cel"},
	193: {ID: 193, Name: "Load_Cycle_Count"},
	194: {ID: 194, Name: "Temperature_Celsius"},
	196: {ID: 196, Name: "Reallocated_Event_Count", Critical: true},
	197: {ID: 197, Name: "Current_Pending_Sector", Critical: true},
	198: {ID: 198, Name: "Offline_Uncorrectable", Critical: true},
	199: {ID: 199, Name: "UDMA_CRC_Error_Count"},
	202: {ID: 202, Name: "Percent_Lifetime_Remain"},
	231: {ID: 231, Name: "SSD_Life_Left"},
	233: {ID: 233, Name: "Media_Wearout_Indicator"},
}

// isCritical reports whether an attribute id predicts drive failure.
func isCritical(id int) bool {
	return knownAttributes[id].Critical
}

// normalizeAttributes converts the attribute table into the exporter's map.
// Without allAttributes only critical and known attributes are kept. Rows
// without a numeric raw value are skipped, as are zero raw values unless
// includeZero is set.
func normalizeAttributes(attrs []smart.Attribute, allAttributes, includeZero bool) map[string]SmartAttribute {
	fold := cases.Fold()
	result := make(map[string]SmartAttribute, len(attrs))
	for _, attr := range attrs {
		if attr.Raw == nil {
			continue
		}
		if _, known := knownAttributes[attr.ID]; !known && !allAttributes {
			continue
		}
		if *attr.Raw == 0 && !includeZero {
			continue
		}
		result[fold.String(attr.Name)] = SmartAttribute{
			ID:        attr.ID,
			Value:     attr.Value,
			Worst:     attr.Worst,
			Threshold: attr.Threshold,
			RawValue:  *attr.Raw,
			Critical:  isCritical(attr.ID),
		}
	}
	return result
}
