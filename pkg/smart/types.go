// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import "encoding/json"

// Optional values are pointers throughout this package: nil means the field was
// not reported by smartctl, a pointer to zero means it was reported as zero.

// Interface labels used for SmartctlInterface and DevInterface.
const (
	InterfaceATA  = "ata"
	InterfaceSATA = "sata"
	InterfaceSCSI = "scsi"
	InterfaceSAS  = "sas"
	InterfaceNVMe = "nvme"
)

// AttributeType is the pre-fail / old-age classification of an ATA attribute.
type AttributeType string

const (
	AttributePreFail AttributeType = "pre-fail"
	AttributeOldAge  AttributeType = "old-age"
)

// UpdateMode tells whether an attribute is refreshed online or only by offline data collection.
type UpdateMode string

const (
	UpdatedOnline  UpdateMode = "online"
	UpdatedOffline UpdateMode = "offline"
)

// WhenFailed mirrors the WHEN_FAILED column of the attribute table.
type WhenFailed string

const (
	FailedNone WhenFailed = "none"
	FailedNow  WhenFailed = "now"
	FailedPast WhenFailed = "past"
)

// Attribute is one row of the ATA SMART attribute table. SCSI devices produce
// rows with the closest ATA id and absent Value, Worst and Threshold.
type Attribute struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	Flag       uint16        `json:"flag"`
	Value      *int64        `json:"value"`
	Worst      *int64        `json:"worst"`
	Threshold  *int64        `json:"threshold"`
	Raw        *int64        `json:"raw"`
	RawString  string        `json:"raw_string"`
	Type       AttributeType `json:"type,omitempty"`
	Updated    UpdateMode    `json:"updated,omitempty"`
	WhenFailed WhenFailed    `json:"when_failed,omitempty"`
}

// NvmeAttributes is the flat SMART/Health Information log page (NVMe log 0x02).
type NvmeAttributes struct {
	CriticalWarning         *int64 `json:"critical_warning"`
	Temperature             *int64 `json:"temperature"`
	AvailableSpare          *int64 `json:"available_spare"`
	AvailableSpareThreshold *int64 `json:"available_spare_threshold"`
	PercentageUsed          *int64 `json:"percentage_used"`
	DataUnitsRead           *int64 `json:"data_units_read"`
	DataUnitsWritten        *int64 `json:"data_units_written"`
	HostReadCommands        *int64 `json:"host_read_commands"`
	HostWriteCommands       *int64 `json:"host_write_commands"`
	ControllerBusyTime      *int64 `json:"controller_busy_time"`
	PowerCycles             *int64 `json:"power_cycles"`
	PowerOnHours            *int64 `json:"power_on_hours"`
	UnsafeShutdowns         *int64 `json:"unsafe_shutdowns"`
	MediaErrors             *int64 `json:"media_errors"`
	ErrorLogEntries         *int64 `json:"error_log_entries"`
	WarningTempTime         *int64 `json:"warning_temp_time"`
	CriticalTempTime        *int64 `json:"critical_temp_time"`
}

// SCSIErrorCounters holds the totals of the SCSI error counter log page.
type SCSIErrorCounters struct {
	ReadCorrected       *int64   `json:"read_corrected"`
	ReadUncorrected     *int64   `json:"read_uncorrected"`
	ReadGigabytes       *float64 `json:"read_gigabytes"`
	WriteCorrected      *int64   `json:"write_corrected"`
	WriteUncorrected    *int64   `json:"write_uncorrected"`
	WriteGigabytes      *float64 `json:"write_gigabytes"`
	VerifyCorrected     *int64   `json:"verify_corrected"`
	VerifyUncorrected   *int64   `json:"verify_uncorrected"`
	NonMediumErrorCount *int64   `json:"non_medium_error_count"`
}

// Diagnostics is the interface independent health snapshot derived from the
// attribute model. It is only produced by BuildDiagnostics.
type Diagnostics struct {
	Temperature         *int64 `json:"temperature"` // Celsius
	PowerOnHours        *int64 `json:"power_on_hours"`
	ReallocatedSectors  *int64 `json:"reallocated_sectors"`
	ReallocatedEvents   *int64 `json:"reallocated_events"`
	PendingSectors      *int64 `json:"pending_sectors"`
	UncorrectableErrors *int64 `json:"uncorrectable_errors"`
	SupportsShort       bool   `json:"supports_short"`
	SupportsLong        bool   `json:"supports_long"`
	SupportsSelective   bool   `json:"supports_selective"`
	SupportsConveyance  bool   `json:"supports_conveyance"`
}

// TestType classifies a self-test log entry. Descriptions that match none of
// the known kinds (vendor specific, offline collection) keep an empty type.
type TestType string

const (
	TestShort      TestType = "short"
	TestLong       TestType = "long"
	TestSelective  TestType = "selective"
	TestConveyance TestType = "conveyance"
)

// TestStatus is the normalized outcome of a self-test.
type TestStatus string

const (
	TestCompletedNoError   TestStatus = "completed_no_error"
	TestCompletedWithError TestStatus = "completed_with_error"
	TestInProgress         TestStatus = "in_progress"
	TestAborted            TestStatus = "aborted"
	TestUnknown            TestStatus = "unknown"
)

// TestEntry is one row of the self-test log.
type TestEntry struct {
	Num              int        `json:"num"`
	Type             TestType   `json:"type"`
	Description      string     `json:"description"`
	Status           TestStatus `json:"status"`
	StatusText       string     `json:"status_text"`
	Hours            int64      `json:"hours"`
	RemainingPercent *int64     `json:"remaining_percent"`
	FailingLBA       *int64     `json:"failing_lba"`
}

// Capacity keeps the capacity as printed and the exact byte count. Bytes is
// authoritative; Human is for display only and never parsed.
type Capacity struct {
	Human *string `json:"human"`
	Bytes *int64  `json:"bytes"`
}

// SectorSizes holds the logical and physical sector sizes. SmartctlLogical is
// only set when smartctl reports a logical size that disagrees with the one
// reported by the operating system.
type SectorSizes struct {
	Logical         *int64 `json:"logical"`
	Physical        *int64 `json:"physical"`
	SmartctlLogical *int64 `json:"smartctl_logical,omitempty"`
}

// Assessment is the overall health verdict printed by smartctl.
type Assessment string

const (
	AssessmentPass    Assessment = "PASS"
	AssessmentWarn    Assessment = "WARN"
	AssessmentFail    Assessment = "FAIL"
	AssessmentUnknown Assessment = ""
)

// ExitStatus is the smartctl exit code bitmask.
type ExitStatus int

func (e ExitStatus) CommandLineError() bool          { return e&0x01 != 0 }
func (e ExitStatus) DeviceOpenFailed() bool          { return e&0x02 != 0 }
func (e ExitStatus) SMARTCommandFailed() bool        { return e&0x04 != 0 }
func (e ExitStatus) DiskFailing() bool               { return e&0x08 != 0 }
func (e ExitStatus) PrefailBelowThreshold() bool     { return e&0x10 != 0 }
func (e ExitStatus) UsageBelowThresholdInPast() bool { return e&0x20 != 0 }
func (e ExitStatus) ErrorLogHasErrors() bool         { return e&0x40 != 0 }
func (e ExitStatus) SelfTestLogHasErrors() bool      { return e&0x80 != 0 }

// Device is the normalized view of one smartctl invocation. A Device is never
// mutated after Parse returns it; re-querying produces a new Device.
type Device struct {
	Path              string             `json:"path"`
	Vendor            *string            `json:"vendor"`
	Model             *string            `json:"model"`
	ModelFamily       *string            `json:"model_family"`
	Serial            *string            `json:"serial"`
	FirmwareVersion   *string            `json:"firmware_version"`
	SmartctlInterface string             `json:"smartctl_interface"`
	DevInterface      string             `json:"dev_interface"`
	Capacity          Capacity           `json:"capacity"`
	SectorSizes       SectorSizes        `json:"sector_sizes"`
	RotationRate      *int64             `json:"rotation_rate"`
	SMARTAvailable    *bool              `json:"smart_available"`
	SMARTEnabled      *bool              `json:"smart_enabled"`
	Assessment        Assessment         `json:"assessment"`
	Attributes        []Attribute        `json:"attributes"`
	NVMe              *NvmeAttributes    `json:"nvme,omitempty"`
	SCSI              *SCSIErrorCounters `json:"scsi,omitempty"`
	Diagnostics       Diagnostics        `json:"diagnostics"`
	Tests             []TestEntry        `json:"tests"`
	ExitStatus        ExitStatus         `json:"exit_status"`
	Messages          []string           `json:"messages,omitempty"`
}

// Interface is the backward compatible alias of SmartctlInterface.
func (d *Device) Interface() string {
	return d.SmartctlInterface
}

// Attribute returns the attribute with the given id.
func (d *Device) Attribute(id int) (Attribute, bool) {
	return findAttribute(d.Attributes, id)
}

// MarshalJSON adds the derived "interface" key.
func (d Device) MarshalJSON() ([]byte, error) {
	type plain Device
	return json.Marshal(struct {
		plain
		Interface string `json:"interface"`
	}{
		plain:     plain(d),
		Interface: d.SmartctlInterface,
	})
}

func findAttribute(attrs []Attribute, id int) (Attribute, bool) {
	for _, a := range attrs {
		if a.ID == id {
			return a, true
		}
	}
	return Attribute{}, false
}
