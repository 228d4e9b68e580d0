// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

// NormalizedSmartData represents normalized SMART data for consistency across devices
type NormalizedSmartData struct {
	NodeName            string                    `json:"node_name"`            // Name of the node where the drive is located
	InstanceID          string                    `json:"instance_id"`          // ID of the instance (useful in cloud environments)
	Device              string                    `json:"device"`               // Device path, e.g., "/dev/sda"
	DeviceInfo          *DeviceInfo               `json:"device_info"`          // Device information (e.g., vendor and model)
	CapacityBytes       *int64                    `json:"capacity_bytes"`       // Capacity of the drive in bytes
	Assessment          string                    `json:"assessment"`           // PASS, WARN, FAIL or empty when unknown
	HealthStatus        *bool                     `json:"health_status"`        // true if healthy, false if failing, nil if unknown
	TemperatureCelsius  *int64                    `json:"temperature_celsius"`  // Current temperature of the drive in Celsius
	ReallocatedSectors  *int64                    `json:"reallocated_sectors"`  // Reallocated sectors, or the grown defect list on SCSI
	PendingSectors      *int64                    `json:"pending_sectors"`      // Unreadable sectors waiting to be reallocated
	UncorrectableErrors *int64                    `json:"uncorrectable_errors"` // Uncorrected read/write errors
	PowerOnHours        *int64                    `json:"power_on_hours"`       // Total number of hours the drive has been powered on
	SSDLifeUsed         *int64                    `json:"ssd_life_used"`        // Percentage of SSD life used
	ErrorCounts         map[string]int64          `json:"error_counts"`         // Error counters by type (e.g., crc errors, media errors)
	Attributes          map[string]SmartAttribute `json:"attributes"`           // SMART attributes keyed by folded attribute name
}

// NatsEvent represents an event to be published to NATS
type NatsEvent struct {
	NodeName   string            `json:"node_name"`   // Name of the node where the drive is located
	InstanceID string            `json:"instance_id"` // ID of the instance (useful in cloud environments)
	Device     string            `json:"device"`      // Device identifier (e.g., /dev/sda)
	EventType  string            `json:"event_type"`  // e.g., 'health', 'health_alert', 'lifetime_alert'
	Severity   string            `json:"severity"`    // e.g., 'info', 'warning', 'critical'
	Message    string            `json:"message"`     // Description of the event
	Details    map[string]string `json:"details"`     // Additional details, such as SMART attributes
}

type DeviceInfo struct {
	ModelFamily     string `json:"model_family,omitempty"`
	DeviceModel     string `json:"device_model,omitempty"`
	SerialNumber    string `json:"serial_number,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	Vendor          string `json:"vendor,omitempty"` // reported vendor, else inferred from the model
	OEM             string `json:"oem,omitempty"`    // e.g. "Dell (Seagate OEM)"
	Interface       string `json:"interface"`        // smartctl -d type
	DevInterface    string `json:"dev_interface"`    // physical interface
	Media           string `json:"media,omitempty"`  // "ssd", "hdd" or "nvme"
	RPM             int64  `json:"rpm,omitempty"`
}

// SmartAttribute is one attribute row reduced to what the exporter publishes.
type SmartAttribute struct {
	ID        int    `json:"id"`
	Value     *int64 `json:"value,omitempty"`
	Worst     *int64 `json:"worst,omitempty"`
	Threshold *int64 `json:"threshold,omitempty"`
	RawValue  int64  `json:"raw_value"`
	Critical  bool   `json:"critical"`
}
