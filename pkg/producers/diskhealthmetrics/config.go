// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

type DiskHealthMetricsConfig struct {
	NatsURL           string
	NatsSubject       string
	UseNats           bool
	Prometheus        bool
	PrometheusPort    int
	AllAttributes     bool
	Disks             []string // "*" discovers all disks on every collection
	IncludeZeroValues bool
	Interval          int // in seconds
	NodeName          string
	InstanceID        string
	Workers           int // concurrent smartctl invocations

	// smartctl invocation
	SmartctlPath    string
	SmartctlOptions []string
	UseSudo         bool
	Timeout         int    // in seconds, 0 disables
	SysfsPath       string // for sector sizes and virtualization checks

	// NATS event thresholds
	GrownDefectsThreshold       int64
	PendingSectorsThreshold     int64
	ReallocatedSectorsThreshold int64
	LifetimeUsedThreshold       int64 // percentage
}

// discoverAll reports whether the configured disk list asks for discovery.
func (c DiskHealthMetricsConfig) discoverAll() bool {
	return len(c.Disks) == 0 || (len(c.Disks) == 1 && c.Disks[0] == "*")
}
