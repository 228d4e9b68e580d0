// Copyright 2024 Clyso GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package diskhealthmetrics

import (
	"fmt"
	"slices"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Publisher is the part of *nats.Conn used to emit events.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// convertToNatsEvent converts NormalizedSmartData to a NatsEvent
func convertToNatsEvent(normalizedData NormalizedSmartData, config *DiskHealthMetricsConfig) NatsEvent {
	details := make(map[string]string)

	severity := "info"
	eventType := "health"

	if normalizedData.Assessment != "" {
		details["Assessment"] = normalizedData.Assessment
	}
	if info := normalizedData.DeviceInfo; info != nil {
		if info.Vendor != "" {
			details["Vendor"] = info.Vendor
		}
		if info.DeviceModel != "" {
			details["Model"] = info.DeviceModel
		}
		if info.SerialNumber != "" {
			details["Serial"] = info.SerialNumber
		}
	}

	setInt := func(key string, v *int64) {
		if v != nil {
			details[key] = fmt.Sprintf("%d", *v)
		}
	}
	setInt("TemperatureCelsius", normalizedData.TemperatureCelsius)
	setInt("ReallocatedSectors", normalizedData.ReallocatedSectors)
	setInt("PendingSectors", normalizedData.PendingSectors)
	setInt("UncorrectableErrors", normalizedData.UncorrectableErrors)
	setInt("PowerOnHours", normalizedData.PowerOnHours)
	setInt("SSDLifeUsed", normalizedData.SSDLifeUsed)

	// Critical attributes only; the full table goes to Prometheus.
	for attrName, attrValue := range normalizedData.Attributes {
		if attrValue.Critical {
			details[attrName] = fmt.Sprintf("%d", attrValue.RawValue)
		}
	}

	// Handle critical SMART metrics with thresholds
	alerts := checkAndSetThresholds(details, normalizedData, config, &severity, &eventType)

	return NatsEvent{
		NodeName:   normalizedData.NodeName,
		InstanceID: normalizedData.InstanceID,
		Device:     normalizedData.Device,
		EventType:  eventType,
		Severity:   severity,
		Message:    generateMessage(alerts),
		Details:    details,
	}
}

// isSCSI reports whether the reallocated sector count is a SCSI grown defect list.
func isSCSI(data NormalizedSmartData) bool {
	if data.DeviceInfo == nil {
		return false
	}
	return data.DeviceInfo.DevInterface == smart.InterfaceSAS || data.DeviceInfo.DevInterface == smart.InterfaceSCSI
}

func exceeds(v *int64, threshold int64) bool {
	return v != nil && *v > threshold
}

// checkAndSetThresholds checks critical SMART metrics against thresholds,
// adjusts details and severity and returns the detail keys that raised an alert.
func checkAndSetThresholds(details map[string]string, data NormalizedSmartData, config *DiskHealthMetricsConfig, severity *string, eventType *string) []string {
	var alerts []string
	warn := func(key string) {
		alerts = append(alerts, key)
		if *severity == "info" {
			*severity = "warning"
		}
		if *eventType == "health" {
			*eventType = "health_alert"
		}
	}

	if isSCSI(data) {
		if exceeds(data.ReallocatedSectors, config.GrownDefectsThreshold) {
			details["GrownDefects"] = fmt.Sprintf("%d (Warning: Exceeds threshold of %d)", *data.ReallocatedSectors, config.GrownDefectsThreshold)
			warn("GrownDefects")
		}
	} else if exceeds(data.ReallocatedSectors, config.ReallocatedSectorsThreshold) {
		details["ReallocatedSectors"] = fmt.Sprintf("%d (Warning: Exceeds threshold of %d)", *data.ReallocatedSectors, config.ReallocatedSectorsThreshold)
		warn("ReallocatedSectors")
	}

	if exceeds(data.PendingSectors, config.PendingSectorsThreshold) {
		details["PendingSectors"] = fmt.Sprintf("%d (Warning: Exceeds threshold of %d)", *data.PendingSectors, config.PendingSectorsThreshold)
		warn("PendingSectors")
	}

	if exceeds(data.SSDLifeUsed, config.LifetimeUsedThreshold) {
		details["SSDLifeUsed"] = fmt.Sprintf("%d%% (Warning: Exceeds threshold of %d%%)", *data.SSDLifeUsed, config.LifetimeUsedThreshold)
		alerts = append(alerts, "SSDLifeUsed")
		*severity = "critical"
		*eventType = "lifetime_alert"
	}

	if data.HealthStatus != nil && !*data.HealthStatus {
		details["HealthFailed"] = "true"
		alerts = append(alerts, "HealthFailed")
		*severity = "critical"
		*eventType = "health_alert"
	}
	return alerts
}

var alertMessages = []struct {
	alert, message string
}{
	{"HealthFailed", "SMART overall-health self-assessment failed."},
	{"GrownDefects", "SMART data indicates potential drive issues (grown defects)."},
	{"PendingSectors", "SMART data indicates potential drive issues (pending sectors)."},
	{"ReallocatedSectors", "SMART data indicates potential drive issues (reallocated sectors)."},
	{"SSDLifeUsed", "SMART data indicates SSD nearing end of life."},
}

// generateMessage summarizes the most severe alert raised.
func generateMessage(alerts []string) string {
	for _, m := range alertMessages {
		if slices.Contains(alerts, m.alert) {
			return m.message
		}
	}
	return "SMART data collected successfully."
}

func PublishToNATS(metrics []NormalizedSmartData, nc Publisher, subject string, cfg *DiskHealthMetricsConfig) error {
	for _, metric := range metrics {
		event := convertToNatsEvent(metric, cfg)

		eventJSON, err := json.Marshal(event)
		if err != nil {
			return errors.Wrapf(err, "marshalling event for %s", metric.Device)
		}

		if err := nc.Publish(subject, eventJSON); err != nil {
			return errors.Wrapf(err, "publishing event for %s", metric.Device)
		}
	}

	return nil
}
