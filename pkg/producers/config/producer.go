// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/diskhealthmetrics"
)

// DiskHealthMetricsSettings builds the exporter configuration of a
// disk_health_metrics producer. Producer settings override the global ones.
func DiskHealthMetricsSettings(producer ProducerConfig, globalConfig GlobalConfig) diskhealthmetrics.DiskHealthMetricsConfig {
	natsURL := GetStringSetting(producer.Settings, "nats_url", globalConfig.NatsURL)
	return diskhealthmetrics.DiskHealthMetricsConfig{
		NatsURL:                     natsURL,
		NatsSubject:                 GetStringSetting(producer.Settings, "nats_subject", "osd.disk.health"),
		UseNats:                     natsURL != "",
		Prometheus:                  GetBoolSetting(producer.Settings, "prometheus", false),
		PrometheusPort:              GetIntSetting(producer.Settings, "prometheus_port", 8080),
		AllAttributes:               GetBoolSetting(producer.Settings, "all_attributes", false),
		Disks:                       GetStringSliceSetting(producer.Settings, "disks", []string{"*"}),
		IncludeZeroValues:           GetBoolSetting(producer.Settings, "include_zero_values", false),
		Interval:                    GetIntSetting(producer.Settings, "interval", 60),
		NodeName:                    GetStringSetting(producer.Settings, "node_name", globalConfig.NodeName),
		InstanceID:                  GetStringSetting(producer.Settings, "instance_id", globalConfig.InstanceID),
		Workers:                     GetIntSetting(producer.Settings, "workers", 1),
		SmartctlPath:                GetStringSetting(producer.Settings, "smartctl_path", globalConfig.SmartctlPath),
		SmartctlOptions:             GetStringSliceSetting(producer.Settings, "smartctl_options", nil),
		UseSudo:                     GetBoolSetting(producer.Settings, "use_sudo", globalConfig.UseSudo),
		Timeout:                     GetIntSetting(producer.Settings, "timeout", 0),
		SysfsPath:                   GetStringSetting(producer.Settings, "sysfs_path", "/sys"),
		GrownDefectsThreshold:       GetInt64Setting(producer.Settings, "grown_defects_threshold", 10),
		PendingSectorsThreshold:     GetInt64Setting(producer.Settings, "pending_sectors_threshold", 3),
		ReallocatedSectorsThreshold: GetInt64Setting(producer.Settings, "reallocated_sectors_threshold", 10),
		LifetimeUsedThreshold:       GetInt64Setting(producer.Settings, "lifetime_used_threshold", 80),
	}
}

// ValidateProducers rejects disk_health_metrics producers that would serve
// prometheus metrics on the same port.
func ValidateProducers(cfg *Config) error {
	ports := make(map[int]string)
	for _, producer := range cfg.Producers {
		if producer.Type != "disk_health_metrics" {
			continue
		}
		settings := DiskHealthMetricsSettings(producer, cfg.Global)
		if !settings.Prometheus {
			continue
		}
		if other, ok := ports[settings.PrometheusPort]; ok {
			return fmt.Errorf("producers %q and %q both use prometheus port %d", other, producer.Name, settings.PrometheusPort)
		}
		ports[settings.PrometheusPort] = producer.Name
	}
	return nil
}

func StartProducers(ctx context.Context, producer ProducerConfig, globalConfig GlobalConfig, wg *sync.WaitGroup) {
	defer wg.Done()

	switch producer.Type {
	case "disk_health_metrics":
		settings := DiskHealthMetricsSettings(producer, globalConfig)
		log.Info().Str("producer", producer.Name).Msg("--- disk health metrics ---")
		if err := diskhealthmetrics.StartMonitoring(ctx, settings); err != nil {
			log.Error().Err(err).Str("producer", producer.Name).Msg("disk health metrics producer stopped")
		}
	default:
		log.Warn().Msgf("unknown producer type: %s", producer.Type)
	}
}
