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

package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/diskhealthmetrics"
)

var (
	dhmNatsURL                     string
	dhmNatsSubject                 string
	dhmUseNats                     bool
	dhmPromEnabled                 bool
	dhmPromPort                    int
	dhmAllAttributes               bool
	dhmDisksFlag                   string
	dhmNodeName                    string
	dhmInstanceID                  string
	dhmIncludeZeroValues           bool
	dhmInterval                    int
	dhmWorkers                     int
	dhmSmartctlOptions             []string
	dhmGrownDefectsThreshold       int64
	dhmPendingSectorsThreshold     int64
	dhmReallocatedSectorsThreshold int64
	dhmLifetimeUsedThreshold       int64
)

var diskHealthMetricsCmd = &cobra.Command{
	Use:   "disk-health-metrics",
	Short: "Disk health metrics collector and media error logger",
	RunE: func(cmd *cobra.Command, args []string) error {
		config := diskhealthmetrics.DiskHealthMetricsConfig{
			NatsURL:                     dhmNatsURL,
			NatsSubject:                 dhmNatsSubject,
			UseNats:                     dhmUseNats,
			Prometheus:                  dhmPromEnabled,
			PrometheusPort:              dhmPromPort,
			AllAttributes:               dhmAllAttributes,
			Disks:                       splitDisks(dhmDisksFlag),
			NodeName:                    dhmNodeName,
			InstanceID:                  dhmInstanceID,
			IncludeZeroValues:           dhmIncludeZeroValues,
			Interval:                    dhmInterval,
			Workers:                     dhmWorkers,
			SmartctlPath:                smartctlPath,
			SmartctlOptions:             dhmSmartctlOptions,
			UseSudo:                     useSudo,
			Timeout:                     int(smartctlTimeout.Seconds()),
			SysfsPath:                   sysfsRoot,
			GrownDefectsThreshold:       dhmGrownDefectsThreshold,
			PendingSectorsThreshold:     dhmPendingSectorsThreshold,
			ReallocatedSectorsThreshold: dhmReallocatedSectorsThreshold,
			LifetimeUsedThreshold:       dhmLifetimeUsedThreshold,
		}

		config = mergeDiskHealthMetricsConfigWithEnv(config)

		config.UseNats = config.NatsURL != ""
		if config.InstanceID == "" {
			config.InstanceID = defaultInstanceID()
		}

		event := log.Info()
		event.Bool("use_nats", config.UseNats)
		if config.UseNats {
			event.Str("nats_url", config.NatsURL)
			event.Str("nats_subject", config.NatsSubject)
		}

		event.Bool("prometheus_enabled", config.Prometheus)
		if config.Prometheus {
			event.Int("prometheus_port", config.PrometheusPort)
		}

		event.Bool("all_attributes", config.AllAttributes).
			Str("disks", fmt.Sprintf("%v", config.Disks)).
			Str("node_name", config.NodeName).
			Str("instance_id", config.InstanceID).
			Int("interval_seconds", config.Interval).
			Int("workers", config.Workers)

		event.Msg("configuration_loaded")

		if err := validateDiskHealthMetricsConfig(config); err != nil {
			return err
		}

		return diskhealthmetrics.StartMonitoring(cmd.Context(), config)
	},
}

// defaultInstanceID identifies this exporter run when no instance id is configured.
func defaultInstanceID() string {
	return uuid.NewString()
}

func splitDisks(disks string) []string {
	var result []string
	for _, disk := range strings.Split(disks, ",") {
		if disk = strings.TrimSpace(disk); disk != "" {
			result = append(result, disk)
		}
	}
	return result
}

func mergeDiskHealthMetricsConfigWithEnv(cfg diskhealthmetrics.DiskHealthMetricsConfig) diskhealthmetrics.DiskHealthMetricsConfig {
	cfg.NatsURL = getEnv("NATS_URL", cfg.NatsURL)
	cfg.NatsSubject = getEnv("NATS_SUBJECT", cfg.NatsSubject)
	cfg.Prometheus = getEnvBool("PROMETHEUS", cfg.Prometheus)
	cfg.PrometheusPort = getEnvInt("PROMETHEUS_PORT", cfg.PrometheusPort)
	cfg.AllAttributes = getEnvBool("ALL_ATTR", cfg.AllAttributes)
	if disksEnv := getEnv("DISKS", ""); disksEnv != "" {
		cfg.Disks = splitDisks(disksEnv)
	}
	cfg.NodeName = getEnv("NODE_NAME", cfg.NodeName)
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)
	cfg.IncludeZeroValues = getEnvBool("INCLUDE_ZERO_VALUES", cfg.IncludeZeroValues)
	cfg.Interval = getEnvInt("INTERVAL", cfg.Interval)
	cfg.Workers = getEnvInt("WORKERS", cfg.Workers)
	cfg.GrownDefectsThreshold = getEnvInt64("GROWN_DEFECTS_THRESHOLD", cfg.GrownDefectsThreshold)
	cfg.PendingSectorsThreshold = getEnvInt64("PENDING_SECTORS_THRESHOLD", cfg.PendingSectorsThreshold)
	cfg.ReallocatedSectorsThreshold = getEnvInt64("REALLOCATED_SECTORS_THRESHOLD", cfg.ReallocatedSectorsThreshold)
	cfg.LifetimeUsedThreshold = getEnvInt64("LIFETIME_USED_THRESHOLD", cfg.LifetimeUsedThreshold)

	return cfg
}

func init() {
	diskHealthMetricsCmd.Flags().StringVar(&dhmNatsURL, "nats-url", "", "NATS server URL")
	diskHealthMetricsCmd.Flags().StringVar(&dhmNatsSubject, "nats-subject", "osd.disk.health", "NATS subject to publish metrics")
	diskHealthMetricsCmd.Flags().BoolVar(&dhmPromEnabled, "prometheus", false, "Enable Prometheus metrics")
	diskHealthMetricsCmd.Flags().IntVar(&dhmPromPort, "prometheus-port", 8080, "Prometheus metrics port")
	diskHealthMetricsCmd.Flags().BoolVar(&dhmAllAttributes, "all-attr", false, "Export all SMART attributes, not only the known ones")
	diskHealthMetricsCmd.Flags().StringVar(&dhmDisksFlag, "disks", "*", "Comma separated list of disks to monitor, * discovers all disks")
	diskHealthMetricsCmd.Flags().StringVar(&dhmNodeName, "node-name", "", "Node name added to metrics and events")
	diskHealthMetricsCmd.Flags().StringVar(&dhmInstanceID, "instance-id", "", "Instance id added to metrics and events (defaults to a random uuid)")
	diskHealthMetricsCmd.Flags().BoolVar(&dhmIncludeZeroValues, "include-zero-values", false, "Include attributes with zero values")
	diskHealthMetricsCmd.Flags().IntVar(&dhmInterval, "interval", 10, "Interval in seconds between metric collections")
	diskHealthMetricsCmd.Flags().IntVar(&dhmWorkers, "workers", 1, "Number of disks queried concurrently")
	diskHealthMetricsCmd.Flags().StringSliceVar(&dhmSmartctlOptions, "smartctl-options", nil, "Extra options passed to every smartctl invocation")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmGrownDefectsThreshold, "grown-defects-threshold", 10, "Threshold for grown defects to trigger a warning")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmPendingSectorsThreshold, "pending-sectors-threshold", 3, "Threshold for pending sectors to trigger a warning")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmReallocatedSectorsThreshold, "reallocated-sectors-threshold", 10, "Threshold for reallocated sectors to trigger a warning")
	diskHealthMetricsCmd.Flags().Int64Var(&dhmLifetimeUsedThreshold, "lifetime-used-threshold", 80, "Threshold for SSD lifetime used percentage to trigger a critical alert")
}

func validateDiskHealthMetricsConfig(config diskhealthmetrics.DiskHealthMetricsConfig) error {
	if len(config.Disks) == 0 {
		return errors.New("--disks or DISKS must be set")
	}
	if config.Interval <= 0 {
		return errors.Errorf("--interval must be positive, got %d", config.Interval)
	}
	if config.Prometheus && (config.PrometheusPort <= 0 || config.PrometheusPort > 65535) {
		return errors.Errorf("invalid --prometheus-port %d", config.PrometheusPort)
	}
	return nil
}
