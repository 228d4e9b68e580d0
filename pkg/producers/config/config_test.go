// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
global:
  nats_url: nats://localhost:4222
  node_name: storage-01
  instance_id: rack-3
  use_sudo: true
producers:
  - name: disks
    type: disk_health_metrics
    settings:
      disks:
        - /dev/sda
        - /dev/nvme0
      workers: 4
      prometheus: true
      prometheus_port: 9100
      pending_sectors_threshold: 1
      smartctl_options:
        - --nocheck=standby
  - name: other
    type: disk_health_metrics
    settings:
      nats_url: ""
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.Global.NatsURL)
	assert.Equal(t, "storage-01", cfg.Global.NodeName)
	assert.Equal(t, "smartctl", cfg.Global.SmartctlPath)
	assert.True(t, cfg.Global.UseSudo)
	require.Len(t, cfg.Producers, 2)
	assert.Equal(t, "disk_health_metrics", cfg.Producers[0].Type)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestDiskHealthMetricsSettings(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	settings := DiskHealthMetricsSettings(cfg.Producers[0], cfg.Global)
	assert.Equal(t, []string{"/dev/sda", "/dev/nvme0"}, settings.Disks)
	assert.Equal(t, 4, settings.Workers)
	assert.True(t, settings.Prometheus)
	assert.Equal(t, 9100, settings.PrometheusPort)
	assert.Equal(t, int64(1), settings.PendingSectorsThreshold)
	assert.Equal(t, int64(10), settings.ReallocatedSectorsThreshold)
	assert.Equal(t, []string{"--nocheck=standby"}, settings.SmartctlOptions)
	assert.True(t, settings.UseNats)
	assert.Equal(t, "osd.disk.health", settings.NatsSubject)
	assert.Equal(t, "storage-01", settings.NodeName)
	assert.Equal(t, "rack-3", settings.InstanceID)
	assert.True(t, settings.UseSudo)

	// a producer can opt out of the global nats server
	settings = DiskHealthMetricsSettings(cfg.Producers[1], cfg.Global)
	assert.False(t, settings.UseNats)
	assert.Equal(t, []string{"*"}, settings.Disks)
}

func TestValidateProducersPrometheusPorts(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
producers:
  - name: hdd
    type: disk_health_metrics
    settings:
      prometheus: true
      prometheus_port: 9100
  - name: nvme
    type: disk_health_metrics
    settings:
      prometheus: true
      prometheus_port: 9101
  - name: quiet
    type: disk_health_metrics
    settings:
      prometheus_port: 9100
`))
	require.NoError(t, err)
	assert.NoError(t, ValidateProducers(cfg))

	cfg.Producers[1].Settings["prometheus_port"] = 9100
	err = ValidateProducers(cfg)
	assert.ErrorContains(t, err, `producers "hdd" and "nvme" both use prometheus port 9100`)
}
