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
	"context"
	"fmt"
	"time"

	"github.com/cobaltcore-dev/smartprobe/pkg/blockdev"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	"github.com/cobaltcore-dev/smartprobe/pkg/smartctl"
	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// fallbackDiscoverer asks smartctl first and falls back to the kernel's
// block devices when the scan fails or finds nothing.
type fallbackDiscoverer struct {
	primary   smart.Discoverer
	secondary smart.Discoverer
}

func (f fallbackDiscoverer) Discover(ctx context.Context) ([]smart.Candidate, error) {
	candidates, err := f.primary.Discover(ctx)
	if err == nil && len(candidates) > 0 {
		return candidates, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("smartctl scan failed, falling back to block device discovery")
	}
	return f.secondary.Discover(ctx)
}

func newSmartctl(cfg DiskHealthMetricsConfig) *smartctl.Smartctl {
	s := smartctl.New()
	if cfg.SmartctlPath != "" {
		s.Path = cfg.SmartctlPath
	}
	s.AddOptions(cfg.SmartctlOptions...)
	if cfg.UseSudo {
		s.EnableSudo()
	}
	if cfg.Timeout > 0 {
		s.Timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return s
}

func newDiscoverer(cfg DiskHealthMetricsConfig, s *smartctl.Smartctl) smart.Discoverer {
	if cfg.discoverAll() {
		return fallbackDiscoverer{primary: s, secondary: blockdev.NewDiscoverer()}
	}
	return smart.Paths(cfg.Disks...)
}

// collectDiskHealthMetrics enumerates the configured disks in tolerant mode.
// Devices that fail are logged by the enumerator and counted in the returned
// failure count.
func collectDiskHealthMetrics(ctx context.Context, cfg DiskHealthMetricsConfig, q *smart.Querier, d smart.Discoverer) ([]NormalizedSmartData, int, error) {
	list, err := smart.NewDeviceList(ctx, smart.ListConfig{
		Querier:     q,
		Discoverer:  d,
		CatchErrors: true,
		Workers:     cfg.Workers,
	})
	if err != nil {
		return nil, 0, err
	}

	allMetrics := make([]NormalizedSmartData, 0, list.Len())
	for _, dev := range list.Devices() {
		allMetrics = append(allMetrics, normalizeDevice(dev, cfg))
	}
	return allMetrics, len(list.Failures()), nil
}

func StartMonitoring(ctx context.Context, cfg DiskHealthMetricsConfig) error {
	if cfg.Interval <= 0 {
		return errors.Errorf("invalid collection interval %ds", cfg.Interval)
	}
	runner := newSmartctl(cfg)
	if !runner.Installed() {
		return errors.New("smartctl is not installed. please install smartmontools package.")
	}
	if blockdev.IsVirtualized(cfg.SysfsPath) {
		log.Warn().Msg("running on a virtualized system, disks may not report SMART data")
	}

	querier, err := smart.NewQuerier(smart.Config{
		Runner:  runner,
		Sectors: blockdev.SysfsSectors{Root: cfg.SysfsPath},
	})
	if err != nil {
		return err
	}
	discoverer := newDiscoverer(cfg, runner)

	if cfg.discoverAll() {
		log.Info().Msg("discovering devices on every collection")
	} else {
		log.Info().Strs("devices", cfg.Disks).Msg("devices for monitoring")
	}

	var nc *nats.Conn
	if cfg.UseNats {
		nc, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			return errors.Wrap(err, "error connecting to nats")
		}
		defer nc.Close()
	}

	var promMetrics *diskMetrics
	if cfg.Prometheus {
		promMetrics, _, err = setupPrometheus(ctx, cfg)
		if err != nil {
			return err
		}
	}

	collect := func() {
		metrics, failures, err := collectDiskHealthMetrics(ctx, cfg, querier, discoverer)
		if err != nil {
			log.Error().Err(err).Msg("error collecting disk health metrics")
			return
		}

		if promMetrics != nil {
			promMetrics.PublishToPrometheus(metrics, failures, cfg)
		}

		if cfg.UseNats {
			if err := PublishToNATS(metrics, nc, cfg.NatsSubject, &cfg); err != nil {
				log.Error().Err(err).Msg("error publishing metrics to nats")
			}
		} else {
			metricsJSON, err := json.Marshal(metrics)
			if err != nil {
				log.Error().Err(err).Msg("error marshalling metrics to json")
				return
			}
			fmt.Println(string(metricsJSON))
		}
	}

	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()

	collect()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			collect()
		}
	}
}
