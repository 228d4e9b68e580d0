// Copyright (C) 2024 Clyso GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package diskhealthmetrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var diskLabels = []string{"disk", "node", "instance"}

// Values of disk_health_status.
const (
	healthFailing = 0
	healthPassing = 1
	healthWarning = 2
)

type diskMetrics struct {
	smartAttributes     *prometheus.GaugeVec
	temperature         *prometheus.GaugeVec
	reallocatedSectors  *prometheus.GaugeVec
	pendingSectors      *prometheus.GaugeVec
	uncorrectableErrors *prometheus.GaugeVec
	powerOnHours        *prometheus.GaugeVec
	ssdLifeUsed         *prometheus.GaugeVec
	errorCounts         *prometheus.GaugeVec
	capacity            *prometheus.GaugeVec
	healthStatus        *prometheus.GaugeVec
	enumerationFailures *prometheus.GaugeVec
}

func newDiskGauge(name, help string, extra ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: name, Help: help},
		append(append([]string(nil), diskLabels...), extra...),
	)
}

// newDiskMetrics creates the exporter gauges and registers them with reg.
func newDiskMetrics(reg prometheus.Registerer) *diskMetrics {
	m := &diskMetrics{
		smartAttributes:     newDiskGauge("smart_attributes", "Raw value of SMART attributes of the disk", "attribute"),
		temperature:         newDiskGauge("disk_temperature_celsius", "Disk temperature in Celsius"),
		reallocatedSectors:  newDiskGauge("disk_reallocated_sectors", "Number of reallocated sectors"),
		pendingSectors:      newDiskGauge("disk_pending_sectors", "Number of pending sectors"),
		uncorrectableErrors: newDiskGauge("disk_uncorrectable_errors", "Number of uncorrectable errors"),
		powerOnHours:        newDiskGauge("disk_power_on_hours", "Number of hours the disk has been powered on"),
		ssdLifeUsed:         newDiskGauge("ssd_life_used_percentage", "Percentage of SSD life used"),
		errorCounts:         newDiskGauge("disk_error_counts", "Various error counts for the disk", "error_type"),
		capacity:            newDiskGauge("disk_capacity_bytes", "Capacity of the disk in bytes"),
		healthStatus:        newDiskGauge("disk_health_status", "Overall health assessment (0 failing, 1 passing, 2 passing with warnings)"),
		enumerationFailures: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "disk_enumeration_failures",
				Help: "Number of devices skipped during the last collection",
			},
			[]string{"node", "instance"},
		),
	}

	reg.MustRegister(
		m.smartAttributes,
		m.temperature,
		m.reallocatedSectors,
		m.pendingSectors,
		m.uncorrectableErrors,
		m.powerOnHours,
		m.ssdLifeUsed,
		m.errorCounts,
		m.capacity,
		m.healthStatus,
		m.enumerationFailures,
	)
	return m
}

func (m *diskMetrics) perDisk() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{
		m.smartAttributes, m.temperature, m.reallocatedSectors, m.pendingSectors,
		m.uncorrectableErrors, m.powerOnHours, m.ssdLifeUsed, m.errorCounts,
		m.capacity, m.healthStatus,
	}
}

func setIfPresent(g *prometheus.GaugeVec, labels prometheus.Labels, v *int64) {
	if v != nil {
		g.With(labels).Set(float64(*v))
	}
}

// PublishToPrometheus replaces the published series with the given
// collection. Disks that disappeared since the last collection are dropped.
func (m *diskMetrics) PublishToPrometheus(metrics []NormalizedSmartData, failures int, cfg DiskHealthMetricsConfig) {
	for _, g := range m.perDisk() {
		g.Reset()
	}

	for _, metric := range metrics {
		labels := prometheus.Labels{
			"disk":     metric.Device,
			"node":     metric.NodeName,
			"instance": metric.InstanceID,
		}

		setIfPresent(m.temperature, labels, metric.TemperatureCelsius)
		setIfPresent(m.reallocatedSectors, labels, metric.ReallocatedSectors)
		setIfPresent(m.pendingSectors, labels, metric.PendingSectors)
		setIfPresent(m.uncorrectableErrors, labels, metric.UncorrectableErrors)
		setIfPresent(m.powerOnHours, labels, metric.PowerOnHours)
		setIfPresent(m.ssdLifeUsed, labels, metric.SSDLifeUsed)
		setIfPresent(m.capacity, labels, metric.CapacityBytes)

		switch smart.Assessment(metric.Assessment) {
		case smart.AssessmentPass:
			m.healthStatus.With(labels).Set(healthPassing)
		case smart.AssessmentWarn:
			m.healthStatus.With(labels).Set(healthWarning)
		case smart.AssessmentFail:
			m.healthStatus.With(labels).Set(healthFailing)
		}

		for errorType, count := range metric.ErrorCounts {
			m.errorCounts.With(prometheus.Labels{
				"disk":       metric.Device,
				"node":       metric.NodeName,
				"instance":   metric.InstanceID,
				"error_type": errorType,
			}).Set(float64(count))
		}

		for attrName, attrValue := range metric.Attributes {
			m.smartAttributes.With(prometheus.Labels{
				"disk":      metric.Device,
				"node":      metric.NodeName,
				"instance":  metric.InstanceID,
				"attribute": attrName,
			}).Set(float64(attrValue.RawValue))
		}
	}

	m.enumerationFailures.With(prometheus.Labels{
		"node":     cfg.NodeName,
		"instance": cfg.InstanceID,
	}).Set(float64(failures))
}

// StartPrometheusServer serves reg on its own mux so several exporters can
// run in one process. The listener is bound before returning and the server
// shuts down when ctx is cancelled.
func StartPrometheusServer(ctx context.Context, port int, reg *prometheus.Registry) (net.Addr, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.Wrapf(err, "error starting prometheus metrics server on port %d", port)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info().Msgf("starting prometheus metrics server on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("prometheus metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return ln.Addr(), nil
}

// setupPrometheus gives every exporter its own registry and listener.
func setupPrometheus(ctx context.Context, cfg DiskHealthMetricsConfig) (*diskMetrics, net.Addr, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := newDiskMetrics(reg)

	addr, err := StartPrometheusServer(ctx, cfg.PrometheusPort, reg)
	if err != nil {
		return nil, nil, err
	}
	return m, addr, nil
}
