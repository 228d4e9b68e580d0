// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Candidate is a device path found during discovery, with the -d type it was found with.
type Candidate struct {
	Path      string
	Interface string
}

// Discoverer finds the candidate devices of a host.
type Discoverer interface {
	Discover(ctx context.Context) ([]Candidate, error)
}

// StaticDiscoverer returns a fixed candidate list.
type StaticDiscoverer []Candidate

func (s StaticDiscoverer) Discover(context.Context) ([]Candidate, error) {
	return append([]Candidate(nil), s...), nil
}

// Paths is a StaticDiscoverer for paths without an interface hint.
func Paths(paths ...string) StaticDiscoverer {
	s := make(StaticDiscoverer, 0, len(paths))
	for _, p := range paths {
		s = append(s, Candidate{Path: p})
	}
	return s
}

// Result is the outcome of building one device: either Device or Err is set.
type Result struct {
	Path   string
	Device *Device
	Err    error
}

// ListConfig configures NewDeviceList.
type ListConfig struct {
	Querier    *Querier
	Discoverer Discoverer
	// CatchErrors skips and logs failing devices instead of aborting.
	CatchErrors bool
	// Workers bounds the number of concurrent smartctl invocations. Defaults to 1.
	Workers int
	// Logger receives one error record per skipped device. Defaults to the global logger.
	Logger *zerolog.Logger
	// OnResult is called once per device, never concurrently.
	OnResult func(Result)
}

// DeviceList maps discovered device paths to their Devices.
type DeviceList struct {
	paths       []string
	devices     map[string]*Device
	failures    map[string]error
	catchErrors bool
}

// NewDeviceList discovers and builds every device. Without CatchErrors the
// first device failure cancels the remaining builds and is returned with no
// list. With CatchErrors failing devices are logged, recorded in Failures and
// left out of the list.
func NewDeviceList(ctx context.Context, cfg ListConfig) (*DeviceList, error) {
	if cfg.Querier == nil || cfg.Discoverer == nil {
		return nil, errors.New("smart: device list needs a Querier and a Discoverer")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &log.Logger
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	candidates, err := cfg.Discoverer.Discover(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "discovering devices")
	}
	candidates = uniqueCandidates(candidates)

	results := make([]Result, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dev, err := cfg.Querier.Device(gctx, c.Path, c.Interface)
			results[i] = Result{Path: c.Path, Device: dev, Err: err}
			if cfg.OnResult != nil {
				mu.Lock()
				cfg.OnResult(results[i])
				mu.Unlock()
			}
			if err != nil && !cfg.CatchErrors {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	list := &DeviceList{
		devices:     make(map[string]*Device, len(results)),
		failures:    make(map[string]error),
		catchErrors: cfg.CatchErrors,
	}
	for _, r := range results {
		if r.Err != nil {
			logger.Error().Stack().Err(r.Err).Str("device", r.Path).Msg("skipping device")
			list.failures[r.Path] = r.Err
			continue
		}
		list.paths = append(list.paths, r.Path)
		list.devices[r.Path] = r.Device
	}

	return list, nil
}

func uniqueCandidates(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	unique := candidates[:0:0]
	for _, c := range candidates {
		if _, ok := seen[c.Path]; ok {
			continue
		}
		seen[c.Path] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// Paths returns the paths of the built devices in discovery order.
func (l *DeviceList) Paths() []string {
	return append([]string(nil), l.paths...)
}

// Get returns the device at path.
func (l *DeviceList) Get(path string) (*Device, bool) {
	d, ok := l.devices[path]
	return d, ok
}

// Devices returns the built devices in discovery order.
func (l *DeviceList) Devices() []*Device {
	devices := make([]*Device, 0, len(l.paths))
	for _, p := range l.paths {
		devices = append(devices, l.devices[p])
	}
	return devices
}

func (l *DeviceList) Len() int {
	return len(l.paths)
}

// Failures returns the errors of skipped devices by path.
func (l *DeviceList) Failures() map[string]error {
	failures := make(map[string]error, len(l.failures))
	for p, err := range l.failures {
		failures[p] = err
	}
	return failures
}

// CatchErrors reports whether the list was built in tolerant mode.
func (l *DeviceList) CatchErrors() bool {
	return l.catchErrors
}
