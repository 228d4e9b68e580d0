// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncRunner is a fakeRunner safe for concurrent use.
type syncRunner struct {
	mu sync.Mutex
	fakeRunner
}

func (s *syncRunner) Run(ctx context.Context, device string, args ...string) (RawOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fakeRunner.Run(ctx, device, args...)
}

func hostRunner(t *testing.T) *syncRunner {
	return &syncRunner{fakeRunner: fakeRunner{outputs: map[string]RawOutput{
		"/dev/sda":   {Stdout: loadFixture(t, "ata_wd_red.txt")},
		"/dev/sdb":   {Stdout: loadFixture(t, "ata_ssd.txt")},
		"/dev/sdc":   {Stdout: loadFixture(t, "scsi_seagate_sas.txt")},
		"/dev/sdy":   {Stdout: loadFixture(t, "unsupported.txt"), ExitCode: 4},
		"/dev/nvme0": {Stdout: loadFixture(t, "nvme_samsung.txt")},
	}}}
}

func countErrorRecords(buf *bytes.Buffer) int {
	n := 0
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"level":"error"`) {
			n++
		}
	}
	return n
}

func TestDeviceListCatchErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	for _, workers := range []int{1, 4} {
		buf.Reset()
		q, err := NewQuerier(Config{Runner: hostRunner(t)})
		require.NoError(t, err)

		list, err := NewDeviceList(context.Background(), ListConfig{
			Querier:     q,
			Discoverer:  Paths("/dev/sda", "/dev/sdy", "/dev/sdb", "/dev/sdc", "/dev/nvme0"),
			CatchErrors: true,
			Workers:     workers,
			Logger:      &logger,
		})
		require.NoError(t, err)

		assert.True(t, list.CatchErrors())
		assert.Equal(t, 4, list.Len())
		assert.Equal(t, []string{"/dev/sda", "/dev/sdb", "/dev/sdc", "/dev/nvme0"}, list.Paths())
		assert.Len(t, list.Devices(), 4)

		_, ok := list.Get("/dev/sdy")
		assert.False(t, ok)
		dev, ok := list.Get("/dev/nvme0")
		require.True(t, ok)
		assert.Equal(t, InterfaceNVMe, dev.DevInterface)

		failures := list.Failures()
		require.Len(t, failures, 1)
		assert.True(t, errors.Is(failures["/dev/sdy"], ErrDeviceParse))

		assert.Equal(t, 1, countErrorRecords(&buf))
		assert.Contains(t, buf.String(), `"device":"/dev/sdy"`)
	}
}

func TestDeviceListStrict(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	q, err := NewQuerier(Config{Runner: hostRunner(t)})
	require.NoError(t, err)

	list, err := NewDeviceList(context.Background(), ListConfig{
		Querier:    q,
		Discoverer: Paths("/dev/sda", "/dev/sdy", "/dev/sdb"),
		Logger:     &logger,
	})
	require.Error(t, err)
	assert.Nil(t, list)
	assert.True(t, errors.Is(err, ErrDeviceParse))

	var devErr *DeviceError
	require.True(t, errors.As(err, &devErr))
	assert.Equal(t, "/dev/sdy", devErr.Path)
	assert.Equal(t, 0, countErrorRecords(&buf))
}

func TestDeviceListInvocationFailure(t *testing.T) {
	runner := hostRunner(t)
	runner.errs = map[string]error{"/dev/sdq": errors.New("permission denied")}
	q, err := NewQuerier(Config{Runner: runner})
	require.NoError(t, err)

	_, err = NewDeviceList(context.Background(), ListConfig{
		Querier:    q,
		Discoverer: Paths("/dev/sdq", "/dev/sda"),
	})
	assert.True(t, errors.Is(err, ErrInvocation))

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	list, err := NewDeviceList(context.Background(), ListConfig{
		Querier:     q,
		Discoverer:  Paths("/dev/sdq", "/dev/sda"),
		CatchErrors: true,
		Logger:      &logger,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/sda"}, list.Paths())
	assert.True(t, errors.Is(list.Failures()["/dev/sdq"], ErrInvocation))
}

func TestDeviceListCarriesDiscoveredInterface(t *testing.T) {
	q, err := NewQuerier(Config{Runner: hostRunner(t)})
	require.NoError(t, err)

	var results []Result
	list, err := NewDeviceList(context.Background(), ListConfig{
		Querier: q,
		Discoverer: StaticDiscoverer{
			{Path: "/dev/sda", Interface: "scsi"},
			{Path: "/dev/sda", Interface: "sat"},
		},
		OnResult: func(r Result) { results = append(results, r) },
	})
	require.NoError(t, err)

	require.Equal(t, 1, list.Len())
	dev, _ := list.Get("/dev/sda")
	assert.Equal(t, "scsi", dev.Interface())
	assert.Equal(t, "sata", dev.DevInterface)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

type failingDiscoverer struct{}

func (failingDiscoverer) Discover(context.Context) ([]Candidate, error) {
	return nil, errors.New("scan failed")
}

func TestDeviceListDiscoveryFailure(t *testing.T) {
	q, err := NewQuerier(Config{Runner: hostRunner(t)})
	require.NoError(t, err)

	_, err = NewDeviceList(context.Background(), ListConfig{
		Querier:     q,
		Discoverer:  failingDiscoverer{},
		CatchErrors: true,
	})
	assert.ErrorContains(t, err, "scan failed")
}
