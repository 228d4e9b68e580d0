// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// RawOutput is what one smartctl invocation produced.
type RawOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes smartctl against a device. It only returns an error when the
// process could not be run; a nonzero exit code is reported in RawOutput.
type Runner interface {
	Run(ctx context.Context, device string, args ...string) (RawOutput, error)
}

// SectorProber reports the logical sector size the operating system uses for a device.
type SectorProber interface {
	LogicalSectorSize(path string) (int64, bool)
}

// ParseOptions carries the optional collaborators of Parse.
type ParseOptions struct {
	Sectors SectorProber
}

// Parse builds a Device from one invocation's output. reported is the interface
// label smartctl was queried or discovered with and may be empty. Parse has no
// side effects: the same input always yields an equal Device.
func Parse(path, reported string, raw RawOutput, opts ParseOptions) (*Device, error) {
	out := Tokenize(raw.Stdout)
	exit := ExitStatus(raw.ExitCode)

	if !recognizable(out) {
		kind := ErrDeviceParse
		if exit.CommandLineError() || exit.DeviceOpenFailed() {
			kind = ErrInvocation
		}
		return nil, newDeviceError(path, kind, "%s", failureReason(out, raw.Stderr))
	}

	smartctlIface, devIface := Classify(path, reported, out)

	dev := &Device{
		Path:              path,
		Vendor:            fieldString(out, "vendor"),
		Model:             fieldString(out, "device model", "model number", "product"),
		ModelFamily:       fieldString(out, "model family"),
		Serial:            fieldString(out, "serial number"),
		FirmwareVersion:   fieldString(out, "firmware version", "revision"),
		SmartctlInterface: smartctlIface,
		DevInterface:      devIface,
		Capacity:          ParseCapacity(out),
		RotationRate:      parseRotationRate(out),
		Attributes:        []Attribute{},
		ExitStatus:        exit,
		Messages:          messages(raw.Stderr),
	}
	dev.SMARTAvailable, dev.SMARTEnabled = parseSMARTSupport(out)

	toolLogical, physical := ParseSectorSizes(out)
	var osLogical *int64
	if opts.Sectors != nil {
		if v, ok := opts.Sectors.LogicalSectorSize(path); ok {
			osLogical = &v
		}
	}
	dev.SectorSizes = resolveSectorSizes(toolLogical, physical, osLogical)

	switch family(devIface) {
	case InterfaceNVMe:
		dev.NVMe = ParseNVMeAttributes(out)
	case InterfaceATA:
		dev.Attributes = ParseATAAttributes(out.AttributeRows)
	default:
		if attrs := ParseSCSIAttributes(out); attrs != nil {
			dev.Attributes = attrs
		}
		dev.SCSI = ParseSCSIErrorCounters(out)
	}

	dev.Diagnostics = BuildDiagnostics(devIface, out, dev.Attributes, dev.NVMe, dev.SCSI)
	dev.Tests = ParseSelfTests(out)
	dev.Assessment = assess(out, dev)

	return dev, nil
}

// recognizable reports whether the output names the device or carries any SMART data.
func recognizable(out *Output) bool {
	if fieldString(out, "device model", "model number", "product", "serial number") != nil {
		return true
	}
	m := detectMarkers(out)
	return m.nvme || m.ata ||
		out.Has("smart overall-health self-assessment test result") ||
		out.Has("smart health status") ||
		out.Has("smart support is")
}

// failureReason picks the first line explaining why nothing could be parsed.
func failureReason(out *Output, stderr string) string {
	for _, line := range out.Lines {
		text := strings.TrimSpace(line.Text)
		if text == out.Header || strings.HasPrefix(text, "Copyright") {
			continue
		}
		return text
	}
	if msgs := messages(stderr); len(msgs) > 0 {
		return msgs[0]
	}
	return "empty output"
}

func messages(stderr string) []string {
	var msgs []string
	for _, line := range strings.Split(stderr, "\n") {
		if text := strings.TrimSpace(cleanLine(line)); text != "" {
			msgs = append(msgs, text)
		}
	}
	return msgs
}

func parseRotationRate(out *Output) *int64 {
	v, ok := out.Field("rotation rate")
	if !ok {
		return nil
	}
	if strings.Contains(strings.ToLower(v), "solid state") {
		return intPtr(0)
	}
	if n, ok := leadingInt(v); ok {
		return &n
	}
	return nil
}

// parseSMARTSupport reads the "SMART support is:" lines, which smartctl prints
// once for availability and once for the enabled state.
func parseSMARTSupport(out *Output) (available, enabled *bool) {
	for _, v := range out.FieldValues("smart support is") {
		lower := strings.ToLower(v)
		switch {
		case strings.HasPrefix(lower, "unavailable"):
			available = boolPtr(false)
		case strings.HasPrefix(lower, "available"):
			available = boolPtr(true)
		case strings.HasPrefix(lower, "disabled"):
			enabled = boolPtr(false)
		case strings.HasPrefix(lower, "enabled"):
			enabled = boolPtr(true)
		}
	}
	return available, enabled
}

// assess maps the overall health line onto an Assessment. A passing device
// whose attributes failed before, or whose NVMe critical warning is set, is
// downgraded to WARN.
func assess(out *Output, dev *Device) Assessment {
	result := AssessmentUnknown
	if v, ok := out.Field("smart overall-health self-assessment test result"); ok {
		result = AssessmentFail
		if strings.HasPrefix(strings.ToUpper(v), "PASSED") {
			result = AssessmentPass
		}
	} else if v, ok := out.Field("smart health status"); ok {
		result = AssessmentFail
		if strings.EqualFold(v, "OK") {
			result = AssessmentPass
		}
	}
	if result != AssessmentPass {
		return result
	}

	for _, a := range dev.Attributes {
		if a.WhenFailed == FailedNow || a.WhenFailed == FailedPast {
			return AssessmentWarn
		}
	}
	if dev.NVMe != nil && dev.NVMe.CriticalWarning != nil && *dev.NVMe.CriticalWarning != 0 {
		return AssessmentWarn
	}
	return result
}

// Config configures a Querier. Flags defaults to DefaultFlags.
type Config struct {
	Runner  Runner
	Flags   []string
	Sectors SectorProber
}

// DefaultFlags returns the smartctl flags used to query a device.
func DefaultFlags() []string {
	return []string{"--all"}
}

// Querier queries and parses single devices.
type Querier struct {
	runner  Runner
	flags   []string
	sectors SectorProber
}

// NewQuerier validates cfg and fills in its defaults.
func NewQuerier(cfg Config) (*Querier, error) {
	if cfg.Runner == nil {
		return nil, errors.New("smart: a Runner is required")
	}
	flags := cfg.Flags
	if len(flags) == 0 {
		flags = DefaultFlags()
	}
	return &Querier{
		runner:  cfg.Runner,
		flags:   append([]string(nil), flags...),
		sectors: cfg.Sectors,
	}, nil
}

// Device runs smartctl against path and parses the result. iface is passed as
// the -d type when set. Output is parsed whatever the exit code.
func (q *Querier) Device(ctx context.Context, path, iface string) (*Device, error) {
	args := append([]string(nil), q.flags...)
	if iface != "" {
		args = append(args, "-d", iface)
	}

	raw, err := q.runner.Run(ctx, path, args...)
	if err != nil {
		return nil, newDeviceError(path, ErrInvocation, "%v", err)
	}

	return Parse(path, iface, raw, ParseOptions{Sectors: q.sectors})
}

// Refresh queries the device again and returns a new Device; d is left untouched.
func (q *Querier) Refresh(ctx context.Context, d *Device) (*Device, error) {
	return q.Device(ctx, d.Path, d.SmartctlInterface)
}
