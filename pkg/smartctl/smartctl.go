// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultPath is the binary looked up in PATH when Smartctl.Path is empty.
const DefaultPath = "smartctl"

// exit status bits that mean smartctl did not get to talk to the device
const invocationFailed = 0x01 | 0x02 | 0x04

// Smartctl runs the smartctl binary. The zero value runs "smartctl" from PATH
// without elevation or timeout.
type Smartctl struct {
	// Path of the smartctl binary.
	Path string
	// Options are appended to every device query.
	Options []string
	// Sudo is the elevation prefix, e.g. ["sudo", "-E"]. Empty runs smartctl directly.
	Sudo []string
	// Timeout bounds a single invocation when positive.
	Timeout time.Duration
}

// New returns a Smartctl using the binary from PATH.
func New() *Smartctl {
	return &Smartctl{Path: DefaultPath}
}

// EnableSudo runs smartctl through sudo. Without arguments sudo keeps the environment (-E).
func (s *Smartctl) EnableSudo(args ...string) {
	if len(args) == 0 {
		args = []string{"-E"}
	}
	s.Sudo = append([]string{"sudo"}, args...)
}

// AddOptions appends options passed on every device query.
func (s *Smartctl) AddOptions(opts ...string) {
	s.Options = append(s.Options, opts...)
}

// Installed reports whether the smartctl binary can be found.
func (s *Smartctl) Installed() bool {
	_, err := exec.LookPath(s.path())
	return err == nil
}

func (s *Smartctl) path() string {
	if s.Path == "" {
		return DefaultPath
	}
	return s.Path
}

// Run queries device with args. A nonzero exit code is returned in the output;
// an error means smartctl could not be started or was cancelled.
func (s *Smartctl) Run(ctx context.Context, device string, args ...string) (smart.RawOutput, error) {
	full := make([]string, 0, len(args)+len(s.Options)+1)
	full = append(full, args...)
	full = append(full, s.Options...)
	full = append(full, device)
	return s.exec(ctx, full...)
}

func (s *Smartctl) exec(ctx context.Context, args ...string) (smart.RawOutput, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	name := s.path()
	if len(s.Sudo) > 0 {
		args = append(append(append([]string(nil), s.Sudo[1:]...), name), args...)
		name = s.Sudo[0]
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// smartctl output is parsed as English text
	cmd.Env = append(os.Environ(), "LANG=C", "LC_ALL=C")

	log.Debug().Str("command", name).Strs("args", args).Msg("running smartctl")

	err := cmd.Run()
	out := smart.RawOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, errors.Wrapf(ctxErr, "running %s", name)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return out, errors.Wrapf(err, "running %s", name)
		}
		out.ExitCode = exitErr.ExitCode()
	}
	return out, nil
}

// Scan lists the devices smartctl can open, with the -d type it chose for each.
func (s *Smartctl) Scan(ctx context.Context) ([]smart.Candidate, error) {
	out, err := s.exec(ctx, "--scan-open")
	if err != nil {
		return nil, err
	}
	if out.ExitCode&invocationFailed != 0 && strings.TrimSpace(out.Stdout) == "" {
		return nil, errors.Errorf("smartctl --scan-open exited with status %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	return ParseScan(out.Stdout), nil
}

// Discover implements smart.Discoverer.
func (s *Smartctl) Discover(ctx context.Context) ([]smart.Candidate, error) {
	return s.Scan(ctx)
}

// ParseScan reads --scan or --scan-open output:
//
//	/dev/sda -d scsi # /dev/sda, SCSI device
//	# /dev/sdb -d sat # /dev/sdb [SAT], ATA device, open failed: ...
//
// Commented out lines are devices smartctl failed to open and are skipped.
func ParseScan(text string) []smart.Candidate {
	var candidates []smart.Candidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		c := smart.Candidate{Path: fields[0]}
		for i := 1; i < len(fields)-1; i++ {
			if fields[i] == "-d" || fields[i] == "--device" {
				c.Interface = fields[i+1]
			}
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// Health runs the overall health check only.
func (s *Smartctl) Health(ctx context.Context, device, iface string) (smart.Assessment, error) {
	out, err := s.Run(ctx, device, withInterface([]string{"-H"}, iface)...)
	if err != nil {
		return smart.AssessmentUnknown, err
	}
	dev, err := smart.Parse(device, iface, out, smart.ParseOptions{})
	if err != nil {
		return smart.AssessmentUnknown, err
	}
	return dev.Assessment, nil
}

// TestKind is a self-test accepted by StartTest.
type TestKind string

const (
	TestShort      TestKind = "short"
	TestLong       TestKind = "long"
	TestConveyance TestKind = "conveyance"
	TestSelective  TestKind = "select"
)

// StartTest starts a self-test in the background and returns smartctl's
// completion estimate. span is only used for selective tests and defaults to
// the whole disk.
func (s *Smartctl) StartTest(ctx context.Context, device, iface string, kind TestKind, span string) (string, error) {
	test := string(kind)
	if kind == TestSelective {
		if span == "" {
			span = "0-max"
		}
		test += "," + span
	}
	out, err := s.Run(ctx, device, withInterface([]string{"-t", test}, iface)...)
	if err != nil {
		return "", err
	}
	if err := commandError(device, out); err != nil {
		return "", err
	}
	for _, line := range strings.Split(out.Stdout, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "Please wait") {
			return strings.TrimSpace(line), nil
		}
	}
	return "", nil
}

// AbortTest aborts a running self-test.
func (s *Smartctl) AbortTest(ctx context.Context, device, iface string) error {
	out, err := s.Run(ctx, device, withInterface([]string{"-X"}, iface)...)
	if err != nil {
		return err
	}
	return commandError(device, out)
}

func withInterface(args []string, iface string) []string {
	if iface != "" {
		args = append(args, "-d", iface)
	}
	return args
}

// commandError turns a failed control command into an error carrying smartctl's explanation.
func commandError(device string, out smart.RawOutput) error {
	if out.ExitCode&invocationFailed == 0 {
		return nil
	}
	reason := strings.TrimSpace(out.Stderr)
	if reason == "" {
		lines := strings.Split(strings.TrimSpace(out.Stdout), "\n")
		reason = strings.TrimSpace(lines[len(lines)-1])
	}
	return errors.Errorf("smartctl %s: exit status %d: %s", device, out.ExitCode, reason)
}
