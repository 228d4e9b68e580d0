// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScan(t *testing.T) {
	out := `/dev/sda -d scsi # /dev/sda, SCSI device
/dev/sdb -d sat # /dev/sdb [SAT], ATA device
# /dev/sdc -d sat # /dev/sdc [SAT], ATA device, open failed: Permission denied
/dev/nvme0 -d nvme # /dev/nvme0, NVMe device
/dev/bus/0 -d megaraid,4 # /dev/bus/0 [megaraid_disk_04], SCSI device

/dev/sdd
`
	assert.Equal(t, []smart.Candidate{
		{Path: "/dev/sda", Interface: "scsi"},
		{Path: "/dev/sdb", Interface: "sat"},
		{Path: "/dev/nvme0", Interface: "nvme"},
		{Path: "/dev/bus/0", Interface: "megaraid,4"},
		{Path: "/dev/sdd"},
	}, ParseScan(out))

	assert.Empty(t, ParseScan(""))
}

func TestEnableSudo(t *testing.T) {
	s := New()
	s.EnableSudo()
	assert.Equal(t, []string{"sudo", "-E"}, s.Sudo)

	s.EnableSudo("-n")
	assert.Equal(t, []string{"sudo", "-n"}, s.Sudo)
}

// fakeSmartctl writes a shell script standing in for smartctl. It prints its
// arguments and LANG, and exits with the given status.
func fakeSmartctl(t *testing.T, body string) *Smartctl {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "smartctl")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return &Smartctl{Path: path}
}

func TestRunReportsExitCode(t *testing.T) {
	s := fakeSmartctl(t, `echo "args: $*"; echo "lang: $LANG"; echo "oops" >&2; exit 4`)
	s.AddOptions("--tolerance=verypermissive")

	out, err := s.Run(context.Background(), "/dev/sda", "--all", "-d", "sat")
	require.NoError(t, err)
	assert.Equal(t, 4, out.ExitCode)
	assert.Contains(t, out.Stdout, "args: --all -d sat --tolerance=verypermissive /dev/sda")
	assert.Contains(t, out.Stdout, "lang: C")
	assert.Equal(t, "oops\n", out.Stderr)
}

func TestRunMissingBinary(t *testing.T) {
	s := &Smartctl{Path: filepath.Join(t.TempDir(), "missing")}
	assert.False(t, s.Installed())

	_, err := s.Run(context.Background(), "/dev/sda", "--all")
	assert.Error(t, err)
}

func TestRunTimeout(t *testing.T) {
	s := fakeSmartctl(t, `exec sleep 5`)
	s.Timeout = 50 * time.Millisecond

	_, err := s.Run(context.Background(), "/dev/sda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestScan(t *testing.T) {
	s := fakeSmartctl(t, `echo "/dev/sda -d sat # /dev/sda [SAT], ATA device"`)

	candidates, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []smart.Candidate{{Path: "/dev/sda", Interface: "sat"}}, candidates)
}

func TestStartTest(t *testing.T) {
	s := fakeSmartctl(t, `echo "args: $*"; echo "Please wait 2 minutes for test to complete."`)

	msg, err := s.StartTest(context.Background(), "/dev/sda", "", TestShort, "")
	require.NoError(t, err)
	assert.Equal(t, "Please wait 2 minutes for test to complete.", msg)

	s = fakeSmartctl(t, `echo "args: $*" >&2; exit 2`)
	_, err = s.StartTest(context.Background(), "/dev/sda", "sat", TestSelective, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-t select,0-max -d sat /dev/sda")
}

func TestAbortTest(t *testing.T) {
	s := fakeSmartctl(t, `case "$*" in *-X*) exit 0;; *) exit 1;; esac`)
	assert.NoError(t, s.AbortTest(context.Background(), "/dev/sda", ""))
}

func TestHealth(t *testing.T) {
	s := fakeSmartctl(t, strings.Join([]string{
		`echo "smartctl 7.3 2022-02-28 r5338 [x86_64-linux-6.1.0] (local build)"`,
		`echo "=== START OF READ SMART DATA SECTION ==="`,
		`echo "SMART overall-health self-assessment test result: FAILED!"`,
		`exit 8`,
	}, "\n"))

	assessment, err := s.Health(context.Background(), "/dev/sda", "")
	require.NoError(t, err)
	assert.Equal(t, smart.AssessmentFail, assessment)
}
