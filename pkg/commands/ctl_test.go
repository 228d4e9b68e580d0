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

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/diskhealthmetrics"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const fixtureDir = "../smart/testdata"

func parseFixture(t *testing.T, path, iface, name string) *smart.Device {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir, name))
	require.NoError(t, err)
	dev, err := smart.Parse(path, iface, smart.RawOutput{Stdout: string(data)}, smart.ParseOptions{})
	require.NoError(t, err)
	return dev
}

func TestGetEnv(t *testing.T) {
	key := "TEST_KEY"
	fallback := "default_value"

	// Test when the environment variable is not set
	value := getEnv(key, fallback)
	assert.Equal(t, fallback, value)

	// Test when the environment variable is set
	expectedValue := "expected_value"
	t.Setenv(key, expectedValue)
	value = getEnv(key, fallback)
	assert.Equal(t, expectedValue, value)
}

func TestGetEnvNumbersAndBools(t *testing.T) {
	assert.Equal(t, 4, getEnvInt("TEST_INT", 4))
	assert.Equal(t, int64(9), getEnvInt64("TEST_INT64", 9))
	assert.False(t, getEnvBool("TEST_BOOL", false))

	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_INT64", "not-a-number")
	t.Setenv("TEST_BOOL", "true")

	assert.Equal(t, 12, getEnvInt("TEST_INT", 4))
	assert.Equal(t, int64(9), getEnvInt64("TEST_INT64", 9))
	assert.True(t, getEnvBool("TEST_BOOL", false))
}

func TestWriteOutputJSON(t *testing.T) {
	dev := parseFixture(t, "/dev/sdc", "scsi", "scsi_seagate_sas.txt")

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputJSON, dev))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/dev/sdc", decoded["path"])
	assert.Equal(t, "scsi", decoded["interface"])
	assert.Equal(t, "sas", decoded["dev_interface"])
	assert.Equal(t, "0004", decoded["firmware_version"])
}

func TestWriteOutputYAML(t *testing.T) {
	dev := parseFixture(t, "/dev/sdc", "scsi", "scsi_seagate_sas.txt")

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputYAML, dev))

	out := buf.String()
	assert.Contains(t, out, "path: /dev/sdc\n")
	assert.Contains(t, out, "interface: scsi\n")
	assert.Contains(t, out, `firmware_version: "0004"`)
	assert.Contains(t, out, "model_family: null\n")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestWriteOutputUnknownFormat(t *testing.T) {
	err := writeOutput(&bytes.Buffer{}, "xml", map[string]string{})
	assert.Error(t, err)
}

func TestNeedsQuoting(t *testing.T) {
	assert.True(t, needsQuoting("0004"))
	assert.True(t, needsQuoting("1.5"))
	assert.True(t, needsQuoting("true"))
	assert.True(t, needsQuoting("null"))
	assert.False(t, needsQuoting("ST4000NM0023"))
	assert.False(t, needsQuoting("82.00A82"))
}

func TestWriteTable(t *testing.T) {
	devices := []*smart.Device{
		parseFixture(t, "/dev/sda", "", "ata_wd_red.txt"),
		parseFixture(t, "/dev/nvme0", "", "nvme_samsung.txt"),
	}

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, devices))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PATH"))
	assert.Contains(t, lines[1], "/dev/sda")
	assert.Contains(t, lines[1], "WD-WCC7K1234567")
	assert.Contains(t, lines[1], "4.0 TB")
	assert.Contains(t, lines[1], "PASS")
	assert.Contains(t, lines[2], "/dev/nvme0")
	assert.Contains(t, lines[2], "nvme")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-", deref(nil))
	assert.Equal(t, "-", formatCapacity(smart.Capacity{}))
	assert.Equal(t, "-", formatTemperature(nil))

	temp := int64(35)
	assert.Equal(t, "35°C", formatTemperature(&temp))
}

func TestSelfTestKinds(t *testing.T) {
	for _, name := range []string{"short", "long", "conveyance", "selective"} {
		_, ok := selfTestKinds[name]
		assert.True(t, ok, name)
	}
	_, ok := selfTestKinds["offline"]
	assert.False(t, ok)
}

func TestParseCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"parse", "--file", filepath.Join(fixtureDir, "nvme_samsung.txt"), "--path", "/dev/nvme0", "-o", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "/dev/nvme0", decoded["path"])
	assert.Equal(t, "nvme", decoded["interface"])
	assert.Equal(t, "PASS", decoded["assessment"])
}

func TestSplitDisks(t *testing.T) {
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb"}, splitDisks(" /dev/sda, /dev/sdb ,"))
	assert.Equal(t, []string{"*"}, splitDisks("*"))
	assert.Nil(t, splitDisks(""))
}

func TestMergeDiskHealthMetricsConfigWithEnv(t *testing.T) {
	t.Setenv("DISKS", "/dev/sda,/dev/nvme0")
	t.Setenv("WORKERS", "4")
	t.Setenv("LIFETIME_USED_THRESHOLD", "90")
	t.Setenv("NODE_NAME", "node-7")

	cfg := mergeDiskHealthMetricsConfigWithEnv(diskhealthmetrics.DiskHealthMetricsConfig{
		Disks:                 []string{"*"},
		Workers:               1,
		LifetimeUsedThreshold: 80,
		Interval:              10,
	})

	assert.Equal(t, []string{"/dev/sda", "/dev/nvme0"}, cfg.Disks)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, int64(90), cfg.LifetimeUsedThreshold)
	assert.Equal(t, "node-7", cfg.NodeName)
	assert.Equal(t, 10, cfg.Interval)
}

func TestValidateDiskHealthMetricsConfig(t *testing.T) {
	valid := diskhealthmetrics.DiskHealthMetricsConfig{Disks: []string{"*"}, Interval: 10}
	assert.NoError(t, validateDiskHealthMetricsConfig(valid))

	noDisks := valid
	noDisks.Disks = nil
	assert.Error(t, validateDiskHealthMetricsConfig(noDisks))

	badInterval := valid
	badInterval.Interval = 0
	assert.Error(t, validateDiskHealthMetricsConfig(badInterval))

	badPort := valid
	badPort.Prometheus = true
	badPort.PrometheusPort = 70000
	assert.Error(t, validateDiskHealthMetricsConfig(badPort))
}

func TestDefaultInstanceID(t *testing.T) {
	a, b := defaultInstanceID(), defaultInstanceID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
