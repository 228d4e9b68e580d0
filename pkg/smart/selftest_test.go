// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelfTestsATA(t *testing.T) {
	tests := ParseSelfTests(Tokenize(loadFixture(t, "ata_wd_red.txt")))
	require.Len(t, tests, 3)

	assert.Equal(t, 1, tests[0].Num)
	assert.Equal(t, TestShort, tests[0].Type)
	assert.Equal(t, TestCompletedNoError, tests[0].Status)
	assert.Equal(t, int64(27830), tests[0].Hours)
	assert.Equal(t, int64(0), *tests[0].RemainingPercent)
	assert.Nil(t, tests[0].FailingLBA)

	assert.Equal(t, TestLong, tests[1].Type)
	assert.Equal(t, TestCompletedWithError, tests[1].Status)
	assert.Equal(t, "Completed: read failure", tests[1].StatusText)
	assert.Equal(t, int64(90), *tests[1].RemainingPercent)
	assert.Equal(t, int64(123456789), *tests[1].FailingLBA)

	assert.Equal(t, TestAborted, tests[2].Status)
}

func TestParseSelfTestsSCSI(t *testing.T) {
	tests := ParseSelfTests(Tokenize(loadFixture(t, "scsi_seagate_sas.txt")))
	require.Len(t, tests, 2)

	assert.Equal(t, TestShort, tests[0].Type)
	assert.Equal(t, TestCompletedNoError, tests[0].Status)
	assert.Equal(t, int64(41230), tests[0].Hours)
	assert.Nil(t, tests[0].RemainingPercent)

	assert.Equal(t, TestLong, tests[1].Type)
	assert.Equal(t, TestCompletedWithError, tests[1].Status)
	assert.Equal(t, int64(123456), *tests[1].FailingLBA)
}

func TestParseSelfTestsNVMe(t *testing.T) {
	tests := ParseSelfTests(Tokenize(loadFixture(t, "nvme_samsung.txt")))
	require.Len(t, tests, 2)

	assert.Equal(t, 0, tests[0].Num)
	assert.Equal(t, TestShort, tests[0].Type)
	assert.Equal(t, int64(4560), tests[0].Hours)
	assert.Equal(t, TestLong, tests[1].Type)
	assert.Equal(t, TestCompletedNoError, tests[1].Status)
}

func TestParseSelfTestsNVMeRunning(t *testing.T) {
	raw := strings.Replace(loadFixture(t, "nvme_samsung.txt"),
		"Self-test status: No self-test in progress",
		"Self-test status: Short self-test in progress (12% completed)", 1)

	tests := ParseSelfTests(Tokenize(raw))
	require.Len(t, tests, 3)

	running := tests[0]
	assert.Equal(t, -1, running.Num)
	assert.Equal(t, TestShort, running.Type)
	assert.Equal(t, TestInProgress, running.Status)
	require.NotNil(t, running.RemainingPercent)
	assert.Equal(t, int64(88), *running.RemainingPercent)
	assert.Equal(t, int64(4567), running.Hours)
	assert.Equal(t, 0, tests[1].Num)
}

func TestParseSelfTestsNoLogIsEmpty(t *testing.T) {
	tests := ParseSelfTests(Tokenize(loadFixture(t, "ata_ssd.txt")))
	require.NotNil(t, tests)
	assert.Len(t, tests, 0)
}

func TestClassifyTestStatus(t *testing.T) {
	cases := map[string]TestStatus{
		"Completed without error":       TestCompletedNoError,
		"Completed":                     TestCompletedNoError,
		"Self-test routine in progress": TestInProgress,
		"Interrupted (host reset)":      TestAborted,
		"Aborted by host":               TestAborted,
		"Completed: electrical failure": TestCompletedWithError,
		"Fatal or unknown error":        TestCompletedWithError,
		"Failed in segment -->":         TestCompletedWithError,
		"Unrecognized status 0x7":       TestUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, classifyTestStatus(in), in)
	}
}

func TestClassifyTestType(t *testing.T) {
	assert.Equal(t, TestShort, classifyTestType("Short captive"))
	assert.Equal(t, TestLong, classifyTestType("Extended offline"))
	assert.Equal(t, TestSelective, classifyTestType("Selective offline"))
	assert.Equal(t, TestConveyance, classifyTestType("Conveyance offline"))
	assert.Equal(t, TestType(""), classifyTestType("Vendor (0xdb)"))
}

func TestParseTestCapabilitiesFromText(t *testing.T) {
	out := Tokenize("Offline data collection\n" +
		"capabilities:   (----) SMART execute Offline immediate.\n" +
		"          Self-test supported.\n" +
		"          No Conveyance Self-test supported.\n" +
		"          Selective Self-test supported.\n" +
		"SMART capabilities: (0x0003) Saves SMART data.\n")

	caps := ParseTestCapabilities(InterfaceATA, out)
	assert.True(t, caps.Short)
	assert.True(t, caps.Long)
	assert.False(t, caps.Conveyance)
	assert.True(t, caps.Selective)
}

func TestParseTestCapabilitiesSelectiveFromLogStructure(t *testing.T) {
	out := Tokenize("Offline data collection\n" +
		"capabilities:   (0x11) SMART execute Offline immediate.\n" +
		"          Self-test supported.\n" +
		"\n" +
		"SMART Selective self-test log data structure revision number 1\n")

	caps := ParseTestCapabilities(InterfaceATA, out)
	assert.True(t, caps.Short)
	assert.False(t, caps.Conveyance)
	assert.True(t, caps.Selective)
}
