// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeFieldsAndSections(t *testing.T) {
	out := Tokenize(loadFixture(t, "ata_wd_red.txt"))

	assert.Equal(t, "smartctl 7.3 2022-02-28 r5338 [x86_64-linux-6.1.0-18-amd64] (local build)", out.Header)

	model, ok := out.Field("Device Model")
	require.True(t, ok)
	assert.Equal(t, "WDC WD40EFRX-68N32N0", model)

	assert.Equal(t, []string{
		"Available - device has SMART capability.",
		"Enabled",
	}, out.FieldValues("smart support is"))

	assert.Len(t, out.AttributeRows, 17)
	assert.Len(t, out.SelfTestRows, 3)
	assert.Contains(t, out.Sections, "information")
	assert.Contains(t, out.Sections, "read smart data")
}

func TestTokenizeLocaleWhitespace(t *testing.T) {
	ascii := Tokenize("User Capacity:    4 000 787 030 016 bytes [4,00 TB]\nSerial Number: ABC123\n")
	locale := Tokenize("User\u00a0Capacity:\u00a0\u00a04\u202f000\u202f787\u202f030\u202f016\u00a0bytes [4,00\u00a0TB]\n" +
		"\u200bSerial\u3000Number:\tABC123 \r\n")

	assert.Equal(t, ascii.Fields, locale.Fields)

	c := ParseCapacity(locale)
	require.NotNil(t, c.Bytes)
	assert.Equal(t, int64(4000787030016), *c.Bytes)
}

func TestTokenizeSkipsMalformedLines(t *testing.T) {
	out := Tokenize("Serial Number: A1\n:::\n12: 34\n\x00\x01garbage\xff\nFirmware Version: 1.0\n")

	serial, ok := out.Field("serial number")
	assert.True(t, ok)
	assert.Equal(t, "A1", serial)

	fw, ok := out.Field("firmware version")
	assert.True(t, ok)
	assert.Equal(t, "1.0", fw)

	assert.Len(t, out.Fields, 2)
}

func TestFieldPlaceholders(t *testing.T) {
	out := Tokenize("Vendor: N/A\nProduct: <not available>\nRevision: -\nLU WWN: [No Information Found]\n")

	for _, label := range []string{"vendor", "product", "revision", "lu wwn"} {
		_, ok := out.Field(label)
		assert.False(t, ok, label)
		assert.True(t, out.Has(label), label)
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "warning comp. temperature time", NormalizeLabel("  Warning  Comp. Temperature Time "))
	assert.Equal(t, "serial number", NormalizeLabel("SERIAL\tNUMBER"))
}

func TestParseInt(t *testing.T) {
	cases := map[string]int64{
		"0":                 0,
		"27842":             27842,
		"-3":                -3,
		"4,000,787,030,016": 4000787030016,
		"4.000.787.030.016": 4000787030016,
		"4 000 787 030 016": 4000787030016,
		"4'000'787'030'016": 4000787030016,
	}
	for in, want := range cases {
		got, ok := parseInt(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "-", "12345h+06m", "1,23", "0x1f", "3.5"} {
		_, ok := parseInt(in)
		assert.False(t, ok, in)
	}
}

func TestLeadingInt(t *testing.T) {
	v, ok := leadingInt("31 (Min/Max 18/45)")
	assert.True(t, ok)
	assert.Equal(t, int64(31), v)

	v, ok = leadingInt("23,456,789 [12.0 TB]")
	assert.True(t, ok)
	assert.Equal(t, int64(23456789), v)

	v, ok = leadingInt("100%")
	assert.True(t, ok)
	assert.Equal(t, int64(100), v)

	_, ok = leadingInt("Solid State Device")
	assert.False(t, ok)
}
