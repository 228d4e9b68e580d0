// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"path/filepath"
	"strings"
)

// markers summarises which protocol specific sections an output contains.
type markers struct {
	nvme      bool
	ata       bool
	sata      bool
	scsi      bool
	transport string
}

func detectMarkers(out *Output) markers {
	m := markers{}
	m.nvme = out.Has("nvme version") || out.Has("total nvm capacity") ||
		out.Has("pci vendor/subsystem id") || out.ContainsLine("(NVMe Log 0x02)")
	m.sata = out.Has("sata version is")
	m.ata = len(out.AttributeRows) > 0 || out.Has("ata version is") || m.sata
	if t, ok := out.Field("transport protocol"); ok {
		m.transport = strings.ToLower(t)
	}
	m.scsi = m.transport != "" || (out.Has("vendor") && out.Has("product")) ||
		out.Has("current drive temperature") || out.Has("smart health status")
	return m
}

// isBridge reports SAT and USB passthrough labels, which only ever carry ATA disks.
func isBridge(label string) bool {
	return strings.HasPrefix(label, "sat") || strings.HasPrefix(label, "usb")
}

// normalizeInterfaceLabel lower-cases a -d type and drops its options ("sat,12" -> "sat").
func normalizeInterfaceLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if i := strings.IndexByte(label, ','); i >= 0 {
		label = label[:i]
	}
	switch label {
	case "auto", "test":
		return ""
	}
	return label
}

// Classify decides the interface pair of a device. The first value is the tool's
// claim (the -d type it was queried or discovered with, else inferred from the
// output), the second the refined physical interface. When they disagree the
// refined value follows path and bridge evidence.
func Classify(path, reported string, out *Output) (smartctlInterface, devInterface string) {
	m := detectMarkers(out)

	smartctlInterface = normalizeInterfaceLabel(reported)
	if smartctlInterface == "" {
		switch {
		case m.nvme:
			smartctlInterface = InterfaceNVMe
		case m.ata:
			smartctlInterface = InterfaceATA
		case m.scsi:
			smartctlInterface = InterfaceSCSI
		}
	}

	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "nvme") || smartctlInterface == InterfaceNVMe || m.nvme:
		devInterface = InterfaceNVMe
	case m.ata:
		devInterface = InterfaceATA
		if m.sata {
			devInterface = InterfaceSATA
		}
	case isBridge(smartctlInterface):
		devInterface = InterfaceSATA
	case m.scsi && strings.HasPrefix(m.transport, "sas"):
		devInterface = InterfaceSAS
	default:
		devInterface = smartctlInterface
	}

	return smartctlInterface, devInterface
}

// family maps a refined interface onto the attribute model used to read it.
func family(devInterface string) string {
	switch devInterface {
	case InterfaceNVMe:
		return InterfaceNVMe
	case InterfaceATA, InterfaceSATA:
		return InterfaceATA
	default:
		return InterfaceSCSI
	}
}
