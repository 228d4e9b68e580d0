// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		reported  string
		fixture   string
		wantTool  string
		wantRefnd string
	}{
		{"sata disk, no label", "/dev/sda", "", "ata_wd_red.txt", InterfaceATA, InterfaceSATA},
		{"sata disk behind scsi layer", "/dev/sda", "scsi", "ata_wd_red.txt", InterfaceSCSI, InterfaceSATA},
		{"sat passthrough", "/dev/sdb", "sat,12", "ata_ssd.txt", "sat", InterfaceSATA},
		{"nvme by path", "/dev/nvme0", "", "nvme_samsung.txt", InterfaceNVMe, InterfaceNVMe},
		{"nvme reported", "/dev/nvme0n1", "NVMe", "nvme_samsung.txt", InterfaceNVMe, InterfaceNVMe},
		{"sas disk", "/dev/sdc", "scsi", "scsi_seagate_sas.txt", InterfaceSCSI, InterfaceSAS},
		{"sas disk, no label", "/dev/sdc", "auto", "scsi_seagate_sas.txt", InterfaceSCSI, InterfaceSAS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, refined := Classify(tt.path, tt.reported, Tokenize(loadFixture(t, tt.fixture)))
			assert.Equal(t, tt.wantTool, tool)
			assert.Equal(t, tt.wantRefnd, refined)
		})
	}
}

func TestClassifyUSBBridgeWithoutATAOutput(t *testing.T) {
	tool, refined := Classify("/dev/sdd", "usbjmicron", Tokenize("Device Model: Some Disk\n"))
	assert.Equal(t, "usbjmicron", tool)
	assert.Equal(t, InterfaceSATA, refined)
}
