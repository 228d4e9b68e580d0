// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package blockdev provides the host side views smartctl does not give:
// block device discovery and the sector sizes the kernel uses.
package blockdev

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/disk"
)

// DefaultSysfs is where sysfs is mounted.
const DefaultSysfs = "/sys"

var (
	// sda1, vdb2, xvda1, hdc3
	partitionRe = regexp.MustCompile(`^(sd|hd|vd|xvd)[a-z]+\d+$`)
	// nvme0n1p1, mmcblk0p2
	nvmePartitionRe = regexp.MustCompile(`^(nvme\d+n\d+|mmcblk\d+)p\d+$`)

	virtualPrefixes = []string{"loop", "ram", "zram", "dm-", "md", "sr", "fd", "nbd", "rbd", "drbd", "zd"}

	virtTech = []string{"VMware", "VirtualBox", "QEMU", "Xen", "KVM", "Microsoft Hyper-V", "Parallels", "Oracle VM Server"}
)

// Discoverer finds whole disks from the kernel's IO counters. It is used
// where smartctl --scan-open is unavailable or incomplete.
type Discoverer struct {
	// DevDir is prefixed to device names. Defaults to /dev.
	DevDir string

	counters func(ctx context.Context) (map[string]disk.IOCountersStat, error)
}

// NewDiscoverer returns a Discoverer backed by gopsutil.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		DevDir: "/dev",
		counters: func(ctx context.Context) (map[string]disk.IOCountersStat, error) {
			return disk.IOCountersWithContext(ctx)
		},
	}
}

// Discover implements smart.Discoverer. Candidates carry no interface hint.
func (d *Discoverer) Discover(ctx context.Context) ([]smart.Candidate, error) {
	stats, err := d.counters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading disk io counters")
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		if IsWholeDisk(name) {
			names = append(names, name)
		} else {
			log.Debug().Str("device", name).Msg("ignoring partition or virtual block device")
		}
	}
	sort.Strings(names)

	devDir := d.DevDir
	if devDir == "" {
		devDir = "/dev"
	}
	candidates := make([]smart.Candidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, smart.Candidate{Path: filepath.Join(devDir, name)})
	}
	return candidates, nil
}

// IsWholeDisk reports whether a kernel block device name is a physical disk
// rather than a partition or a virtual device.
func IsWholeDisk(name string) bool {
	for _, prefix := range virtualPrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return !partitionRe.MatchString(name) && !nvmePartitionRe.MatchString(name)
}

// SysfsSectors reads logical sector sizes from sysfs.
type SysfsSectors struct {
	// Root is the sysfs mount point. Defaults to /sys.
	Root string
}

// LogicalSectorSize implements smart.SectorProber. NVMe controller paths
// (/dev/nvme0) resolve to their first namespace.
func (s SysfsSectors) LogicalSectorSize(path string) (int64, bool) {
	root := s.Root
	if root == "" {
		root = DefaultSysfs
	}

	name := filepath.Base(path)
	candidates := []string{name}
	if strings.HasPrefix(name, "nvme") && !strings.Contains(strings.TrimPrefix(name, "nvme"), "n") {
		candidates = append(candidates, name+"n1")
	}

	for _, n := range candidates {
		data, err := os.ReadFile(filepath.Join(root, "block", n, "queue", "logical_block_size"))
		if err != nil {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil || v <= 0 {
			continue
		}
		return v, true
	}
	return 0, false
}

// IsVirtualized checks if the system is running on a virtualized environment.
// Disks of virtual machines rarely expose SMART data.
func IsVirtualized(sysfsRoot string) bool {
	if sysfsRoot == "" {
		sysfsRoot = DefaultSysfs
	}
	sysVendor, err := os.ReadFile(filepath.Join(sysfsRoot, "devices", "virtual", "dmi", "id", "sys_vendor"))
	if err != nil {
		log.Debug().Err(err).Msg("error reading sys_vendor")
		return false
	}
	vendor := strings.TrimSpace(string(sysVendor))
	for _, tech := range virtTech {
		if strings.Contains(vendor, tech) {
			return true
		}
	}
	return false
}
