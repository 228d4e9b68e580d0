// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/smartctl"
)

var (
	selfTestType      string
	selfTestSpan      string
	selfTestInterface string
)

var selfTestKinds = map[string]smartctl.TestKind{
	"short":      smartctl.TestShort,
	"long":       smartctl.TestLong,
	"conveyance": smartctl.TestConveyance,
	"selective":  smartctl.TestSelective,
}

var selfTestCmd = &cobra.Command{
	Use:   "selftest <path>",
	Short: "Start or abort a device self-test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSmartctl()
		device := args[0]

		if selfTestType == "abort" {
			if err := s.AbortTest(cmd.Context(), device, selfTestInterface); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "self-test aborted on %s\n", device)
			return err
		}

		kind, ok := selfTestKinds[selfTestType]
		if !ok {
			return errors.Errorf("unknown self-test type %q", selfTestType)
		}
		msg, err := s.StartTest(cmd.Context(), device, selfTestInterface, kind, selfTestSpan)
		if err != nil {
			return err
		}
		if msg == "" {
			msg = fmt.Sprintf("%s self-test started on %s", selfTestType, device)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
		return err
	},
}

func init() {
	selfTestCmd.Flags().StringVar(&selfTestType, "type", "short", "Self-test to run (short, long, conveyance, selective, abort)")
	selfTestCmd.Flags().StringVar(&selfTestSpan, "span", "", "LBA span of a selective test, e.g. 0-1000000 (defaults to the whole disk)")
	selfTestCmd.Flags().StringVarP(&selfTestInterface, "device-type", "d", "", "smartctl device type (ata, sat, scsi, nvme, ...)")
}
