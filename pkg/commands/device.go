// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deviceInterface string
	deviceOutput    string
)

var deviceCmd = &cobra.Command{
	Use:   "device <path>",
	Short: "Query a single device and print its normalized SMART data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := newQuerier(newSmartctl())
		if err != nil {
			return err
		}
		dev, err := q.Device(cmd.Context(), args[0], deviceInterface)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), deviceOutput, dev)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health <path>",
	Short: "Print the overall health self-assessment of a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assessment, err := newSmartctl().Health(cmd.Context(), args[0], deviceInterface)
		if err != nil {
			return err
		}
		if assessment == "" {
			assessment = "UNKNOWN"
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(assessment))
		return err
	},
}

func init() {
	deviceCmd.Flags().StringVarP(&deviceInterface, "device-type", "d", "", "smartctl device type (ata, sat, scsi, nvme, ...)")
	deviceCmd.Flags().StringVarP(&deviceOutput, "output", "o", outputJSON, "Output format (json, yaml)")

	healthCmd.Flags().StringVarP(&deviceInterface, "device-type", "d", "", "smartctl device type (ata, sat, scsi, nvme, ...)")
}
