// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/blockdev"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const (
	discoverySmartctl = "smartctl"
	discoveryBlockdev = "blockdev"
)

var (
	listCatchErrors bool
	listWorkers     int
	listProgress    bool
	listOutput      string
	listDiscovery   string
)

var listCmd = &cobra.Command{
	Use:   "list [path...]",
	Short: "Discover and query all disks of the host",
	Long: "Discover the disks of the host (or use the given paths) and print their normalized SMART data.\n" +
		"Without --catch-errors the first failing device aborts the listing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSmartctl()
		q, err := newQuerier(s)
		if err != nil {
			return err
		}

		var discoverer smart.Discoverer
		switch {
		case len(args) > 0:
			discoverer = smart.Paths(args...)
		case listDiscovery == discoverySmartctl:
			discoverer = s
		case listDiscovery == discoveryBlockdev:
			discoverer = blockdev.NewDiscoverer()
		default:
			return errors.Errorf("unknown discovery %q", listDiscovery)
		}

		list, err := runList(cmd.Context(), q, discoverer, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		if listOutput == outputTable {
			return writeTable(cmd.OutOrStdout(), list.Devices())
		}
		return writeOutput(cmd.OutOrStdout(), listOutput, list.Devices())
	},
}

// runList discovers up front so the progress bar knows the device count.
func runList(ctx context.Context, q *smart.Querier, discoverer smart.Discoverer, progressOut io.Writer) (*smart.DeviceList, error) {
	candidates, err := discoverer.Discover(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "discovering devices")
	}
	log.Debug().Int("candidates", len(candidates)).Msg("discovered devices")

	cfg := smart.ListConfig{
		Querier:     q,
		Discoverer:  smart.StaticDiscoverer(candidates),
		CatchErrors: listCatchErrors,
		Workers:     listWorkers,
	}
	if listProgress {
		bar := progressbar.NewOptions(len(candidates),
			progressbar.OptionSetWriter(progressOut),
			progressbar.OptionSetDescription("querying devices"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		cfg.OnResult = func(smart.Result) { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	return smart.NewDeviceList(ctx, cfg)
}

func init() {
	listCmd.Flags().BoolVar(&listCatchErrors, "catch-errors", getEnvBool("CATCH_ERRORS", false), "Skip and log devices that fail instead of aborting")
	listCmd.Flags().IntVar(&listWorkers, "workers", getEnvInt("WORKERS", 1), "Number of devices queried concurrently")
	listCmd.Flags().BoolVar(&listProgress, "progress", false, "Show a progress bar on stderr")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", outputTable, "Output format (table, json, yaml)")
	listCmd.Flags().StringVar(&listDiscovery, "discovery", discoverySmartctl, "Device discovery (smartctl, blockdev)")
}
