// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/config"
)

var configFilePath string

var localProducerCmd = &cobra.Command{
	Use:   "local-producer",
	Short: "Local producer commands",
}

var useConfigCmd = &cobra.Command{
	Use:   "use-config",
	Short: "Start local producers using configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFilePath)
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		if err := config.ValidateProducers(cfg); err != nil {
			return err
		}
		if cfg.Global.InstanceID == "" {
			cfg.Global.InstanceID = defaultInstanceID()
		}

		var wg sync.WaitGroup

		for _, producer := range cfg.Producers {
			wg.Add(1)
			go config.StartProducers(cmd.Context(), producer, cfg.Global, &wg)
		}

		wg.Wait()
		return nil
	},
}

func init() {
	useConfigCmd.Flags().StringVar(&configFilePath, "config", "", "Path to configuration file")
	_ = useConfigCmd.MarkFlagRequired("config")
	localProducerCmd.AddCommand(useConfigCmd)

	localProducerCmd.AddCommand(diskHealthMetricsCmd)
}
