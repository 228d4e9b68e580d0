// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/blockdev"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
	"github.com/cobaltcore-dev/smartprobe/pkg/smartctl"
)

var (
	v               string
	smartctlPath    string
	useSudo         bool
	smartctlTimeout time.Duration
	sysfsRoot       string
)

var rootCmd = &cobra.Command{
	Use:   "smartprobe",
	Short: "CLI for disk health inspection with smartctl",
	Long:  "A CLI tool to read, normalize and export the SMART health of ATA, NVMe and SCSI/SAS disks.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setUpLogs(v); err != nil {
			return err
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&v, "verbosity", "v", zerolog.WarnLevel.String(), "Log level (debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().StringVar(&smartctlPath, "smartctl", getEnv("SMARTCTL_PATH", smartctl.DefaultPath), "Path of the smartctl binary")
	rootCmd.PersistentFlags().BoolVar(&useSudo, "sudo", getEnvBool("SMARTCTL_SUDO", false), "Run smartctl through sudo -E")
	rootCmd.PersistentFlags().DurationVar(&smartctlTimeout, "timeout", 0, "Timeout of a single smartctl invocation (0 disables)")
	rootCmd.PersistentFlags().StringVar(&sysfsRoot, "sysfs", getEnv("SYSFS_PATH", blockdev.DefaultSysfs), "sysfs mount point used for sector sizes")

	// Add subcommands
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(selfTestCmd)
	rootCmd.AddCommand(localProducerCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'\n", err)
		stop()
		os.Exit(1)
	}
}

// setUpLogs sets the log output and the log level
func setUpLogs(level string) error {
	zerolog.SetGlobalLevel(zerolog.WarnLevel) // Default level
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	// stdout carries command output
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	return nil
}

func newSmartctl() *smartctl.Smartctl {
	s := smartctl.New()
	s.Path = smartctlPath
	if useSudo {
		s.EnableSudo()
	}
	s.Timeout = smartctlTimeout
	return s
}

func newQuerier(s *smartctl.Smartctl) (*smart.Querier, error) {
	return smart.NewQuerier(smart.Config{
		Runner:  s,
		Sectors: blockdev.SysfsSectors{Root: sysfsRoot},
	})
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
