// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/blockdev"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

var (
	parseFile      string
	parsePath      string
	parseInterface string
	parseExitCode  int
	parseWatch     bool
	parseOutput    string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse captured smartctl output without running smartctl",
	Long: "Parse the text output of 'smartctl --all' saved to a file.\n" +
		"With --watch the file is parsed again every time it is written.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := parseCapture(cmd.OutOrStdout()); err != nil {
			return err
		}
		if !parseWatch {
			return nil
		}
		return watchCapture(cmd.Context(), cmd.OutOrStdout())
	},
}

func parseCapture(w io.Writer) error {
	data, err := os.ReadFile(parseFile)
	if err != nil {
		return errors.Wrap(err, "reading smartctl output")
	}
	path := parsePath
	if path == "" {
		path = parseFile
	}
	dev, err := smart.Parse(path, parseInterface, smart.RawOutput{
		Stdout:   string(data),
		ExitCode: parseExitCode,
	}, smart.ParseOptions{Sectors: blockdev.SysfsSectors{Root: sysfsRoot}})
	if err != nil {
		return err
	}
	return writeOutput(w, parseOutput, dev)
}

// watchCapture watches the directory so files replaced by rename are picked up.
func watchCapture(ctx context.Context, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(parseFile)); err != nil {
		return errors.Wrapf(err, "watching %s", parseFile)
	}
	log.Info().Str("file", parseFile).Msg("started watching file for changes")

	target := filepath.Clean(parseFile)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := parseCapture(w); err != nil {
				log.Error().Err(err).Str("file", parseFile).Msg("failed to parse smartctl output")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("file watcher encountered an error")
		}
	}
}

func init() {
	parseCmd.Flags().StringVar(&parseFile, "file", "", "File holding the smartctl output")
	parseCmd.Flags().StringVar(&parsePath, "path", "", "Device path to report (defaults to the file name)")
	parseCmd.Flags().StringVarP(&parseInterface, "device-type", "d", "", "smartctl device type the output was captured with")
	parseCmd.Flags().IntVar(&parseExitCode, "exit-code", 0, "smartctl exit status of the capture")
	parseCmd.Flags().BoolVar(&parseWatch, "watch", false, "Parse again whenever the file changes")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", outputJSON, "Output format (json, yaml)")
	_ = parseCmd.MarkFlagRequired("file")
}
