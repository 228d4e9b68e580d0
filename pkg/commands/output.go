// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

const (
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTable = "table"
)

// writeOutput encodes v as json or yaml. YAML is produced from the JSON
// encoding so both formats share the same keys.
func writeOutput(w io.Writer, format string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}

	switch format {
	case outputJSON:
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return errors.Wrap(err, "converting output to yaml")
		}
		clearStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return errors.Wrap(err, "encoding yaml output")
		}
		return enc.Close()
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}

// clearStyle drops the flow style and quoting JSON input leaves on the nodes.
func clearStyle(node *yaml.Node) {
	node.Style = 0
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" && needsQuoting(node.Value) {
		node.Style = yaml.DoubleQuotedStyle
	}
	for _, child := range node.Content {
		clearStyle(child)
	}
}

// needsQuoting reports whether a string would read back as another type.
func needsQuoting(s string) bool {
	var probe interface{}
	if err := yaml.Unmarshal([]byte(s), &probe); err != nil {
		return true
	}
	_, isString := probe.(string)
	return !isString
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatCapacity(c smart.Capacity) string {
	if c.Bytes == nil {
		return "-"
	}
	return humanize.Bytes(uint64(*c.Bytes))
}

func formatTemperature(t *int64) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%d°C", *t)
}

func writeTable(w io.Writer, devices []*smart.Device) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tINTERFACE\tTYPE\tMODEL\tSERIAL\tCAPACITY\tTEMP\tHEALTH")
	for _, d := range devices {
		assessment := string(d.Assessment)
		if assessment == "" {
			assessment = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Path, d.Interface(), d.DevInterface, deref(d.Model), deref(d.Serial),
			formatCapacity(d.Capacity), formatTemperature(d.Diagnostics.Temperature), assessment)
	}
	return tw.Flush()
}
