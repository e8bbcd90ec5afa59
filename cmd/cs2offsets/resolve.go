package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cs2mem/offset"
	"cs2mem/report"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newResolveCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Attach and print the resolved offset table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, err := flags.load()
			if err != nil {
				return err
			}

			game, err := newGame(cfg)
			if err != nil {
				return err
			}
			defer game.Close()

			if err := game.Attach(backend); err != nil {
				return err
			}
			table, err := game.UpdateOffsets()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeTable(w, table, format, out == "")
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml or text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the table to a file instead of stdout")

	return cmd
}

func writeTable(w io.Writer, table *offset.Table, format string, color bool) error {
	switch format {
	case "text":
		return report.WriteOffsets(w, table, report.Options{Color: color})
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(table); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q, must be one of: json, yaml, text", format)
}
