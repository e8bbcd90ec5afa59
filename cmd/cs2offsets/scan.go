package main

import (
	"fmt"

	"cs2mem/hexdump"
	"cs2mem/process"
	"cs2mem/signature"

	"github.com/spf13/cobra"
)

func newScanCmd(flags *globalFlags) *cobra.Command {
	var (
		module  string
		pattern string
		context int
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "scan",
		Short:   "Scan one module for a byte pattern and dump each match",
		Example: `  cs2offsets scan --module client.dll --pattern "48 8B 05 ?? ?? ?? ?? 41 89 BE"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			aob, err := process.ParseAOB(pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}

			sess, err := attach(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			mod, err := sess.Module(module)
			if err != nil {
				return err
			}
			image, err := signature.Snapshot(sess.Memory(), mod)
			if err != nil {
				return err
			}

			data := image.Data()
			matches := aob.Find(data)
			cmd.Printf("Scanning %s for %s: %d matches\n", mod, aob, len(matches))

			for i, match := range matches {
				if limit > 0 && i >= limit {
					cmd.Printf("... %d more\n", len(matches)-limit)
					break
				}

				start := max(0, int(match)-context)
				end := min(len(data), int(match)+len(aob.Pattern)+context)

				cmd.Printf("Match at %s (%s+0x%X):\n", image.Base()+process.ProcessMemoryAddress(match), mod.Name, match)
				opts := hexdump.DefaultOptions()
				opts.Base = uint64(image.Base()) + uint64(start)
				opts.Highlight = []hexdump.Span{{Start: int(match) - start, Length: len(aob.Pattern)}}
				cmd.Print(hexdump.Dump(data[start:end], opts))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "client.dll", "Module to scan")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "IDA style pattern, ?? for wildcards")
	cmd.Flags().IntVar(&context, "context", 16, "Bytes of context around each match")
	cmd.Flags().IntVar(&limit, "limit", 16, "Maximum matches to dump (0 for all)")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}
