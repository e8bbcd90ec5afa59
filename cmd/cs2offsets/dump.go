package main

import (
	"fmt"
	"os"
	"path/filepath"

	"cs2mem/session"
	"cs2mem/signature"

	"github.com/spf13/cobra"
)

func newDumpCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Save snapshots of the required modules to a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(output, 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			sess, err := attach(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			for _, mod := range sess.Modules().All() {
				image, err := signature.Snapshot(sess.Memory(), mod)
				if err != nil {
					return err
				}
				path := filepath.Join(output, dumpFileName(mod))
				if err := os.WriteFile(path, image.Data(), 0644); err != nil {
					return err
				}
				cmd.Printf("Saved %s -> %s\n", mod, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory for the module images")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// dumpFileName encodes the load address so the image can be rebased later
func dumpFileName(m session.ModuleDescriptor) string {
	return fmt.Sprintf("%s@%X.bin", m.Name, uint64(m.Base))
}
