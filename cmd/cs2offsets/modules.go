package main

import (
	"fmt"

	"cs2mem/report"

	"github.com/spf13/cobra"
)

func newModulesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "Attach and list the required modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := attach(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			cmd.Printf("%s\n\n", sess)
			t := report.NewTable(
				report.Column{Header: "MODULE"},
				report.Column{Header: "BASE", AlignRight: true},
				report.Column{Header: "SIZE", AlignRight: true},
			)
			for _, m := range sess.Modules().All() {
				t.AddRow(m.Name, m.Base.String(), fmt.Sprintf("0x%X", m.Size))
			}
			return t.Render(cmd.OutOrStdout())
		},
	}
}
