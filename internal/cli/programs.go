package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/akademik-api/internal/nim"
)

// ProgramsCmd prints the study program table.
func ProgramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "List study programs and their NIM codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tPROGRAM")
			for _, program := range nim.Programs() {
				fmt.Fprintf(w, "%s\t%s\n", program.Code(), program)
			}
			return w.Flush()
		},
	}
}
