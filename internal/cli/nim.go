package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noah-isme/akademik-api/internal/nim"
	"github.com/noah-isme/akademik-api/internal/repository"
)

// ErrInvalidNIM is returned by "nim validate" for a malformed identifier.
var ErrInvalidNIM = errors.New("invalid nim")

// NIMCmd groups the identifier commands.
func NIMCmd(open DBOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nim",
		Short: "Validate, parse and preview student identifiers",
	}

	cmd.AddCommand(nimValidateCmd())
	cmd.AddCommand(nimParseCmd())
	cmd.AddCommand(nimNextCmd(open))

	return cmd
}

func nimValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <nim>",
		Short: "Check that a NIM has the YYYY-KK-NNNN layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !nim.Valid(args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgRed).Sprint("INVALID"), args[0])
				return fmt.Errorf("%w: %q", ErrInvalidNIM, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgGreen).Sprint("VALID"), args[0])
			return nil
		},
	}
}

func nimParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <nim>",
		Short: "Split a NIM into year, program and sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := nim.Parse(args[0])
			if err != nil {
				return err
			}

			program := color.New(color.FgYellow).Sprint("(unknown)")
			if p, ok := id.Program(); ok {
				program = p.String()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "NIM:      %s\n", id)
			fmt.Fprintf(out, "Year:     %d\n", id.Year)
			fmt.Fprintf(out, "Program:  %s (%s)\n", program, id.ProgramCode)
			fmt.Fprintf(out, "Sequence: %d\n", id.Sequence)
			return nil
		},
	}
}

// nimNextCmd previews the next identifier without allocating it.
func nimNextCmd(open DBOpener) *cobra.Command {
	var (
		programName string
		year        int
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Preview the next NIM for a program and entry year",
		Long: `Preview the next NIM for a program and entry year.

Nothing is written. The scan value is max(stored sequence)+1 over existing
students. The next value also skips retired identifiers and is what either
allocation strategy returns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			program, err := nim.ParseProgram(programName)
			if err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().Year()
			}
			if err := nim.ValidateYear(year); err != nil {
				return err
			}

			db, err := open()
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}

			ctx := cmd.Context()
			scanned, err := nim.Next(ctx, repository.NewStudentRepository(db), program, year)
			if err != nil {
				return err
			}
			current, err := repository.NewNIMSequenceRepository(db).Current(ctx, program, year)
			if err != nil {
				return fmt.Errorf("read nim counter: %w", err)
			}

			next := scanned
			if current+1 > next.Sequence {
				next.Sequence = current + 1
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scan:    %s\n", color.New(color.FgCyan).Sprint(scanned))
			if next.Sequence > nim.MaxSequence {
				fmt.Fprintf(out, "next:    %s\n", color.New(color.FgRed).Sprint("EXHAUSTED"))
				return nil
			}
			fmt.Fprintf(out, "next:    %s\n", color.New(color.FgCyan).Sprint(next))
			return nil
		},
	}

	cmd.Flags().StringVarP(&programName, "program", "p", "", "study program, e.g. teknik_informatika")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "entry year (defaults to the current year)")
	_ = cmd.MarkFlagRequired("program")

	return cmd
}
