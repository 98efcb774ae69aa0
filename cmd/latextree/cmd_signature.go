package main

import (
	"fmt"

	"github.com/eolymp/go-latex-ast"
	"github.com/spf13/cobra"
)

var kinds = map[latex.ArgKind]string{
	latex.MandatoryArg:     "mandatory",
	latex.OptionalArg:      "optional",
	latex.StarArg:          "star",
	latex.DelimitedArg:     "delimited",
	latex.VerbatimArg:      "verbatim",
	latex.EmbellishmentArg: "embellishment",
	latex.UntilArg:         "until",
	latex.BodyArg:          "body",
}

func newSignatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signature <signature>",
		Short: "Compile an argument signature and describe its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := latex.ParseSignature(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, spec := range sig {
				fmt.Fprintf(out, "%-8s %-13s", spec.String(), kinds[spec.Kind])

				if spec.OpenMark != "" || spec.CloseMark != "" {
					fmt.Fprintf(out, " marks=%s%s", spec.OpenMark, spec.CloseMark)
				}

				if spec.Default != nil {
					fmt.Fprintf(out, " default=%q", spec.Default.Raw)
				}

				if spec.Long {
					fmt.Fprint(out, " long")
				}

				fmt.Fprintln(out)
			}

			fmt.Fprintf(out, "%d argument slots\n", sig.Slots())

			return nil
		},
	}
}
