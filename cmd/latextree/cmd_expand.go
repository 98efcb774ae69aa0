package main

import (
	"fmt"
	"os"

	"github.com/eolymp/go-latex-ast"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

func newExpandCmd() *cobra.Command {
	var flags parseFlags
	var passes int

	cmd := &cobra.Command{
		Use:   "expand <file|->",
		Short: "Expand macros defined with \\newcommand and friends in the document itself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := commonlog.GetLogger("latextree.expand")

			r, err := open(args[0])
			if err != nil {
				return err
			}

			p, err := flags.parser()
			if err != nil {
				return err
			}

			root, err := p.Parse(r)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			defs, err := latex.ListNewcommands(root)
			if err != nil {
				return err
			}

			templates, warnings := latex.Templates(defs)
			for _, w := range warnings {
				log.Warningf("%s", w.Error())
			}

			for name, t := range templates {
				// defined macros must be known to the parser, otherwise their arguments are not attached
				p.Define(name, t.Signature().String())
			}

			// parse again, so invocations get arguments of defined macros
			if root, err = p.Reparse(root); err != nil {
				return fmt.Errorf("reparse %s: %w", args[0], err)
			}

			for i := 0; i < passes; i++ {
				root, warnings, err = latex.ExpandMacros(root, templates)
				if err != nil {
					return fmt.Errorf("expand: %w", err)
				}

				for _, w := range warnings {
					log.Warningf("%s", w.Error())
				}
			}

			return write(os.Stdout, flags.format, root)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&passes, "passes", "n", 1, "number of expansion passes, macros produced by expansion are expanded by the next pass")

	return cmd
}
