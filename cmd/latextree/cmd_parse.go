package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eolymp/go-latex-ast"
	"github.com/spf13/cobra"
)

type parseFlags struct {
	format     string
	atLetter   bool
	expl3      bool
	autodetect bool
	defines    []string
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "json", "output format: json, latex or text")
	cmd.Flags().BoolVar(&f.atLetter, "atletter", false, "treat @ as a letter in the whole document")
	cmd.Flags().BoolVar(&f.expl3, "expl3", false, "treat _ and : as letters in the whole document")
	cmd.Flags().BoolVar(&f.autodetect, "autodetect", false, "guess whether @ and expl3 names are used")
	cmd.Flags().StringArrayVarP(&f.defines, "define", "D", nil, "extra macro signature as name=signature, eg. -D 'foo=o m'")
}

func (f *parseFlags) parser() (*latex.Parser, error) {
	var opts []latex.Option
	if f.atLetter {
		opts = append(opts, latex.WithAtLetter())
	}

	if f.expl3 {
		opts = append(opts, latex.WithExpl3())
	}

	if f.autodetect {
		opts = append(opts, latex.WithAutodetectRegions())
	}

	p := latex.NewParser(opts...)

	for _, define := range f.defines {
		name, sig, ok := strings.Cut(define, "=")
		if !ok {
			return nil, fmt.Errorf("malformed definition %q, expected name=signature", define)
		}

		if _, err := latex.ParseSignature(sig); err != nil {
			return nil, err
		}

		p.Define(name, sig)
	}

	return p, nil
}

func write(w io.Writer, format string, root *latex.Node) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		_, err = fmt.Fprintln(w, string(data))
		return err
	case "latex":
		if err := latex.Render(w, root); err != nil {
			return fmt.Errorf("render: %w", err)
		}

		_, err := fmt.Fprintln(w)
		return err
	case "text":
		_, err := fmt.Fprintln(w, latex.Text(root))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func newParseCmd() *cobra.Command {
	var flags parseFlags

	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse a LaTeX document and print the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			return write(os.Stdout, flags.format, root)
		},
	}

	flags.register(cmd)

	return cmd
}
