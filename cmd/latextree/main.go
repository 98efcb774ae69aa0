package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "latextree",
		Short: "Parse LaTeX into a tree with macro arguments attached",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbosity, nil)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newExpandCmd())
	rootCmd.AddCommand(newSignatureCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// open returns reader for a file name, "-" stands for standard input
func open(name string) (io.RuneScanner, error) {
	if name == "-" {
		return bufio.NewReader(os.Stdin), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return bytes.NewReader(data), nil
}
