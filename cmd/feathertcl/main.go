// feathertcl is a command-line front end for the feather TCL core: a small
// default host that backs every value/variable/procedure handle with plain
// Go state, wired up as a cobra CLI with run/eval/repl/parse subcommands.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/feather-lang/feather"
	"github.com/feather-lang/feather/internal/replline"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "feathertcl",
		Short: "Run and explore feather, an embeddable TCL core",
	}

	rootCmd.AddCommand(newRunCmd(), newEvalCmd(), newReplCmd(), newParseCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "run [script-file]",
		Short: "Evaluate a script file (or stdin) and print its result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args)
			if err != nil {
				return err
			}
			i := feather.New()
			defer i.Close()
			return evalAndPrint(i, src)
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "evaluate in the global frame")
	return cmd
}

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a script given on the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i := feather.New()
			defer i.Close()
			return evalAndPrint(i, args[0])
		},
	}
	return cmd
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			i := feather.New()
			defer i.Close()
			replline.Run(i)
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [script-file]",
		Short: "Parse a script without evaluating it and report its status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args)
			if err != nil {
				return err
			}
			i := feather.New()
			defer i.Close()

			result := i.Parse(src)
			switch result.Status {
			case feather.ParseOK:
				fmt.Println("OK")
			case feather.ParseIncomplete:
				fmt.Println("INCOMPLETE")
			case feather.ParseError:
				fmt.Printf("ERROR %s\n", result.Message)
				os.Exit(1)
			}
			return nil
		},
	}
	return cmd
}

func readSource(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func evalAndPrint(i *feather.Interp, src string) error {
	result, err := i.Eval(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if s := result.String(); s != "" {
		fmt.Println(s)
	}
	return nil
}
