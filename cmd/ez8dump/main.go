// Command ez8dump is the object-file inspector: by default a
// straightforward human-readable dump tool, or (with -i) an interactive
// three-pane browser over an already-parsed object file (SPEC_FULL.md §2
// DOMAIN STACK).
package main

import (
	"fmt"
	"os"

	"github.com/Manu343726/ez80toolchain/internal/objfile"
	"github.com/spf13/cobra"
)

var (
	noColor     bool
	interactive bool
)

var rootCmd = &cobra.Command{
	Use:   "ez8dump [-i] [--no-color] OBJ",
	Short: "Dump or interactively browse an eZ80 relocatable object file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colorized output")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Launch an interactive tview browser instead of printing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	path := args[0]
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	obj, err := objfile.ParseObject(buf)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if interactive {
		return runInspector(path, obj)
	}

	return objfile.Dump(os.Stdout, path, obj, objfile.DumpOptions{Color: !noColor})
}
