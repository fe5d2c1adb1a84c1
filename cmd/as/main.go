// Command as is the eZ80 ADL assembler: `as [-o OUTFILE] [-v] [-h] INPUT.asm`
// (spec.md §6).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Manu343726/ez80toolchain/internal/asm"
	"github.com/Manu343726/ez80toolchain/internal/buildlog"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "as [-o OUTFILE] [-v] INPUT.asm",
	Short: "Assemble an eZ80 ADL source file into a relocatable object file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssemble,
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output object file path (default: INPUT.o)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print a summary of errors and warnings")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAssemble(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	out := outputPath
	if out == "" {
		out = defaultObjectPath(inputPath)
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	logger := buildlog.New(os.Stderr, nil)
	a := asm.NewAssembler(inputPath, readIncludeFile)

	writer, assembleErr := a.AssembleSource(string(src))
	for _, d := range a.Diagnostics {
		if d.Warning {
			logger.Warning(d.File, d.Line, d.Err)
		} else {
			logger.Error(d.File, d.Line, d.Err)
		}
	}

	if logger.ErrorCount() > 0 {
		if verbose {
			fmt.Fprintf(os.Stderr, "%d error(s), %d warning(s)\n", logger.ErrorCount(), logger.WarningCount())
		}
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return assembleErr
	}

	outFile, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer outFile.Close()

	if _, err := writer.WriteTo(outFile); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%s -> %s (%d warning(s))\n", inputPath, out, logger.WarningCount())
	}
	return nil
}

// defaultObjectPath replaces the input's final dot-extension with ".o",
// or appends ".o" if the input has no extension (spec.md §6).
func defaultObjectPath(input string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		return input + ".o"
	}
	return strings.TrimSuffix(input, ext) + ".o"
}

func readIncludeFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
