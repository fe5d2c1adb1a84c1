// Command ld is the eZ80 ADL linker:
// `ld [-o OUTFILE] [-b HEXADDR] [-m MAPFILE] [-L DIR] [-lNAME | -l NAME] [-v] [-h] OBJ...`
// (spec.md §6).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Manu343726/ez80toolchain/internal/buildlog"
	"github.com/Manu343726/ez80toolchain/internal/linker"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
	"github.com/Manu343726/ez80toolchain/internal/toolconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	outputPath  string
	baseAddrVal uint32
	mapFilePath string
	libDirs     []string
	libNames    []string
	verbose     bool
)

// hexAddrValue is a pflag.Value so -b validates its HEXADDR argument
// (decimal or 0x-prefixed hex, per spec.md §6) at flag-parse time rather
// than deferring the error to runLink.
type hexAddrValue struct{ v *uint32 }

func (h hexAddrValue) String() string { return fmt.Sprintf("0x%06X", *h.v) }
func (h hexAddrValue) Type() string   { return "hexaddr" }
func (h hexAddrValue) Set(s string) error {
	parsed, err := toolconfig.ParseHexAddr(s)
	if err != nil {
		return err
	}
	*h.v = parsed
	return nil
}

var _ pflag.Value = hexAddrValue{}

var rootCmd = &cobra.Command{
	Use:   "ld [-o OUTFILE] [-b HEXADDR] [-m MAPFILE] [-L DIR] [-l NAME]... OBJ...",
	Short: "Link eZ80 ADL relocatable object files into a flat binary",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLink,
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "a.out", "Output binary path")
	rootCmd.Flags().VarP(hexAddrValue{&baseAddrVal}, "base", "b", "Base address (hex or decimal)")
	rootCmd.Flags().StringVarP(&mapFilePath, "map", "m", "", "Write a link map to this path")
	rootCmd.Flags().StringArrayVarP(&libDirs, "libdir", "L", nil, "Add a library search directory")
	rootCmd.Flags().StringArrayVarP(&libNames, "lib", "l", nil, "Link against lib<NAME>.a, searched in -L directories")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print a summary after linking")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runLink(cmd *cobra.Command, args []string) error {
	cfg, err := toolconfig.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	baseAddr := cfg.BaseAddr
	if cmd.Flags().Changed("base") {
		baseAddr = baseAddrVal
	}
	libDirs = append(libDirs, cfg.LibraryPaths...)

	ld := linker.NewLinker(baseAddr)
	logger := buildlog.New(os.Stderr, nil)

	for _, path := range args {
		buf, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		obj, err := objfile.ParseObject(buf)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := ld.AddObject(path, obj); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	for _, name := range libNames {
		path, buf, err := resolveLibrary(name, libDirs)
		if err != nil {
			return err
		}
		if err := ld.AddLibrary(path, buf); err != nil {
			return err
		}
	}

	out, err := ld.Link()
	if err != nil {
		logger.PlainError(err)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return err
	}

	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	if mapFilePath != "" {
		mf, err := os.Create(mapFilePath)
		if err != nil {
			return fmt.Errorf("creating map file %s: %w", mapFilePath, err)
		}
		defer mf.Close()
		if err := ld.WriteMapFile(mf); err != nil {
			return fmt.Errorf("writing map file %s: %w", mapFilePath, err)
		}
	}

	if verbose {
		code, data, bss := ld.Totals()
		fmt.Fprintf(os.Stderr, "%s: code=0x%X data=0x%X bss=0x%X\n", outputPath, code, data, bss)
	}
	return nil
}

// resolveLibrary implements spec.md §6's search order: each -L directory
// is tried for "lib<name>.a"; if none match, the literal name is tried
// (so a library may also be given as a direct path).
func resolveLibrary(name string, dirs []string) (string, []byte, error) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, "lib"+name+".a")
		if buf, err := os.ReadFile(candidate); err == nil {
			return candidate, buf, nil
		}
	}
	if buf, err := os.ReadFile(name); err == nil {
		return name, buf, nil
	}
	return "", nil, fmt.Errorf("cannot find library %q (searched %d -L director(ies))", name, len(dirs))
}
