// Package toolconfig resolves the toolchain's handful of cross-cutting
// defaults (linker base address, library search path) from a project
// config file and EZ80_* environment variables, the way the teacher's
// cmd/root.go:initConfig resolves its own `~/.cucaracha.yaml` — adapted
// to a project-local `.ez80rc.yaml` and an env prefix, since explicit
// command-line flags (spec.md §6) always take precedence over both.
package toolconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the resolved defaults. Zero value is the toolchain's own
// hardcoded defaults (base address 0, no extra library paths).
type Config struct {
	BaseAddr     uint32
	LibraryPaths []string
}

// Load reads defaults from cfgFile if given, otherwise searches the
// current directory for `.ez80rc.yaml`, then overlays EZ80_* environment
// variables. A missing config file is not an error; a malformed one is.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EZ80")
	v.AutomaticEnv()
	v.SetDefault("base_addr", "0x000000")
	v.SetDefault("library_paths", []string{})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".ez80rc")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", v.ConfigFileUsed(), err)
		}
	}

	base, err := ParseHexAddr(v.GetString("base_addr"))
	if err != nil {
		return nil, fmt.Errorf("base_addr: %w", err)
	}

	return &Config{
		BaseAddr:     base,
		LibraryPaths: v.GetStringSlice("library_paths"),
	}, nil
}

// ParseHexAddr parses a base address given as a bare decimal, a 0x-
// prefixed hex literal, or a 0X-prefixed one, matching the -b flag's
// HEXADDR syntax (spec.md §6).
func ParseHexAddr(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}
