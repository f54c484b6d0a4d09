package app

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// EnvConfigPath names the config file when -config is not given.
const EnvConfigPath = "SKYWATCH_CONFIG_PATH"

// Flags holds command line flags.
type Flags struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	ShowVersion bool
}

// ParseFlags parses the command line of the named binary.
func ParseFlags(name string, args []string) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.ConfigPath, "config", os.Getenv(EnvConfigPath),
		"Path to configuration file (defaults only when empty)")
	fs.StringVar(&f.LogLevel, "log-level", "",
		"Log level (debug, info, warn, error); overrides the config file")
	fs.StringVar(&f.LogFormat, "log-format", "",
		"Log format (json, console); overrides the config file")
	fs.BoolVar(&f.ShowVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("invalid arguments: %w", err)
	}
	return f, nil
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// PrintVersion writes version information for the named binary.
func PrintVersion(w io.Writer, name string, info BuildInfo) {
	_, _ = fmt.Fprintf(w, "%s version %s\n", name, info.Version)
	_, _ = fmt.Fprintf(w, "  Build time: %s\n", info.BuildTime)
	_, _ = fmt.Fprintf(w, "  Git commit: %s\n", info.GitCommit)
}
