// Package cmd implements the spapatch command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/ezblocker/spapatch/internal/patcher"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Metadata is build information stamped in by the release pipeline.
type Metadata struct {
	Version string
	Commit  string
	Date    string
}

var metadata = Metadata{Version: "dev"}

// configEnv names the variable holding the default --config path.
const configEnv = "SPAPATCH_CONFIG"

var rootCmd = &cobra.Command{
	Use:   "spapatch",
	Short: "Patch the Spotify desktop UI bundle for EZBlocker",
	Long: `spapatch rewrites the Spotify desktop client's zlink.spa bundle so the
client reports playback events to EZBlocker on localhost.

The original bundle is kept in a backup slot and copied back if any step
of a patch fails.`,
	SilenceUsage: true,
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(completionCmd)
}

func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a YAML config file (default $"+configEnv+")")
	flags.String("target", "", "Path to the bundle to patch")
	flags.String("scratch-root", "", "Directory for workspaces, the build output and the backup")
	flags.String("executable", "", "Application executable to relaunch after patching")
	flags.String("website", "", "URL opened by the upgrade button")
	flags.Int("port", 0, "Localhost port the injected worker reports to")
	flags.Bool("debug", false, "Show pipeline diagnostics")
}

// Execute runs the root command.
func Execute(m Metadata) {
	if m.Version != "" {
		metadata = m
	}
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(versionString())); err != nil {
		os.Exit(1)
	}
}

func versionString() string {
	if metadata.Commit == "" {
		return metadata.Version
	}
	return fmt.Sprintf("%s (%s, %s)", metadata.Version, metadata.Commit, metadata.Date)
}

// loadConfig resolves defaults, then the config file, then any flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (patcher.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if path == "" {
		path = os.Getenv(configEnv)
	}
	cfg, err := patcher.LoadConfig(path)
	if err != nil {
		return patcher.Config{}, err
	}
	return cfg.Merge(flagOverlay(flags)), nil
}

// flagOverlay collects the config fields set on the command line.
func flagOverlay(flags *pflag.FlagSet) patcher.Config {
	var overlay patcher.Config
	if flags.Changed("target") {
		overlay.Paths.Target, _ = flags.GetString("target")
	}
	if flags.Changed("scratch-root") {
		overlay.Paths.ScratchRoot, _ = flags.GetString("scratch-root")
	}
	if flags.Changed("executable") {
		overlay.Paths.Executable, _ = flags.GetString("executable")
	}
	if flags.Changed("website") {
		overlay.Website, _ = flags.GetString("website")
	}
	if flags.Changed("port") {
		overlay.ListenerPort, _ = flags.GetInt("port")
	}
	return overlay
}

func newLogger(cmd *cobra.Command) *pterm.Logger {
	level := pterm.LogLevelWarn
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = pterm.LogLevelTrace
	}
	return pterm.DefaultLogger.WithLevel(level)
}

func newPatcher(cmd *cobra.Command, opts ...patcher.Option) (*patcher.Patcher, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts = append([]patcher.Option{patcher.WithLogger(newLogger(cmd))}, opts...)
	return patcher.New(cfg, nil, opts...)
}
