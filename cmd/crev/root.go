// Package main implements the crev CLI: a thin cobra wrapper translating
// the command surface named in the external interfaces section into
// calls against the trust database, trust-set resolver, digest verifier,
// and git-backed proof store.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ThomasdenH/crev/internal/config"
)

// logLevelFlag implements pflag.Value for a slog.Level flag, the same
// pattern the root command this CLI is descended from uses.
type logLevelFlag struct {
	level slog.Level
}

func (f *logLevelFlag) String() string {
	return f.level.String()
}

func (f *logLevelFlag) Set(s string) error {
	return f.level.UnmarshalText([]byte(strings.ToUpper(s)))
}

func (f *logLevelFlag) Type() string { return "level" }

type rootOptions struct {
	configDir string
	logLevel  logLevelFlag
}

var opts = &rootOptions{logLevel: logLevelFlag{level: slog.LevelInfo}}

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "crev",
	Short:         "A distributed code-review trust web",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.logLevel.level})))

		loaded, err := config.Load(opts.configDir)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", config.DefaultConfigDir, "configuration directory")
	rootCmd.PersistentFlags().Var(&opts.logLevel, "log-level", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newCmd())
	rootCmd.AddCommand(switchIdCmd())
	rootCmd.AddCommand(editReadmeCmd())
	rootCmd.AddCommand(verifyDepsCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(flagCmd())
	rootCmd.AddCommand(trustCmd())
	rootCmd.AddCommand(distrustCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(gitPassthroughCmds()...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crev:", err)
		os.Exit(1)
	}
}
