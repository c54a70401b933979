package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/X-Zero-L/aniguessr/internal/game"
)

// Config holds every CLI option. Each flag can also be set through an
// ANIGUESSR_* environment variable (dashes become underscores).
type Config struct {
	dataDir     string
	minAttrs    int
	maxAttempts int
	timeout     time.Duration
	hints       int
	resultsDB   string
	metricsAddr string
	logLevel    string
	pretty      bool
	watch       bool

	// simulate
	players    int
	games      int
	strategy   string
	seed       uint64
	daily      bool
	dailySalt  string
	sweepEvery time.Duration
}

func (c *Config) settings() game.Settings {
	return game.Settings{
		MaxAttempts:  c.maxAttempts,
		Timeout:      c.timeout,
		HintCount:    c.hints,
		MinAttrCount: c.minAttrs,
	}
}

func (c *Config) validate() error {
	if err := c.settings().Validate(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid --log-level %q", c.logLevel)
	}
	return nil
}

func (c *Config) validateSimulate() error {
	if c.players < 1 {
		return fmt.Errorf("invalid --players (must be at least 1): %d", c.players)
	}
	if c.games < 1 {
		return fmt.Errorf("invalid --games (must be at least 1): %d", c.games)
	}
	if c.daily && c.dailySalt == "" {
		return errors.New("--daily requires --daily-salt")
	}
	return nil
}

// setupLogging applies --log-level and --pretty to the global zerolog logger.
func setupLogging(c *Config) {
	if lvl, err := zerolog.ParseLevel(c.logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// bindEnv lets ANIGUESSR_* variables fill in every flag not given on the
// command line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ANIGUESSR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "aniguessr",
		Short:         "Character-guessing deduction engine: data checks, simulations and diagnostics.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			setupLogging(cfg)
			return nil
		},
	}

	defaults := game.DefaultSettings()
	pfs := cmd.PersistentFlags()
	pfs.StringVar(&cfg.dataDir, "data-dir", "", "directory holding char2attr.json/.yaml and schema.yaml; empty uses built-in data (env: ANIGUESSR_DATA_DIR)")
	pfs.IntVar(&cfg.minAttrs, "min-attrs", defaults.MinAttrCount, "drop entities with fewer attributes (env: ANIGUESSR_MIN_ATTRS)")
	pfs.IntVar(&cfg.maxAttempts, "max-attempts", defaults.MaxAttempts, "guesses allowed per session (env: ANIGUESSR_MAX_ATTEMPTS)")
	pfs.DurationVar(&cfg.timeout, "timeout", defaults.Timeout, "session time limit (env: ANIGUESSR_TIMEOUT)")
	pfs.IntVar(&cfg.hints, "hints", defaults.HintCount, "target attributes revealed at start (env: ANIGUESSR_HINTS)")
	pfs.StringVar(&cfg.resultsDB, "results-db", "./data/results.db", "SQLite file for finished sessions; empty disables (env: ANIGUESSR_RESULTS_DB)")
	pfs.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve /metrics, /health and /stats on this address; empty disables (env: ANIGUESSR_METRICS_ADDR)")
	pfs.StringVar(&cfg.logLevel, "log-level", "info", "trace, debug, info, warn or error (env: ANIGUESSR_LOG_LEVEL)")
	pfs.BoolVar(&cfg.pretty, "pretty", false, "human-readable console logs (env: ANIGUESSR_PRETTY)")
	pfs.BoolVar(&cfg.watch, "watch", false, "reload the data directory when it changes (env: ANIGUESSR_WATCH)")
	bindEnv(v, pfs)

	cmd.AddCommand(newCheckCmd(cfg), newSimulateCmd(cfg, v), newServeCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("aniguessr v{{.Version}}\n")

	return cmd
}
