package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
	"github.com/X-Zero-L/aniguessr/internal/daily"
	"github.com/X-Zero-L/aniguessr/internal/dataset"
	"github.com/X-Zero-L/aniguessr/internal/httpserver"
	"github.com/X-Zero-L/aniguessr/internal/metrics"
	"github.com/X-Zero-L/aniguessr/internal/results"
	"github.com/X-Zero-L/aniguessr/internal/sim"
	"github.com/X-Zero-L/aniguessr/internal/store"
)

func newCheckCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check [name...]",
		Short: "Load the catalog, print its summary and resolve the given names.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := dataset.Open(cfg.dataDir, cfg.minAttrs)
			if err != nil {
				return err
			}
			return runCheck(cmd.OutOrStdout(), cat, args)
		},
	}
}

func runCheck(w io.Writer, cat *catalog.Catalog, names []string) error {
	st := cat.Stats()
	fmt.Fprintf(w, "entities:   %d\n", st.Entities)
	fmt.Fprintf(w, "attributes: %d\n", st.Attributes)
	fmt.Fprintf(w, "richest:    %s (%d attributes)\n", st.Richest, st.RichestCount)

	for _, name := range names {
		e, corrected, err := cat.Resolve(name)
		switch {
		case errors.Is(err, catalog.ErrNoMatch):
			fmt.Fprintf(w, "%s: no match\n", name)
		case err != nil:
			return err
		case corrected:
			fmt.Fprintf(w, "%s: did you mean %s? (%.2f)\n", name, e.Name, catalog.Similarity(name, e.Name))
		default:
			fmt.Fprintf(w, "%s: %d attributes\n", e.Name, e.Len())
		}
	}
	return nil
}

func newSimulateCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play automated sessions against the catalog and report the outcome.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateSimulate(); err != nil {
				return err
			}
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&cfg.players, "players", 4, "concurrent simulated players (env: ANIGUESSR_PLAYERS)")
	fs.IntVar(&cfg.games, "games", 10, "games per player (env: ANIGUESSR_GAMES)")
	fs.StringVar(&cfg.strategy, "strategy", string(sim.StrategyFirst), "guess selection: first or random (env: ANIGUESSR_STRATEGY)")
	fs.Uint64Var(&cfg.seed, "seed", uint64(time.Now().UnixNano()), "random seed (env: ANIGUESSR_SEED)")
	fs.BoolVar(&cfg.daily, "daily", false, "every session plays the day's target (env: ANIGUESSR_DAILY)")
	fs.StringVar(&cfg.dailySalt, "daily-salt", "", "secret mixed into the daily target (env: ANIGUESSR_DAILY_SALT)")
	fs.DurationVar(&cfg.sweepEvery, "sweep-every", 30*time.Second, "interval for expiring timed-out sessions (env: ANIGUESSR_SWEEP_EVERY)")
	bindEnv(v, fs)

	return cmd
}

type app struct {
	holder   *catalog.Holder
	sessions *store.Sessions
	results  *results.Store
	registry *prometheus.Registry
}

// setup loads the catalog and opens the optional collaborators.
func setup(cfg *Config) (*app, func(), error) {
	rt := &app{sessions: store.NewSessions()}
	cleanup := func() {}

	if cfg.metricsAddr != "" {
		rt.registry = prometheus.NewRegistry()
		rt.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		p, err := metrics.NewPrometheus(rt.registry)
		if err != nil {
			return nil, cleanup, err
		}
		metrics.SetRecorder(p)
	}

	cat, err := dataset.Open(cfg.dataDir, cfg.minAttrs)
	if err != nil {
		return nil, cleanup, err
	}
	rt.holder = catalog.NewHolder(cat)

	if cfg.resultsDB != "" {
		res, err := results.Open(cfg.resultsDB)
		if err != nil {
			return nil, cleanup, err
		}
		rt.results = res
		cleanup = func() {
			if err := res.Close(); err != nil {
				log.Warn().Err(err).Msg("close results db")
			}
		}
	}
	return rt, cleanup, nil
}

// background starts the watcher and diagnostics server when configured.
func (rt *app) background(ctx context.Context, g *errgroup.Group, cfg *Config) {
	if cfg.watch {
		w := dataset.NewWatcher(cfg.dataDir, cfg.minAttrs, rt.holder)
		g.Go(func() error { return w.Run(ctx) })
	}
	if cfg.metricsAddr != "" {
		srv := httpserver.New(httpserver.Deps{
			Catalog:  rt.holder,
			Sessions: rt.sessions,
			Results:  rt.results,
			Gatherer: rt.registry,
		})
		g.Go(func() error { return srv.Run(ctx, cfg.metricsAddr) })
	}
}

// sweep expires idle sessions every interval and records them.
func (rt *app) sweep(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			for player, s := range rt.sessions.Sweep() {
				metrics.Default().IncSession(string(s.Status()))
				if rt.results == nil {
					continue
				}
				if rec, ok := results.FromSession(player, s, ""); ok {
					if err := rt.results.Insert(ctx, rec); err != nil {
						log.Warn().Err(err).Str("player", player).Msg("record expired session")
					}
				}
			}
		}
	}
}

func runSimulate(ctx context.Context, w io.Writer, cfg *Config) error {
	rt, cleanup, err := setup(cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, bgCtx := errgroup.WithContext(bgCtx)
	rt.background(bgCtx, g, cfg)
	g.Go(func() error { return rt.sweep(bgCtx, cfg.sweepEvery) })

	runner := sim.NewRunner(rt.holder, rt.sessions, rt.results, sim.Config{
		Players:  cfg.players,
		Games:    cfg.games,
		Settings: cfg.settings(),
		Strategy: sim.Strategy(cfg.strategy),
		Seed:     cfg.seed,
		Daily:    cfg.daily,
		Salt:     cfg.dailySalt,
	})
	sum, runErr := runner.Run(ctx)

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("background task failed")
	}
	if runErr != nil {
		return runErr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return err
	}

	if rt.results != nil {
		top, err := rt.results.Leaderboard(ctx, 5)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "leaderboard:")
		for i, row := range top {
			fmt.Fprintf(w, "  %d. %s  wins=%d played=%d avg=%.2f\n", i+1, row.Player, row.Wins, row.Played, row.AvgAttempts)
		}
		if cfg.daily {
			day := daily.DateKey(time.Now())
			rows, err := rt.results.DailyLeaderboard(ctx, day, 5)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "daily %s:\n", day)
			for i, row := range rows {
				fmt.Fprintf(w, "  %d. %s  attempts=%d elapsed=%dms\n", i+1, row.Player, row.Attempts, row.ElapsedMs)
			}
		}
	}
	return nil
}

func newServeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve diagnostics, metrics and result statistics until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.metricsAddr == "" {
				cfg.metricsAddr = ":9090"
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *Config) error {
	rt, cleanup, err := setup(cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	rt.background(ctx, g, cfg)
	return g.Wait()
}
