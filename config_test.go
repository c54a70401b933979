package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/X-Zero-L/aniguessr/internal/sim"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 5, cfg.minAttrs)
	assert.Equal(t, 10, cfg.maxAttempts)
	assert.Equal(t, 300*time.Second, cfg.timeout)
	assert.Equal(t, 3, cfg.hints)
	assert.Equal(t, "./data/results.db", cfg.resultsDB)
	assert.Equal(t, "info", cfg.logLevel)
	assert.NoError(t, cfg.validate())
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ANIGUESSR_MAX_ATTEMPTS", "7")
	t.Setenv("ANIGUESSR_TIMEOUT", "90s")
	t.Setenv("ANIGUESSR_PLAYERS", "9")

	cfg := &Config{}
	newCmd(cfg)
	assert.Equal(t, 7, cfg.maxAttempts)
	assert.Equal(t, 90*time.Second, cfg.timeout)
	assert.Equal(t, 9, cfg.players)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	cfg.maxAttempts = 0
	assert.Error(t, cfg.validate())
	cfg.maxAttempts = 10

	cfg.logLevel = "loud"
	assert.Error(t, cfg.validate())
	cfg.logLevel = "info"

	cfg.daily = true
	assert.ErrorContains(t, cfg.validateSimulate(), "--daily-salt")
	cfg.dailySalt = "s"
	assert.NoError(t, cfg.validateSimulate())

	cfg.players = 0
	assert.Error(t, cfg.validateSimulate())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := &Config{}
	cmd := newCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, "check", "--log-level", "warn", "时崎狂", "御坂美琴", "Zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "entities:   12")
	assert.Contains(t, out, "时崎狂: did you mean 时崎狂三?")
	assert.Contains(t, out, "御坂美琴: 9 attributes")
	assert.Contains(t, out, "Zzz: no match")
}

func TestSimulateCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "results.db")
	out, err := execute(t, "simulate",
		"--log-level", "warn",
		"--results-db", db,
		"--players", "3",
		"--games", "2",
		"--max-attempts", "12",
		"--strategy", string(sim.StrategyRandom),
		"--seed", "11",
	)
	require.NoError(t, err)

	jsonPart, rest, ok := strings.Cut(out, "leaderboard:")
	require.True(t, ok, out)
	var sum sim.Summary
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &sum))
	assert.Equal(t, 6, sum.Games)
	assert.Equal(t, 6, sum.Won)
	assert.Contains(t, rest, "sim-00")
}

func TestSimulateRejectsBadStrategy(t *testing.T) {
	_, err := execute(t, "simulate", "--log-level", "warn", "--results-db", "", "--strategy", "greedy")
	assert.ErrorIs(t, err, sim.ErrUnknownStrategy)
}
