// main.go
//
// Entry point for the aniguessr operator CLI.
// Loads .env (if present), wires signal cancellation into the command
// context and hands over to cobra. Logging is configured per command run
// from --log-level / --pretty (see config.go).

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.4.0"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}
