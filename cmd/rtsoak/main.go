// Command rtsoak runs a seeded random workload against a reftable, checking
// it against a plain map after every batch of operations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := mainErr(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rtsoak: %+v\n", err)
		os.Exit(1)
	}
}

func mainErr(args []string) error {
	var cfg config

	fs := pflag.NewFlagSet("rtsoak", pflag.ContinueOnError)
	fs.IntVar(&cfg.Ops, "ops", 1_000_000, "number of random operations to run")
	fs.Uint64Var(&cfg.Seed, "seed", 1, "random seed")
	fs.IntVar(&cfg.MaxLive, "max-live", 1<<16, "upper bound on live entries")
	fs.IntVar(&cfg.VerifyEvery, "verify-every", 1<<14, "operations between full checks (0 disables)")
	fs.StringVar(&cfg.Snapshot, "snapshot", "", "write the final table to this path and verify it reloads")
	level := fs.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	lvl, err := zapcore.ParseLevel(*level)
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := zcfg.Build()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := run(cfg, log)
	if err != nil {
		log.Error("soak failed", zap.Error(err), zap.Object("stats", st))
		return err
	}

	log.Info("soak passed", zap.Object("stats", st))
	return nil
}
