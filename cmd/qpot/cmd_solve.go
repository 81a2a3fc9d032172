package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/katalvlaran/qpot/config"
	"github.com/katalvlaran/qpot/export"
	"github.com/katalvlaran/qpot/pipeline"
	"github.com/spf13/cobra"
)

func runSolve(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(outFormat)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	problem, opts, err := cfg.Problem()
	if err != nil {
		return err
	}
	opts = append(opts, pipeline.WithLogger(slog.Default()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	slog.Info("solving",
		"model", cfg.Model.Name,
		"domain", problem.Domain.String(),
		"basins", len(problem.Equilibria),
		"saddles", len(problem.Saddles))
	started := time.Now()
	res, err := pipeline.Run(ctx, problem, opts...)
	if err != nil {
		return err
	}
	slog.Info("pipeline finished", "duration", time.Since(started), "warnings", len(res.Warnings))
	for _, w := range res.Warnings {
		slog.Warn(w.Error())
	}

	paths, err := export.WriteResult(outDir, res, format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "offsets: %v (%s)\n", res.Global.Offsets, res.Global.Policy)
	if hi, _, ok := res.Global.Surface.Max(); ok {
		fmt.Fprintf(out, "max Φ: %.6g\n", hi)
	}
	for _, p := range paths {
		fmt.Fprintln(out, "wrote", p)
	}

	return nil
}
