package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// --- Global Command Variables ---
var (
	logLevel    string
	metricsAddr string
	configPath  string
	outDir      string
	outFormat   string

	metricsServer *http.Server

	rootCmd = &cobra.Command{
		Use:   "qpot",
		Short: "Quasi-potential surfaces for 2-D stochastic systems",
		Long: `qpot computes the quasi-potential of a planar SDE with an ordered
upwind method, stitches per-basin surfaces at saddles and decomposes
the drift into gradient and rotational parts.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Run the full pipeline for a configuration file",
		Args:  cobra.NoArgs,
		RunE:  runSolve, // cmd_solve.go
	}

	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List the built-in drift models and their defaults",
		Args:  cobra.NoArgs,
		RunE:  runModels, // cmd_models.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the qpot version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "qpot", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML or JSON run configuration (defaults to the predator/prey scenario)")
	solveCmd.Flags().StringVarP(&outDir, "out", "o", "qpot-out", "output directory")
	solveCmd.Flags().StringVarP(&outFormat, "format", "f", "csv", "surface format: csv or json")

	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup installs the default logger and starts the metrics endpoint.
func setup(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if metricsAddr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", metricsAddr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", ln.Addr().String())

	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := metricsServer.Shutdown(ctx)
	metricsServer = nil

	return err
}

// newLogger builds a text slog handler at the named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
