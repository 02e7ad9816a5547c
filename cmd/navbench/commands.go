package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/gorustyt/navquery/bench"
	"github.com/gorustyt/navquery/detour"
)

func (a *app) buildCmd() *cobra.Command {
	var (
		src meshSource
		out string
	)
	c := &cobra.Command{
		Use:   "build",
		Short: "build a navmesh set from geometry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if src.meshFile != "" {
				return fmt.Errorf("build takes --geom or --grid, not --mesh")
			}
			mesh, err := a.loadMesh(&src)
			if err != nil {
				return err
			}
			data := mesh.EncodeNavMeshSet()
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			a.logger.Info("navmesh written", zap.String("file", out), zap.Int("bytes", len(data)))
			return nil
		},
	}
	src.addFlags(c)
	c.Flags().StringVarP(&out, "out", "o", "navmesh.bin", "output file")
	return c
}

func (a *app) benchCmd() *cobra.Command {
	var (
		src         meshSource
		iterations  int
		workers     int
		seed        int64
		straight    bool
		metricsAddr string
	)
	c := &cobra.Command{
		Use:   "bench",
		Short: "sample random point pairs and time path queries between them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Bench
			flags := cmd.Flags()
			if flags.Changed("iterations") {
				cfg.Iterations = iterations
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}
			if flags.Changed("straight") {
				cfg.StraightPath = straight
			}

			mesh, err := a.loadMesh(&src)
			if err != nil {
				return err
			}
			filter, err := a.cfg.Filter.NewFilter()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				cfg.Metrics = bench.NewMetrics(reg)
				shutdown := a.serveMetrics(metricsAddr, reg)
				defer shutdown()
			}

			report, err := bench.Run(ctx, mesh, filter, cfg, a.logger)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	src.addFlags(c)
	c.Flags().IntVarP(&iterations, "iterations", "n", 0, "number of point pairs, overrides the config")
	c.Flags().IntVar(&workers, "workers", 0, "concurrent workers, overrides the config")
	c.Flags().Int64Var(&seed, "seed", 0, "random seed, overrides the config")
	c.Flags().BoolVar(&straight, "straight", false, "also straighten every path")
	c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	return c
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printReport(w io.Writer, r *bench.Report) {
	fmt.Fprintf(w, "Iterations:      %d (%d workers)\n", r.Iterations, r.Workers)
	fmt.Fprintf(w, "Sample failures: %d of %d draws\n", r.SampleFailures, r.SampleAttempts)
	fmt.Fprintf(w, "Sampling:        %v total, %v per pair\n", r.SampleTime, r.SampleAvg())
	fmt.Fprintf(w, "Path failures:   %d\n", r.PathFailures)
	fmt.Fprintf(w, "Partial paths:   %d (%.2f%%)\n", r.PartialPaths, r.PartialPercent())
	fmt.Fprintf(w, "Path finding:    %v total, %v per path\n", r.PathTime, r.PathAvg())
	if r.OutOfNodes > 0 {
		fmt.Fprintf(w, "Out of nodes:    %d\n", r.OutOfNodes)
	}
	if r.StraightPaths > 0 {
		fmt.Fprintf(w, "Straight paths:  %d, %d corners, %v total\n", r.StraightPaths, r.Corners, r.StraightTime)
	}
}

func (a *app) exportCmd() *cobra.Command {
	var (
		src meshSource
		out string
	)
	c := &cobra.Command{
		Use:   "export",
		Short: "write polygon rings and off-mesh connections as msgpack for external renderers",
		RunE: func(cmd *cobra.Command, args []string) error {
			mesh, err := a.loadMesh(&src)
			if err != nil {
				return err
			}
			n, err := writeDebugMesh(out, mesh)
			if err != nil {
				return err
			}
			a.logger.Info("debug mesh written", zap.String("file", out), zap.Int("bytes", n))
			return nil
		},
	}
	src.addFlags(c)
	c.Flags().StringVarP(&out, "out", "o", "navmesh.msgpack", "output file")
	return c
}

func writeDebugMesh(path string, mesh *detour.DtNavMesh) (int, error) {
	data, err := msgpack.Marshal(mesh.DebugExport())
	if err != nil {
		return 0, err
	}
	return len(data), os.WriteFile(path, data, 0o644)
}
