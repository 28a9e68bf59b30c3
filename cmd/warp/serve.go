// Copyright 2026 Warpcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warpcore/warp/internal/log"
	"github.com/warpcore/warp/pkg/checkpoint"
	"github.com/warpcore/warp/pkg/metrics"
	"github.com/warpcore/warp/pkg/session"
)

var (
	serveMetricsAddr string
	serveGCSchedule  string
	serveHookDir     string
	serveMaxAge      time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs warp as a long-lived process exposing metrics and periodic housekeeping",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", ":9090", "address to expose /metrics on")
	serveCmd.Flags().StringVar(&serveGCSchedule, "gc-schedule", "@hourly", "cron schedule for checkpoint GC and stale session pruning")
	serveCmd.Flags().StringVar(&serveHookDir, "hook-dir", "", "accepted but not used; serve starts no hook watcher")
	serveCmd.Flags().DurationVar(&serveMaxAge, "max-session-age", 7*24*time.Hour, "sessions untouched longer than this are pruned by the GC sweep")
}

// runServe starts warp's housekeeping daemon: a /metrics endpoint backed by
// pkg/metrics.Collector, and a robfig/cron schedule that re-runs checkpoint
// GC and stale-session pruning so a long-lived deployment doesn't need an
// external cron entry shelling back out to warp itself.
func runServe(cmd *cobra.Command, args []string) error {
	logger := log.Logger()
	dd := resolvedDataDir()

	ckptMgr, err := checkpoint.NewManager(filepath.Join(dd, "checkpoints"), 20, logger)
	if err != nil {
		return fmt.Errorf("warp serve: checkpoint manager: %w", err)
	}

	collector := metrics.NewCollector()

	c := cron.New()
	sweep := func() {
		ckptMgr.GC()
		n, err := session.PruneStale(dd, serveMaxAge, logger)
		if err != nil {
			logger.Warn("session prune failed", zap.Error(err))
			return
		}
		logger.Info("gc sweep complete", zap.Int("pruned_sessions", n))
	}
	if _, err := c.AddFunc(serveGCSchedule, sweep); err != nil {
		return fmt.Errorf("warp serve: invalid --gc-schedule %q: %w", serveGCSchedule, err)
	}
	c.Start()
	defer c.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	httpSrv := &http.Server{Addr: serveMetricsAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", zap.String("addr", serveMetricsAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("warp serve: shutting down")
	case err := <-errCh:
		return fmt.Errorf("warp serve: metrics server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
