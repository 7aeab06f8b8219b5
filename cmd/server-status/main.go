// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/antimetal/server-status/pkg/config"
	"github.com/antimetal/server-status/pkg/exporter"
	"github.com/antimetal/server-status/pkg/serverstatus"
)

var (
	setupLog logr.Logger

	// CLI Options (alphabetical order)
	configPath  string
	development bool
	metricsAddr string
	verbosity   int
)

func init() {
	flag.StringVar(&configPath, "config", "",
		"Path to a YAML configuration file. Defaults apply when empty.")
	flag.BoolVar(&development, "zap-devel", false,
		"Use human-readable development logging instead of JSON.")
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":9100",
		"The address the Prometheus metrics endpoint binds to.")
	flag.IntVar(&verbosity, "v", 0,
		"Log verbosity. 1 logs every sample, 2 adds parse details.")
}

func newLogger() (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	// logr V(n) maps to zap level -n
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))

	return zapConfig.Build()
}

func main() {
	flag.Parse()

	zapLog, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLog.Sync() }()
	logger := zapr.NewLogger(zapLog)
	setupLog = logger.WithName("setup")
	config.SetLogger(logger.WithName("config"))

	collectionConfig, err := config.Load(configPath)
	if err != nil {
		setupLog.Error(err, "unable to load configuration")
		os.Exit(1)
	}
	config.ApplyEnvironment(&collectionConfig)

	status, err := serverstatus.New(serverstatus.Options{
		Config: collectionConfig,
		Logger: logger,
	})
	if err != nil {
		setupLog.Error(err, "unable to create server status")
		os.Exit(1)
	}
	for metricType, reason := range status.Unavailable() {
		setupLog.Info("metric source unavailable, values will be missing until it appears",
			"metric_type", metricType, "reason", reason)
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(exporter.NewCollector(status, logger)); err != nil {
		setupLog.Error(err, "unable to register metrics collector")
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(zapLog),
	}))
	server := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			setupLog.Error(err, "error shutting down metrics server")
		}
	}()

	setupLog.Info("serving metrics", "address", metricsAddr, "host_proc", collectionConfig.HostProcPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		setupLog.Error(err, "metrics server failed")
		os.Exit(1)
	}
	setupLog.Info("shut down")
}
