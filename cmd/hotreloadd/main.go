// Package main runs hotreloadd, the hot-reload compile server: it
// accepts HTTP requests to initialize a baseline index from a set of
// assembly contexts, compile changed source files into patch modules
// relative to that baseline, and clear accumulated state, serving
// results under /api.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hotreloadd/compileserver/internal/callgraph"
	"github.com/hotreloadd/compileserver/internal/config"
	"github.com/hotreloadd/compileserver/internal/events"
	"github.com/hotreloadd/compileserver/internal/obslog"
	"github.com/hotreloadd/compileserver/internal/patchcompile"
	"github.com/hotreloadd/compileserver/internal/pipeline"
	"github.com/hotreloadd/compileserver/internal/store"
	"github.com/hotreloadd/compileserver/internal/transport/httpapi"
)

// applyFlagOverrides layers command-line overrides onto a loaded
// config; flags only ever raise cfg.Dev, never lower it.
func applyFlagOverrides(cfg config.Server, listenAddr string, dev bool) config.Server {
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if dev {
		cfg.Dev = true
	}
	return cfg
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (defaults built in if empty)")
	listenAddr := flag.String("listen", "", "override the configured listen address")
	devFlag := flag.Bool("dev", false, "use a development-shaped console logger")
	toolPath := flag.String("compiler", "dotnet", "external compiler executable invoked for each patch compile")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hotreloadd: config:", err)
		os.Exit(1)
	}
	cfg = applyFlagOverrides(cfg, *listenAddr, *devFlag)

	logger, err := obslog.New(cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hotreloadd: logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	scopeFilters, err := config.LoadScopeFilters(cfg.ScopeFiltersPath)
	if err != nil {
		logger.Fatal("load scope filters", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.CacheRoot, 0o755); err != nil {
		logger.Fatal("prepare cache root", zap.Error(err))
	}

	housekeeper := store.NewHousekeeper(logger)
	if cfg.HousekeepingEvery.Duration > 0 {
		spec := fmt.Sprintf("@every %s", cfg.HousekeepingEvery.Duration)
		if err := housekeeper.Start(spec); err != nil {
			logger.Fatal("start housekeeper", zap.Error(err))
		}
		defer housekeeper.Stop()
	}

	newCompiler := func(projectPath string) patchcompile.Compiler {
		return patchcompile.ExecCompiler{
			ToolPath: *toolPath,
			ToolArgs: []string{"build"},
			WorkDir:  cfg.CacheRoot,
		}
	}

	srv := pipeline.NewServer(cfg.CacheRoot, callgraph.ScopeFilter(scopeFilters), newCompiler, logger)
	srv.Housekeeper = housekeeper
	srv.Emitter = events.Emitter{Sink: events.LoggingSink{Logger: logger}}

	api := &httpapi.Server{Pipeline: srv, Logger: logger, Timeout: cfg.CompileTimeout.Duration}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
