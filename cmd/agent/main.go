package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dharmateja03/GoodTurkey/internal/agent/client"
	"github.com/dharmateja03/GoodTurkey/internal/agent/config"
	"github.com/dharmateja03/GoodTurkey/internal/agent/enforcer"
	"github.com/dharmateja03/GoodTurkey/internal/agent/server"
	"github.com/dharmateja03/GoodTurkey/internal/agent/store"
	"github.com/dharmateja03/GoodTurkey/internal/agent/syncer"
	"github.com/dharmateja03/GoodTurkey/pkg/clock"
)

const requestTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		once     bool
		checkURL string
	)

	flagSet := pflag.NewFlagSet("goodturkey-agent", pflag.ContinueOnError)
	flagSet.BoolVar(&once, "once", false, "sync once and exit")
	flagSet.StringVar(&checkURL, "check", "", "decide URL against the cached rules, print the verdict and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	clk := clock.InLocation{Clock: clock.RealClock{}, Location: cfg.Location()}
	api := client.New(cfg.ServerURL, cfg.Token, requestTimeout)

	enf, err := enforcer.New(clk, st, api, cfg.CacheSize, logger)
	if err != nil {
		return err
	}
	defer enf.Wait()

	ruleSync := syncer.New(api, st, enf, clk, logger, cfg.SyncInterval)
	n, err := ruleSync.Restore()
	if err != nil {
		logger.Warn("ignoring cached rules", slog.Any("error", err))
	} else {
		logger.Info("cached rules restored", slog.Int("rules", n))
	}

	switch {
	case once:
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := ruleSync.SyncNow(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		return printJSON(res)

	case checkURL != "":
		res, err := enf.Check(checkURL)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	return serve(cfg, logger, enf, ruleSync, st, clk)
}

func serve(cfg *config.Config, logger *slog.Logger, enf *enforcer.Enforcer, ruleSync *syncer.Syncer, st *store.Store, clk clock.Clock) error {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(enf, ruleSync, st, clk, cfg.StaleAfter, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ruleSync.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("agent listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		ruleSync.Stop()
		return fmt.Errorf("local api: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("local api shutdown error", slog.Any("error", err))
	}
	ruleSync.Stop()

	logger.Info("agent stopped")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `goodturkey-agent enforces blocking rules on this machine.

With no flags it restores the cached rules, syncs them from the server
every GOODTURKEY_SYNC_INTERVAL and serves the local API on
GOODTURKEY_LISTEN_ADDR.

Usage:
  goodturkey-agent [flags]

Flags:
%s`, flagSet.FlagUsages())
}
