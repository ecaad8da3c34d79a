// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// jelly is a multi-thread chat backend for a local LLM runtime.
//
// It serves the browser frontend an HTTP/SSE API over a thread store, a
// session controller, and a streaming chat orchestrator backed by Ollama.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/jelly/internal/chat"
	"github.com/jeranaias/jelly/internal/config"
	"github.com/jeranaias/jelly/internal/i18n"
	"github.com/jeranaias/jelly/internal/logging"
	"github.com/jeranaias/jelly/internal/ollama"
	"github.com/jeranaias/jelly/internal/server"
	"github.com/jeranaias/jelly/internal/session"
	"github.com/jeranaias/jelly/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "jelly:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Localization: builtin table, optionally overridden from a TOML file.
	table := i18n.Builtin()
	if cfg.Locale.File != "" {
		if err := i18n.LoadFile(table, cfg.Locale.File); err != nil {
			logger.Warn("locale file load failed, using builtin table",
				zap.String("path", cfg.Locale.File),
				zap.Error(err))
		}
	}

	st := store.NewWithDir(cfg.Server.DataDir, logger.Named("store"))

	ctrl := session.NewController(st, table, logger.Named("session"))
	if err := ctrl.SetLanguage(cfg.Locale.Default); err != nil {
		logger.Warn("configured default language unknown, using builtin default",
			zap.String("language", cfg.Locale.Default))
	}
	if err := ctrl.SetModel(cfg.Chat.DefaultModel); err != nil {
		logger.Warn("configured default model unsupported, using builtin default",
			zap.String("model", cfg.Chat.DefaultModel))
	}

	oc := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		Timeout:      cfg.OllamaTimeout(),
		DefaultModel: cfg.Chat.DefaultModel,
		Logger:       logger.Named("ollama"),
	})

	orch := chat.NewOrchestrator(st, oc, logger.Named("chat"),
		chat.WithPersona(cfg.Chat.Persona),
		chat.WithContextWindow(cfg.Chat.ContextWindow),
		chat.WithTimeout(cfg.StreamTimeout()),
		chat.WithOptions(&ollama.Options{
			NumPredict:  cfg.Chat.NumPredict,
			Temperature: cfg.Chat.Temperature,
			TopP:        cfg.Chat.TopP,
		}))

	srv := server.New(server.Options{
		ListenAddr:     cfg.Server.ListenAddr,
		ShareHost:      cfg.Server.ShareHost,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}, st, ctrl, orch, table, oc, logger.Named("server"))

	// Startup probe is advisory: the app serves threads and session state
	// even when Ollama is down; generations soft-fail with Error: text.
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := oc.CheckRunning(probeCtx); err != nil {
		logger.Warn("ollama unreachable at startup", zap.Error(err))
	}
	cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Locale.File != "" && cfg.Locale.Watch {
		g.Go(func() error {
			return i18n.Watch(gctx, table, cfg.Locale.File, logger.Named("i18n"))
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
