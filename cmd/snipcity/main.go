// Package main is the entry point for the SnipCity terminal client.
//
// main stays minimal. Its job is to:
//  1. Read configuration (.env and environment variables)
//  2. Create dependencies (logger, session store, API client, sign-in service)
//  3. Start the REPL
//
// All actual logic lives in the internal packages.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/browser"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/auth"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/cli"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/config"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/listsync"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/session"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/snippets"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Logs go to stderr so they never interleave with REPL output on stdout.
	// The default level is warn; LOG_LEVEL=debug shows every API request.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// pkg/browser echoes the launcher's output by default.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	// === 3. SESSION STORE ===
	store, err := session.New(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open session store",
			slog.String("path", cfg.DBPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer store.Close()

	// === 4. API CLIENT AND LIST ===
	client, err := snippets.NewClient(cfg.APIBaseURL, store, snippets.Options{
		PageLimit: cfg.PageLimit,
		Timeout:   cfg.HTTPTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to create API client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	list := listsync.New(client, model.ScopeAll, logger)

	// === 5. SIGN-IN ===
	authSvc := auth.NewService(store, auth.ServiceConfig{
		WebBaseURL:   cfg.WebBaseURL,
		CallbackAddr: cfg.CallbackAddr,
		Timeout:      cfg.SignInTimeout,
	}, browser.OpenURL, logger)

	// === 6. RUN ===
	app := cli.NewApp(cli.Deps{
		Sync:       list,
		API:        client,
		Auth:       authSvc,
		WebBaseURL: cfg.WebBaseURL,
		In:         os.Stdin,
		Out:        os.Stdout,
		Logger:     logger,
	})

	logger.Debug("starting",
		slog.String("api", cfg.APIBaseURL),
		slog.String("web", cfg.WebBaseURL),
		slog.Int("pageLimit", cfg.PageLimit),
	)

	if err := app.Run(context.Background()); err != nil {
		logger.Error("reading input", slog.String("error", err.Error()))
		store.Close()
		os.Exit(1)
	}
}
