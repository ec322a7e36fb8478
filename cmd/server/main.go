package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/tabtally/tally/internal/auth"
	"github.com/tabtally/tally/internal/config"
	"github.com/tabtally/tally/internal/server"
	"github.com/tabtally/tally/internal/service"
	"github.com/tabtally/tally/internal/storage/sqlite"
	"github.com/tabtally/tally/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	users := service.NewUserService(store)
	groups := service.NewGroupService(store)
	transactions := service.NewTransactionService(store)

	authenticator := auth.NewPasswordAuthenticator(store)
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenDuration)

	srv := server.New(users, groups, transactions, authenticator, tokens)

	slog.Info("server starting", "address", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
