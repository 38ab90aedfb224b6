package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orbitlend-backend/internal/adapter/external/genai"
	"orbitlend-backend/internal/adapter/external/minting"
	"orbitlend-backend/internal/adapter/external/pinning"
	httpadp "orbitlend-backend/internal/adapter/http"
	"orbitlend-backend/internal/adapter/repository/gormrepo"
	"orbitlend-backend/internal/infrastructure/cache"
	"orbitlend-backend/internal/infrastructure/db"
	"orbitlend-backend/internal/notify"
	"orbitlend-backend/internal/usecase/approval"
	"orbitlend-backend/internal/usecase/chatbot"
	"orbitlend-backend/internal/usecase/loan"
	"orbitlend-backend/internal/usecase/marketplace"
	ucuser "orbitlend-backend/internal/usecase/user"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and notification stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err := db.Migrate(a.db); err != nil {
					return err
				}
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run schema migration before serving")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	tx := gormrepo.NewGormUoW(a.db)
	repos := tx.Repos()
	hub := notify.NewHub()

	minter := minting.New(minting.Config{
		BaseURL:         cfg.MintAPIURL,
		APIKey:          cfg.MintAPIKey,
		Chain:           cfg.MintChain,
		ContractAddress: cfg.MintContractAddr,
		Timeout:         cfg.ExternalTimeout,
	})
	pinner := pinning.New(pinning.Config{
		BaseURL:    cfg.PinAPIURL,
		JWT:        cfg.PinAPIJWT,
		GatewayURL: cfg.PinGatewayURL,
		Timeout:    cfg.ExternalTimeout,
	})

	var responses, history cache.KV
	switch cfg.ChatStore {
	case "redis":
		responses = cache.NewRedisKV(a.rdb, "chat:resp:", cfg.ChatCacheTTL)
		history = cache.NewRedisKV(a.rdb, "chat:hist:", 24*time.Hour)
	default:
		responses = cache.NewMemory(cfg.ChatCacheSize, cfg.ChatCacheTTL)
		history = cache.NewMemory(cfg.ChatCacheSize*10, 24*time.Hour)
	}
	var ai chatbot.Completer
	if cfg.GenAIKey != "" {
		ai = genai.New(genai.Config{BaseURL: cfg.GenAIURL, APIKey: cfg.GenAIKey, Model: cfg.GenAIModel, Temperature: 0.3, Timeout: cfg.ExternalTimeout})
	} else {
		a.log.Warn("GENAI_API_KEY not set, chatbot answers from the FAQ only")
	}

	authUC := a.authUsecase(cache.NewRedisKV(a.rdb, "nonce:", cfg.WalletNonceTTL))
	e := httpadp.NewRouter(httpadp.Deps{
		Logger:         a.log,
		Auth:           authUC,
		Users:          ucuser.NewUsecase(repos.Users, tx, pinner, hub),
		Loans:          loan.NewUsecase(repos.Loans, repos.Users, repos.NFTLoans, tx, hub),
		Approval:       approval.NewUsecase(repos, tx, minter, pinner, hub),
		Marketplace:    marketplace.NewUsecase(repos.NFTLoans, repos.Loans, minter),
		Chatbot:        chatbot.NewUsecase(ai, responses, history),
		WS:             notify.NewHandler(hub, authUC, cfg.WSOrigins),
		Redis:          a.rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Checks: map[string]httpadp.Check{
			"database": a.ping,
			"redis":    func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() },
		},
		CORSOrigins: cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", addr, "env", cfg.AppEnv, "db", cfg.DBDriver)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
