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

	"raffle/internal/blockchain"
	"raffle/internal/config"
	"raffle/internal/deploy"
	"raffle/internal/handlers"
	"raffle/internal/keeper"
	"raffle/internal/logger"
	"raffle/internal/raffle"
	"raffle/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("raffle: stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewSqliteStorage(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	payer, err := newPayer(cfg)
	if err != nil {
		return err
	}

	if cfg.Treasury != nil && cfg.TonAPIURL != "" {
		client, err := blockchain.NewClient(cfg.TonAPIURL, cfg.TonAPIToken)
		if err != nil {
			return err
		}

		balance, err := client.AccountBalance(ctx, *cfg.Treasury)
		if err != nil {
			return err
		}
		logger.Info("raffle: treasury balance", zap.String("address", cfg.Treasury.ToRaw()), zap.Uint64("balance", uint64(balance)))
	}

	lastRound, err := store.LastRound()
	if err != nil {
		return err
	}

	deployment, err := deploy.Deploy(ctx, cfg.Network, deploy.Options{Payer: payer, Round: lastRound + 1})
	if err != nil {
		return err
	}
	deployment.Raffle.Subscribe(storage.NewJournal(store))

	go keeper.New(deployment.Raffle, cfg.KeeperInterval).Run(ctx)
	if deployment.Mock != nil {
		go deployment.Mock.Run(ctx, cfg.OracleInterval)
	}

	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger())
	handlers.NewHTTPHandler(deployment.Raffle, store).RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.HTTPAddress,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("raffle: serving http", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err = <-errCh:
		logger.Error("raffle: http server failed", zap.Error(err))
	case <-waitForInterrupt():
		logger.Info("raffle: interrupt received, shutting down...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("raffle: http shutdown failed", zap.Error(shutdownErr))
	}

	logger.Info("raffle: shutting down... done")
	return err
}

func newPayer(cfg *config.Config) (raffle.Payer, error) {
	if cfg.Network.IsDevelopment() {
		logger.Info("raffle: development network, payouts go to the in-memory ledger")
		return blockchain.NewLedger(), nil
	}
	if cfg.WalletMnemonic == "" {
		logger.Warn("raffle: no wallet mnemonic configured, payouts go to the in-memory ledger")
		return blockchain.NewLedger(), nil
	}

	treasury, err := blockchain.NewWallet(cfg.WalletMnemonic, cfg.WalletVersion, cfg.Network.Testnet)
	if err != nil {
		return nil, err
	}
	return blockchain.NewWalletPayer(treasury, blockchain.DefaultConfirmationTimeout), nil
}

func waitForInterrupt() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh
}
