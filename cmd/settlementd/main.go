package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TextToChain/settlement-lib/chainmanager"
	"github.com/TextToChain/settlement-lib/chains"
	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/TextToChain/settlement-lib/config"
	"github.com/TextToChain/settlement-lib/dbstore"
	"github.com/TextToChain/settlement-lib/fastchannel"
	"github.com/TextToChain/settlement-lib/notify"
	"github.com/TextToChain/settlement-lib/observability"
	"github.com/TextToChain/settlement-lib/orchestrator"
	"github.com/TextToChain/settlement-lib/quote"
	"github.com/TextToChain/settlement-lib/router"
	"github.com/TextToChain/settlement-lib/server"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := chainmanager.NewExecutorRegistry(chains.NewExecutorFactory(), logger)
	for i := range cfg.Chains {
		chain := cfg.Chains[i]
		if err := registry.Add(ctx, &chain); err != nil {
			logger.WithFields(logrus.Fields{
				"chain": chain.Name,
				"error": err,
			}).Fatal("Failed to initialize chain executor")
		}
		logger.WithFields(logrus.Fields{
			"chain":   chain.Name,
			"chainId": chain.ChainID,
		}).Info("Chain executor ready")
	}

	tokens := types.DefaultTokenRegistry()
	metrics := observability.NewMetrics()

	quotes := quote.NewClient(&quote.Config{
		BaseURL:    cfg.Aggregator.BaseURL,
		APIKey:     cfg.Aggregator.APIKey,
		Integrator: cfg.Aggregator.Integrator,
		Slippage:   cfg.Aggregator.Slippage,
	}, logger)

	channel := fastchannel.NewClient(&fastchannel.Config{
		BaseURL: cfg.FastChannel.BaseURL,
		Timeout: cfg.FastChannel.Timeout,
	}, logger)

	notifier := notify.NewDispatcher(&notify.Config{
		AccountSID: cfg.Notifier.AccountSID,
		AuthToken:  cfg.Notifier.AuthToken,
		FromNumber: cfg.Notifier.FromNumber,
		BaseURL:    cfg.Notifier.BaseURL,
		OnFailure:  metrics.ObserveNotificationFailure,
	}, logger)

	var store *dbstore.DBStore
	if cfg.DBConnStr != "" {
		store, err = dbstore.NewDBStore(cfg.DBConnStr)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize settlement journal")
		}
	}

	transferRouter := router.New(registry, quotes, channel, tokens, &router.Config{
		QuoteValidity: cfg.Aggregator.QuoteValidity,
	}, logger)

	orch := orchestrator.New(transferRouter, notifier, tokens, store, metrics, &orchestrator.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, logger)
	orch.Start(ctx)

	srv := server.New(orch, registry, quotes, tokens, metrics, &server.Config{
		Port:         cfg.Port,
		DefaultChain: cfg.Chains[0].ChainID,
	}, logger)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Error("Server stopped unexpectedly")
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down server cleanly")
	}

	cancel()
	orch.Stop()
}
