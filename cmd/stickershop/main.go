package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/stickershop/internal/coinbase"
	"github.com/wellywell/stickershop/internal/config"
	"github.com/wellywell/stickershop/internal/db"
	"github.com/wellywell/stickershop/internal/evm"
	"github.com/wellywell/stickershop/internal/handlers"
	"github.com/wellywell/stickershop/internal/metrics"
	"github.com/wellywell/stickershop/internal/notify"
	"github.com/wellywell/stickershop/internal/order"
	"github.com/wellywell/stickershop/internal/payment"
	"github.com/wellywell/stickershop/internal/poller"
	"github.com/wellywell/stickershop/internal/router"
	"github.com/wellywell/stickershop/internal/telegram"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func setupLogging(conf *config.ServerConfig) {
	level, err := logger.ParseLevel(conf.LogLevel)
	if err != nil {
		logger.Warningf("Unknown log level %q, using info", conf.LogLevel)
		level = logger.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stdout)
	if conf.LogJSON {
		logger.SetFormatter(&logger.JSONFormatter{})
	}
}

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		panic(err)
	}
	setupLogging(conf)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDatabase(conf.DatabaseDSN)
	if err != nil {
		panic(err)
	}
	defer database.Close()

	ledger := order.NewLedger(database)

	var bot *telegram.Client
	var sender notify.Sender
	if conf.TelegramEnabled() {
		bot = telegram.NewClient(conf.TelegramAPIURL, conf.TelegramBotToken)
		sender = bot
	} else {
		logger.Info("Telegram notifications disabled")
	}
	dispatcher := notify.NewDispatcher(sender, conf.TelegramDefaultChatID, conf.TelegramNotifyDebug)

	var charges payment.ChargeCreator
	if conf.CheckoutEnabled() {
		charges = coinbase.NewClient(conf.CoinbaseAPIURL, conf.CoinbaseAPIKey)
	} else {
		logger.Info("Coinbase checkout disabled")
	}
	if !conf.WebhookEnabled() {
		logger.Warning("Coinbase webhook secret not set, webhooks will be refused")
	}
	if !conf.AdminEnabled() {
		logger.Warning("AUTH_SECRET or ADMIN_PASSWORD_HASH not set, admin routes disabled")
	}

	var verifier payment.TxVerifier
	if conf.EVMEnabled() {
		chain, err := evm.Dial(ctx, conf.EVMRPCURL, conf.EVMChainID)
		if err != nil {
			logger.Errorf("On-chain payments disabled: %v", err)
		} else {
			defer chain.Close()
			v, err := evm.NewVerifier(chain, evm.Config{
				TokenAddress: conf.EVMTokenAddress,
				Merchant:     conf.MerchantAddress,
				Decimals:     conf.EVMTokenDecimals,
			})
			if err != nil {
				logger.Errorf("On-chain payments disabled: %v", err)
			} else {
				verifier = v
			}
		}
	}

	service := payment.NewService(ledger, dispatcher, charges, conf.CoinbaseWebhookSecret, verifier)
	handlerSet := handlers.NewHandlerSet(conf, database, ledger, service, dispatcher)
	server := router.NewRouter(conf, handlerSet).Server()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Listening on %s", conf.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var identity *poller.Poller
	if conf.PollerEnabled() && bot != nil {
		identity = poller.NewPoller(bot, database, bot)
		if err := identity.Start(gCtx); err != nil {
			logger.Error(err)
		}
	}

	g.Go(func() error {
		<-gCtx.Done()
		if identity != nil {
			identity.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(err)
	}
	logger.Info("Stopped")
}
