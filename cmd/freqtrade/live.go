package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kryofly/freqtrade/internal/api"
	"github.com/kryofly/freqtrade/internal/config"
	"github.com/kryofly/freqtrade/internal/engineerr"
	"github.com/kryofly/freqtrade/internal/exchange"
	"github.com/kryofly/freqtrade/internal/exchange/binance"
	"github.com/kryofly/freqtrade/internal/exchange/sim"
	"github.com/kryofly/freqtrade/internal/live"
	"github.com/kryofly/freqtrade/internal/metrics"
	"github.com/kryofly/freqtrade/internal/notify"
	"github.com/kryofly/freqtrade/internal/notify/fcm"
	"github.com/kryofly/freqtrade/internal/notify/telegram"
	"github.com/kryofly/freqtrade/internal/store"
	"github.com/kryofly/freqtrade/internal/store/memstore"
	"github.com/kryofly/freqtrade/internal/store/pgstore"
	"github.com/kryofly/freqtrade/internal/strategy"
)

// runLive wires the production collaborators and drives internal/live's
// tick loop until ctx is cancelled (spec.md §4.7).
func runLive(ctx context.Context, cfg *config.Config, strat strategy.Strategy, g *globalFlags) error {
	if !cfg.Engine.DryRun && !g.rekt {
		return engineerr.New(engineerr.ConfigInvalid, "runLive",
			fmt.Errorf("live (non-dry-run) trading requires --rekt"))
	}

	vopts := config.DefaultValidatorOptions()
	vopts.VerifyConnectivity = !cfg.Engine.DryRun || g.dryRunDB
	if err := config.NewValidator(cfg, vopts).ValidateStartup(ctx); err != nil {
		return fmt.Errorf("startup validation: %w", err)
	}

	exch := cfg.Exchanges["binance"]

	venue, err := buildVenue(cfg, exch)
	if err != nil {
		return err
	}

	st, closeStore, err := buildStore(ctx, cfg, g)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.GetRedisAddr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			log.Warn().Err(err).Msg("runLive: nats connect failed, app-state broadcast disabled")
			nc = nil
		} else {
			defer nc.Close()
		}
	}

	notif := notify.New(notify.LogSink{})
	if cfg.FCM.Enabled {
		fcmSink, err := fcm.New(ctx, cfg.FCM.CredentialsPath, cfg.FCM.DeviceTokens)
		if err != nil {
			log.Error().Err(err).Msg("runLive: fcm sink disabled")
		} else {
			notif.Add(fcmSink)
		}
	}

	initialState := live.StateRunning
	if cfg.Engine.InitialState == "stopped" {
		initialState = live.StateStopped
	}
	liveCfg := live.Config{
		Whitelist:         exch.PairWhitelist,
		DynamicTopN:       g.dynamicWhitelist,
		ProcessThrottle:   cfg.Engine.GetThrottle(),
		HistoryLimit:      100,
		WhitelistCacheTTL: 5 * time.Minute,
		InitialState:      initialState,
	}
	engine := live.New(liveCfg, venue, st, strat, notif, rdb, nc)

	if cfg.Telegram.Enabled {
		tgSink, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, engine)
		if err != nil {
			log.Error().Err(err).Msg("runLive: telegram sink disabled")
		} else {
			notif.Add(tgSink)
			go tgSink.ListenCommands(ctx)
		}
	}

	if cfg.Monitoring.EnableMetrics {
		metricsSrv := metrics.NewServer(cfg.Monitoring.PrometheusPort, log.Logger, engine)
		// Mirror the read-only status check on the metrics port too, so a
		// prober that only has network access to the metrics port (not
		// the CORS-enabled control API) can still poll engine state.
		metricsSrv.RegisterHandler("/control/status", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": engine.Status()})
		})
		if err := metricsSrv.Start(); err != nil {
			log.Error().Err(err).Msg("runLive: metrics server failed to start")
		} else {
			defer metricsSrv.Shutdown(context.Background())
		}
	}

	apiSrv := api.NewServer(cfg.API.Host, cfg.API.Port, engine)
	go func() {
		if err := apiSrv.Start(); err != nil {
			log.Error().Err(err).Msg("runLive: control api server failed")
		}
	}()
	defer apiSrv.Shutdown(context.Background())

	log.Info().Str("state", cfg.Engine.InitialState).Bool("dry_run", cfg.Engine.DryRun).Msg("starting live loop")
	return engine.Run(ctx)
}

func buildVenue(cfg *config.Config, exch config.ExchangeConfig) (exchange.Venue, error) {
	ratePerSec := 10.0
	if exch.RateLimitMS > 0 {
		ratePerSec = 1000.0 / float64(exch.RateLimitMS)
	}
	if cfg.Engine.DryRun {
		// Market data (ticker, candles, 24h summaries) comes from a real,
		// unauthenticated Binance feed so dry-run signals are evaluated
		// against live prices; order execution still fills in memory via
		// sim, never reaching a real account even with no credentials set.
		feed := binance.New(binance.Config{RatePerSec: ratePerSec, Burst: 5})
		v := sim.NewWithFeed(exch.Fees.Taker, exch.Fees.BaseSlippage, feed)
		v.SetMarkets(exch.PairWhitelist)
		return v, nil
	}
	return binance.New(binance.Config{
		APIKey:     exch.APIKey,
		APISecret:  exch.SecretKey,
		Fee:        exch.Fees.Taker,
		RatePerSec: ratePerSec,
		Burst:      5,
	}), nil
}

// buildStore picks a store.Store: a plain in-memory store for dry runs
// unless --dry-run-db asks for the persistent store anyway, and the
// persistent store unconditionally for live trading.
func buildStore(ctx context.Context, cfg *config.Config, g *globalFlags) (store.Store, func(), error) {
	if cfg.Engine.DryRun && !g.dryRunDB {
		return memstore.New(), func() {}, nil
	}
	st, err := pgstore.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open position store: %w", err)
	}
	return st, st.Close, nil
}
