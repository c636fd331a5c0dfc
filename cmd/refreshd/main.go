package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apirefresh "filingsync/pkg/api/refresh"
	"filingsync/pkg/core/config"
	"filingsync/pkg/core/edgar"
	"filingsync/pkg/core/fetch"
	"filingsync/pkg/core/freshness"
	"filingsync/pkg/core/market"
	"filingsync/pkg/core/refresh"
	"filingsync/pkg/core/store"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := log.WithContext(context.Background())

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	fetcher := fetch.NewClient(
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		fetch.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), cfg.Fetch.Burst)),
		fetch.WithConcurrency(cfg.Fetch.MaxConcurrency),
		fetch.WithUserAgent(cfg.UserAgent),
	)

	edgarClient := edgar.NewClient(fetcher)
	quoteClient := market.NewClient(fetcher, cfg.Market.BaseURL, market.StaticToken(os.Getenv("MARKET_API_TOKEN")))

	companyRepo := store.NewCompanyRepo(pool)
	filingRepo := store.NewFilingRepo(pool)
	marketRepo := store.NewMarketRepo(pool)
	ratioRepo := store.NewRatioRepo(pool)
	statusRepo := store.NewStatusRepo(pool)

	evaluator := freshness.NewEvaluator(
		marketRepo, filingRepo, ratioRepo, companyRepo, edgarClient,
		cfg.Freshness.MarketMaxAgeDays, cfg.Freshness.RatiosMaxAgeDays,
	)

	orchestrator := refresh.NewOrchestrator(refresh.Deps{
		Edgar:             edgarClient,
		Quotes:            quoteClient,
		Companies:         companyRepo,
		Filings:           filingRepo,
		Market:            marketRepo,
		Ratios:            ratioRepo,
		Status:            statusRepo,
		Freshness:         evaluator,
		MarketWorkers:     cfg.Workers.Market,
		FinancialsWorkers: cfg.Workers.Financials,
		RetryAttempts:     cfg.Retry.Attempts,
		RetryBackoff:      cfg.Backoff(),
	})

	mux := http.NewServeMux()
	apirefresh.NewHandler(orchestrator, evaluator, statusRepo, log).Register(mux)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // refresh runs are synchronous
	}

	log.Info().Str("addr", cfg.ListenAddr).Msg("refresh server listening")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
