package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

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
	modeFlag := flag.String("mode", string(refresh.ModeMarket), "refresh mode: market, financials, or ratios")
	forceFlag := flag.String("force", "", "comma-separated sources to force, bypassing freshness checks")
	flag.Parse()

	godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	mode, err := refresh.ParseMode(*modeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid mode")
	}
	var forced []string
	if *forceFlag != "" {
		forced = strings.Split(*forceFlag, ",")
	}

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

	result, err := orchestrator.Run(ctx, mode, forced)
	if err != nil {
		log.Fatal().Err(err).Msg("refresh failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result)
}
