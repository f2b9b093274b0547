package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Delta200513/InvestBuy/internal/adapter/httpapi"
	"github.com/Delta200513/InvestBuy/internal/adapter/quotes"
	"github.com/Delta200513/InvestBuy/internal/adapter/repository/memory"
	"github.com/Delta200513/InvestBuy/internal/adapter/repository/postgres"
	"github.com/Delta200513/InvestBuy/internal/config"
	"github.com/Delta200513/InvestBuy/internal/domain"
	"github.com/Delta200513/InvestBuy/internal/usecase/dashboard"
	"github.com/Delta200513/InvestBuy/internal/usecase/ledger"
	"github.com/Delta200513/InvestBuy/internal/usecase/recorder"
	"github.com/Delta200513/InvestBuy/internal/usecase/registration"
	"github.com/Delta200513/InvestBuy/internal/usecase/seeder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := setupLogger(cfg)

	// 1. Storage: Postgres in production, in-memory in dev mode.
	var (
		ledgerStore     domain.LedgerStore
		transactionRepo domain.TransactionRepository
		counter         httpapi.AccountCounter
	)
	if cfg.DevMode {
		store := memory.NewStore()
		ledgerStore = store
		transactionRepo = store
		counter = store
		log.Info().Msg("Using in-memory store")

		demoSeeder := seeder.NewDemoSeeder(store, cfg.StartingBalance, log)
		if err := demoSeeder.Seed(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo account")
		}
	} else {
		db, err := postgres.NewDB(cfg.DBConnStr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		accountRepo := postgres.NewAccountRepository(db)
		ledgerStore = accountRepo
		transactionRepo = postgres.NewTransactionRepository(db)
		counter = accountRepo
		log.Info().Msg("Connected to Postgres")
	}

	// 2. Quote source, wrapped in the TTL cache either way.
	var upstream domain.QuoteSource
	switch cfg.QuoteSource {
	case "twelvedata":
		upstream = quotes.NewTwelveData(cfg.TwelveDataAPIKey, "", supportedSymbols(), log)
	default:
		upstream = quotes.NewSynthetic(time.Now().UnixNano())
	}
	quoteCache := quotes.NewCache(upstream, cfg.QuoteCacheTTL, log)

	// 3. Services.
	recorderService := recorder.NewService(transactionRepo, log)
	ledgerService := ledger.NewService(ledgerStore, recorderService, log)
	registrationService := registration.NewService(ledgerStore, cfg.StartingBalance, log)
	dashboardService := dashboard.NewService(ledgerService, quoteCache, log)

	// 4. HTTP server.
	server := httpapi.New(httpapi.Config{
		Log:          log,
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		APIToken:     cfg.APIToken,
		Registration: registrationService,
		Ledger:       ledgerService,
		Recorder:     recorderService,
		Dashboard:    dashboardService,
		Quotes:       quoteCache,
		Counter:      counter,
	})

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	waitForShutdown(server, log)
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.DevMode {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return log
}

// supportedSymbols returns the tradable universe in stable order.
func supportedSymbols() []string {
	symbols := quotes.SupportedSymbols()
	sort.Strings(symbols)
	return symbols
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *httpapi.Server, log zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
