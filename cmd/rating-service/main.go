package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang-stock-rater/internal/entity"
	"golang-stock-rater/internal/rater/config"
	"golang-stock-rater/internal/rater/repository"
	"golang-stock-rater/internal/rater/service"
	"golang-stock-rater/pkg/logger"
	"golang-stock-rater/pkg/postgres"
	"golang-stock-rater/pkg/telegram"
	"golang-stock-rater/pkg/utils"

	"google.golang.org/genai"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	symbolsArg string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one batch rating over the configured stock list",
	Run:   runBatch,
}

func runBatch(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Rating Service", zap.String("name", cfg.App.Name))

	symbols := parseSymbols(symbolsArg, cfg.Rater.StockList)
	if len(symbols) == 0 {
		appLogger.Fatal("No stocks requested; set rater.stock_list or pass --symbols")
	}

	// Initialize AI provider
	var aiRepo repository.AIRepository
	switch cfg.AI.Provider {
	case "ollama":
		aiRepo = repository.NewOllamaAIRepository(cfg, appLogger)
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
		}
		repo, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI repository", zap.Error(err))
		}
		aiRepo = repo
	default:
		appLogger.Fatal("Invalid AI provider specified in config", zap.String("provider", cfg.AI.Provider))
	}

	// Initialize optional rating history storage
	var historyRepo repository.StockRatingRepository
	if cfg.Database.Enabled {
		postgresCfg := postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}
		db, err := postgres.NewDB(postgresCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize database", zap.Error(err))
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := db.DB.AutoMigrate(&entity.StockRating{}); err != nil {
			appLogger.Fatal("Failed to migrate rating history table", zap.Error(err))
		}
		historyRepo = repository.NewStockRatingRepository(db.DB)
	}

	// Initialize optional Telegram notifier
	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	quoteRepo := repository.NewQuoteRepository(cfg, appLogger)
	reportRepo := repository.NewFileReportRepository(cfg, appLogger)
	scorer := service.NewScorer(cfg, appLogger, aiRepo)
	batchSvc := service.NewBatchRaterService(cfg, appLogger, scorer, reportRepo, historyRepo, notifier)

	appLogger.Info("Fetching quotes", zap.Int("requested", len(symbols)))
	quotes, err := quoteRepo.GetQuotes(ctx, symbols)
	if err != nil {
		appLogger.Fatal("Failed to fetch quotes", zap.Error(err))
	}

	run, err := batchSvc.Run(ctx, symbols, quotes)
	if err != nil {
		if notifier != nil {
			msg := telegram.FormatErrorAlertMessage(utils.TimeNowWIB(), err.Error())
			if sendErr := notifier.SendMessage(msg); sendErr != nil {
				appLogger.Error("Failed to send error alert", zap.Error(sendErr))
			}
		}
		appLogger.Fatal("Rating run failed", zap.Error(err))
	}

	appLogger.Info("Rating service finished",
		zap.String("run_id", run.RunID),
		zap.Int("succeeded", run.Succeeded()),
		zap.Int("requested", len(run.Symbols)),
		zap.String("report", run.ReportPath),
	)
}

func parseSymbols(flagValue, configured string) []string {
	raw := flagValue
	if raw == "" {
		raw = configured
	}
	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func main() {
	rootCmd := &cobra.Command{Use: "rating-service"}

	runCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-rater.yaml", "Path to the configuration file")
	runCmd.Flags().StringVarP(&symbolsArg, "symbols", "s", "", "Comma-separated stock symbols (overrides config)")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing rating-service CLI: %s\n", err)
		os.Exit(1)
	}
}
