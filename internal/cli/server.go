package cli

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"duo-trivia-service/internal/config"
	"duo-trivia-service/internal/domain"
	"duo-trivia-service/internal/infra/memory"
	infrapg "duo-trivia-service/internal/infra/postgres"
	infraredis "duo-trivia-service/internal/infra/redis"
	"duo-trivia-service/internal/notify"
	"duo-trivia-service/internal/pairing"
	"duo-trivia-service/internal/scheduler"
	"duo-trivia-service/internal/scoring"
	"duo-trivia-service/internal/settlement"
	transport "duo-trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the pairing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	// Stores: Postgres when configured, in-memory otherwise (local runs).
	var (
		resultStore     scoring.ResultStore
		resultInserter  scoring.ResultInserter
		resultSource    pairing.ResultSource
		settlementStore settlement.Store
		contentSource   scoring.ContentSource
		wallet          transport.Wallet
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		repo := infrapg.NewResultRepository(db)
		resultStore, resultInserter, resultSource, settlementStore = repo, repo, repo, repo
		wallet = infrapg.NewLedger(db)

		loader := infrapg.NewSessionLoader(pool)
		if redisClient != nil {
			contentSource = infraredis.NewContentCache(redisClient, loader, redisTTL)
		} else {
			contentSource = loaderAdapter{loader}
		}
	} else {
		store := memory.NewStore()
		resultStore, resultInserter, resultSource, settlementStore = store, store, store, store
		wallet = store
		contentSource = memory.NewStaticContentStore(sampleSessions())
		logger.Warn("postgres not configured, using in-memory stores")
	}

	weights := scoring.Weights{
		QuestionsPerSession: config.Int(cfg.Scoring.QuestionsPerSession, 5),
		AnsweredWeight:      config.Float(cfg.Scoring.AnsweredWeight, 0.3),
		CorrectWeight:       config.Float(cfg.Scoring.CorrectWeight, 0.7),
		ModeratedLowest:     config.Float(cfg.Scoring.ModeratedLowest, 35),
		ModeratedHighest:    config.Float(cfg.Scoring.ModeratedHighest, 95),
		SubmissionBuffer:    config.Duration(cfg.Scoring.SubmissionBuffer, 30*time.Second),
	}
	scoringEngine := scoring.NewEngine(resultStore, contentSource, weights, logger)

	stake, err := decimal.NewFromString(cfg.Pairing.Stake)
	if err != nil || stake.IsZero() {
		stake = decimal.NewFromInt(100)
	}
	attempts := scoring.NewAttemptService(resultInserter, contentSource, scoring.AttemptConfig{
		Duration:   config.Duration(cfg.Scoring.SessionDuration, 2*time.Minute),
		ExitBuffer: config.Duration(cfg.Scoring.SubmissionBuffer, 30*time.Second),
		Stake:      stake,
	})

	ratios := settlement.Ratios{
		PartialRefund: decimal.NewFromFloat(config.Float(cfg.Pairing.PartialRefundRatio, 0.5)),
		Refund:        decimal.NewFromFloat(config.Float(cfg.Pairing.RefundRatio, 0.9)),
		Win:           decimal.NewFromFloat(config.Float(cfg.Pairing.WinRatio, 1.8)),
	}
	emitter := settlement.NewEmitter(settlementStore, notify.NewLogNotifier(logger), ratios, logger)

	var runLock pairing.RunLock
	if redisClient != nil {
		runLock = infraredis.NewRunLock(redisClient, config.Duration(cfg.Pairing.LockTTL, time.Minute))
	}
	engine := pairing.NewEngine(resultSource, emitter, runLock, pairing.Options{
		ReadinessLookahead: config.Duration(cfg.Pairing.ReadinessLookahead, 5*time.Minute),
		RepairWindow:       config.Duration(cfg.Pairing.RepairWindow, 2*time.Hour),
	}, logger)

	sched := scheduler.New(engine, logger)
	if err := sched.Register(cfg.Pairing.Categories, config.Duration(cfg.Pairing.Interval, 30*time.Second)); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	handler := transport.NewHandler(scoringEngine, attempts, engine, wallet, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting pairing service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loaderAdapter exposes a postgres session loader as a scoring.ContentSource
// when no redis cache sits in front of it.
type loaderAdapter struct {
	loader *infrapg.SessionLoader
}

func (a loaderAdapter) SessionContent(ctx context.Context, sessionID string) (domain.SessionContent, error) {
	return a.loader.LoadSessionContent(ctx, sessionID)
}

// sampleSessions seeds a minimal session for store-less local runs.
func sampleSessions() map[string]domain.SessionContent {
	return map[string]domain.SessionContent{
		"session-1": {
			ID:       "session-1",
			Category: "general",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Choices: []domain.Choice{
						{ID: "c1", Text: "3"},
						{ID: "c2", Text: "4"},
						{ID: "c3", Text: "5"},
					},
					AnswerChoiceID: "c2",
				},
			},
		},
	}
}
