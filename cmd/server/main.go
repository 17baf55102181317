package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/api"
	"github.com/Skufu/medidose/internal/config"
	"github.com/Skufu/medidose/internal/database"
	"github.com/Skufu/medidose/internal/ledger"
	"github.com/Skufu/medidose/internal/logger"
	"github.com/Skufu/medidose/internal/metrics"
	"github.com/Skufu/medidose/internal/model"
	"github.com/Skufu/medidose/internal/recommend"
	"github.com/Skufu/medidose/internal/scoring"
	"github.com/Skufu/medidose/internal/synthetic"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "medidose")
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logg.Sync()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	if cfg.WarmModels {
		go func() {
			start := time.Now()
			if err := a.models.Warm(ctx); err != nil {
				logg.Warn("model warm-up incomplete", zap.Error(err))
				return
			}
			logg.Info("models warmed", zap.Duration("took", time.Since(start)))
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// first use of a drug trains its model inside the request
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	logg.Info("server listening", zap.String("port", cfg.Port))
	waitForShutdown(server, logg)
}

// app is the wired service. Close releases the database and Redis clients.
type app struct {
	router  *gin.Engine
	models  *model.Registry
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*app, error) {
	a := &app{}

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		m = metrics.New(prometheus.NewRegistry())
	}

	var db api.HealthChecker
	var history recommend.History = recommend.NewMemoryHistory()
	if cfg.EnableDB {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		pg := recommend.NewPostgresHistory(pool)
		if err := pg.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		db, history = pool, pg
	}

	store, err := newModelStore(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	ages := scoring.DefaultAgePolicy()
	ages.YoungThreshold = cfg.YoungAgeThreshold
	ages.YoungFactor = cfg.YoungAgeFactor
	engine := scoring.NewDosageEngine(ages)
	scorer := scoring.NewDiseaseScorer()

	regCfg := model.DefaultRegistryConfig()
	regCfg.KeyPrefix = cfg.ModelKeyPrefix
	regCfg.Patients = cfg.SyntheticPatients
	regCfg.SymptomPatients = cfg.SymptomPatients
	regCfg.Seed = cfg.SyntheticSeed
	regCfg.Train.Epochs = cfg.TrainingEpochs
	regCfg.Train.Seed = cfg.SyntheticSeed
	regCfg.OnTraining = m.RecordTraining
	a.models = model.NewRegistry(store, engine, scorer, regCfg, logg)

	ledgerCfg := ledger.DefaultSimulatedConfig()
	ledgerCfg.Network = cfg.LedgerNetwork
	ledgerCfg.FailureRate = cfg.LedgerFailureRate
	ledgerCfg.SubmitDelay = cfg.LedgerSubmitDelay
	ledgerCfg.ConfirmDelay = cfg.LedgerConfirmDelay
	chain, err := ledger.NewSimulated(ledgerCfg, synthetic.NewRand(cfg.SyntheticSeed), logg)
	if err != nil {
		a.Close()
		return nil, err
	}

	predictor := recommend.NewFallback(
		recommend.NewLearned(a.models, engine),
		recommend.NewRuleBased(engine),
		logg.Named("predictor"),
	)
	assembler := recommend.NewAssembler(recommend.Deps{
		Predictor:     predictor,
		Engine:        engine,
		Scorer:        scorer,
		Diseases:      a.models,
		Ledger:        chain,
		History:       history,
		Metrics:       m,
		LedgerTimeout: cfg.LedgerTimeout,
	}, logg)

	handler := api.NewHandler(assembler, history, chain, logg.Named("api"))
	a.router = api.NewRouter(handler, db, api.RouterConfig{
		RateLimit: cfg.RateLimitRPS,
		Metrics:   m,
	}, logg.Named("http"))

	return a, nil
}

// newModelStore prefers Redis when REDIS_ADDR is set and falls back to the
// model directory otherwise.
func newModelStore(ctx context.Context, cfg *config.Config, a *app) (model.Store, error) {
	if cfg.RedisAddr == "" {
		return model.NewFileStore(cfg.ModelDir)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, func() { _ = client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return model.NewRedisStore(client, "", 0), nil
}

func waitForShutdown(server *http.Server, logg *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logg.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
}
