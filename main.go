package main

// ubuntu 后台执行的方法 nohup ./match_back > match_back.log 2>&1 &
import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/studieren/match_back/api"
	"github.com/studieren/match_back/cardstack"
	"github.com/studieren/match_back/config"
	"github.com/studieren/match_back/feed"
	"github.com/studieren/match_back/metrics"
	"github.com/studieren/match_back/repository"
	"github.com/studieren/match_back/seed"
	"github.com/studieren/match_back/store"
	"github.com/studieren/match_back/usecase"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// REDIS_ADDR 为空时不使用缓存
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, running without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	s, err := store.Open(store.Options{
		DSN:      cfg.DBDSN,
		Redis:    rdb,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Could not open store", zap.Error(err))
	}
	defer s.Close()

	m := metrics.New()

	// 新库在后台写入演示数据；已有数据的库每次启动都清空重写
	seeder := seed.New(s, logger).OnReseed(m.Reseeded)
	if err := seeder.Startup(ctx); err != nil {
		logger.Fatal("Could not seed demo profiles", zap.Error(err))
	}

	uc := usecase.New(repository.NewProfileRepository(s.Profiles, s.Typed, logger))
	feeds := feed.NewRegistry(
		feed.NewHome(uc, feed.WithLogger(logger), feed.WithRecorder(m)),
		feed.NewDaily(uc, feed.WithLogger(logger), feed.WithRecorder(m)),
	)
	if err := feeds.StartAll(ctx); err != nil {
		logger.Fatal("Could not start feeds", zap.Error(err))
	}

	cards := cardstack.DefaultOptions()
	cards.VisibleCount = cfg.CardVisibleCount
	cards.SwipeThreshold = cfg.CardSwipeThreshold
	cards.InfiniteLoop = cfg.CardInfinite
	if from, err := cardstack.ParseStackFrom(cfg.CardStackFrom); err == nil {
		cards.StackFrom = from
	} else {
		logger.Warn("Ignoring CARD_STACK_FROM", zap.Error(err))
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(&api.Handler{
			Feeds:    feeds,
			UseCases: uc,
			Seeder:   seeder,
			Tool:     s.Tool,
			Metrics:  m,
			Cards:    cards,
			Logger:   logger,
		}),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// graceful shutdown using os package
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Info("Shutdown signal received")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
