package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/studieren/match_back/gormtool"
	"github.com/studieren/match_back/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound = errors.New("profile not found")
	ErrClosed   = errors.New("store closed")
)

// Store 本地关系型存储：profiles 与 profile_with_type 两张表
type Store struct {
	Tool     *gormtool.CRUDTool
	Profiles *ProfileDAO
	Typed    *ProfileWithTypeDAO

	notifier *Notifier
	logger   *zap.Logger

	// cacheMu 保证写缓存与失效互斥，gens 为每个类型的变更代数
	cacheMu sync.Mutex
	gens    map[models.ProfileType]uint64

	done      chan struct{}
	closeOnce sync.Once
	watchers  sync.WaitGroup
}

type Options struct {
	DSN      string
	Redis    *redis.Client
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Open 打开 sqlite 数据库并自动迁移
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(opts.DSN), &gorm.Config{
		Logger: gormtool.NewGormLogger(logger).LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", opts.DSN, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	// sqlite 单写者
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Profile{}, &models.ProfileWithType{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	tool := gormtool.NewCRUDTool(db, opts.Redis, gormtool.NewZapLogger(logger))
	if opts.CacheTTL > 0 {
		tool.CacheTTL = opts.CacheTTL
	}

	s := &Store{
		Tool:     tool,
		notifier: NewNotifier(),
		logger:   logger.Named("store"),
		gens:     make(map[models.ProfileType]uint64),
		done:     make(chan struct{}),
	}
	s.Profiles = &ProfileDAO{store: s}
	s.Typed = &ProfileWithTypeDAO{store: s}
	return s, nil
}

// Close 先停止所有订阅并等待其退出，再关闭数据库
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.watchers.Wait()

	sqlDB, err := s.Tool.DB.DB()
	if err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return sqlDB.Close()
}

// Changed 在写入提交后调用：清除缓存并通知订阅者
func (s *Store) Changed(ctx context.Context, profilesTable bool, types ...models.ProfileType) {
	topics := make([]string, 0, len(types)+1)
	keys := make([]string, 0, len(types))
	if profilesTable {
		topics = append(topics, topicProfiles)
	}
	for _, t := range types {
		topics = append(topics, typeTopic(t))
		keys = append(keys, s.typeCacheKey(t))
	}

	s.cacheMu.Lock()
	for _, t := range types {
		s.gens[t]++
	}
	if err := s.Tool.DeleteFromCache(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
	s.cacheMu.Unlock()

	s.notifier.publish(topics...)
}

func (s *Store) cacheGen(t models.ProfileType) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gens[t]
}

// fillCache 查询期间该类型发生过变更时不写缓存
func (s *Store) fillCache(ctx context.Context, t models.ProfileType, gen uint64, profiles []models.ProfileWithType) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.gens[t] != gen {
		return
	}
	key := s.typeCacheKey(t)
	if err := s.Tool.SetToCache(ctx, key, profiles); err != nil {
		s.Tool.Logger.Warn(ctx, "cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (s *Store) typeCacheKey(t models.ProfileType) string {
	return s.Tool.GenerateCacheKey(&models.ProfileWithType{}, t)
}

func (s *Store) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
