// gormtool\crud.go
package gormtool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 常量定义
const (
	CacheTTL = 5 * time.Minute
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// CRUDTool 数据库、缓存与日志的组合工具
type CRUDTool struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	Logger      Logger
	EnableLog   bool
	CacheTTL    time.Duration
}

// DatabaseStats 数据库统计信息结构体
type DatabaseStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxIdleClosed      int64         `json:"max_idle_closed"`
	MaxLifetimeClosed  int64         `json:"max_lifetime_closed"`
}

// NewCRUDTool 创建新的 CRUD 工具，redisClient 为 nil 时不使用缓存
func NewCRUDTool(db *gorm.DB, redisClient *redis.Client, logger Logger) *CRUDTool {
	if logger == nil {
		logger = NewZapLogger(nil)
	}

	return &CRUDTool{
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
		EnableLog:   true,
		CacheTTL:    CacheTTL,
	}
}

// LogOperation 记录操作日志
//
//	t.LogOperation(ctx, "delete_by_type", &models.ProfileWithType{}, time.Since(start), err, map[string]interface{}{
//		"profile_id": id,
//	})
func (t *CRUDTool) LogOperation(ctx context.Context, operation string, model interface{}, duration time.Duration, err error, additionalFields map[string]interface{}) {
	if !t.EnableLog {
		return
	}

	fields := map[string]interface{}{
		"operation": operation,
		"duration":  duration.String(),
	}
	// 模型实现了 TableName 时记录表名
	switch m := model.(type) {
	case nil:
	case interface{ TableName() string }:
		fields["table"] = m.TableName()
	default:
		fields["model"] = fmt.Sprintf("%T", model)
	}

	if err != nil {
		fields["error"] = err.Error()
	}

	for k, v := range additionalFields {
		fields[k] = v
	}

	if err != nil {
		t.Logger.Error(ctx, "operation failed", fields)
	} else {
		t.Logger.Debug(ctx, "operation succeeded", fields)
	}
}

// 事务相关方法
type TxFunc func(tx *gorm.DB) error

// WithTransaction 执行事务
func (t *CRUDTool) WithTransaction(ctx context.Context, fn TxFunc) error {
	start := time.Now()
	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
	t.LogOperation(ctx, "transaction", nil, time.Since(start), err, nil)
	return err
}

// 缓存相关方法
func (t *CRUDTool) GenerateCacheKey(model interface{}, id interface{}) string {
	return fmt.Sprintf("%T:%v", model, id)
}

func (t *CRUDTool) GetFromCache(ctx context.Context, key string, result interface{}) bool {
	if t.RedisClient == nil {
		return false
	}

	data, err := t.RedisClient.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.Logger.Warn(ctx, "cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return false
	}

	return true
}

func (t *CRUDTool) SetToCache(ctx context.Context, key string, data interface{}) error {
	if t.RedisClient == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return t.RedisClient.Set(ctx, key, jsonData, t.CacheTTL).Err()
}

func (t *CRUDTool) DeleteFromCache(ctx context.Context, keys ...string) error {
	if t.RedisClient == nil || len(keys) == 0 {
		return nil
	}

	return t.RedisClient.Del(ctx, keys...).Err()
}

// CacheStats 资料列表缓存的配置
type CacheStats struct {
	Enabled bool   `json:"enabled"`
	TTL     string `json:"ttl"`
}

// GetMetrics 获取资料库连接池、列表缓存与 Redis 统计信息
func (t *CRUDTool) GetMetrics(c *gin.Context) {
	metrics := gin.H{
		"cache": CacheStats{Enabled: t.RedisClient != nil, TTL: t.CacheTTL.String()},
	}

	// 获取数据库统计信息
	if sqlDB, err := t.DB.DB(); err == nil {
		stats := sqlDB.Stats()
		metrics["database"] = DatabaseStats{
			MaxOpenConnections: stats.MaxOpenConnections,
			OpenConnections:    stats.OpenConnections,
			InUse:              stats.InUse,
			Idle:               stats.Idle,
			WaitCount:          stats.WaitCount,
			WaitDuration:       stats.WaitDuration,
			MaxIdleClosed:      stats.MaxIdleClosed,
			MaxLifetimeClosed:  stats.MaxLifetimeClosed,
		}
	} else {
		metrics["database"] = "无法获取资料库连接池信息: " + err.Error()
	}

	metrics["redis"] = t.getRedisStats(c.Request.Context())

	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "资料库与缓存指标获取成功",
		Data:    metrics,
	})
}

// getRedisStats 获取 Redis 统计信息
func (t *CRUDTool) getRedisStats(ctx context.Context) interface{} {
	if t.RedisClient == nil {
		return "Redis 未配置，资料列表直接读库"
	}

	info, err := t.RedisClient.Info(ctx).Result()
	if err != nil {
		return "无法获取 Redis 信息: " + err.Error()
	}

	// 解析 Redis 信息为更结构化的格式
	redisStats := make(map[string]string)
	lines := strings.Split(info, "\r\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			redisStats[parts[0]] = parts[1]
		}
	}

	return redisStats
}
