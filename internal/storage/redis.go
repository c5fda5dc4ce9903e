package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-intake-go/internal/config"
	"resume-intake-go/internal/constants"
)

// Redis 去重适配器
// 原始文件MD5与提取文本MD5各维护一个Set，重复上传在消耗任何提供商调用之前被拦下
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	// 挂OpenTelemetry钩子，span由全局provider决定是否采样
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("Redis tracing装配失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接Redis (%s) 失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, cfg: cfg}, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// md5ExpireDuration MD5记录的过期时间
func (r *Redis) md5ExpireDuration() time.Duration {
	days := r.cfg.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckRawFileMD5Exists 原始文件MD5是否已出现过
func (r *Redis) CheckRawFileMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	return r.Client.SIsMember(ctx, constants.RawFileMD5SetKey, md5Hex).Result()
}

// AddRawFileMD5 记录原始文件MD5，并刷新集合过期时间
func (r *Redis) AddRawFileMD5(ctx context.Context, md5Hex string) error {
	if err := r.Client.SAdd(ctx, constants.RawFileMD5SetKey, md5Hex).Err(); err != nil {
		return fmt.Errorf("写入文件MD5集合失败: %w", err)
	}
	return r.Client.Expire(ctx, constants.RawFileMD5SetKey, r.md5ExpireDuration()).Err()
}

// CheckParsedTextMD5Exists 提取文本MD5是否已出现过
func (r *Redis) CheckParsedTextMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	return r.Client.SIsMember(ctx, constants.ParsedTextMD5SetKey, md5Hex).Result()
}

// AddParsedTextMD5 记录提取文本MD5，并刷新集合过期时间
func (r *Redis) AddParsedTextMD5(ctx context.Context, md5Hex string) error {
	if err := r.Client.SAdd(ctx, constants.ParsedTextMD5SetKey, md5Hex).Err(); err != nil {
		return fmt.Errorf("写入文本MD5集合失败: %w", err)
	}
	return r.Client.Expire(ctx, constants.ParsedTextMD5SetKey, r.md5ExpireDuration()).Err()
}
