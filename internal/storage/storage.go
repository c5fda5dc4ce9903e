package storage

import (
	"context"

	"resume-intake-go/internal/config"
	"resume-intake-go/internal/logger"
)

// Storage 聚合所有存储组件
// MySQL与MinIO为必需组件，初始化失败直接返回错误；
// Redis与RabbitMQ为可选组件，失败时降级（去重关闭、事件不发布）并继续启动
type Storage struct {
	MySQL    *MySQL
	MinIO    *MinIO
	Redis    *Redis
	RabbitMQ *RabbitMQ
}

// NewStorage 按配置初始化存储层
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	s := &Storage{}

	mysqlDB, err := NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, err
	}
	s.MySQL = mysqlDB
	logger.Info().Msg("MySQL初始化成功")

	minioClient, err := NewMinIO(ctx, &cfg.MinIO)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.MinIO = minioClient
	logger.Info().Msg("MinIO初始化成功")

	redisClient, err := NewRedisAdapter(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis初始化失败，MD5去重将被跳过")
	} else {
		s.Redis = redisClient
		logger.Info().Msg("Redis初始化成功")
	}

	rabbitMQ, err := NewRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		logger.Warn().Err(err).Msg("RabbitMQ初始化失败，候选人事件将不发布")
	} else {
		s.RabbitMQ = rabbitMQ
		logger.Info().Msg("RabbitMQ初始化成功")
	}

	return s, nil
}

// Close 关闭所有已初始化的组件
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL失败")
		}
	}
}
