package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resume-intake-go/internal/config"
	"resume-intake-go/internal/storage/models"
	"resume-intake-go/internal/types"
	"resume-intake-go/pkg/utils"
)

// MySQL 关系型存储适配器
type MySQL struct {
	db *gorm.DB
}

// NewMySQL 创建MySQL连接并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.ConnectTimeoutSeconds)

	logLevel := gormlogger.LogLevel(cfg.LogLevel)
	if logLevel < gormlogger.Silent || logLevel > gormlogger.Info {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层sql.DB失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := db.AutoMigrate(&models.Candidate{}, &models.ResumeSubmission{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}

	return &MySQL{db: db}, nil
}

// DB 暴露底层gorm.DB
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭连接池
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveExtractedCandidate 在一个事务里落库候选人记录和提交快照
// 管线本身不持有任何数据库连接，持久化只发生在编排器返回最终结果之后
func (m *MySQL) SaveExtractedCandidate(ctx context.Context, submission *models.ResumeSubmission, record *types.CandidateRecord) (string, error) {
	candidateUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成候选人UUID失败: %w", err)
	}
	candidateID := candidateUUID.String()

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := models.Candidate{
			CandidateID:    candidateID,
			FullName:       record.FullName,
			Email:          record.Email,
			Phone:          record.Phone,
			SkillsJSON:     utils.ToJSON(record.Skills),
			ExperienceJSON: utils.ToJSON(record.Experience),
			EducationJSON:  utils.ToJSON(record.Education),
		}
		if err := tx.Create(&candidate).Error; err != nil {
			return fmt.Errorf("写入候选人记录失败: %w", err)
		}

		submission.CandidateID = utils.StringPtr(candidateID)
		if err := tx.Create(submission).Error; err != nil {
			return fmt.Errorf("写入提交快照失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return candidateID, nil
}

// SaveFailedSubmission 记录一次失败的提交快照，不关联候选人
// 提取失败的上传也要留痕，便于排查扫描件、加密文档的占比
func (m *MySQL) SaveFailedSubmission(ctx context.Context, submission *models.ResumeSubmission) error {
	if err := m.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("写入失败提交快照失败: %w", err)
	}
	return nil
}

// GetSubmission 按UUID查询提交快照（带候选人）
func (m *MySQL) GetSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error) {
	var submission models.ResumeSubmission
	err := m.db.WithContext(ctx).
		Preload("Candidate").
		Where("submission_uuid = ?", submissionUUID).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}
