package handler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"

	"resume-intake-go/internal/config"
	"resume-intake-go/internal/constants"
	"resume-intake-go/internal/extractor"
	"resume-intake-go/internal/logger"
	"resume-intake-go/internal/pipeline"
	"resume-intake-go/internal/storage"
	"resume-intake-go/internal/storage/models"
	"resume-intake-go/internal/types"
	"resume-intake-go/pkg/utils"
)

// ObjectStore 对象存储依赖，生产环境由MinIO实现
type ObjectStore interface {
	UploadOriginal(ctx context.Context, submissionUUID, fileExt string, data []byte, contentType string) (string, error)
	UploadParsedText(ctx context.Context, submissionUUID, text string) (string, error)
	GetParsedText(ctx context.Context, objectName string) (string, error)
}

// DedupStore MD5去重依赖，生产环境由Redis实现
type DedupStore interface {
	CheckRawFileMD5Exists(ctx context.Context, md5Hex string) (bool, error)
	AddRawFileMD5(ctx context.Context, md5Hex string) error
	CheckParsedTextMD5Exists(ctx context.Context, md5Hex string) (bool, error)
	AddParsedTextMD5(ctx context.Context, md5Hex string) error
}

// CandidateStore 持久化依赖，生产环境由MySQL实现
type CandidateStore interface {
	SaveExtractedCandidate(ctx context.Context, submission *models.ResumeSubmission, record *types.CandidateRecord) (string, error)
	SaveFailedSubmission(ctx context.Context, submission *models.ResumeSubmission) error
	GetSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error)
}

// EventPublisher 事件发布依赖，生产环境由RabbitMQ实现
type EventPublisher interface {
	PublishCandidateExtracted(ctx context.Context, event *storage.CandidateExtractedEvent) error
}

// CandidateExtractor 提取管线依赖，生产环境由故障转移链实现
type CandidateExtractor interface {
	Extract(ctx context.Context, text string) (*pipeline.Outcome, error)
}

// ResumeHandler 简历上传处理器，串起整条提取流水线：
// 去重 -> 原始文件归档 -> 文本提取 -> 故障转移提取 -> 落库 -> 事件发布
type ResumeHandler struct {
	cfg           *config.Config
	textExtractor extractor.TextExtractor
	chain         CandidateExtractor

	objects    ObjectStore
	dedup      DedupStore
	candidates CandidateStore
	events     EventPublisher
}

// NewResumeHandler 创建简历处理器
// dedup和events允许为nil（对应Redis/RabbitMQ降级运行），其余依赖必须提供
func NewResumeHandler(
	cfg *config.Config,
	textExtractor extractor.TextExtractor,
	chain CandidateExtractor,
	objects ObjectStore,
	dedup DedupStore,
	candidates CandidateStore,
	events EventPublisher,
) *ResumeHandler {
	return &ResumeHandler{
		cfg:           cfg,
		textExtractor: textExtractor,
		chain:         chain,
		objects:       objects,
		dedup:         dedup,
		candidates:    candidates,
		events:        events,
	}
}

// ResumeUploadResponse 简历上传响应
type ResumeUploadResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	CandidateID    string `json:"candidate_id,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	Provider       string `json:"provider,omitempty"`
	UsedFallback   bool   `json:"used_fallback"`
	Status         string `json:"status"`
}

// UploadError 需要映射为特定HTTP状态码的业务错误
type UploadError struct {
	// 对外的错误说明
	Message string
	// 建议的HTTP状态码
	StatusCode int
	Err        error
}

func (e *UploadError) Error() string {
	return e.Message
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// HandleResumeUpload 处理一次简历上传
// 文件内容已由路由层读入内存（上传大小有上限，见路由层校验）
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, fileBytes []byte, filename string, mediaType types.MediaType, uploaderUserID string) (*ResumeUploadResponse, error) {
	if !types.IsSupportedMediaType(mediaType) {
		return nil, &UploadError{
			Message:    fmt.Sprintf("不支持的文件类型 %q，仅接受PDF与DOCX", mediaType),
			StatusCode: 415,
		}
	}

	// 1. 文件级去重。Redis不可用时跳过去重，不阻塞上传
	fileMD5Hex := utils.CalculateMD5(fileBytes)
	if h.dedup != nil {
		exists, err := h.dedup.CheckRawFileMD5Exists(ctx, fileMD5Hex)
		if err != nil {
			logger.Warn().Err(err).Str("md5", fileMD5Hex).Msg("查询文件MD5失败，跳过文件级去重")
		} else if exists {
			logger.Info().
				Str("md5", fileMD5Hex).
				Str("filename", filename).
				Msg("检测到重复文件，跳过处理")
			return &ResumeUploadResponse{Status: constants.StatusDuplicateSkipped}, nil
		}
	}

	// 2. 生成提交UUID并归档原始文件
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = extensionForMediaType(mediaType)
	}
	originalObjectKey, err := h.objects.UploadOriginal(ctx, submissionUUID, ext, fileBytes, string(mediaType))
	if err != nil {
		return nil, fmt.Errorf("归档原始简历失败: %w", err)
	}

	if h.dedup != nil {
		if err := h.dedup.AddRawFileMD5(ctx, fileMD5Hex); err != nil {
			// 去重记录写失败不阻塞流程，文本MD5是第二道防线
			logger.Warn().Err(err).Str("md5", fileMD5Hex).Msg("写入文件MD5失败")
		}
	}

	// 3. 文本提取。不可读文档是整个请求的致命错误
	text, err := h.textExtractor.Extract(ctx, &types.RawDocument{
		Data:      fileBytes,
		MediaType: mediaType,
		Filename:  filename,
	})
	if err != nil {
		var extErr *extractor.ExtractionError
		if errors.As(err, &extErr) {
			logger.Warn().
				Err(err).
				Str("submission_uuid", submissionUUID).
				Str("filename", filename).
				Msg("文档文本提取失败")
			// 失败也留痕，快照不关联候选人
			failedSubmission := &models.ResumeSubmission{
				SubmissionUUID:      submissionUUID,
				UploaderUserID:      uploaderUserID,
				OriginalFilename:    filename,
				FileSizeBytes:       int64(len(fileBytes)),
				MediaType:           string(mediaType),
				OriginalFilePathOSS: originalObjectKey,
				RawFileMD5:          fileMD5Hex,
				ProcessingStatus:    constants.StatusTextExtractionFailed,
				SubmissionTimestamp: time.Now(),
			}
			if saveErr := h.candidates.SaveFailedSubmission(ctx, failedSubmission); saveErr != nil {
				logger.Warn().Err(saveErr).Str("submission_uuid", submissionUUID).Msg("记录失败提交快照失败")
			}
			return nil, &UploadError{
				Message:    "无法读取该文件的文本内容，请确认文件不是扫描件或加密文档",
				StatusCode: 422,
				Err:        err,
			}
		}
		return nil, fmt.Errorf("提取简历文本失败: %w", err)
	}

	// 4. 文本级去重（同一份简历换个文件名再传也会被拦下）
	textMD5Hex := utils.CalculateMD5([]byte(text))
	if h.dedup != nil {
		textExists, err := h.dedup.CheckParsedTextMD5Exists(ctx, textMD5Hex)
		if err != nil {
			logger.Warn().Err(err).Str("md5", textMD5Hex).Msg("查询文本MD5失败，跳过文本级去重")
		} else if textExists {
			logger.Info().
				Str("md5", textMD5Hex).
				Str("submission_uuid", submissionUUID).
				Msg("检测到重复文本内容，跳过处理")
			return &ResumeUploadResponse{
				SubmissionUUID: submissionUUID,
				Status:         constants.StatusDuplicateSkipped,
			}, nil
		}
	}

	// 5. 故障转移提取。PreconditionError（文本过短）向上抛给调用方
	outcome, err := h.chain.Extract(ctx, text)
	if err != nil {
		var preErr *pipeline.PreconditionError
		if errors.As(err, &preErr) {
			return nil, &UploadError{
				Message:    "简历文本内容过短，无法进行结构化提取",
				StatusCode: 422,
				Err:        err,
			}
		}
		return nil, fmt.Errorf("提取候选人信息失败: %w", err)
	}

	// 6. 归档提取文本并补记文本MD5
	parsedObjectKey, err := h.objects.UploadParsedText(ctx, submissionUUID, text)
	if err != nil {
		return nil, fmt.Errorf("归档解析文本失败: %w", err)
	}
	if h.dedup != nil {
		if err := h.dedup.AddParsedTextMD5(ctx, textMD5Hex); err != nil {
			logger.Warn().Err(err).Str("md5", textMD5Hex).Msg("写入文本MD5失败")
		}
	}

	// 7. 落库：候选人记录与提交快照在同一事务里
	status := constants.StatusExtracted
	if outcome.UsedFallback {
		status = constants.StatusExtractedFallback
	}
	submission := &models.ResumeSubmission{
		SubmissionUUID:      submissionUUID,
		UploaderUserID:      uploaderUserID,
		OriginalFilename:    filename,
		FileSizeBytes:       int64(len(fileBytes)),
		MediaType:           string(mediaType),
		OriginalFilePathOSS: originalObjectKey,
		ParsedTextPathOSS:   parsedObjectKey,
		RawFileMD5:          fileMD5Hex,
		RawTextMD5:          textMD5Hex,
		ExtractorProvider:   outcome.Provider,
		UsedFallback:        outcome.UsedFallback,
		ProcessingStatus:    status,
		SubmissionTimestamp: time.Now(),
	}
	candidateID, err := h.candidates.SaveExtractedCandidate(ctx, submission, outcome.Record)
	if err != nil {
		return nil, fmt.Errorf("保存提取结果失败: %w", err)
	}

	// 8. 发布提取完成事件。发布失败不回滚已落库的数据
	if h.events != nil {
		event := &storage.CandidateExtractedEvent{
			SubmissionUUID:    submissionUUID,
			CandidateID:       candidateID,
			FullName:          outcome.Record.FullName,
			ExtractorProvider: outcome.Provider,
			UsedFallback:      outcome.UsedFallback,
			Timestamp:         time.Now(),
		}
		if err := h.events.PublishCandidateExtracted(ctx, event); err != nil {
			logger.Warn().
				Err(err).
				Str("submission_uuid", submissionUUID).
				Msg("发布候选人提取事件失败")
		}
	}

	logger.Info().
		Str("submission_uuid", submissionUUID).
		Str("candidate_id", candidateID).
		Str("provider", outcome.Provider).
		Bool("used_fallback", outcome.UsedFallback).
		Int("attempts", outcome.Attempts).
		Msg("简历处理完成")

	return &ResumeUploadResponse{
		SubmissionUUID: submissionUUID,
		CandidateID:    candidateID,
		FullName:       outcome.Record.FullName,
		Provider:       outcome.Provider,
		UsedFallback:   outcome.UsedFallback,
		Status:         status,
	}, nil
}

// ResumeStatusResponse 提交状态查询响应
type ResumeStatusResponse struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	ProcessingStatus    string    `json:"processing_status"`
	OriginalFilename    string    `json:"original_filename"`
	ExtractorProvider   string    `json:"extractor_provider,omitempty"`
	UsedFallback        bool      `json:"used_fallback"`
	CandidateID         string    `json:"candidate_id,omitempty"`
	FullName            string    `json:"full_name,omitempty"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	// 仅在请求方显式要求时附带提取文本
	ParsedText string `json:"parsed_text,omitempty"`
}

// HandleResumeStatus 按提交UUID查询处理状态
// includeText为true且该提交有归档文本时，从对象存储取回提取文本一并返回
func (h *ResumeHandler) HandleResumeStatus(ctx context.Context, submissionUUID string, includeText bool) (*ResumeStatusResponse, error) {
	submission, err := h.candidates.GetSubmission(ctx, submissionUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &UploadError{
				Message:    "找不到该提交记录",
				StatusCode: 404,
				Err:        err,
			}
		}
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}

	resp := &ResumeStatusResponse{
		SubmissionUUID:      submission.SubmissionUUID,
		ProcessingStatus:    submission.ProcessingStatus,
		OriginalFilename:    submission.OriginalFilename,
		ExtractorProvider:   submission.ExtractorProvider,
		UsedFallback:        submission.UsedFallback,
		SubmissionTimestamp: submission.SubmissionTimestamp,
	}
	if submission.CandidateID != nil {
		resp.CandidateID = *submission.CandidateID
	}
	if submission.Candidate != nil {
		resp.FullName = submission.Candidate.FullName
	}

	if includeText && submission.ParsedTextPathOSS != "" {
		text, err := h.objects.GetParsedText(ctx, submission.ParsedTextPathOSS)
		if err != nil {
			return nil, fmt.Errorf("读取归档文本失败: %w", err)
		}
		resp.ParsedText = text
	}

	return resp, nil
}

// extensionForMediaType 上传文件名缺少扩展名时按媒体类型补齐
func extensionForMediaType(mediaType types.MediaType) string {
	switch mediaType {
	case types.MediaTypePDF:
		return ".pdf"
	case types.MediaTypeDOCX:
		return ".docx"
	default:
		return ""
	}
}
