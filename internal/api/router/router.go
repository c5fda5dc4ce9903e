package router

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-intake-go/internal/api/handler"
	"resume-intake-go/internal/config"
	"resume-intake-go/internal/logger"
	"resume-intake-go/internal/types"
)

// RegisterRoutes 注册API路由
// 配置了APIKey时，/api/v1下除健康检查外的所有路由都要求Bearer鉴权
func RegisterRoutes(h *server.Hertz, cfg *config.Config, resumeHandler *handler.ResumeHandler) {
	api := h.Group("/api/v1")

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	protected := api.Group("")
	if cfg.Server.APIKey != "" {
		protected.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
				return key == cfg.Server.APIKey, nil
			}),
			keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
				ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "无效的API密钥"})
				ctx.Abort()
			}),
		))
	}

	protected.POST("/resume/upload", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "缺少file表单字段"})
			return
		}

		maxBytes := int64(cfg.Server.MaxUploadSizeMB) * 1024 * 1024
		if maxBytes > 0 && fileHeader.Size > maxBytes {
			ctx.JSON(consts.StatusRequestEntityTooLarge, utils.H{
				"error": "文件超过大小限制",
			})
			return
		}

		mediaType := resolveMediaType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename)

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开上传文件失败"})
			return
		}
		defer file.Close()

		fileBytes, err := io.ReadAll(file)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取上传文件失败"})
			return
		}

		uploaderUserID := ctx.PostForm("uploader_user_id")

		resp, err := resumeHandler.HandleResumeUpload(c, fileBytes, fileHeader.Filename, mediaType, uploaderUserID)
		if err != nil {
			var uploadErr *handler.UploadError
			if errors.As(err, &uploadErr) {
				ctx.JSON(uploadErr.StatusCode, utils.H{"error": uploadErr.Message})
				return
			}
			logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("简历上传处理失败")
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "简历处理失败"})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	protected.GET("/resume/:submission_uuid", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("submission_uuid")
		includeText := ctx.Query("include_text") == "true"

		resp, err := resumeHandler.HandleResumeStatus(c, submissionUUID, includeText)
		if err != nil {
			var uploadErr *handler.UploadError
			if errors.As(err, &uploadErr) {
				ctx.JSON(uploadErr.StatusCode, utils.H{"error": uploadErr.Message})
				return
			}
			logger.Error().Err(err).Str("submission_uuid", submissionUUID).Msg("查询提交状态失败")
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询提交状态失败"})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})
}

// resolveMediaType 优先信任请求头的Content-Type，不可识别时按扩展名推断
func resolveMediaType(contentType, filename string) types.MediaType {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	mt := types.MediaType(strings.TrimSpace(contentType))
	if types.IsSupportedMediaType(mt) {
		return mt
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return types.MediaTypePDF
	case ".docx":
		return types.MediaTypeDOCX
	default:
		return mt
	}
}
