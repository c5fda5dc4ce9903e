package extractor

import (
	"context"
	"fmt"
	"strings"

	"resume-intake-go/internal/types"
)

// MinExtractedTextChars 提取文本的最小长度
// 低于该值的结果视为不可读文档（常见于扫描件），按提取失败处理
const MinExtractedTextChars = 50

// pdfSignature PDF容器签名。解码结果以它开头说明解码器吐回了原始字节而不是文本，
// 典型场景是没有文本层的扫描版PDF
const pdfSignature = "%PDF"

// ExtractionError 文档不可读/不可解码错误，是整个上传请求的致命错误
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("文档文本提取失败: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("文档文本提取失败: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// TextExtractor 文本提取器接口，将原始文档转换为纯文本
type TextExtractor interface {
	// Extract 从原始文档中提取纯文本，失败时返回*ExtractionError
	Extract(ctx context.Context, doc *types.RawDocument) (string, error)
}

// DocumentExtractor 按媒体类型分发到具体解码器
// 不支持的媒体类型应当在调用方被拒绝，这里只处理pdf与docx
type DocumentExtractor struct {
	pdf  *PDFExtractor
	docx *DOCXExtractor
}

// NewDocumentExtractor 创建文档提取器
func NewDocumentExtractor(ctx context.Context) (*DocumentExtractor, error) {
	pdfExtractor, err := NewPDFExtractor(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化PDF提取器失败: %w", err)
	}
	return &DocumentExtractor{
		pdf:  pdfExtractor,
		docx: NewDOCXExtractor(),
	}, nil
}

// Extract 实现TextExtractor接口
func (d *DocumentExtractor) Extract(ctx context.Context, doc *types.RawDocument) (string, error) {
	switch doc.MediaType {
	case types.MediaTypePDF:
		return d.pdf.Extract(ctx, doc)
	case types.MediaTypeDOCX:
		return d.docx.Extract(ctx, doc)
	default:
		return "", &ExtractionError{Reason: fmt.Sprintf("不支持的媒体类型 %q", doc.MediaType)}
	}
}

// validateExtractedText 对解码结果做可读性校验
// 返回trim后的文本；过短或疑似原始容器字节时返回*ExtractionError
func validateExtractedText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, pdfSignature) {
		return "", &ExtractionError{Reason: "解码结果为原始PDF字节，文档可能是无文本层的扫描件"}
	}
	if len(text) < MinExtractedTextChars {
		return "", &ExtractionError{Reason: fmt.Sprintf("提取文本过短(%d字符)，文档可能不含可读文本", len(text))}
	}
	return text, nil
}
