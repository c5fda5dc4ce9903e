package extractor

import (
	"bytes"
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"resume-intake-go/internal/logger"
	"resume-intake-go/internal/types"
)

// pdfDecodeTimeout 单个PDF的解码超时
const pdfDecodeTimeout = 30 * time.Second

// PDFExtractor 使用 Eino PDF Parser 提取文本
type PDFExtractor struct {
	parser *pdf.PDFParser
}

// NewPDFExtractor 初始化PDF文本提取器
// ToPages设为false以获取整个文档的连续文本
func NewPDFExtractor(ctx context.Context) (*PDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, err
	}
	return &PDFExtractor{parser: p}, nil
}

// Extract 从PDF字节中提取纯文本
// 解码抛错、结果过短、或结果以PDF容器签名开头时均返回*ExtractionError
func (e *PDFExtractor) Extract(ctx context.Context, doc *types.RawDocument) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, pdfDecodeTimeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(doc.Data),
		einoParser.WithURI(doc.Filename),
	)
	if err != nil {
		return "", &ExtractionError{Reason: "PDF解码失败", Err: err}
	}
	if len(docs) == 0 {
		return "", &ExtractionError{Reason: "PDF解码无结果"}
	}

	// 合并所有文档内容（解析器偶尔会返回多个）
	var buf bytes.Buffer
	for _, d := range docs {
		buf.WriteString(d.Content)
	}

	text, err := validateExtractedText(buf.String())
	if err != nil {
		return "", err
	}

	logger.Debug().
		Str("filename", doc.Filename).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(startTime)).
		Msg("PDF文本提取完成")
	return text, nil
}
