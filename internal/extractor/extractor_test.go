package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-intake-go/internal/types"
)

// buildDOCX 在内存里拼一个最小的docx容器
func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestValidateExtractedText(t *testing.T) {
	longText := strings.Repeat("简历内容 resume content. ", 10)

	t.Run("正常文本通过并被trim", func(t *testing.T) {
		got, err := validateExtractedText("  " + longText + "  ")
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(longText), got)
	})

	t.Run("PDF签名开头视为不可读文档", func(t *testing.T) {
		_, err := validateExtractedText("%PDF-1.7 " + longText)
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})

	t.Run("过短文本被拒绝", func(t *testing.T) {
		_, err := validateExtractedText("张三")
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})

	t.Run("刚好到达阈值的文本通过", func(t *testing.T) {
		text := strings.Repeat("a", MinExtractedTextChars)
		got, err := validateExtractedText(text)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	})

	t.Run("空白文本被拒绝", func(t *testing.T) {
		_, err := validateExtractedText("   \n\t  ")
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})
}

func TestDOCXExtractor(t *testing.T) {
	ctx := context.Background()
	e := NewDOCXExtractor()

	t.Run("提取段落文本", func(t *testing.T) {
		xmlBody := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>张伟 Zhang Wei</w:t></w:r></w:p>
    <w:p><w:r><w:t>资深后端工程师，十年Go与分布式系统经验，主导过多个大型微服务项目。</w:t></w:r></w:p>
  </w:body>
</w:document>`
		doc := &types.RawDocument{Data: buildDOCX(t, xmlBody), MediaType: types.MediaTypeDOCX, Filename: "resume.docx"}
		text, err := e.Extract(ctx, doc)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(text, "张伟 Zhang Wei"))
		// 段落结束补换行
		assert.Contains(t, text, "张伟 Zhang Wei\n")
	})

	t.Run("tab与br节点被还原", func(t *testing.T) {
		xmlBody := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>技能</w:t><w:tab/><w:t>Go语言</w:t><w:br/><w:t>后端开发与高并发服务设计，熟悉MySQL与Redis，具备完整的线上运维经验</w:t></w:r></w:p>
  </w:body>
</w:document>`
		doc := &types.RawDocument{Data: buildDOCX(t, xmlBody), MediaType: types.MediaTypeDOCX}
		text, err := e.Extract(ctx, doc)
		require.NoError(t, err)
		assert.Contains(t, text, "技能\tGo语言\n")
	})

	t.Run("非zip字节返回ExtractionError", func(t *testing.T) {
		doc := &types.RawDocument{Data: []byte("not a zip archive"), MediaType: types.MediaTypeDOCX}
		_, err := e.Extract(ctx, doc)
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})

	t.Run("缺少document.xml返回ExtractionError", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("word/other.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte("<x/>"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		doc := &types.RawDocument{Data: buf.Bytes(), MediaType: types.MediaTypeDOCX}
		_, err = e.Extract(ctx, doc)
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
		assert.Contains(t, err.Error(), "word/document.xml")
	})

	t.Run("内容过短的docx被拒绝", func(t *testing.T) {
		xmlBody := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>李雷</w:t></w:r></w:p></w:body>
</w:document>`
		doc := &types.RawDocument{Data: buildDOCX(t, xmlBody), MediaType: types.MediaTypeDOCX}
		_, err := e.Extract(ctx, doc)
		var extErr *ExtractionError
		require.ErrorAs(t, err, &extErr)
	})
}

func TestDocumentExtractorDispatch(t *testing.T) {
	// 不支持的媒体类型不应该走到任何解码器
	d := &DocumentExtractor{docx: NewDOCXExtractor()}
	_, err := d.Extract(context.Background(), &types.RawDocument{
		Data:      []byte("plain text"),
		MediaType: types.MediaType("text/plain"),
	})
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, err.Error(), "text/plain")
}

func TestExtractionErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("底层错误")
	err := &ExtractionError{Reason: "解码失败", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "解码失败")
}
