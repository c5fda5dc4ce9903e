package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"resume-intake-go/internal/types"
)

// DOCXExtractor 解码现代Word文档(docx)
// docx本质是一个zip容器，正文在 word/document.xml 中
type DOCXExtractor struct{}

// NewDOCXExtractor 创建DOCX提取器
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Extract 从docx字节中提取纯文本
func (e *DOCXExtractor) Extract(ctx context.Context, doc *types.RawDocument) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", &ExtractionError{Reason: "DOCX容器解码失败", Err: err}
	}

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", &ExtractionError{Reason: "打开 word/document.xml 失败", Err: err}
			}
			break
		}
	}
	if docXML == nil {
		return "", &ExtractionError{Reason: "DOCX容器中缺少 word/document.xml"}
	}
	defer docXML.Close()

	text, err := decodeDocumentXML(docXML)
	if err != nil {
		return "", &ExtractionError{Reason: "解析 word/document.xml 失败", Err: err}
	}

	return validateExtractedText(text)
}

// decodeDocumentXML 流式遍历XML，收集 w:t 文本节点
// 段落(w:p)结束补换行，制表符节点(w:tab)补制表符
func decodeDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
