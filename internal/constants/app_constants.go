package constants

// 处理状态，写入 resume_submissions.processing_status
const (
	// StatusExtracted 提取完成（某个远程提供商产出了可接受结果）
	StatusExtracted = "EXTRACTED"
	// StatusExtractedFallback 提取完成，但结果来自本地兜底提取器
	StatusExtractedFallback = "EXTRACTED_FALLBACK"
	// StatusTextExtractionFailed 文档无法读取
	StatusTextExtractionFailed = "TEXT_EXTRACTION_FAILED"
	// StatusDuplicateSkipped 重复文件/文本，跳过处理
	StatusDuplicateSkipped = "DUPLICATE_SKIPPED"
)

// Redis去重集合的Key
const (
	// RawFileMD5SetKey 原始文件MD5集合
	RawFileMD5SetKey = "resumes:file_md5s"
	// ParsedTextMD5SetKey 提取文本MD5集合
	ParsedTextMD5SetKey = "resumes:text_md5s"
)
