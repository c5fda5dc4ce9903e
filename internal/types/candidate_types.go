package types

// MediaType 上传文件的声明媒体类型
type MediaType string

const (
	// MediaTypePDF PDF文档
	MediaTypePDF MediaType = "application/pdf"
	// MediaTypeDOCX 现代Word文档 (docx)，不支持旧版二进制doc
	MediaTypeDOCX MediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// IsSupportedMediaType 判断媒体类型是否在接受范围内
// 仅接受 pdf 与现代 docx，其余类型由上游直接拒绝
func IsSupportedMediaType(mt MediaType) bool {
	return mt == MediaTypePDF || mt == MediaTypeDOCX
}

// RawDocument 一次上传请求内的原始文档，仅在请求生命周期内存在
type RawDocument struct {
	// 原始字节
	Data []byte
	// 声明的媒体类型
	MediaType MediaType
	// 原始文件名（仅用于日志和持久化元数据）
	Filename string
}

// ExperienceEntry 一段工作经历
type ExperienceEntry struct {
	Role    string `json:"role"`
	Company string `json:"company"`
	Years   string `json:"years"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// CandidateRecord 提取管线的结构化输出
// 字段顺序与提供商返回的JSON对象保持一致；未知字段在反序列化时被丢弃
type CandidateRecord struct {
	FullName   string            `json:"fullName"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
}

// UnknownCandidateSentinel 本地兜底提取器在无法识别姓名时使用的哨兵值
// 验收门禁会拒绝任何等于该值（忽略大小写）的姓名
const UnknownCandidateSentinel = "Unknown Candidate"
