package provider

import (
	"strings"

	"resume-intake-go/internal/types"
)

// 本地兜底的占位联系方式，不做任何真实提取
const (
	placeholderEmail = "unknown@example.com"
	placeholderPhone = "000-0000-0000"
)

// nameDelimiters 姓名行里常见的分隔符，后面的内容一律丢弃
const nameDelimiters = ",;:|•·–—-"

// LocalHeuristic 本地启发式提取器，故障转移链的最后一级
// 零依赖、零外部调用、必然返回结果；质量最低但保证终止
type LocalHeuristic struct{}

// NewLocalHeuristic 创建本地兜底提取器
func NewLocalHeuristic() *LocalHeuristic {
	return &LocalHeuristic{}
}

// Name 标识，用于结果溯源
func (l *LocalHeuristic) Name() string {
	return "local-heuristic"
}

// Extract 全函数，永不失败
// 取第一条非空行，截掉分隔符之后的内容作为姓名；识别不出时用哨兵值
func (l *LocalHeuristic) Extract(text string) *types.CandidateRecord {
	name := firstPlausibleName(text)
	if name == "" {
		name = types.UnknownCandidateSentinel
	}
	return &types.CandidateRecord{
		FullName:   name,
		Email:      placeholderEmail,
		Phone:      placeholderPhone,
		Skills:     []string{},
		Experience: []types.ExperienceEntry{},
		Education:  []types.EducationEntry{},
	}
}

// firstPlausibleName 从文本中挑出一个像姓名的token
func firstPlausibleName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if idx := strings.IndexAny(line, nameDelimiters); idx >= 0 {
			line = line[:idx]
		}
		return strings.TrimSpace(line)
	}
	return ""
}
