package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"resume-intake-go/internal/types"
)

// candidateSchemaMap 候选人记录的JSON Schema
// 既随提示词发给提供商约束输出，也在本地校验返回结果
func candidateSchemaMap() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fullName": map[string]any{"type": "string"},
			"email":    map[string]any{"type": "string"},
			"phone":    map[string]any{"type": "string"},
			"skills": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"experience": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"role":    map[string]any{"type": "string"},
						"company": map[string]any{"type": "string"},
						"years":   map[string]any{"type": "string"},
					},
				},
			},
			"education": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"degree":      map[string]any{"type": "string"},
						"institution": map[string]any{"type": "string"},
						"year":        map[string]any{"type": "string"},
					},
				},
			},
		},
		// fullName是唯一的硬性字段，email/phone尽力而为
		"required": []string{"fullName"},
	}
}

// compiledCandidateSchema 进程内编译一次的schema
var compiledCandidateSchema = mustCompileCandidateSchema()

func mustCompileCandidateSchema() *jsonschema.Schema {
	b, err := json.Marshal(candidateSchemaMap())
	if err != nil {
		panic(fmt.Sprintf("marshal candidate schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("candidate.schema.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add candidate schema: %v", err))
	}
	schema, err := compiler.Compile("candidate.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile candidate schema: %v", err))
	}
	return schema
}

// FindJSONObject 在提供商返回的文本中定位第一个完整的JSON对象
// 部分提供商直接返回对象，部分把对象嵌在一段文字或markdown围栏里
func FindJSONObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeCandidateJSON 从提供商响应文本中解出候选人记录
// 先定位JSON对象，再做schema校验，最后反序列化；未知字段被静默丢弃
func DecodeCandidateJSON(content string) (*types.CandidateRecord, error) {
	raw, ok := FindJSONObject(content)
	if !ok {
		return nil, fmt.Errorf("响应中找不到JSON对象")
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("响应JSON解析失败: %w", err)
	}
	if err := compiledCandidateSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("响应JSON不符合候选人schema: %w", err)
	}

	var record types.CandidateRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("候选人记录反序列化失败: %w", err)
	}
	return &record, nil
}
