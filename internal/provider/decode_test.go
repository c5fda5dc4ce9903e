package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		found   bool
	}{
		{
			name:    "纯JSON对象",
			content: `{"fullName":"张伟"}`,
			want:    `{"fullName":"张伟"}`,
			found:   true,
		},
		{
			name:    "嵌在说明文字中",
			content: "Here is the result:\n{\"fullName\":\"李娜\"}\nHope this helps!",
			want:    `{"fullName":"李娜"}`,
			found:   true,
		},
		{
			name:    "markdown围栏",
			content: "```json\n{\"fullName\":\"Wang Fang\"}\n```",
			want:    `{"fullName":"Wang Fang"}`,
			found:   true,
		},
		{
			name:    "嵌套对象取最外层",
			content: `{"a":{"b":1},"c":2} trailing`,
			want:    `{"a":{"b":1},"c":2}`,
			found:   true,
		},
		{
			name:    "字符串里的花括号不参与配平",
			content: `{"note":"uses { and } inside","x":1}`,
			want:    `{"note":"uses { and } inside","x":1}`,
			found:   true,
		},
		{
			name:    "字符串里的转义引号",
			content: `{"note":"a \"quoted\" {brace}","x":1}`,
			want:    `{"note":"a \"quoted\" {brace}","x":1}`,
			found:   true,
		},
		{
			name:    "没有对象",
			content: "sorry, I cannot parse this resume",
			found:   false,
		},
		{
			name:    "未闭合的对象",
			content: `{"fullName":"Zhang`,
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindJSONObject(tt.content)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeCandidateJSON(t *testing.T) {
	t.Run("完整记录", func(t *testing.T) {
		content := `{
  "fullName": "张伟",
  "email": "zhangwei@example.com",
  "phone": "138-0000-0000",
  "skills": ["Go", "MySQL"],
  "experience": [{"role": "后端工程师", "company": "某科技公司", "years": "3"}],
  "education": [{"degree": "本科", "institution": "某大学", "year": "2018"}]
}`
		record, err := DecodeCandidateJSON(content)
		require.NoError(t, err)
		assert.Equal(t, "张伟", record.FullName)
		assert.Equal(t, "zhangwei@example.com", record.Email)
		assert.Equal(t, []string{"Go", "MySQL"}, record.Skills)
		require.Len(t, record.Experience, 1)
		assert.Equal(t, "后端工程师", record.Experience[0].Role)
	})

	t.Run("只有fullName也合法", func(t *testing.T) {
		record, err := DecodeCandidateJSON(`{"fullName":"Li Na"}`)
		require.NoError(t, err)
		assert.Equal(t, "Li Na", record.FullName)
	})

	t.Run("缺少fullName被schema拒绝", func(t *testing.T) {
		_, err := DecodeCandidateJSON(`{"email":"a@b.com"}`)
		require.Error(t, err)
	})

	t.Run("fullName类型错误被schema拒绝", func(t *testing.T) {
		_, err := DecodeCandidateJSON(`{"fullName":12345}`)
		require.Error(t, err)
	})

	t.Run("skills元素类型错误被schema拒绝", func(t *testing.T) {
		_, err := DecodeCandidateJSON(`{"fullName":"Zhang Wei","skills":[1,2]}`)
		require.Error(t, err)
	})

	t.Run("未知字段被静默丢弃", func(t *testing.T) {
		record, err := DecodeCandidateJSON(`{"fullName":"Zhang Wei","confidence":0.9}`)
		require.NoError(t, err)
		assert.Equal(t, "Zhang Wei", record.FullName)
	})

	t.Run("找不到JSON对象", func(t *testing.T) {
		_, err := DecodeCandidateJSON("no json here")
		require.Error(t, err)
	})
}
