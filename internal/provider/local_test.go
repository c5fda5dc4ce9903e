package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-intake-go/internal/types"
)

func TestLocalHeuristicExtract(t *testing.T) {
	l := NewLocalHeuristic()

	t.Run("取第一条非空行作为姓名", func(t *testing.T) {
		record := l.Extract("\n\n  张伟  \n资深后端工程师\n")
		assert.Equal(t, "张伟", record.FullName)
	})

	t.Run("分隔符之后的内容被丢弃", func(t *testing.T) {
		record := l.Extract("Zhang Wei | Senior Backend Engineer\nBeijing")
		assert.Equal(t, "Zhang Wei", record.FullName)
	})

	t.Run("多种分隔符", func(t *testing.T) {
		for input, want := range map[string]string{
			"李娜, 产品经理":             "李娜",
			"Wang Fang; Shanghai": "Wang Fang",
			"刘洋：不含半角分隔符":          "刘洋：不含半角分隔符",
			"Chen - Developer":    "Chen",
		} {
			record := l.Extract(input)
			assert.Equal(t, want, record.FullName, "input=%q", input)
		}
	})

	t.Run("空文本使用哨兵值", func(t *testing.T) {
		record := l.Extract("")
		assert.Equal(t, types.UnknownCandidateSentinel, record.FullName)
	})

	t.Run("纯空白文本使用哨兵值", func(t *testing.T) {
		record := l.Extract("  \n\t\n  ")
		assert.Equal(t, types.UnknownCandidateSentinel, record.FullName)
	})

	t.Run("联系方式是占位值且列表为空非nil", func(t *testing.T) {
		record := l.Extract("张伟\nGo工程师")
		assert.Equal(t, placeholderEmail, record.Email)
		assert.Equal(t, placeholderPhone, record.Phone)
		require.NotNil(t, record.Skills)
		require.NotNil(t, record.Experience)
		require.NotNil(t, record.Education)
		assert.Empty(t, record.Skills)
		assert.Empty(t, record.Experience)
		assert.Empty(t, record.Education)
	})

	t.Run("任何输入都有结果", func(t *testing.T) {
		inputs := []string{"", "\n", "•只有分隔符", "a", "正常\n文本"}
		for _, input := range inputs {
			record := l.Extract(input)
			require.NotNil(t, record, "input=%q", input)
			assert.NotEmpty(t, record.FullName, "input=%q", input)
		}
	})
}

func TestTruncateText(t *testing.T) {
	t.Run("短文本原样返回", func(t *testing.T) {
		assert.Equal(t, "abc", TruncateText("abc", 10))
	})

	t.Run("长文本按rune截断", func(t *testing.T) {
		text := "一二三四五六七八九十"
		assert.Equal(t, "一二三", TruncateText(text, 3))
	})

	t.Run("非正数上限不截断", func(t *testing.T) {
		assert.Equal(t, "abcdef", TruncateText("abcdef", 0))
	})
}
