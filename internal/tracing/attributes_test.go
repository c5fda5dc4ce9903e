package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeAttributeValue(t *testing.T) {
	t.Run("PII属性被掩码", func(t *testing.T) {
		got := SafeAttributeValue("candidate.email", "zhangwei@example.com", DefaultMaxLength)
		assert.Equal(t, "z"+strings.Repeat("*", 18)+"m", got)
	})

	t.Run("属性名大小写不敏感", func(t *testing.T) {
		got := SafeAttributeValue("Candidate.Phone", "13800000000", DefaultMaxLength)
		assert.NotEqual(t, "13800000000", got)
		assert.Contains(t, got, "*")
	})

	t.Run("超长值截断加省略号", func(t *testing.T) {
		long := strings.Repeat("a", 300)
		got := SafeAttributeValue("pipeline.text", long, DefaultMaxLength)
		assert.Equal(t, DefaultMaxLength+3, len(got))
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("普通短值原样返回", func(t *testing.T) {
		assert.Equal(t, "openai", SafeAttributeValue("provider", "openai", DefaultMaxLength))
	})

	t.Run("极短PII值整体打星", func(t *testing.T) {
		assert.Equal(t, "**", SafeAttributeValue("email", "ab", DefaultMaxLength))
	})
}
