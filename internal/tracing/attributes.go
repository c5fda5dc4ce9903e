package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength span属性值的默认最大长度
	DefaultMaxLength = 200
)

// maskPIILookup 需要掩码处理的属性名关键字
// 简历里全是个人信息，进span之前必须过一遍
var maskPIILookup = map[string]bool{
	"email":    true,
	"phone":    true,
	"name":     true,
	"姓名":       true,
	"address":  true,
	"password": true,
	"secret":   true,
	"token":    true,
}

// SafeAttributeValue 确保span属性值安全
// 命中PII关键字的值做掩码，超长的值截断加省略号
func SafeAttributeValue(name string, value string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	lowerName := strings.ToLower(name)
	for keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return maskValue(value)
		}
	}

	if len(value) > maxLength {
		return value[:maxLength] + "..."
	}
	return value
}

// maskValue 保留首尾各一个字符，中间全部打星
func maskValue(value string) string {
	if len(value) <= 2 {
		return "**"
	}
	return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
}
