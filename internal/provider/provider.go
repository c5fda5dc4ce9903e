package provider

import (
	"context"
	"fmt"

	"resume-intake-go/internal/types"
)

// Provider 外部文本生成提供商的统一契约
// 每次Attempt独立无状态，失败时返回提供商相关错误，由编排器统一吞掉
type Provider interface {
	// Name 提供商标识，用于日志与结果溯源
	Name() string

	// Attempt 将简历文本发送给远程提供商，换回结构化候选人记录
	// 适配器只保证"拿回了格式正确的JSON"，姓名合理性由编排器的验收门禁负责
	Attempt(ctx context.Context, text string) (*types.CandidateRecord, error)
}

// ConfigError 缺少凭证等配置问题
// 与运行时错误的区分仅用于日志，编排器对两者的处理完全一致
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %s config error: %s", e.Provider, e.Reason)
}

// RequestError 远程调用失败：非成功状态码、响应缺少JSON、JSON解析失败等
type RequestError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s request error: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %s request error: %s", e.Provider, e.Reason)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
