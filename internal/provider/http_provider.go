package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"resume-intake-go/internal/logger"
	"resume-intake-go/internal/types"
)

// Wire 提供商的线路类型，决定请求信封、鉴权头和响应解包方式
type Wire string

const (
	// WireChatCompletions OpenAI兼容的chat/completions信封
	// openai、qwen(DashScope兼容模式)、groq共用这条线路
	WireChatCompletions Wire = "chat_completions"
	// WireAnthropic Anthropic messages信封
	WireAnthropic Wire = "anthropic"
	// WireGemini Google genai SDK，见 gemini.go
	WireGemini Wire = "gemini"
)

// anthropicVersion Anthropic API要求的版本头
const anthropicVersion = "2023-06-01"

// errBodySnippetLen 错误消息中携带的响应体片段长度
const errBodySnippetLen = 300

// HTTPProviderConfig 通用HTTP适配器的每提供商配置
type HTTPProviderConfig struct {
	Name           string
	Wire           Wire
	Endpoint       string
	Model          string
	APIKey         string
	Temperature    float64
	MaxTokens      int
	MaxPromptChars int
}

// HTTPProvider 通用HTTP提供商适配器
// 五个提供商在契约上完全一致，差异只在线路参数，因此用一个类型覆盖而不是五份拷贝
type HTTPProvider struct {
	cfg    HTTPProviderConfig
	client *http.Client
}

// NewHTTPProvider 创建HTTP提供商适配器
// client为nil时使用默认超时的客户端；单次尝试的真正时限由编排器的上下文控制
func NewHTTPProvider(cfg HTTPProviderConfig, client *http.Client) *HTTPProvider {
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = DefaultMaxPromptChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	return &HTTPProvider{cfg: cfg, client: client}
}

// Name 实现Provider接口
func (p *HTTPProvider) Name() string {
	return p.cfg.Name
}

// Attempt 实现Provider接口
func (p *HTTPProvider) Attempt(ctx context.Context, text string) (*types.CandidateRecord, error) {
	if p.cfg.APIKey == "" {
		return nil, &ConfigError{Provider: p.cfg.Name, Reason: "缺少API凭证"}
	}

	prompt := BuildExtractionPrompt(TruncateText(text, p.cfg.MaxPromptChars))
	body, headers := p.buildRequest(prompt)

	raw, status, err := p.sendJSON(ctx, body, headers)
	if err != nil {
		reason := fmt.Sprintf("请求失败(status=%d)", status)
		if len(raw) > 0 {
			reason = fmt.Sprintf("%s: %s", reason, snippet(raw, errBodySnippetLen))
		}
		return nil, &RequestError{Provider: p.cfg.Name, Reason: reason, Err: err}
	}

	content, err := p.extractContent(raw)
	if err != nil {
		return nil, &RequestError{Provider: p.cfg.Name, Reason: "响应信封解析失败", Err: err}
	}

	record, err := DecodeCandidateJSON(content)
	if err != nil {
		return nil, &RequestError{Provider: p.cfg.Name, Reason: "响应内容解析失败", Err: err}
	}
	return record, nil
}

// buildRequest 按线路类型构造请求体和请求头
func (p *HTTPProvider) buildRequest(prompt string) (any, map[string]string) {
	switch p.cfg.Wire {
	case WireAnthropic:
		body := map[string]any{
			"model":       p.cfg.Model,
			"max_tokens":  p.cfg.MaxTokens,
			"temperature": p.cfg.Temperature,
			"system":      systemInstruction,
			"messages": []map[string]any{
				{"role": "user", "content": prompt},
			},
		}
		headers := map[string]string{
			"x-api-key":         p.cfg.APIKey,
			"anthropic-version": anthropicVersion,
		}
		return body, headers
	default: // WireChatCompletions
		body := map[string]any{
			"model": p.cfg.Model,
			"messages": []map[string]any{
				{"role": "system", "content": systemInstruction},
				{"role": "user", "content": prompt},
			},
			"temperature": p.cfg.Temperature,
			"max_tokens":  p.cfg.MaxTokens,
		}
		headers := map[string]string{
			"Authorization": "Bearer " + p.cfg.APIKey,
		}
		return body, headers
	}
}

// sendJSON 发送JSON请求并返回原始响应体
// 非2xx状态时同时返回响应体，便于把提供商自己的错误信息带进错误消息
func (p *HTTPProvider) sendJSON(ctx context.Context, body any, headers map[string]string) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	logger.Debug().
		Str("provider", p.cfg.Name).
		Str("req_id", reqID).
		Int("status", resp.StatusCode).
		Int("request_bytes", len(bs)).
		Int("response_bytes", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("提供商HTTP调用完成")

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

// chatCompletionsEnvelope chat/completions响应信封
type chatCompletionsEnvelope struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// anthropicEnvelope Anthropic messages响应信封
type anthropicEnvelope struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// extractContent 从响应信封中取出模型生成的文本
func (p *HTTPProvider) extractContent(raw []byte) (string, error) {
	switch p.cfg.Wire {
	case WireAnthropic:
		var env anthropicEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", err
		}
		for _, block := range env.Content {
			if block.Type == "text" && block.Text != "" {
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("响应中没有文本内容块")
	default:
		var env chatCompletionsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return "", err
		}
		if len(env.Choices) == 0 || env.Choices[0].Message.Content == "" {
			return "", fmt.Errorf("响应中没有choices内容")
		}
		return env.Choices[0].Message.Content, nil
	}
}

// snippet 截取响应体片段用于错误消息
func snippet(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
