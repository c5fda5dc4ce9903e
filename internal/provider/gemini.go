package provider

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"

	"resume-intake-go/internal/types"
)

// GeminiProvider 走Google genai SDK的提供商适配器
// SDK自带信封处理，所以不复用HTTPProvider的线路机制
type GeminiProvider struct {
	name           string
	model          string
	apiKey         string
	temperature    float64
	maxTokens      int
	maxPromptChars int

	// SDK客户端惰性创建：凭证缺失必须是Attempt时的错误而不是构造失败，
	// 否则编排器无法把"未配置的提供商"当作普通失败跳过
	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// GeminiConfig Gemini适配器配置
type GeminiConfig struct {
	Name           string
	Model          string
	APIKey         string
	Temperature    float64
	MaxTokens      int
	MaxPromptChars int
}

// NewGeminiProvider 创建Gemini适配器
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.Name == "" {
		cfg.Name = "gemini"
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = DefaultMaxPromptChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	return &GeminiProvider{
		name:           cfg.Name,
		model:          cfg.Model,
		apiKey:         cfg.APIKey,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		maxPromptChars: cfg.MaxPromptChars,
	}
}

// Name 实现Provider接口
func (g *GeminiProvider) Name() string {
	return g.name
}

// Attempt 实现Provider接口
func (g *GeminiProvider) Attempt(ctx context.Context, text string) (*types.CandidateRecord, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return nil, &ConfigError{Provider: g.name, Reason: "缺少API凭证"}
	}

	g.initOnce.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if g.initErr != nil {
		return nil, &RequestError{Provider: g.name, Reason: "创建genai客户端失败", Err: g.initErr}
	}

	prompt := systemInstruction + "\n\n" + BuildExtractionPrompt(TruncateText(text, g.maxPromptChars))

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(g.temperature)),
		MaxOutputTokens:  int32(g.maxTokens),
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, &RequestError{Provider: g.name, Reason: "生成请求失败", Err: err}
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			sb.WriteString(part.Text)
		}
	}

	output := strings.TrimSpace(sb.String())
	if output == "" {
		return nil, &RequestError{Provider: g.name, Reason: "响应为空"}
	}

	record, err := DecodeCandidateJSON(output)
	if err != nil {
		return nil, &RequestError{Provider: g.name, Reason: "响应内容解析失败", Err: err}
	}
	return record, nil
}
