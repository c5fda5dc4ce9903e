package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-intake-go/internal/logger"
	"resume-intake-go/internal/provider"
	"resume-intake-go/internal/tracing"
	"resume-intake-go/internal/types"
)

// pipelineTracer 故障转移链专用tracer
var pipelineTracer = otel.Tracer("resume-intake-go/pipeline")

const (
	// MinTextChars 进入管线的最短文本长度默认值，低于阈值的输入直接拒绝，不消耗任何提供商调用
	MinTextChars = 50

	// minAcceptableNameChars 验收门禁要求的姓名最短字符数（严格大于3，按rune计）
	minAcceptableNameChars = 3

	// DefaultAttemptTimeout 单个提供商一次尝试的默认时限
	// 编排器自身不重试不熔断，但必须给每次尝试设上限，否则一个挂死的提供商会拖垮整条链
	DefaultAttemptTimeout = 30 * time.Second
)

// PreconditionError 输入文本太短，不值得发给任何提供商
// 这是编排器唯一会向调用方抛出的错误
type PreconditionError struct {
	Length int
	// 触发拒绝的阈值，零值表示默认阈值
	Min int
}

func (e *PreconditionError) Error() string {
	threshold := e.Min
	if threshold <= 0 {
		threshold = MinTextChars
	}
	return fmt.Sprintf("简历文本过短(%d字符)，低于最小阈值%d", e.Length, threshold)
}

// Outcome 一次提取的最终结果
type Outcome struct {
	Record *types.CandidateRecord
	// 产出结果的层级：某个提供商的名字，或本地兜底的名字
	Provider string
	// 是否降级到了本地兜底。软降级信号，不是错误
	UsedFallback bool
	// 实际发起的远程尝试次数
	Attempts int
}

// FailoverChain 故障转移编排器
// 按固定优先级顺序驱动提供商适配器，逐个兜底，终点是必然成功的本地启发式提取
type FailoverChain struct {
	providers      []provider.Provider
	fallback       *provider.LocalHeuristic
	attemptTimeout time.Duration
	minTextChars   int
}

// Option FailoverChain的配置选项
type Option func(*FailoverChain)

// WithAttemptTimeout 设置单次尝试的超时
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *FailoverChain) {
		if d > 0 {
			c.attemptTimeout = d
		}
	}
}

// WithMinTextChars 设置进入管线的最短文本长度
func WithMinTextChars(n int) Option {
	return func(c *FailoverChain) {
		if n > 0 {
			c.minTextChars = n
		}
	}
}

// NewFailoverChain 创建故障转移链
// providers的顺序即优先级顺序；任何子集（包括空集）都是合法的，本地兜底不需要配置
func NewFailoverChain(providers []provider.Provider, opts ...Option) *FailoverChain {
	c := &FailoverChain{
		providers:      providers,
		fallback:       provider.NewLocalHeuristic(),
		attemptTimeout: DefaultAttemptTimeout,
		minTextChars:   MinTextChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract 驱动整条链，返回第一个通过验收门禁的结果
// 前置条件满足后永不失败：要么某个提供商给出可接受结果，要么本地兜底收尾
func (c *FailoverChain) Extract(ctx context.Context, text string) (*Outcome, error) {
	if len(text) < c.minTextChars {
		return nil, &PreconditionError{Length: len(text), Min: c.minTextChars}
	}

	ctx, span := pipelineTracer.Start(ctx, "pipeline.extract",
		trace.WithAttributes(
			attribute.Int("pipeline.provider_count", len(c.providers)),
			attribute.Int("pipeline.text_chars", len(text)),
		))
	defer span.End()

	attempts := 0
	for _, p := range c.providers {
		attempts++
		record, err := c.attemptOne(ctx, p, text)
		if err != nil {
			// 单个提供商的失败只记日志，绝不向上冒泡
			logger.Warn().
				Str("provider", p.Name()).
				Err(err).
				Msg("提供商尝试失败，切换下一个")
			span.AddEvent("provider.failed", trace.WithAttributes(
				attribute.String("provider", p.Name()),
				attribute.String("error", tracing.SafeAttributeValue("error", err.Error(), tracing.DefaultMaxLength)),
			))
			continue
		}

		if !IsAcceptableName(record.FullName) {
			// 结构上合法但姓名不可信，等同于失败处理
			logger.Warn().
				Str("provider", p.Name()).
				Str("full_name", record.FullName).
				Msg("提供商结果未通过验收门禁，切换下一个")
			span.AddEvent("provider.rejected", trace.WithAttributes(
				attribute.String("provider", p.Name()),
			))
			continue
		}

		// 短路返回：后续提供商一个都不会被调用
		logger.Info().
			Str("provider", p.Name()).
			Int("attempts", attempts).
			Msg("提取成功")
		span.SetAttributes(attribute.String("pipeline.winner", p.Name()))
		return &Outcome{
			Record:   record,
			Provider: p.Name(),
			Attempts: attempts,
		}, nil
	}

	// 所有提供商耗尽，本地兜底无条件收尾（它不可能失败）
	logger.Info().
		Int("attempts", attempts).
		Msg("全部远程提供商失败，使用本地兜底提取")
	span.SetAttributes(attribute.String("pipeline.winner", c.fallback.Name()))
	return &Outcome{
		Record:       c.fallback.Extract(text),
		Provider:     c.fallback.Name(),
		UsedFallback: true,
		Attempts:     attempts,
	}, nil
}

// attemptOne 对单个提供商做一次限时尝试。一击即走，没有重试
func (c *FailoverChain) attemptOne(ctx context.Context, p provider.Provider, text string) (*types.CandidateRecord, error) {
	attemptCtx := ctx
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}
	return p.Attempt(attemptCtx, text)
}

// IsAcceptableName 验收门禁：姓名非空、字符数大于3、且不等于哨兵值（忽略大小写）
// 长度按rune计，多字节姓名不会因编码占便宜。门禁刻意只看姓名，不校验email/phone等字段
func IsAcceptableName(name string) bool {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= minAcceptableNameChars {
		return false
	}
	return !strings.EqualFold(name, types.UnknownCandidateSentinel)
}
