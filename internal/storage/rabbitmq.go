package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"resume-intake-go/internal/config"
	"resume-intake-go/internal/logger"
)

// CandidateExtractedEvent 提取完成后发布到消息队列的事件体
type CandidateExtractedEvent struct {
	SubmissionUUID    string    `json:"submission_uuid"`
	CandidateID       string    `json:"candidate_id"`
	FullName          string    `json:"full_name"`
	ExtractorProvider string    `json:"extractor_provider"`
	UsedFallback      bool      `json:"used_fallback"`
	Timestamp         time.Time `json:"timestamp"`
}

// RabbitMQ 事件发布适配器
type RabbitMQ struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQConfig

	mu      sync.Mutex
	channel *amqp.Channel
}

// NewRabbitMQ 建立连接并声明候选人事件交换机
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	r := &RabbitMQ{conn: conn, cfg: cfg}

	ch, err := r.getChannel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	exchange := cfg.CandidateEventsExchange
	if exchange == "" {
		exchange = "candidate.events"
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("声明交换机 %s 失败: %w", exchange, err)
	}

	return r, nil
}

// getChannel 惰性获取通道，通道被服务端关闭后重新打开
func (r *RabbitMQ) getChannel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil && !r.channel.IsClosed() {
		return r.channel, nil
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("打开RabbitMQ通道失败: %w", err)
	}
	r.channel = ch
	return ch, nil
}

// PublishCandidateExtracted 发布候选人提取完成事件
func (r *RabbitMQ) PublishCandidateExtracted(ctx context.Context, event *CandidateExtractedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	exchange := r.cfg.CandidateEventsExchange
	if exchange == "" {
		exchange = "candidate.events"
	}
	routingKey := r.cfg.ExtractedRoutingKey
	if routingKey == "" {
		routingKey = "candidate.extracted"
	}

	ch, err := r.getChannel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("发布事件到 %s/%s 失败: %w", exchange, routingKey, err)
	}

	logger.Debug().
		Str("exchange", exchange).
		Str("routing_key", routingKey).
		Str("submission_uuid", event.SubmissionUUID).
		Msg("候选人提取事件已发布")
	return nil
}

// Close 关闭通道与连接
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	if r.channel != nil && !r.channel.IsClosed() {
		_ = r.channel.Close()
	}
	r.mu.Unlock()
	return r.conn.Close()
}
