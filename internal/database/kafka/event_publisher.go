package kafka

import (
	"Vybe_AI/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventPublisher 封装了向 Kafka 发送 Agent 进度事件的逻辑。
// 每条 AgentAction 都会作为一条 AgentEvent 发布到事件主题。
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher 创建一个新的 EventPublisher 实例。
func NewEventPublisher(client *KafkaClient) *EventPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      client.Config.Brokers,
		Topic:        client.Config.EventsTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &EventPublisher{writer: writer}
}

// Publish 将 AgentEvent 序列化为 JSON 并发送到 Kafka。
// 消息按 agent ID 作为 key，保证单个 agent 的事件有序。
func (p *EventPublisher) Publish(ctx context.Context, event models.AgentEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal agent event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AgentID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close 关闭底层的 writer 连接。
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
