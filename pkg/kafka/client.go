// Package kafka 提供了向 Kafka 发布文档事件的功能。
package kafka

import (
	"context"
	"encoding/json"
	"strings"

	"chatdesk-go/internal/config"
	"chatdesk-go/pkg/events"
	"chatdesk-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// Publisher 把文档事件写入配置的主题。
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher 创建 Kafka 生产者。Brokers 以逗号分隔。
func NewPublisher(cfg config.KafkaConfig) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(splitBrokers(cfg.Brokers)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	log.Infof("Kafka 生产者初始化成功, topic=%s", cfg.Topic)
	return &Publisher{writer: w}
}

// Publish 发送一条文档事件。同一文档的事件使用相同的 key，保证分区内有序。
func (p *Publisher) Publish(ctx context.Context, evt events.DocumentEvent) error {
	msg, err := encode(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close 刷新并关闭生产者。
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func encode(evt events.DocumentEvent) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.DocumentID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}, nil
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
