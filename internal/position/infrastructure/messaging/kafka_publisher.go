// Package messaging 提供持仓变更事件的 Kafka 发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/positionkeeping/internal/position/domain"
	"github.com/wyfcoding/positionkeeping/pkg/mq"
)

// KafkaEventPublisher 是 domain.EventPublisher 的 Kafka 实现
// 以 accountCode:symbol 为分区键，同键事件的投递顺序与更新顺序一致
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建事件发布者
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		topic:    topic,
	}
}

// PublishPositionChanged 发布持仓变更事件
func (p *KafkaEventPublisher) PublishPositionChanged(ctx context.Context, event *domain.PositionChanged) error {
	return p.producer.SendMessage(ctx, p.topic, event.PartitionKey(), event)
}
