package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish кладёт событие в конверт; ключ партиционирования — id заказа,
// поэтому события одного заказа сохраняют порядок.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("%w: kafka outbox publisher is not initialized", domain.ErrOutboxPublish)
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	payload := json.RawMessage(event.Payload)
	if !json.Valid(payload) {
		return fmt.Errorf("%w: outbox message %s has invalid JSON payload", domain.ErrOutboxPublish, event.ID)
	}

	envelope := Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		PublishedAt:   p.producer.now().UTC(),
	}

	return p.producer.PublishEvent(p.topic, key, envelope,
		Header{Key: HeaderEventType, Value: event.EventType},
		Header{Key: HeaderAggregateType, Value: event.AggregateType},
		Header{Key: HeaderOutboxID, Value: event.ID},
	)
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
