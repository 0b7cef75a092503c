package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// Producer публикует события корзины в Kafka
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

// NewProducer создает Kafka producer для топика событий корзины
func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewProducerWithClient(producer, TopicCartEvents, nil), nil
}

// NewProducerWithClient оборачивает готовый sarama.SyncProducer.
func NewProducerWithClient(producer sarama.SyncProducer, topic string, logger *log.Entry) *Producer {
	if topic == "" {
		topic = TopicCartEvents
	}
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Topic возвращает топик публикации.
func (p *Producer) Topic() string {
	return p.topic
}

// PublishCartEvent публикует снимок зеркала с ключом session_id,
// чтобы события одной сессии попадали в одну партицию.
func (p *Producer) PublishCartEvent(ctx context.Context, mirror domain.CartMirror) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := NewCartEvent(mirror)
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderEventType), Value: []byte(event.EventType)},
	}
	if requestID := domain.RequestIDFromContext(ctx); requestID != "" {
		headers = append(headers, sarama.RecordHeader{Key: []byte(HeaderRequestID), Value: []byte(requestID)})
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(mirror.SessionID),
		Value:     sarama.ByteEncoder(eventData),
		Headers:   headers,
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic":      p.topic,
			"session_id": mirror.SessionID,
			"event_type": event.EventType,
		}).Error("failed to send cart event to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":      p.topic,
		"session_id": mirror.SessionID,
		"event_type": event.EventType,
		"partition":  partition,
		"offset":     offset,
	}).Debug("cart event sent to kafka")

	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var _ domain.CartEventPublisher = (*Producer)(nil)
