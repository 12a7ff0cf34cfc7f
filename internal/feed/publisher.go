package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"gate-access-service/internal/domain/access"
)

// Publisher streams appended access events to a Kafka topic for live
// dashboards. Publishing is best effort: delivery failures are logged from
// the report channel and never fail the originating decision.
type Publisher struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
	log      zerolog.Logger
}

func NewPublisher(bootstrapServers, topic string, log zerolog.Logger) (*Publisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"enable.idempotence": true,
		"linger.ms":          50,
	})
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}

	p := &Publisher{
		producer: producer,
		topic:    topic,
		done:     make(chan struct{}),
		log:      log,
	}
	go p.handleDeliveryReports()

	log.Info().Str("topic", topic).Str("servers", bootstrapServers).Msg("feed publisher started")
	return p, nil
}

func (p *Publisher) handleDeliveryReports() {
	defer close(p.done)
	for e := range p.producer.Events() {
		m, ok := e.(*kafka.Message)
		if !ok {
			continue
		}
		if m.TopicPartition.Error != nil {
			p.log.Error().Err(m.TopicPartition.Error).Msg("feed delivery failed")
		}
	}
}

// Publish enqueues one event as JSON keyed by plate.
func (p *Publisher) Publish(event access.AccessEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Plate),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(event.Status)},
		},
	}, nil)
}

// Close flushes pending messages and shuts the producer down.
func (p *Publisher) Close() {
	if remaining := p.producer.Flush(int((10 * time.Second).Milliseconds())); remaining > 0 {
		p.log.Warn().Int("remaining", remaining).Msg("feed messages unflushed at shutdown")
	}
	p.producer.Close()
	<-p.done
}
