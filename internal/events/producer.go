package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const Topic = "booking-events"

// Producer publishes booking lifecycle events to Kafka. Delivery is
// fire-and-forget: a lost event never blocks or rolls back a booking.
type Producer struct {
	producer sarama.AsyncProducer
}

func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	go func() {
		for err := range producer.Errors() {
			log.Printf("level=error msg=failed to send booking event err=%v", err)
		}
	}()

	return &Producer{producer: producer}, nil
}

func (p *Producer) Publish(event string, payload map[string]interface{}) {
	body := map[string]interface{}{
		"event":       event,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		body[k] = v
	}

	bytes, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error msg=failed to encode booking event event=%s err=%v", event, err)
		return
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: Topic,
		Value: sarama.ByteEncoder(bytes),
	}
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
