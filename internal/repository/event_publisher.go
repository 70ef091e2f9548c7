package repository

import (
	"context"
	"errors"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/domain/repository"
	pkgkafka "UMKMForecast/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka. Events are keyed
// by session id so one session's events stay ordered on a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates Kafka publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e models.SessionEvent) error {
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{{
		Key:     []byte(e.SessionID),
		Value:   e,
		Headers: map[string]string{"event-type": string(e.Type)},
	}})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// FanoutPublisher delivers each event to every sink. A failing sink does not
// stop the others; their errors are joined.
type FanoutPublisher struct {
	sinks []repository.EventPublisher
}

// NewFanoutPublisher ignores nil sinks.
func NewFanoutPublisher(sinks ...repository.EventPublisher) *FanoutPublisher {
	f := &FanoutPublisher{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *FanoutPublisher) Publish(ctx context.Context, e models.SessionEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutPublisher) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports how many sinks receive events.
func (f *FanoutPublisher) Len() int { return len(f.sinks) }
