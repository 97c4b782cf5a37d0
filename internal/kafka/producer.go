package kafka

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"nrql-builder-backend/config"
	"nrql-builder-backend/internal/dto"
)

// AuditPublisher ships audit reports to downstream consumers.
type AuditPublisher interface {
	Publish(ctx context.Context, reports []dto.AuditReport) error
	Enabled() bool
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaAuditPublisher struct {
	writer messageWriter
	topic  string
}

type noopAuditPublisher struct{}

// NewAuditPublisher returns a Kafka backed publisher, or a no-op one when no
// brokers are configured.
func NewAuditPublisher(lc fx.Lifecycle, cfg *config.Config) AuditPublisher {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.AuditTopic == "" {
		log.Info().Msg("Kafka brokers not configured, audit publishing disabled")
		return noopAuditPublisher{}
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.AuditTopic,
		Balancer: &kafka.Hash{},
	})
	p := newKafkaAuditPublisher(writer, cfg.Kafka.AuditTopic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Kafka audit publisher")
			return p.Close()
		},
	})
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.AuditTopic).Msg("Kafka audit publisher initialized")
	return p
}

func newKafkaAuditPublisher(writer messageWriter, topic string) *kafkaAuditPublisher {
	return &kafkaAuditPublisher{writer: writer, topic: topic}
}

func (p *kafkaAuditPublisher) Publish(ctx context.Context, reports []dto.AuditReport) error {
	if len(reports) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(reports))
	for _, report := range reports {
		value, err := json.Marshal(report)
		if err != nil {
			log.Error().Err(err).Str("saved_query_id", report.SavedQueryID).Msg("Failed to marshal audit report for Kafka")
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(report.SavedQueryID),
			Value: value,
		})
	}
	if len(messages) == 0 {
		log.Warn().Msg("No valid audit messages to produce.")
		return nil
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to write audit messages to Kafka")
		return err
	}
	log.Debug().Int("message_count", len(messages)).Str("topic", p.topic).Msg("Successfully produced audit messages to Kafka")
	return nil
}

func (p *kafkaAuditPublisher) Enabled() bool { return true }

func (p *kafkaAuditPublisher) Close() error {
	return p.writer.Close()
}

func (noopAuditPublisher) Publish(context.Context, []dto.AuditReport) error { return nil }

func (noopAuditPublisher) Enabled() bool { return false }

func (noopAuditPublisher) Close() error { return nil }
