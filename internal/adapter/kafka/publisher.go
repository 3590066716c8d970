// Package kafka publishes report aggregates to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-report/internal/config"
	"github.com/couchcryptid/weather-report/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per aggregate group of a report.
// It implements pipeline.Sink.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// AggregateMessage is the JSON value of every published message.
type AggregateMessage struct {
	RunID       string               `json:"run_id"`
	Source      string               `json:"source"`
	Dimension   string               `json:"dimension"`
	GeneratedAt time.Time            `json:"generated_at"`
	Group       *domain.GroupStats   `json:"group,omitempty"`
	Overall     *domain.OverallStats `json:"overall,omitempty"`
}

// NewPublisher creates a Kafka producer for the configured aggregate topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, topic: cfg.KafkaTopic, logger: logger}
}

func (p *Publisher) Name() string { return "kafka" }

// Deliver publishes the overall statistics followed by every yearly and monthly
// group in a single WriteMessages call.
func (p *Publisher) Deliver(ctx context.Context, r *domain.Report) error {
	msgs, err := reportToMessages(r)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish aggregates: %w", err)
	}
	p.logger.Info("aggregates published", "topic", p.topic, "messages", len(msgs), "run_id", r.RunID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func reportToMessages(r *domain.Report) ([]kafkago.Message, error) {
	var msgs []kafkago.Message

	if r.Overall != nil {
		msg, err := serializeToMessage(AggregateMessage{
			RunID:       r.RunID,
			Source:      r.Source,
			Dimension:   "overall",
			GeneratedAt: r.GeneratedAt,
			Overall:     r.Overall,
		}, r.RunID+"/overall")
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	for _, agg := range []*domain.AggregationResult{r.Yearly, r.Monthly} {
		if agg == nil {
			continue
		}
		for i := range agg.Groups {
			g := agg.Groups[i]
			msg, err := serializeToMessage(AggregateMessage{
				RunID:       r.RunID,
				Source:      r.Source,
				Dimension:   agg.Dimension,
				GeneratedAt: r.GeneratedAt,
				Group:       &g,
			}, r.RunID+"/"+agg.Dimension+"/"+strconv.Itoa(g.Key))
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// serializeToMessage marshals an aggregate into a Kafka message.
func serializeToMessage(m AggregateMessage, key string) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s aggregate: %w", m.Dimension, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "dimension", Value: []byte(m.Dimension)},
			{Key: "run_id", Value: []byte(m.RunID)},
			{Key: "generated_at", Value: []byte(m.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
