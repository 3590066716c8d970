package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-report/internal/config"
	"github.com/couchcryptid/weather-report/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var generatedAt = time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

func testReport() *domain.Report {
	return &domain.Report{
		RunID:       "run-1",
		Source:      "weather.csv",
		GeneratedAt: generatedAt,
		Overall:     &domain.OverallStats{Count: 365, Mean: 23.51, Min: 5.7, Max: 40.3, StdDev: 8.35},
		Yearly: &domain.AggregationResult{Dimension: "year", Groups: []domain.GroupStats{
			{Key: 2023, Label: "2023", Count: 365, RainfallSum: 1654.8},
		}},
		Monthly: &domain.AggregationResult{Dimension: "month", Groups: []domain.GroupStats{
			{Key: 6, Label: "Jun", Count: 30, RainfallSum: 342.6},
			{Key: 7, Label: "Jul", Count: 31, RainfallSum: 623.2},
		}},
	}
}

func newTestPublisher(w *fakeWriter) *Publisher {
	return &Publisher{writer: w, topic: "weather-aggregates", logger: slog.New(slog.DiscardHandler)}
}

func TestPublisher_Deliver(t *testing.T) {
	w := &fakeWriter{}
	p := newTestPublisher(w)

	require.NoError(t, p.Deliver(context.Background(), testReport()))
	require.Len(t, w.msgs, 4)

	keys := make([]string, len(w.msgs))
	for i, m := range w.msgs {
		keys[i] = string(m.Key)
	}
	assert.Equal(t, []string{"run-1/overall", "run-1/year/2023", "run-1/month/6", "run-1/month/7"}, keys)

	var jul AggregateMessage
	require.NoError(t, json.Unmarshal(w.msgs[3].Value, &jul))
	assert.Equal(t, "month", jul.Dimension)
	require.NotNil(t, jul.Group)
	assert.Equal(t, "Jul", jul.Group.Label)
	assert.InDelta(t, 623.2, jul.Group.RainfallSum, 1e-9)
	assert.Nil(t, jul.Overall)

	var overall AggregateMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &overall))
	require.NotNil(t, overall.Overall)
	assert.Equal(t, 365, overall.Overall.Count)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_DeliverError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newTestPublisher(w)

	err := p.Deliver(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPublisher_DeliverEmptyReport(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestPublisher(w).Deliver(context.Background(), &domain.Report{RunID: "run-2"}))
	assert.Empty(t, w.msgs)
}

func TestSerializeToMessage(t *testing.T) {
	g := domain.GroupStats{Key: 2023, Label: "2023", Count: 365}
	msg, err := serializeToMessage(AggregateMessage{
		RunID:       "run-1",
		Dimension:   "year",
		GeneratedAt: generatedAt,
		Group:       &g,
	}, "run-1/year/2023")
	require.NoError(t, err)

	assert.Equal(t, []byte("run-1/year/2023"), msg.Key)
	assert.Contains(t, string(msg.Value), `"dimension":"year"`)
	assert.NotContains(t, string(msg.Value), `"overall"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "dimension", msg.Headers[0].Key)
	assert.Equal(t, []byte("year"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(generatedAt.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(testConfig(), slog.New(slog.DiscardHandler))
	assert.Equal(t, "kafka", p.Name())
	assert.Equal(t, "weather-aggregates", p.topic)
	require.NoError(t, p.Close())
}

func testConfig() *config.Config {
	return &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "weather-aggregates"}
}
