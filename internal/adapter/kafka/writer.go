package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/terra-climate-extremes/internal/config"
	"github.com/couchcryptid/terra-climate-extremes/internal/pipeline"
)

// Writer publishes region reports to a Kafka topic.
// It implements pipeline.ArtifactSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one region report and writes it to the sink topic.
// The message is keyed by region name so a region's reports stay ordered
// within a partition.
func (w *Writer) Publish(ctx context.Context, report pipeline.RegionReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a region report into a Kafka message.
func serializeToMessage(report pipeline.RegionReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "variable", Value: []byte(report.Variable)},
			{Key: "event_year", Value: []byte(fmt.Sprintf("%d", report.EventYear))},
			{Key: "processed_at", Value: []byte(report.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
