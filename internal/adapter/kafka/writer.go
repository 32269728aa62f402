// Package kafka publishes completed analysis results to a Kafka topic, for
// downstream consumers (dashboards, archival) that want the fitted tables
// without re-running the estimation. Publishing is optional; the core
// pipeline never depends on it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/rainfall-idf/internal/config"
	"github.com/couchcryptid/rainfall-idf/internal/session"
)

// Writer produces analysis-result documents to a Kafka topic.
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

// PublishResult serializes one station's analysis result and writes it to
// the sink topic.
func (w *Writer) PublishResult(ctx context.Context, result *session.Result) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish result for %s: %w", result.Station, err)
	}
	w.logger.Info("result published", "station", result.Station)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// resultDocument is the wire form of an analysis result: the Montana
// coefficients per return period and the reconstructed intensity table.
type resultDocument struct {
	Station    string         `json:"station"`
	ComputedAt time.Time      `json:"computed_at"`
	Montana    []montanaRow   `json:"montana_params"`
	Table      []intensityRow `json:"montana_intensities"`
	Warnings   []string       `json:"warnings,omitempty"`
}

type montanaRow struct {
	ReturnPeriod int     `json:"return_period_years"`
	A            float64 `json:"a"`
	B            float64 `json:"b"`
	R2           float64 `json:"r_squared"`
}

type intensityRow struct {
	DurationHours int       `json:"duration_hours"`
	Intensities   []float64 `json:"intensities_mm_h"` // ordered as montana_params
}

// serializeToMessage marshals a Result into a Kafka message.
func serializeToMessage(result *session.Result) (kafkago.Message, error) {
	doc := resultDocument{
		Station:    result.Station,
		ComputedAt: result.ComputedAt,
		Warnings:   result.Warnings,
	}
	for _, p := range result.Montana.Periods {
		params := result.Montana.Params[p]
		doc.Montana = append(doc.Montana, montanaRow{
			ReturnPeriod: int(p),
			A:            params.A,
			B:            params.B,
			R2:           params.R2,
		})
	}
	for i, d := range result.MontanaTable.Durations {
		doc.Table = append(doc.Table, intensityRow{
			DurationHours: int(d),
			Intensities:   result.MontanaTable.Values[i],
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.Station),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station", Value: []byte(result.Station)},
			{Key: "computed_at", Value: []byte(result.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
