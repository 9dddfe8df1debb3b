package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Kafka publishes trade rows and run summaries to topics for downstream
// reporting consumers.
type Kafka struct {
	trades *kafka.Writer
	runs   *kafka.Writer
	logger *zap.Logger
}

func NewKafka(brokers []string, tradeTopic, runTopic string, logger *zap.Logger) *Kafka {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		}
	}
	return &Kafka{
		trades: newWriter(tradeTopic),
		runs:   newWriter(runTopic),
		logger: logger,
	}
}

func (j *Kafka) RecordTrade(t TradeRow) error {
	return j.publish(j.trades, t.Name+"/"+t.Direction, t)
}

func (j *Kafka) RecordRun(r RunSummary) error {
	return j.publish(j.runs, r.RunID, r)
}

func (j *Kafka) publish(w *kafka.Writer, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		j.logger.Error("marshal journal message", zap.String("key", key), zap.Error(err))
		return err
	}

	err = w.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		j.logger.Error("publish journal message",
			zap.String("topic", w.Topic),
			zap.String("key", key),
			zap.Error(err))
	}
	return err
}

func (j *Kafka) Close() error {
	if err := j.trades.Close(); err != nil {
		return err
	}
	return j.runs.Close()
}
