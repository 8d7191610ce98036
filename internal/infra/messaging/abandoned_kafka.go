package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cartservice/internal/domain/model"

	"github.com/segmentio/kafka-go"
)

// kafka.Writer のうち使う部分
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// 放置カート1件分のイベント
type AbandonedCartEvent struct {
	CartID    int64  `json:"cartId"`
	UserID    int64  `json:"userId"`
	UpdatedAt string `json:"updatedAt"`
	Before    string `json:"before"`
	Lines     int    `json:"lines"`
}

// KafkaAbandonedReporter は検出した放置カートをKafkaに流す。キーはカートID。
type KafkaAbandonedReporter struct {
	writer messageWriter
}

func NewKafkaAbandonedReporter(brokers []string, topic string) *KafkaAbandonedReporter {
	return &KafkaAbandonedReporter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (r *KafkaAbandonedReporter) ReportAbandoned(ctx context.Context, threshold time.Time, carts []model.Cart) error {
	if len(carts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(carts))
	for _, c := range carts {
		payload, err := json.Marshal(AbandonedCartEvent{
			CartID:    c.ID,
			UserID:    c.UserID,
			UpdatedAt: c.UpdatedAt.Format(time.DateOnly),
			Before:    threshold.Format(time.DateOnly),
			Lines:     len(c.Lines),
		})
		if err != nil {
			return fmt.Errorf("marshal abandoned cart %d: %w", c.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(c.ID, 10)),
			Value: payload,
		})
	}

	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish abandoned carts: %w", err)
	}
	return nil
}

func (r *KafkaAbandonedReporter) Close() error {
	return r.writer.Close()
}
