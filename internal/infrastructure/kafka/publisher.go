// Package kafka は予約確定チケットを Kafka トピックへ配信する
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

// NewProducerConfig は冪等な同期プロデューサーの設定を返す
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	// 冪等プロデューサーはインフライト1件が必須
	cfg.Net.MaxOpenRequests = 1
	// 同じ予約のイベントは同じパーティションへ
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// Publisher はチケットを予約IDをキーとして送信する
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// Dial はブローカーに接続して Publisher を作成する
func Dial(brokers []string, topic string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("Kafkaプロデューサー作成に失敗: %w", err)
	}
	return NewPublisher(producer, topic), nil
}

// NewPublisher は既存のプロデューサーから Publisher を作成する
func NewPublisher(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// Publish はチケットを送信する
func (p *Publisher) Publish(_ context.Context, t *ticket.Ticket) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("チケットのエンコードに失敗: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(t.BookingID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(ticket.EventBookingConfirmed)},
			{Key: []byte("show_id"), Value: []byte(t.ShowID)},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("Kafka送信に失敗: %w", err)
	}
	logger.Debug("予約確定イベントを送信しました",
		logger.BookingID(t.BookingID),
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close はプロデューサーを閉じる
func (p *Publisher) Close() error {
	return p.producer.Close()
}

var _ ticket.Publisher = (*Publisher)(nil)
