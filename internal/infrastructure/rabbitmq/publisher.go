// Package rabbitmq は予約確定チケットを RabbitMQ のキューへ配信する
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
	"github.com/rajanshah23/Theatre-Booking-System/internal/pkg/logger"
)

// Channel は Publisher が使う AMQP チャネルの操作
// *amqp.Channel が満たす
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher はチケットを永続メッセージとしてキューに送る
type Publisher struct {
	mu    sync.Mutex
	ch    Channel
	conn  *amqp.Connection
	queue string
}

// Dial はブローカーに接続して Publisher を作成する
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("RabbitMQチャネル作成に失敗: %w", err)
	}
	p, err := NewPublisher(ch, queue)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher はチャネルからPublisherを作成し、キューを宣言する（冪等）
func NewPublisher(ch Channel, queue string) (*Publisher, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("キュー宣言に失敗: %w", err)
	}
	return &Publisher{ch: ch, queue: queue}, nil
}

// Publish はチケットをJSONで送信する
func (p *Publisher) Publish(ctx context.Context, t *ticket.Ticket) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("チケットのエンコードに失敗: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    t.BookingID,
		Type:         ticket.EventBookingConfirmed,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// デフォルトエクスチェンジ、ルーティングキー = キュー名
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("メッセージ送信に失敗: %w", err)
	}
	logger.Debug("予約確定イベントを送信しました", logger.BookingID(t.BookingID), zap.String("queue", p.queue))
	return nil
}

// Close はチャネルと接続を閉じる
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ ticket.Publisher = (*Publisher)(nil)
