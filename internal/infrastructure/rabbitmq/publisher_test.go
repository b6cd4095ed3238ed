package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rajanshah23/Theatre-Booking-System/internal/domain/ticket"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return amqp.Queue{Name: name}, ret.Error(0)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func TestNewPublisher(t *testing.T) {
	t.Run("永続キューを宣言する", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("QueueDeclare", "booking.confirmed", true, false, false, false, amqp.Table(nil)).Return(nil)

		p, err := NewPublisher(ch, "booking.confirmed")

		require.NoError(t, err)
		assert.NotNil(t, p)
		ch.AssertExpectations(t)
	})

	t.Run("宣言に失敗したらエラー", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("QueueDeclare", "booking.confirmed", true, false, false, false, amqp.Table(nil)).Return(errors.New("channel closed"))

		_, err := NewPublisher(ch, "booking.confirmed")

		assert.Error(t, err)
	})
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	tk := &ticket.Ticket{BookingID: "b-1", UserID: "u-1", Seats: []string{"A1", "A2"}, TotalAmount: 1000}

	t.Run("チケットをJSONの永続メッセージで送る", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("QueueDeclare", "booking.confirmed", true, false, false, false, amqp.Table(nil)).Return(nil)
		ch.On("PublishWithContext", ctx, "", "booking.confirmed", false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
			var got ticket.Ticket
			if err := json.Unmarshal(msg.Body, &got); err != nil {
				return false
			}
			return msg.DeliveryMode == amqp.Persistent &&
				msg.ContentType == "application/json" &&
				msg.MessageId == "b-1" &&
				got.BookingID == "b-1" && len(got.Seats) == 2
		})).Return(nil)

		p, err := NewPublisher(ch, "booking.confirmed")
		require.NoError(t, err)

		require.NoError(t, p.Publish(ctx, tk))
		ch.AssertExpectations(t)
	})

	t.Run("送信エラーを返す", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("QueueDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

		p, err := NewPublisher(ch, "booking.confirmed")
		require.NoError(t, err)

		assert.Error(t, p.Publish(ctx, tk))
	})

	t.Run("Closeでチャネルを閉じる", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("QueueDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		ch.On("Close").Return(nil)

		p, err := NewPublisher(ch, "booking.confirmed")
		require.NoError(t, err)

		assert.NoError(t, p.Close())
		ch.AssertExpectations(t)
	})
}
