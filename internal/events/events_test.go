package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/findash/internal/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []published
	err    error
	closed bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func newTestPublisher(ch *fakeChannel) *AMQPPublisher {
	return &AMQPPublisher{
		channel:  ch,
		exchange: "findash.events",
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestAMQPPublisherPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	tx := &models.Transaction{ID: "t1", UserID: "u1", Name: "Jerome Bell", Amount: 10, Type: models.TypeIncome}
	require.NoError(t, p.Publish(context.Background(), New(TransactionCreated, "u1", "t1", tx)))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "findash.events", sent.exchange)
	assert.Equal(t, "transaction.created", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, sent.msg.DeliveryMode)

	var got Event
	require.NoError(t, json.Unmarshal(sent.msg.Body, &got))
	assert.Equal(t, TransactionCreated, got.Type)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "t1", got.TransactionID)
	require.NotNil(t, got.Transaction)
	assert.Equal(t, "Jerome Bell", got.Transaction.Name)
}

func TestAMQPPublisherDeleteEventHasNoBody(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	require.NoError(t, p.Publish(context.Background(), New(TransactionDeleted, "u1", "t1", nil)))
	require.Len(t, ch.sent, 1)
	assert.NotContains(t, string(ch.sent[0].msg.Body), `"transaction":`)
}

func TestAMQPPublisherError(t *testing.T) {
	ch := &fakeChannel{err: amqp091.ErrClosed}
	p := newTestPublisher(ch)

	err := p.Publish(context.Background(), New(TransactionUpdated, "u1", "t1", nil))
	assert.ErrorIs(t, err, amqp091.ErrClosed)
}

func TestAMQPPublisherConcurrent(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Publish(context.Background(), New(TransactionCreated, "u", "t", nil)))
		}()
	}
	wg.Wait()
	assert.Len(t, ch.sent, 20)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(TransactionCreated, "u", "t", nil)))
	assert.NoError(t, p.Close())
}
