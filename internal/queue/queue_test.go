package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-booking-core/internal/logger"
	"github.com/iliyamo/seat-booking-core/internal/model"
)

func sampleEvent() BookingConfirmedEvent {
	return NewBookingConfirmedEvent(&model.Booking{
		ID:               "b-1",
		ClaimantID:       "42",
		ShowID:           7,
		TotalAmount:      2500,
		PaymentReference: "dummy_pay_1",
		BookedAt:         time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)),
		Seats:            []string{"A1", "A2"},
	})
}

func TestNewBookingConfirmedEvent(t *testing.T) {
	ev := sampleEvent()
	assert.Equal(t, "2026-05-01T11:00:00Z", ev.ConfirmedAt)
	assert.Equal(t, []string{"A1", "A2"}, ev.Seats)
}

func TestKafkaPublisher_SendsJSONKeyedByShow(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "7" {
			return errors.New("unexpected key " + string(key))
		}
		body, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return err
		}
		if ev.BookingID != "b-1" {
			return errors.New("unexpected booking id " + ev.BookingID)
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "", logger.Discard())
	require.NoError(t, pub.PublishBookingConfirmed(context.Background(), sampleEvent()))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_PropagatesBrokerError(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherWithProducer(producer, "bookings", logger.Discard())
	err := pub.PublishBookingConfirmed(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, pub.Close())
}

func TestBookingConsumer_HandleMessageAppendsLine(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := NewBookingConsumer("amqp://unused", dir, logger.Discard())

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(body))
	require.NoError(t, c.handleMessage(body))

	data, err := os.ReadFile(filepath.Join(dir, BookingLogFile))
	require.NoError(t, err)
	line := "[2026-05-01T11:00:00Z] Booking confirmed | booking_id=b-1 | claimant_id=42 | show_id=7 | total=2500 | payment_ref=dummy_pay_1 | seats=[A1,A2]\n"
	assert.Equal(t, line+line, string(data))
}

func TestBookingConsumer_RejectsBadPayload(t *testing.T) {
	c := NewBookingConsumer("amqp://unused", t.TempDir(), logger.Discard())
	assert.Error(t, c.handleMessage([]byte("{not json")))
	assert.Error(t, c.handleMessage([]byte(`{"show_id":1}`)))
}

func TestBookingConsumer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewBookingConsumer("amqp://127.0.0.1:1/", t.TempDir(), logger.Discard())
	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}
