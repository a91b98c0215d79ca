package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

// --- compile-time interface checks ---
var _ Publisher = (*KafkaPublisher)(nil)
var _ Publisher = NopPublisher{}

func TestKafkaPublisher_PublishFavorite_SendsJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	var captured *sarama.ProducerMessage
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		captured = msg
		return nil
	})

	p := NewKafkaPublisherWithProducer(producer, "favorite-events")
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.PublishFavorite(context.Background(), FavoriteEvent{
		EventType: TypeFavoriteAdded,
		UserID:    12,
		ProductID: 7,
	})
	if err != nil {
		t.Fatalf("PublishFavorite failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if captured.Topic != "favorite-events" {
		t.Errorf("Topic = %q, want %q", captured.Topic, "favorite-events")
	}
	key, _ := captured.Key.Encode()
	if string(key) != "12" {
		t.Errorf("Key = %q, want %q", key, "12")
	}

	raw, _ := captured.Value.Encode()
	var got FavoriteEvent
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("invalid JSON payload: %v", err)
	}
	if got.EventType != TypeFavoriteAdded || got.UserID != 12 || got.ProductID != 7 {
		t.Errorf("payload = %+v", got)
	}
	if got.EventID == "" {
		t.Error("EventIDが採番されていない")
	}
	if !got.OccurredAt.Equal(fixed) {
		t.Errorf("OccurredAt = %v, want %v", got.OccurredAt, fixed)
	}

	var eventType string
	for _, h := range captured.Headers {
		if string(h.Key) == "event_type" {
			eventType = string(h.Value)
		}
	}
	if eventType != TypeFavoriteAdded {
		t.Errorf("event_type header = %q, want %q", eventType, TypeFavoriteAdded)
	}
}

func TestKafkaPublisher_PublishFavorite_SendError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	sendErr := errors.New("broker unavailable")
	producer.ExpectSendMessageAndFail(sendErr)

	p := NewKafkaPublisherWithProducer(producer, "favorite-events")
	defer p.Close()

	err := p.PublishFavorite(context.Background(), FavoriteEvent{EventType: TypeFavoriteRemoved, UserID: 1, ProductID: 2})
	if !errors.Is(err, sendErr) {
		t.Errorf("err = %v, want %v", err, sendErr)
	}
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	if err := p.PublishFavorite(context.Background(), FavoriteEvent{}); err != nil {
		t.Errorf("NopPublisher.PublishFavorite returned %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("NopPublisher.Close returned %v", err)
	}
}
