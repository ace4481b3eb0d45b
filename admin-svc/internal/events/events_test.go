package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/mocks"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return w.err
}

type fakeReader struct {
	messages []kafka.Message
	errs     []error
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func encode(t *testing.T, ev domain.MutationEvent) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(ev.CacheKey), Value: payload}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewKafkaPublisher(writer)
	ev := domain.MutationEvent{
		Type:      domain.EventListMutated,
		Resource:  domain.ResourceMeals,
		Action:    domain.ActionDelete,
		RecordID:  "m1",
		CacheKey:  "allMeals",
		Origin:    "node-a",
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, pub.Publish(context.Background(), ev))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "allMeals", string(writer.messages[0].Key))

	var decoded domain.MutationEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, ev, decoded)

	writer.err = errors.New("broker unavailable")
	assert.Error(t, pub.Publish(context.Background(), ev))
}

func TestConsumer_Process(t *testing.T) {
	tests := []struct {
		name         string
		message      func(t *testing.T) kafka.Message
		setupHandler func(*mocks.Handler)
	}{
		{
			name: "remote mutation",
			message: func(t *testing.T) kafka.Message {
				return encode(t, domain.MutationEvent{Type: domain.EventListMutated, CacheKey: "allMeals", Origin: "node-b"})
			},
			setupHandler: func(h *mocks.Handler) {
				h.On("Apply", mock.Anything, mock.MatchedBy(func(ev domain.MutationEvent) bool {
					return ev.CacheKey == "allMeals"
				})).Return(true, nil).Once()
			},
		},
		{
			name: "handler error",
			message: func(t *testing.T) kafka.Message {
				return encode(t, domain.MutationEvent{Type: domain.EventListMutated, Resource: "orders", Origin: "node-b"})
			},
			setupHandler: func(h *mocks.Handler) {
				h.On("Apply", mock.Anything, mock.Anything).Return(false, errors.New("unknown resource")).Once()
			},
		},
		{
			name: "other event type",
			message: func(t *testing.T) kafka.Message {
				return encode(t, domain.MutationEvent{Type: "new_review"})
			},
			setupHandler: func(h *mocks.Handler) {},
		},
		{
			name: "malformed payload",
			message: func(t *testing.T) kafka.Message {
				return kafka.Message{Value: []byte(`{invalid}`)}
			},
			setupHandler: func(h *mocks.Handler) {},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			handler := mocks.NewHandler(t)
			testCase.setupHandler(handler)

			consumer := NewConsumer(nil, handler, zap.NewNop().Sugar())
			consumer.Process(context.Background(), testCase.message(t))
		})
	}
}

func TestConsumer_StartStopsWhenReaderCloses(t *testing.T) {
	handler := mocks.NewHandler(t)
	handler.On("Apply", mock.Anything, mock.Anything).Return(true, nil).Twice()

	reader := &fakeReader{
		errs: []error{errors.New("rebalance in progress")},
		messages: []kafka.Message{
			encode(t, domain.MutationEvent{Type: domain.EventListMutated, CacheKey: "allMeals", Origin: "node-b"}),
			encode(t, domain.MutationEvent{Type: domain.EventListMutated, CacheKey: "allCategories", Origin: "node-b"}),
		},
	}

	done := make(chan struct{})
	go func() {
		NewConsumer(reader, handler, zap.NewNop().Sugar()).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
