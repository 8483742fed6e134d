package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
	"github.com/iyhunko/academy-backend/internal/sqs"
)

// MockPublisher is a mock implementation of the SQS publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg sqs.EventMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func statuses(store *memStore) map[string]model.EventStatus {
	result := map[string]model.EventStatus{}
	for _, e := range store.events() {
		result[e.EventType] = e.Status
	}
	return result
}

func TestOutboxWorker_ProcessEvents(t *testing.T) {
	t.Run("publishes pending events and marks them processed", func(t *testing.T) {
		// given
		ctx := context.Background()
		store := newMemStore()
		ps := service.NewProductService(store, &fakeImages{}, nil)
		product, err := ps.CreateProduct(ctx, validProduct(), nil)
		require.NoError(t, err)

		publisher := new(MockPublisher)
		publisher.On("Publish", ctx, mock.MatchedBy(func(msg sqs.EventMessage) bool {
			return msg.Type == model.EventProductCreated && msg.ResourceID == product.ID && msg.Name == product.Name
		})).Return(nil).Once()

		worker := service.NewOutboxWorker(store.Events(), publisher, time.Second)

		// when
		worker.ProcessEvents(ctx)

		// then
		publisher.AssertExpectations(t)
		events := store.events()
		require.Len(t, events, 1)
		assert.Equal(t, model.EventStatusProcessed, events[0].Status)
		assert.NotNil(t, events[0].ProcessedAt)

		// a second round has nothing to do
		worker.ProcessEvents(ctx)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("marks events failed when publishing fails", func(t *testing.T) {
		// given
		ctx := context.Background()
		store := newMemStore()
		_, err := service.NewProductService(store, &fakeImages{}, nil).CreateProduct(ctx, validProduct(), nil)
		require.NoError(t, err)

		publisher := new(MockPublisher)
		publisher.On("Publish", ctx, mock.Anything).Return(errors.New("queue unavailable"))

		// when
		service.NewOutboxWorker(store.Events(), publisher, time.Second).ProcessEvents(ctx)

		// then
		assert.Equal(t, model.EventStatusFailed, statuses(store)[model.EventProductCreated])
	})

	t.Run("marks undecodable events failed without publishing", func(t *testing.T) {
		// given
		ctx := context.Background()
		store := newMemStore()
		_, err := store.Events().Create(ctx, &model.Event{EventType: model.EventCourseCreated, EventData: []byte("{broken")})
		require.NoError(t, err)
		publisher := new(MockPublisher)

		// when
		service.NewOutboxWorker(store.Events(), publisher, time.Second).ProcessEvents(ctx)

		// then
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		assert.Equal(t, model.EventStatusFailed, statuses(store)[model.EventCourseCreated])
	})
}

func TestOutboxWorker_StartStop(t *testing.T) {
	t.Run("worker can be stopped gracefully", func(t *testing.T) {
		// given
		worker := service.NewOutboxWorker(newMemStore().Events(), new(MockPublisher), 10*time.Millisecond)
		done := make(chan struct{})

		// when
		go func() {
			worker.Start(context.Background())
			close(done)
		}()
		worker.Stop()
		worker.Stop()

		// then
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not stop")
		}
	})

	t.Run("worker stops with its context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		worker := service.NewOutboxWorker(newMemStore().Events(), new(MockPublisher), 10*time.Millisecond)
		done := make(chan struct{})

		go func() {
			worker.Start(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not stop")
		}
	})
}
