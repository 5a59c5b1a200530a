package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "clientele/pkg/platform/audit"
	"clientele/pkg/platform/audit/store/memory"
)

// startAsync runs an async publisher the way the server does and returns a
// channel carrying Run's result.
func startAsync(ctx context.Context, store audit.Store, size int) (*Publisher, <-chan error) {
	pub := NewPublisher(store, WithAsyncBuffer(size))
	result := make(chan error, 1)
	go func() { result <- pub.Run(ctx) }()
	return pub, result
}

func eventsFor(t *testing.T, store *memory.InMemoryStore, subject string) []audit.Event {
	t.Helper()
	events, err := store.ListBySubject(context.Background(), subject)
	require.NoError(t, err)
	return events
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	subject := uuid.NewString()
	err := pub.Emit(context.Background(), audit.Event{
		Subject: subject,
		Action:  string(audit.EventClientCreated),
	})
	require.NoError(t, err)

	events := eventsFor(t, store, subject)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventClientCreated), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.NotEmpty(t, events[0].ID)
	assert.NoError(t, pub.Run(context.Background()), "sync mode has no worker to run")
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub, _ := startAsync(context.Background(), store, 10)
	defer pub.Close()

	subject := uuid.NewString()
	err := pub.Emit(context.Background(), audit.Event{
		Subject: subject,
		Action:  string(audit.EventClientUpdated),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(eventsFor(t, store, subject)) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_QueuedUntilRun(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	subject := uuid.NewString()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: subject, Action: string(audit.EventClientCreated)}))
	assert.Empty(t, eventsFor(t, store, subject))

	result := make(chan error, 1)
	go func() { result <- pub.Run(context.Background()) }()
	require.Eventually(t, func() bool {
		return len(eventsFor(t, store, subject)) == 1
	}, time.Second, 10*time.Millisecond)

	pub.Close()
	assert.NoError(t, <-result)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub, result := startAsync(context.Background(), store, 100)

	subject := uuid.NewString()
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			Subject: subject,
			Action:  string(audit.EventClientUpdated),
		})
		require.NoError(t, err)
	}

	pub.Close()
	assert.NoError(t, <-result)
	assert.Len(t, eventsFor(t, store, subject), 10, "all events should be drained on close")
}

func TestPublisher_CancelledRunDrainsAndStopsIntake(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	subject := uuid.NewString()
	for range 5 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: subject, Action: string(audit.EventClientUpdated)}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, pub.Run(ctx))

	assert.Len(t, eventsFor(t, store, subject), 5)
	err := pub.Emit(context.Background(), audit.Event{Subject: subject, Action: string(audit.EventClientUpdated)})
	assert.ErrorIs(t, err, ErrClosed)
	pub.Close()
}

func TestPublisher_RunTwice(t *testing.T) {
	pub, _ := startAsync(context.Background(), memory.NewInMemoryStore(), 1)
	defer pub.Close()

	require.Eventually(t, func() bool {
		return errors.Is(pub.Run(context.Background()), ErrAlreadyRunning)
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Subject: "x", Action: "client_created"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublisher_BufferFull_NoPanic(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub, _ := startAsync(context.Background(), store, 1)

	subject := uuid.NewString()
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for range 10 {
		wg.Go(func() {
			err := pub.Emit(context.Background(), audit.Event{
				Subject: subject,
				Action:  string(audit.EventClientCreated),
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, ErrBufferFull))
		})
	}
	wg.Wait()
	pub.Close()

	assert.Len(t, eventsFor(t, store, subject), accepted)
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	subject := uuid.NewString()
	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Subject: subject,
		Action:  string(audit.EventClientCreated),
	}))
	after := time.Now()

	events := eventsFor(t, store, subject)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	subject := uuid.NewString()
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Subject:   subject,
		Action:    string(audit.EventClientCreated),
		Timestamp: customTime,
	}))

	events := eventsFor(t, store, subject)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_MultipleEventsKeepOrder(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	subject := uuid.NewString()
	for _, action := range []audit.AuditEvent{
		audit.EventClientCreated,
		audit.EventClientUpdated,
		audit.EventClientDeactivated,
	} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: subject, Action: string(action)}))
	}

	result := eventsFor(t, store, subject)
	require.Len(t, result, 3)
	assert.Equal(t, string(audit.EventClientCreated), result[0].Action)
	assert.Equal(t, string(audit.EventClientUpdated), result[1].Action)
	assert.Equal(t, string(audit.EventClientDeactivated), result[2].Action)
}
