package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"babashop/internal/domain"
)

type memStore struct {
	mu        sync.Mutex
	events    []domain.OutboxEvent
	processed map[string]time.Time
	fetchErr  error
}

func (m *memStore) Unprocessed(_ context.Context, limit int) ([]domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []domain.OutboxEvent
	for _, e := range m.events {
		if _, ok := m.processed[e.ID]; ok {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) MarkProcessed(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[id] = at
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []domain.OutboxEvent
	fail map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, e domain.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[e.ID] {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newStore(ids ...string) *memStore {
	s := &memStore{processed: map[string]time.Time{}}
	for _, id := range ids {
		s.events = append(s.events, domain.OutboxEvent{
			ID: id, AggregateID: "order-" + id, EventType: domain.EventOrderCreated, Payload: []byte(`{}`),
		})
	}
	return s
}

func TestDrain_PublishesAndMarks(t *testing.T) {
	store := newStore("e1", "e2", "e3")
	pub := &fakePublisher{}
	p := NewPoller(store, pub, time.Second)

	assert.Equal(t, 3, p.Drain(context.Background()))
	assert.Len(t, pub.sent, 3)
	assert.Len(t, store.processed, 3)

	// nothing left on the next tick
	assert.Equal(t, 0, p.Drain(context.Background()))
	assert.Len(t, pub.sent, 3)
}

func TestDrain_FailedEventRetriedLater(t *testing.T) {
	store := newStore("e1", "e2")
	pub := &fakePublisher{fail: map[string]bool{"e2": true}}
	p := NewPoller(store, pub, time.Second)

	assert.Equal(t, 1, p.Drain(context.Background()))
	assert.NotContains(t, store.processed, "e2")

	pub.fail = nil
	assert.Equal(t, 1, p.Drain(context.Background()))
	assert.Contains(t, store.processed, "e2")
}

func TestDrain_FetchError(t *testing.T) {
	store := newStore("e1")
	store.fetchErr = errors.New("db down")
	pub := &fakePublisher{}

	assert.Equal(t, 0, NewPoller(store, pub, time.Second).Drain(context.Background()))
	assert.Empty(t, pub.sent)
}

func TestRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	store := newStore("e1")
	pub := &fakePublisher{}
	p := NewPoller(store, pub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
