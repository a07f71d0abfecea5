package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

func (s *Store) appendTimeline(event domain.TimelineEvent) {
	events := append(s.timeline[event.OrderID], event)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Occurred.Before(events[j].Occurred)
	})
	s.timeline[event.OrderID] = events
}

// timelineRepositoryInMemory хранит события в памяти (для разработки/тестов).
type timelineRepositoryInMemory struct {
	s *Store
}

// NewTimelineRepository создаёт in-memory реализацию TimelineRepository.
func NewTimelineRepository(store *Store) domain.TimelineRepository {
	return &timelineRepositoryInMemory{s: store}
}

// Append добавляет событие в хранилище.
func (r *timelineRepositoryInMemory) Append(_ context.Context, event domain.TimelineEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendTimeline(event)
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *timelineRepositoryInMemory) List(_ context.Context, orderID string) ([]domain.TimelineEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := r.s.timeline[orderID]
	result := make([]domain.TimelineEvent, len(events))
	copy(result, events)
	return result, nil
}

type txTimeline struct{ tx *memTx }

func (t txTimeline) Append(_ context.Context, event domain.TimelineEvent) error {
	s := t.tx.s
	previous := s.timeline[event.OrderID]
	snapshot := make([]domain.TimelineEvent, len(previous))
	copy(snapshot, previous)
	s.appendTimeline(event)
	t.tx.onRollback(func() {
		if len(snapshot) == 0 {
			delete(s.timeline, event.OrderID)
			return
		}
		s.timeline[event.OrderID] = snapshot
	})
	return nil
}

var (
	_ domain.TimelineRepository = (*timelineRepositoryInMemory)(nil)
	_ domain.TimelineWriter     = txTimeline{}
)
