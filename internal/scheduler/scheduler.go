package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/database"
)

const (
	// DefaultFrequency applies to sources stored without a positive frequency.
	DefaultFrequency = 10 * time.Minute
	// DefaultInitialDelay spreads the first refresh of never-fetched sources.
	DefaultInitialDelay = 5 * time.Second

	idleWait = 24 * time.Hour
)

// ScheduledTask represents a task in the priority queue.
type ScheduledTask struct {
	Source   *database.CatalogSource
	NextRun  time.Time
	index    int
	taskFunc func(src *database.CatalogSource)
}

// PriorityQueue implements heap.Interface ordered by NextRun.
type PriorityQueue []*ScheduledTask

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	return pq[i].NextRun.Before(pq[j].NextRun)
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

// Push adds an item to the priority queue.
func (pq *PriorityQueue) Push(x any) {
	item := x.(*ScheduledTask)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

// Pop removes and returns the item with the earliest NextRun time.
func (pq *PriorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// CatalogScheduler runs catalog refreshes at each source's frequency.
type CatalogScheduler struct {
	// InitialDelay is the wait before the first refresh of a never-fetched source.
	InitialDelay time.Duration

	defaultFrequency time.Duration

	mu      sync.Mutex
	pq      PriorityQueue
	wake    chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	running bool
	tasks   sync.WaitGroup
}

// NewCatalogScheduler creates a scheduler. A non-positive defaultFrequency
// selects DefaultFrequency.
func NewCatalogScheduler(defaultFrequency time.Duration) *CatalogScheduler {
	if defaultFrequency <= 0 {
		defaultFrequency = DefaultFrequency
	}
	return &CatalogScheduler{
		InitialDelay:     DefaultInitialDelay,
		defaultFrequency: defaultFrequency,
		pq:               make(PriorityQueue, 0),
		wake:             make(chan struct{}, 1),
	}
}

func (s *CatalogScheduler) frequency(src *database.CatalogSource) time.Duration {
	if src.FrequencySeconds <= 0 {
		return s.defaultFrequency
	}
	return time.Duration(src.FrequencySeconds) * time.Second
}

// Add schedules a source for periodic refresh. A source fetched before is next
// run one frequency after its last fetch, or immediately when that is overdue.
func (s *CatalogScheduler) Add(src *database.CatalogSource, taskFunc func(src *database.CatalogSource)) error {
	now := time.Now()
	nextRun := now.Add(s.InitialDelay)
	if src.LastFetchedAt != nil {
		nextRun = src.LastFetchedAt.Add(s.frequency(src))
		if nextRun.Before(now) {
			nextRun = now
		}
	}

	s.mu.Lock()
	heap.Push(&s.pq, &ScheduledTask{Source: src, NextRun: nextRun, taskFunc: taskFunc})
	s.mu.Unlock()

	log.Info().Int64("source_id", src.ID).Str("url", src.URL).Time("initial_run_at", nextRun).Msg("Catalog source added to scheduler")
	s.notify()
	return nil
}

// Remove unschedules a source. It reports whether the source was scheduled.
func (s *CatalogScheduler) Remove(sourceID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.pq {
		if task.Source.ID == sourceID {
			heap.Remove(&s.pq, task.index)
			return true
		}
	}
	return false
}

// Len returns the number of scheduled sources.
func (s *CatalogScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pq.Len()
}

func (s *CatalogScheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start begins the scheduler loop. It stops when ctx is done or Stop is called.
func (s *CatalogScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	log.Info().Msg("Scheduler started")
	go s.loop(ctx, stopCh, done)
}

func (s *CatalogScheduler) loop(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)
	for {
		timer := time.NewTimer(s.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			s.markStopped()
			return
		case <-stopCh:
			timer.Stop()
			s.markStopped()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			s.runPendingTasks()
		}
	}
}

func (s *CatalogScheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	log.Info().Msg("Scheduler stopped")
}

func (s *CatalogScheduler) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pq.Len() == 0 {
		return idleWait
	}
	d := time.Until(s.pq[0].NextRun)
	if d < 0 {
		d = 0
	}
	return d
}

func (s *CatalogScheduler) runPendingTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for s.pq.Len() > 0 {
		task := s.pq[0]
		if task.NextRun.After(now) {
			break
		}
		heap.Pop(&s.pq)

		log.Debug().Int64("source_id", task.Source.ID).Str("url", task.Source.URL).Msg("Executing scheduled catalog refresh")
		s.tasks.Add(1)
		go func(t *ScheduledTask) {
			defer s.tasks.Done()
			t.taskFunc(t.Source)
		}(task)

		task.NextRun = now.Add(s.frequency(task.Source))
		heap.Push(&s.pq, task)
	}
}

// Stop halts the loop and waits for in-flight refreshes to return.
func (s *CatalogScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.tasks.Wait()
		return
	}
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.tasks.Wait()
	log.Info().Msg("Scheduler stop complete")
}
