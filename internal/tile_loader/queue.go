package tile_loader

import (
	"sync"

	"github.com/google/uuid"

	"mapedit/internal/tile"
)

// job is one queued tile fetch. The ID only serves log correlation.
type job struct {
	ID   uuid.UUID
	Tile tile.Tile
}

// lifoQueue is an unbounded last-in-first-out job queue. LIFO matters here:
// the newest request is the tile nearest the user's current viewport, so it is
// served before stale scroll-throughs queued earlier. Deduplication is not the
// queue's job; the cache store's Decide already collapses duplicates.
type lifoQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []job
	closed bool
}

func newLIFOQueue() *lifoQueue {
	q := &lifoQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push adds a job. Returns false if the queue is closed.
func (q *lifoQueue) Push(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)
	q.cond.Signal()
	return true
}

// Pop blocks until a job is available and removes the most recently pushed
// one. Returns false once the queue is closed; remaining jobs are abandoned.
func (q *lifoQueue) Pop() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return job{}, false
	}
	j := q.jobs[len(q.jobs)-1]
	q.jobs = q.jobs[:len(q.jobs)-1]
	return j, true
}

// Close stops the queue. Blocked Pop calls return, outstanding jobs are
// dropped and further pushes are rejected.
func (q *lifoQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *lifoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
