package writeback

import (
	"sync"

	"github.com/contre95/soulwrite/src/music"
)

// Queue is an ordered set of tracks keyed by ID. Adding a track that is
// already queued is a no-op.
type Queue struct {
	mu     sync.Mutex
	order  []string
	tracks map[string]*music.Track
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{tracks: make(map[string]*music.Track)}
}

// Add appends the tracks not queued yet and returns how many were added.
func (q *Queue) Add(tracks ...*music.Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	added := 0
	for _, t := range tracks {
		if t == nil {
			continue
		}
		if _, ok := q.tracks[t.ID]; ok {
			continue
		}
		q.tracks[t.ID] = t
		q.order = append(q.order, t.ID)
		added++
	}
	return added
}

// Pop removes and returns the oldest track.
func (q *Queue) Pop() (*music.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return nil, false
	}
	id := q.order[0]
	q.order = q.order[1:]
	t := q.tracks[id]
	delete(q.tracks, id)
	return t, true
}

// Remove drops the track with the given ID, if queued.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.tracks[id]; !ok {
		return false
	}
	delete(q.tracks, id)
	for i, queued := range q.order {
		if queued == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether the track with the given ID is queued.
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.tracks[id]
	return ok
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Snapshot returns the queued tracks in order.
func (q *Queue) Snapshot() []*music.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*music.Track, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.tracks[id])
	}
	return out
}

// Take empties the queue and returns what it held.
func (q *Queue) Take() []*music.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*music.Track, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.tracks[id])
	}
	q.order = nil
	q.tracks = make(map[string]*music.Track)
	return out
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.Take()
}
