package writeback

import (
	"testing"

	"github.com/contre95/soulwrite/src/music"
)

func TestQueue(t *testing.T) {
	q := NewQueue()
	a := music.NewTrack("a", "/a.mp3", music.Fields{})
	b := music.NewTrack("b", "/b.mp3", music.Fields{})
	c := music.NewTrack("c", "/c.mp3", music.Fields{})

	if added := q.Add(a, b, a, nil); added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}
	q.Add(c)
	if !q.Remove("b") || q.Remove("b") {
		t.Fatal("expected b to be removed once")
	}
	if !q.Contains("a") || q.Contains("b") {
		t.Fatal("unexpected membership")
	}

	first, ok := q.Pop()
	if !ok || first != a {
		t.Fatalf("expected a first, got %v", first)
	}
	if q.Add(a) != 1 {
		t.Fatal("expected a popped track to be accepted again")
	}

	got := q.Take()
	if len(got) != 2 || got[0] != c || got[1] != a {
		t.Fatalf("unexpected order %v", got)
	}
	if q.Len() != 0 {
		t.Fatal("expected Take to empty the queue")
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected Pop on an empty queue to fail")
	}
}
