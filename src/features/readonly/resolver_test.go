package readonly

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolve_AsksOnceAndCaches(t *testing.T) {
	r := NewResolver(0)
	prompts := make(chan Prompt, 1)
	r.OnPrompt(func(p Prompt) { prompts <- p })

	done := make(chan Decision, 1)
	go func() {
		d, err := r.Resolve(context.Background(), "/music/ro.mp3")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- d
	}()

	p := <-prompts
	if p.Path != "/music/ro.mp3" || p.ID == "" {
		t.Fatalf("unexpected prompt %+v", p)
	}
	if pending, ok := r.Pending(); !ok || pending.ID != p.ID {
		t.Fatalf("expected prompt %s to be pending", p.ID)
	}
	if err := r.Answer(p.ID, Ignore); err != nil {
		t.Fatal(err)
	}
	if d := <-done; d != Ignore {
		t.Fatalf("expected Ignore, got %v", d)
	}

	// Second file in the same session is answered from the cache.
	d, err := r.Resolve(context.Background(), "/music/ro2.mp3")
	if err != nil || d != Ignore {
		t.Fatalf("expected cached Ignore, got %v, %v", d, err)
	}
	if _, ok := r.Pending(); ok {
		t.Error("expected no open prompt")
	}
	select {
	case <-prompts:
		t.Error("expected no second prompt")
	default:
	}

	r.Reset()
	if r.Decision() != Undecided {
		t.Error("expected Reset to forget the decision")
	}
}

func TestResolve_TimeoutLeavesFileUndecided(t *testing.T) {
	r := NewResolver(10 * time.Millisecond)
	d, err := r.Resolve(context.Background(), "/music/ro.mp3")
	if !errors.Is(err, ErrNoDecision) {
		t.Fatalf("expected ErrNoDecision on timeout, got %v", err)
	}
	if d != Undecided {
		t.Fatalf("expected Undecided on timeout, got %v", d)
	}
	if r.Decision() != Undecided {
		t.Errorf("expected session to stay undecided, got %v", r.Decision())
	}
	if _, ok := r.Pending(); ok {
		t.Error("expected prompt to be withdrawn")
	}
}

func TestResolve_ContextCancel(t *testing.T) {
	r := NewResolver(0)
	ctx, cancel := context.WithCancel(context.Background())
	r.OnPrompt(func(Prompt) { cancel() })

	d, err := r.Resolve(ctx, "/music/ro.mp3")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if d != Undecided {
		t.Errorf("expected Undecided, got %v", d)
	}
}

func TestAnswer_Errors(t *testing.T) {
	r := NewResolver(0)
	if err := r.Answer("nope", Skip); !errors.Is(err, ErrNoPrompt) {
		t.Errorf("expected ErrNoPrompt, got %v", err)
	}
	if err := r.Answer("nope", Undecided); !errors.Is(err, ErrInvalidAnswer) {
		t.Errorf("expected ErrInvalidAnswer, got %v", err)
	}
}

func TestParseDecision(t *testing.T) {
	tests := map[string]Decision{"ignore": Ignore, "SKIP": Skip, "Cancel": Cancel}
	for in, want := range tests {
		got, err := ParseDecision(in)
		if err != nil || got != want {
			t.Errorf("ParseDecision(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDecision("undecided"); err == nil {
		t.Error("expected undecided to be rejected")
	}
}
