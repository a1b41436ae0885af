package readonly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Decision is the per-session answer for read-only files.
type Decision int

const (
	Undecided Decision = iota
	// Ignore clears the read-only bit and writes anyway.
	Ignore
	// Skip leaves read-only files untouched and drops their pending changes.
	Skip
	// Cancel abandons every pending change in the library.
	Cancel
)

var decisionNames = []string{"undecided", "ignore", "skip", "cancel"}

func (d Decision) String() string {
	if int(d) < 0 || int(d) >= len(decisionNames) {
		return fmt.Sprintf("decision(%d)", int(d))
	}
	return decisionNames[d]
}

// ParseDecision maps a user supplied answer to a Decision.
func ParseDecision(s string) (Decision, error) {
	for i, name := range decisionNames[1:] {
		if strings.EqualFold(s, name) {
			return Decision(i + 1), nil
		}
	}
	return Undecided, fmt.Errorf("unknown decision %q", s)
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var (
	ErrNoPrompt      = errors.New("no open prompt with that id")
	ErrInvalidAnswer = errors.New("answer must be ignore, skip or cancel")
	ErrNoDecision    = errors.New("no read-only decision before the prompt timed out")
)

// Prompt is a question waiting for the foreground surface.
type Prompt struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`

	answer chan Decision
}

// Resolver asks once per session what to do with read-only files.
type Resolver struct {
	mu       sync.Mutex
	decision Decision
	pending  *Prompt
	timeout  time.Duration
	onPrompt func(Prompt)
}

// NewResolver creates a resolver. A zero timeout waits until the context ends.
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{timeout: timeout}
}

// OnPrompt sets a hook called whenever a new question is published.
func (r *Resolver) OnPrompt(fn func(Prompt)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPrompt = fn
}

// Decision returns the cached session decision.
func (r *Resolver) Decision() Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decision
}

// Reset forgets the session decision. Called at the start and end of a drain.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decision = Undecided
}

// Pending returns the open prompt, if any.
func (r *Resolver) Pending() (Prompt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return Prompt{}, false
	}
	return *r.pending, true
}

// Resolve returns the session decision for a read-only file at path, asking
// the foreground surface when none was made yet. A timeout returns
// ErrNoDecision and keeps the session Undecided.
func (r *Resolver) Resolve(ctx context.Context, path string) (Decision, error) {
	r.mu.Lock()
	if r.decision != Undecided {
		d := r.decision
		r.mu.Unlock()
		return d, nil
	}
	prompt := &Prompt{
		ID:        uuid.New().String(),
		Path:      path,
		CreatedAt: time.Now(),
		answer:    make(chan Decision, 1),
	}
	r.pending = prompt
	hook := r.onPrompt
	r.mu.Unlock()

	slog.Info("Read-only file found, waiting for a decision", "path", path, "prompt", prompt.ID)
	if hook != nil {
		hook(*prompt)
	}

	var timeout <-chan time.Time
	if r.timeout > 0 {
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case d := <-prompt.answer:
		r.mu.Lock()
		r.decision = d
		r.clearPending(prompt)
		r.mu.Unlock()
		slog.Info("Read-only decision made", "decision", d)
		return d, nil
	case <-timeout:
		r.mu.Lock()
		r.clearPending(prompt)
		r.mu.Unlock()
		slog.Warn("No read-only decision in time", "path", path, "timeout", r.timeout)
		return Undecided, ErrNoDecision
	case <-ctx.Done():
		r.mu.Lock()
		r.clearPending(prompt)
		r.mu.Unlock()
		return Undecided, ctx.Err()
	}
}

// clearPending must be called with r.mu held.
func (r *Resolver) clearPending(p *Prompt) {
	if r.pending == p {
		r.pending = nil
	}
}

// Answer delivers the foreground decision for the prompt with the given id.
func (r *Resolver) Answer(id string, d Decision) error {
	if d == Undecided {
		return ErrInvalidAnswer
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil || r.pending.ID != id {
		return ErrNoPrompt
	}
	select {
	case r.pending.answer <- d:
	default:
		return ErrNoPrompt
	}
	return nil
}
