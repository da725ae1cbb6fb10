package app

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// recorder is a SignalConnection that keeps every frame it is sent.
type recorder struct {
	mu     sync.Mutex
	frames []core.Envelope
	full   bool
	closed bool
}

func (r *recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return core.ErrConnClosed
	}
	if r.full {
		return core.ErrBackpressure
	}
	var env core.Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		return err
	}
	r.frames = append(r.frames, env)
	return nil
}

func (r *recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.frames))
	for _, f := range r.frames {
		out = append(out, f.Type)
	}
	return out
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events() {
		if e == event {
			n++
		}
	}
	return n
}

// last decodes the data of the most recent frame of event into v.
func (r *recorder) last(t *testing.T, event string, v any) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].Type == event {
			require.NoError(t, json.Unmarshal(r.frames[i].Data, v))
			return
		}
	}
	require.Failf(t, "event not received", "no %q frame among %d", event, len(r.frames))
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

// stepClock returns a clock that advances by one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func attach(t *testing.T, r *Router, ids ...core.ConnID) map[core.ConnID]*recorder {
	t.Helper()
	out := make(map[core.ConnID]*recorder, len(ids))
	for _, id := range ids {
		rec := &recorder{}
		r.Attach(id, rec)
		out[id] = rec
	}
	return out
}

var (
	ann = domain.Identity{UserID: "u1", UserName: "Ann"}
	bo  = domain.Identity{UserID: "u2", UserName: "Bo"}
	cy  = domain.Identity{UserID: "u3", UserName: "Cy"}
)
