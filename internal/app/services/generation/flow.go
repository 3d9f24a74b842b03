// Package generation produces stage content (clarifying Q&A, research
// assignments, PRDs) with external generators and caches it in the store.
//
// Every kind follows the same flow: look the value up, and on a miss take the
// per-key lock, look again, generate, persist, respond. Concurrent duplicate
// requests therefore make one generator call. Nothing is persisted when
// generation fails.
package generation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hackcrew/service_layer/internal/app/metrics"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/events"
	"github.com/hackcrew/service_layer/internal/lock"
	"github.com/hackcrew/service_layer/internal/logging"
)

// State is the generation state of one (kind, key) pair.
type State int

const (
	StateEmpty State = iota
	StateGenerating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateGenerating:
		return "GENERATING"
	case StateReady:
		return "READY"
	default:
		return "EMPTY"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Flow describes one kind of generated content.
type Flow[T any] struct {
	// Kind names the content in locks, metrics and events.
	Kind string
	// Lookup returns the cached value and whether there was one.
	Lookup func(ctx context.Context, key string) (T, bool, error)
	// Generate assembles inputs and calls the generator.
	Generate func(ctx context.Context, key string) (T, error)
	// Persist stores a generated value idempotently.
	Persist func(ctx context.Context, key string, value T) error
	// ReadBack answers a fresh generation with Lookup after Persist, so the
	// first response is shaped like every cached one.
	ReadBack bool
}

// Orchestrator runs flows under per-key locks and tracks in-flight work.
type Orchestrator struct {
	locker lock.Locker
	events events.Publisher
	log    *logging.Logger

	mu       sync.Mutex
	inflight map[string]int
}

// NewOrchestrator creates an orchestrator. Nil locker and publisher default to
// an in-process keyed mutex and a no-op publisher.
func NewOrchestrator(locker lock.Locker, pub events.Publisher, log *logging.Logger) *Orchestrator {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logging.NewDefault("generation")
	}
	return &Orchestrator{locker: locker, events: pub, log: log, inflight: make(map[string]int)}
}

func lockKey(kind, key string) string {
	return kind + ":" + key
}

func (o *Orchestrator) begin(k string) {
	o.mu.Lock()
	o.inflight[k]++
	o.mu.Unlock()
}

func (o *Orchestrator) end(k string) {
	o.mu.Lock()
	if o.inflight[k]--; o.inflight[k] <= 0 {
		delete(o.inflight, k)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) generating(k string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inflight[k] > 0
}

// Run returns the cached value for key or generates, persists and returns a
// new one.
func Run[T any](ctx context.Context, o *Orchestrator, f Flow[T], key string) (T, error) {
	var zero T
	entry := o.log.WithContext(ctx).WithField("kind", f.Kind).WithField("key", key)

	if v, ok, err := f.Lookup(ctx, key); err != nil {
		metrics.RecordGeneration(f.Kind, "failed")
		return zero, err
	} else if ok {
		metrics.RecordGeneration(f.Kind, "cache_hit")
		return v, nil
	}

	k := lockKey(f.Kind, key)
	release, err := o.locker.Lock(ctx, k)
	if err != nil {
		metrics.RecordGeneration(f.Kind, "failed")
		return zero, errors.Upstream(fmt.Sprintf("acquire %s generation lock", f.Kind), err)
	}
	defer release()

	// Another request may have finished while we waited.
	if v, ok, err := f.Lookup(ctx, key); err != nil {
		metrics.RecordGeneration(f.Kind, "failed")
		return zero, err
	} else if ok {
		metrics.RecordGeneration(f.Kind, "cache_hit")
		return v, nil
	}

	o.begin(k)
	defer o.end(k)

	v, err := f.Generate(ctx, key)
	if err != nil {
		metrics.RecordGeneration(f.Kind, "failed")
		entry.WithError(err).Warn("generation failed")
		return zero, err
	}
	if err := f.Persist(ctx, key, v); err != nil {
		metrics.RecordGeneration(f.Kind, "failed")
		entry.WithError(err).Warn("persist generated content")
		return zero, err
	}
	if f.ReadBack {
		stored, ok, err := f.Lookup(ctx, key)
		if err != nil {
			metrics.RecordGeneration(f.Kind, "failed")
			return zero, err
		}
		if ok {
			v = stored
		}
	}

	metrics.RecordGeneration(f.Kind, "generated")
	entry.Info("content generated")
	if err := o.events.Publish(ctx, events.SubjectGenerationCompleted, events.GenerationCompleted{Kind: f.Kind, ProjectID: key}); err != nil {
		entry.WithError(err).Warn("publish event")
	}
	return v, nil
}

// Status reports the state of key without generating anything. GENERATING is
// only visible for work running in this process.
func Status[T any](ctx context.Context, o *Orchestrator, f Flow[T], key string) (State, error) {
	if o.generating(lockKey(f.Kind, key)) {
		return StateGenerating, nil
	}
	_, ok, err := f.Lookup(ctx, key)
	if err != nil {
		return StateEmpty, err
	}
	if ok {
		return StateReady, nil
	}
	return StateEmpty, nil
}
