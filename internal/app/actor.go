package app

import (
	"context"
	"errors"
	"fmt"

	"pokerduel/internal/domain"
)

// IntentKind names an inbound player intent.
type IntentKind string

const (
	IntentRegister   IntentKind = "register"
	IntentUnregister IntentKind = "unregister"
	IntentPlay       IntentKind = "play"
	IntentDiscard    IntentKind = "discard"
	IntentResync     IntentKind = "resync"
	IntentReset      IntentKind = "reset"
)

// Intent is a request submitted by a transport on behalf of a player.
type Intent struct {
	Kind   IntentKind
	UserID string
	Cards  []domain.Card
}

// Result is the outcome of applying one intent.
type Result struct {
	Intent Intent
	Events []Event
	Err    error
}

// ErrActorStopped is returned by Submit once the actor loop has exited.
var ErrActorStopped = errors.New("actor stopped")

// Apply runs a single intent against the engine.
func (e *Engine) Apply(in Intent) ([]Event, error) {
	switch in.Kind {
	case IntentRegister:
		return e.RegisterPlayer(in.UserID)
	case IntentUnregister:
		return e.UnregisterPlayer(in.UserID)
	case IntentPlay:
		return e.ProcessPlay(in.UserID, in.Cards)
	case IntentDiscard:
		return e.ProcessDiscard(in.UserID, in.Cards)
	case IntentResync:
		return e.RequestResync(in.UserID)
	case IntentReset:
		return e.Reset(), nil
	default:
		return nil, fmt.Errorf("unknown intent kind %q", in.Kind)
	}
}

// Actor serializes intents for one engine through a queue. Results are
// delivered to the sink in submission order from the Run goroutine.
type Actor struct {
	engine  *Engine
	intents chan Intent
	done    chan struct{}
	sink    func(Result)
}

// NewActor builds an actor with a queue of the given size. sink may be nil.
func NewActor(engine *Engine, queueSize int, sink func(Result)) *Actor {
	if sink == nil {
		sink = func(Result) {}
	}
	return &Actor{
		engine:  engine,
		intents: make(chan Intent, queueSize),
		done:    make(chan struct{}),
		sink:    sink,
	}
}

// Engine returns the engine the actor drives.
func (a *Actor) Engine() *Engine {
	return a.engine
}

// Submit enqueues an intent, blocking while the queue is full.
func (a *Actor) Submit(ctx context.Context, in Intent) error {
	select {
	case <-a.done:
		return ErrActorStopped
	default:
	}

	select {
	case a.intents <- in:
		return nil
	case <-a.done:
		return ErrActorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes intents until ctx is cancelled. An intent that has been
// dequeued before cancellation is applied to completion; intents still
// queued when ctx is cancelled are never applied and reach the sink with
// ErrActorStopped.
func (a *Actor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			a.stop()
			return err
		}
		select {
		case <-ctx.Done():
			a.stop()
			return ctx.Err()
		case in := <-a.intents:
			events, err := a.engine.Apply(in)
			a.sink(Result{Intent: in, Events: events, Err: err})
		}
	}
}

// stop closes done so Submit refuses new intents, then reports every
// intent left in the queue as stopped.
func (a *Actor) stop() {
	close(a.done)
	for {
		select {
		case in := <-a.intents:
			a.sink(Result{Intent: in, Err: ErrActorStopped})
		default:
			return
		}
	}
}
