// Package runtime runs an Elm-style program: one goroutine applies messages to the
// model in FIFO order, and every command runs on its own goroutine and feeds exactly one
// message back.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"conduit/internal/route"
	"conduit/internal/utils"
)

// Updater is the root update function of a program.
type Updater[M any] interface {
	Update(msg M, orders *Orders[M])
}

// Options configures a Scheduler.
type Options struct {
	Log *utils.Logger
	// Navigate receives every route requested by an update. Nil drops them.
	Navigate func(route.Route)
}

// Scheduler delivers messages to an Updater one at a time.
type Scheduler[M any] struct {
	app      Updater[M]
	box      *mailbox[M]
	log      *utils.Logger
	navigate func(route.Route)

	mu       sync.Mutex
	inflight int
	onPanic  func(recovered any) M
	done     chan struct{}
	stopOnce sync.Once
}

func NewScheduler[M any](app Updater[M], opts Options) *Scheduler[M] {
	log := opts.Log
	if log == nil {
		log = utils.Discard()
	}
	return &Scheduler[M]{
		app:      app,
		box:      newMailbox[M](),
		log:      log,
		navigate: opts.Navigate,
		done:     make(chan struct{}),
	}
}

// OnPanic sets the message delivered in place of the result of an effect that panics.
// Without it the effect ends with no message.
func (s *Scheduler[M]) OnPanic(f func(recovered any) M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPanic = f
}

// Send queues msg behind every message already queued.
func (s *Scheduler[M]) Send(msg M) {
	s.box.push(msg)
}

// InFlight returns the number of effects that have not delivered their message yet.
func (s *Scheduler[M]) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// Step processes the next queued message, if any.
func (s *Scheduler[M]) Step(ctx context.Context) bool {
	msg, ok := s.box.pop()
	if !ok {
		return false
	}
	s.process(ctx, msg)
	return true
}

// Settle processes messages until the queue is empty and no effect is in flight.
func (s *Scheduler[M]) Settle(ctx context.Context) error {
	for {
		if s.Step(ctx) {
			continue
		}
		// effects push before they decrement, so this order cannot miss a message
		if s.InFlight() == 0 && s.box.len() == 0 {
			return nil
		}
		select {
		case <-s.box.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run processes messages until ctx is done or Stop is called.
func (s *Scheduler[M]) Run(ctx context.Context) error {
	for {
		for s.Step(ctx) {
		}
		select {
		case <-s.box.notify:
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends Run. Effects still in flight finish but their messages are dropped.
func (s *Scheduler[M]) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Scheduler[M]) process(ctx context.Context, msg M) {
	var orders Orders[M]
	s.app.Update(msg, &orders)

	for _, r := range orders.Routes() {
		if s.navigate != nil {
			s.navigate(r)
		}
	}
	if n := len(orders.Globals()); n > 0 {
		s.log.Warnf("scheduler: %d global message(s) reached the scheduler unhandled after %T", n, msg)
	}
	for _, c := range orders.Cmds() {
		s.spawn(ctx, c)
	}
}

func (s *Scheduler[M]) spawn(ctx context.Context, c Cmd[M]) {
	serial := nextSerial()
	s.mu.Lock()
	s.inflight++
	onPanic := s.onPanic
	s.mu.Unlock()
	s.log.Infof("effect #%d dispatched", serial)

	go func() {
		defer func() {
			s.mu.Lock()
			s.inflight--
			s.mu.Unlock()
			s.box.wake()
		}()
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			s.log.Error(fmt.Sprintf("effect #%d panicked: %v", serial, r))
			if onPanic != nil {
				s.deliver(serial, onPanic(r))
			}
		}()

		s.deliver(serial, c(withSerial(ctx, serial)))
	}()
}

func (s *Scheduler[M]) deliver(serial Serial, msg M) {
	select {
	case <-s.done:
		s.log.Warnf("effect #%d resolved after stop, message dropped", serial)
		return
	default:
	}
	s.box.push(msg)
	s.log.Infof("effect #%d resolved with %T", serial, msg)
}
