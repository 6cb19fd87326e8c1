package runtime

import (
	"context"

	"conduit/internal/route"
	"conduit/internal/session"
)

// Cmd is an asynchronous effect. It runs once, off the update loop, and its single
// return value is fed back to Update as a message.
type Cmd[M any] func(ctx context.Context) M

// Map wraps the message produced by c.
func Map[A, B any](c Cmd[A], f func(A) B) Cmd[B] {
	if c == nil {
		return nil
	}
	return func(ctx context.Context) B { return f(c(ctx)) }
}

// Orders collects what one Update call asks of the outside world.
type Orders[M any] struct {
	cmds    []Cmd[M]
	globals []session.GlobalMsg
	routes  []route.Route
}

// Perform schedules c. A nil Cmd is ignored.
func (o *Orders[M]) Perform(c Cmd[M]) {
	if c != nil {
		o.cmds = append(o.cmds, c)
	}
}

// SendGlobal emits a message for the root controller and every page.
func (o *Orders[M]) SendGlobal(g session.GlobalMsg) {
	o.globals = append(o.globals, g)
}

// GoTo asks the router to navigate.
func (o *Orders[M]) GoTo(r route.Route) {
	o.routes = append(o.routes, r)
}

func (o *Orders[M]) Cmds() []Cmd[M]               { return o.cmds }
func (o *Orders[M]) Globals() []session.GlobalMsg { return o.globals }
func (o *Orders[M]) Routes() []route.Route        { return o.routes }

// Empty reports whether nothing was ordered.
func (o *Orders[M]) Empty() bool {
	return len(o.cmds) == 0 && len(o.globals) == 0 && len(o.routes) == 0
}

// Forward moves the commands and navigation of from into to, wrapping messages with
// wrap, and returns the global messages for the caller to route.
func Forward[A, B any](from *Orders[A], wrap func(A) B, to *Orders[B]) []session.GlobalMsg {
	for _, c := range from.cmds {
		to.Perform(Map(c, wrap))
	}
	for _, r := range from.routes {
		to.GoTo(r)
	}
	globals := from.globals
	*from = Orders[A]{}
	return globals
}
