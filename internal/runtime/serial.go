package runtime

import (
	"context"

	"code.hybscloud.com/atomix"
)

// Serial numbers dispatched effects process-wide, in dispatch order.
type Serial = uint32

var counter atomix.Uint32

func nextSerial() Serial {
	return counter.Add(1)
}

type serialKey struct{}

func withSerial(ctx context.Context, s Serial) context.Context {
	return context.WithValue(ctx, serialKey{}, s)
}

// SerialFrom returns the serial of the effect running with ctx.
func SerialFrom(ctx context.Context) (Serial, bool) {
	s, ok := ctx.Value(serialKey{}).(Serial)
	return s, ok
}
