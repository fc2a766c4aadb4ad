package internal

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// DispatchEvent describes a single candidate invocation during dispatch.
type DispatchEvent struct {
	Op       *Operator
	Slot     SlotID
	Receiver *Object
	Callable Callable
	Result   *Object
	Err      error
}

// TraceHook receives dispatch events while tracing is enabled on a thread.
type TraceHook func(vm *VM, ev DispatchEvent)

// SetTrace enables or disables dispatch tracing for this thread.
func (vm *VM) SetTrace(on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&vm.Trace, v)
}

// tracing reports whether tracing is enabled for this thread.
func (vm *VM) tracing() bool {
	return atomic.LoadUint32(&vm.Trace) != 0
}

// trace is the outlined slow path of dispatch tracing. Without a hook, events
// go to the VM's logger at debug level.
func (vm *VM) trace(ev DispatchEvent) {
	if vm.TraceHook != nil {
		vm.TraceHook(vm, ev)
		return
	}
	attrs := []slog.Attr{
		slog.String("op", ev.Op.Symbol),
		slog.String("slot", ev.Slot.Name()),
		slog.String("receiver", ev.Receiver.typ.Name),
		slog.String("kind", ev.Callable.Kind.String()),
	}
	switch {
	case ev.Err != nil:
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	case ev.Result == vm.NotImplemented:
		attrs = append(attrs, slog.Bool("declined", true))
	default:
		attrs = append(attrs, slog.String("result", ev.Result.typ.Name))
	}
	vm.Logger.LogAttrs(context.Background(), slog.LevelDebug, "dispatch", attrs...)
}
