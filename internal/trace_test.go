package internal_test

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrtronium/opslot/internal"
	"github.com/zephyrtronium/opslot/testutils"
)

// TestTraceHook tests that a traced thread reports each candidate it invokes.
func TestTraceHook(t *testing.T) {
	vm := testutils.VM().NewThread()
	var mu sync.Mutex
	var events []internal.DispatchEvent
	vm.TraceHook = func(vm *internal.VM, ev internal.DispatchEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	cases := map[string]struct {
		src    string
		fail   bool
		slots  []internal.SlotID
		result []string
	}{
		"declined":  {"1 + 'a'", true, []internal.SlotID{internal.SlotAdd}, []string{"NotImplemented"}},
		"accepted":  {"1 + 2", false, []internal.SlotID{internal.SlotAdd}, []string{"3"}},
		"concat":    {"'a' + 'b'", false, []internal.SlotID{internal.SlotConcat}, []string{"'ab'"}},
		"reflected": {"1 + 2.5", false, []internal.SlotID{internal.SlotAdd, internal.SlotRAdd}, []string{"NotImplemented", "3.5"}},
		"repeat":    {"2 * 'ab'", false, []internal.SlotID{internal.SlotMul, internal.SlotRepeat}, []string{"NotImplemented", "'abab'"}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			events = events[:0]
			vm.SetTrace(true)
			_, err := vm.DoString(internal.NewEnv(nil), c.src, t.Name())
			vm.SetTrace(false)
			if (err != nil) != c.fail {
				t.Errorf("wrong error: %v", err)
			}
			if len(events) != len(c.slots) {
				t.Fatalf("wrong number of events: want %d, got %d", len(c.slots), len(events))
			}
			for i, ev := range events {
				if ev.Slot != c.slots[i] {
					t.Errorf("event %d: want slot %v, got %v", i, c.slots[i], ev.Slot)
				}
				if ev.Op.Symbol != "+" && ev.Op.Symbol != "*" {
					t.Errorf("event %d: wrong operator %s", i, ev.Op.Symbol)
				}
				if ev.Err != nil {
					t.Errorf("event %d: unexpected error %v", i, ev.Err)
					continue
				}
				s, err := vm.Repr(ev.Result)
				if err != nil {
					t.Fatal(err)
				}
				if s != c.result[i] {
					t.Errorf("event %d: want result %s, got %s", i, c.result[i], s)
				}
			}
		})
	}
	t.Run("disabled", func(t *testing.T) {
		events = events[:0]
		testutils.Run(t, vm, "1 + 2")
		if len(events) != 0 {
			t.Errorf("untraced evaluation produced %d events", len(events))
		}
	})
	t.Run("other-threads", func(t *testing.T) {
		events = events[:0]
		vm.SetTrace(true)
		defer vm.SetTrace(false)
		other := testutils.VM().NewThread()
		testutils.Run(t, other, "1 + 2")
		if len(events) != 0 {
			t.Errorf("tracing one thread traced another")
		}
		if other.TraceHook != nil {
			t.Errorf("trace hook leaked to another thread")
		}
	})
}

// TestTraceLogger tests that dispatch events go to the logger without a hook.
func TestTraceLogger(t *testing.T) {
	var buf bytes.Buffer
	vm := testutils.VM().NewThread()
	vm.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	vm.SetTrace(true)
	if _, err := vm.DoString(internal.NewEnv(nil), "1 - 'a'", "traced"); err == nil {
		t.Error("no error")
	}
	out := buf.String()
	for _, want := range []string{"msg=dispatch", "op=-", "slot=__sub__", "receiver=int", "kind=plain", "declined=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in log output:\n%s", want, out)
		}
	}
	t.Run("error", func(t *testing.T) {
		buf.Reset()
		testutils.Fail(t, vm, "1 // 0")
		if !strings.Contains(buf.String(), "error=\"ZeroDivisionError:") {
			t.Errorf("missing error in log output:\n%s", buf.String())
		}
	})
}
