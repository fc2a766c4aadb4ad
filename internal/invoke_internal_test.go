package internal

import (
	"testing"
)

// TestInvokeConventions tests how resolved callables receive their
// arguments.
func TestInvokeConventions(t *testing.T) {
	vm, err := NewVM(nil) // Not testutils.VM; that would cause an import cycle.
	if err != nil {
		t.Fatal(err)
	}
	var got []*Object
	record := func(vm *VM, args ...*Object) (*Object, error) {
		got = append(got[:0], args...)
		return vm.None, nil
	}
	recv, a, b := vm.NewStr("recv"), vm.NewStr("a"), vm.NewStr("b")
	cases := map[string]struct {
		c        Callable
		explicit bool
		args     []*Object
		want     []*Object
	}{
		"plain": {
			c:    Callable{Kind: Plain, Fn: vm.NewCFunction("f", nil, 3, 0, record)},
			args: []*Object{a, b},
			want: []*Object{recv, a, b},
		},
		"plain-optional": {
			c:    Callable{Kind: Plain, Fn: vm.NewCFunction("f", nil, 3, 1, record)},
			args: []*Object{a},
			want: []*Object{recv, a, vm.None},
		},
		"bound": {
			c:    Callable{Kind: Bound, Fn: vm.NewCFunction("f", nil, 2, 0, record)},
			args: []*Object{a, b},
			want: []*Object{a, b},
		},
		"bound-method": {
			c:    Callable{Kind: Bound, Fn: vm.NewMethod(recv, vm.NewCFunction("f", nil, 3, 0, record))},
			args: []*Object{a, b},
			want: []*Object{recv, a, b},
		},
		"explicit-plain": {
			c:        Callable{Kind: Plain, Fn: vm.NewCFunction("f", nil, 3, 0, record)},
			explicit: true,
			args:     []*Object{a, b, recv},
			want:     []*Object{a, b, recv},
		},
		"explicit-bound": {
			c:        Callable{Kind: Bound, Fn: vm.NewMethod(recv, vm.NewCFunction("f", nil, 4, 0, record))},
			explicit: true,
			args:     []*Object{a, b, a},
			want:     []*Object{recv, a, b, a},
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			got = nil
			var err error
			if c.explicit {
				_, err = vm.invokeExplicit(c.c, c.args...)
			} else {
				_, err = vm.invoke(c.c, recv, c.args...)
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(c.want) {
				t.Fatalf("wrong number of arguments: want %d, got %d", len(c.want), len(got))
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Errorf("wrong argument %d: want %v, got %v", i, c.want[i].Value, got[i].Value)
				}
			}
		})
	}
}

// TestInvokeArity tests argument count errors and arity panics.
func TestInvokeArity(t *testing.T) {
	vm, err := NewVM(nil)
	if err != nil {
		t.Fatal(err)
	}
	none := func(vm *VM, args ...*Object) (*Object, error) { return vm.None, nil }
	errCases := map[string]struct {
		fn   *Object
		args int
		msg  string
	}{
		"exact":        {vm.NewCFunction("f", nil, 2, 0, none), 1, "f() takes exactly 2 arguments (1 given)"},
		"exact-one":    {vm.NewCFunction("f", nil, 1, 0, none), 2, "f() takes exactly 1 argument (2 given)"},
		"too-few":      {vm.NewCFunction("f", nil, 3, 1, none), 1, "f expected at least 2 arguments, got 1"},
		"too-many":     {vm.NewCFunction("f", nil, 3, 1, none), 4, "f expected at most 3 arguments, got 4"},
		"user-many":    {vm.NewFunction("g", []string{"x"}, nil), 2, "g() takes 1 positional argument but 2 were given"},
		"user-few":     {vm.NewFunction("g", []string{"x", "y", "z"}, nil), 1, "g() missing 2 required positional arguments: 'y' and 'z'"},
		"not-callable": {vm.NewStr("s"), 0, "'str' object is not callable"},
	}
	for name, c := range errCases {
		t.Run(name, func(t *testing.T) {
			args := make([]*Object, c.args)
			for i := range args {
				args[i] = vm.None
			}
			_, err := vm.Call(c.fn, args...)
			e, ok := err.(*Exception)
			if !ok {
				t.Fatalf("want exception, got %v", err)
			}
			if e.Kind != TypeError || e.Msg != c.msg {
				t.Errorf("wrong exception: want TypeError: %s, got %v", c.msg, e)
			}
		})
	}
	panicCases := map[string]func(){
		"declared-arity": func() {
			vm.Call(vm.NewCFunction("f", nil, maxArity+1, 0, none))
		},
		"declared-zero": func() {
			vm.Call(vm.NewCFunction("f", nil, 0, 0, none))
		},
		"too-many-args": func() {
			c := Callable{Kind: Plain, Fn: vm.NewCFunction("f", nil, maxArity, 0, none)}
			vm.invoke(c, vm.None, vm.None, vm.None, vm.None, vm.None)
		},
		"explicit-bound": func() {
			c := Callable{Kind: Bound, Fn: vm.NewCFunction("f", nil, maxArity, 0, none)}
			vm.invokeExplicit(c, vm.None, vm.None, vm.None, vm.None)
		},
	}
	for name, f := range panicCases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				if _, ok := r.(*InternalArityError); !ok {
					t.Errorf("want InternalArityError panic, got %v", r)
				}
			}()
			f()
		})
	}
}

// TestRecursionGuard tests that user calls are limited per thread.
func TestRecursionGuard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.Recursion = 20
	vm, err := NewVM(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var fn *Object
	fn = vm.NewFunction("f", nil, func(vm *VM, args []*Object) (*Object, error) {
		return vm.Call(fn)
	})
	_, err = vm.Call(fn)
	if KindOf(err) != RecursionError {
		t.Errorf("want RecursionError, got %v", err)
	}
	if vm.Depth() != 0 {
		t.Errorf("depth not restored: %d", vm.Depth())
	}
	t.Run("thread", func(t *testing.T) {
		th := vm.NewThread()
		depth := 0
		var g *Object
		g = th.NewFunction("g", nil, func(vm *VM, args []*Object) (*Object, error) {
			depth = vm.Depth()
			if depth < 10 {
				return vm.Call(g)
			}
			return vm.None, nil
		})
		if _, err := th.Call(g); err != nil {
			t.Fatal(err)
		}
		if depth != 10 {
			t.Errorf("wrong depth: want 10, got %d", depth)
		}
		if vm.Depth() != 0 {
			t.Errorf("thread changed the depth of its parent: %d", vm.Depth())
		}
	})
}
