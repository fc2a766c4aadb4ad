package internal_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/zephyrtronium/opslot/internal"
	"github.com/zephyrtronium/opslot/testutils"
)

// TestTernaryPow tests three-argument pow through the expression language.
func TestTernaryPow(t *testing.T) {
	prelude := `
class Z: __pow__ = lambda v, w, z: 'Z'
class V: __pow__ = lambda v, w, z: 'V'
class W: __rpow__ = lambda w, v, z: 'W'
class N: __pow__ = lambda v, w, z: NotImplemented
`
	cases := map[string]testutils.Source{
		"modular":        {Source: "pow(2, 10, 1000)", Want: "24"},
		"inverse":        {Source: "pow(2, -1, 5)", Want: "3"},
		"inverse-big":    {Source: "pow(3, -2, 7)", Want: "4"},
		"negative-mod":   {Source: "pow(2, 3, -3)", Want: "-1"},
		"two-arg":        {Source: "pow(2, 3)", Want: "8"},
		"two-arg-float":  {Source: "pow(4.0, 0.5)", Want: "2.0"},
		"explicit-none":  {Source: "pow(2, 3, None)", Want: "8"},
		"power-operator": {Source: "3 ** 2", Want: "9"},
		"third":          {Source: prelude + "pow(2, 3, Z())", Want: "'Z'"},
		"first":          {Source: prelude + "pow(V(), 2, Z())", Want: "'V'"},
		"second":         {Source: prelude + "pow(2, W(), Z())", Want: "'W'"},
		"first-declines": {Source: prelude + "pow(N(), W(), Z())", Want: "'W'"},
		"all-but-third":  {Source: prelude + "pow(N(), N(), Z())", Want: "'Z'"},
		"bool":           {Source: "pow(True, 2, 5)", Want: "1"},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc())
	}
}

// TestTernaryErrors tests the exceptions raised by ternary dispatch.
func TestTernaryErrors(t *testing.T) {
	vm := testutils.VM()
	cases := map[string]struct {
		src  string
		kind internal.ExceptionKind
		msg  string
	}{
		"all-str":        {"pow('a', 'b', 'c')", internal.TypeError, "TypeError: unsupported operand type(s) for ** or pow(): 'str', 'str', 'str'"},
		"two-str":        {"pow('a', 'b')", internal.TypeError, "TypeError: unsupported operand type(s) for ** or pow(): 'str' and 'str'"},
		"operator":       {"'a' ** 2", internal.TypeError, "TypeError: unsupported operand type(s) for ** or pow(): 'str' and 'int'"},
		"owner-decline":  {"pow('a', 2, 3)", internal.TypeError, "TypeError: unsupported operand type(s) for ** or pow(): 'str', 'int', 'int'"},
		"float-mod":      {"pow(2.0, 2, 3)", internal.TypeError, "TypeError: pow() 3rd argument not allowed unless all arguments are integers"},
		"zero-mod":       {"pow(2, 3, 0)", internal.ValueError, "ValueError: pow() 3rd argument cannot be 0"},
		"not-invertible": {"pow(2, -1, 4)", internal.ValueError, "ValueError: base is not invertible for the given modulus"},
		"fractional":     {"pow(-8.0, 0.5)", internal.ValueError, "ValueError: negative number cannot be raised to a fractional power"},
		"arity":          {"pow(1)", internal.TypeError, "TypeError: pow expected at least 2 arguments, got 1"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := testutils.Fail(t, vm, c.src)
			if internal.KindOf(err) != c.kind {
				t.Errorf("wrong kind: want %s, got %v", c.kind, err)
			}
			if err.Error() != c.msg {
				t.Errorf("wrong message:\nwant %s\ngot  %s", c.msg, err.Error())
			}
		})
	}
}

// TestTernaryShortCircuit tests that later candidates do not run once an
// earlier one accepts, and that the third operand is bound only when needed.
func TestTernaryShortCircuit(t *testing.T) {
	vm := testutils.VM()
	var zCalls, zBinds atomic.Int32
	zpow := vm.NewCFunction("zpow", nil, 4, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
		zCalls.Add(1)
		return vm.NewStr("Z"), nil
	})
	desc := newType(t, vm, "ZDesc", map[string]*internal.Object{
		"__get__": vm.NewCFunction("__get__", nil, 3, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
			zBinds.Add(1)
			return vm.NewMethod(args[1], zpow), nil
		}),
	})
	zt := newType(t, vm, "ZT", map[string]*internal.Object{"__pow__": vm.NewObject(desc, nil)})
	accept := vm.NewCFunction("accept", nil, 3, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
		return vm.NewStr("V"), nil
	})
	decline := vm.NewCFunction("decline", nil, 3, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
		return vm.NotImplemented, nil
	})
	vt := newType(t, vm, "VT", map[string]*internal.Object{"__pow__": accept})
	nt := newType(t, vm, "NT", map[string]*internal.Object{"__pow__": decline, "__rpow__": decline})
	op := vm.Ops.Lookup("**")

	t.Run("accepted", func(t *testing.T) {
		zCalls.Store(0)
		zBinds.Store(0)
		r, err := vm.EvalTernary(op, vm.NewObject(vt, nil), vm.NewInt(2), vm.NewObject(zt, nil))
		if err != nil {
			t.Fatal(err)
		}
		if r.Value != "V" {
			t.Errorf("wrong result: %v", r.Value)
		}
		if zBinds.Load() != 0 || zCalls.Load() != 0 {
			t.Errorf("third operand used: %d binds, %d calls", zBinds.Load(), zCalls.Load())
		}
	})
	t.Run("declined", func(t *testing.T) {
		zCalls.Store(0)
		zBinds.Store(0)
		r, err := vm.EvalTernary(op, vm.NewObject(nt, nil), vm.NewObject(nt, nil), vm.NewObject(zt, nil))
		if err != nil {
			t.Fatal(err)
		}
		if r.Value != "Z" {
			t.Errorf("wrong result: %v", r.Value)
		}
		if zBinds.Load() != 1 || zCalls.Load() != 1 {
			t.Errorf("third operand used wrongly: %d binds, %d calls", zBinds.Load(), zCalls.Load())
		}
	})
	t.Run("same-impl", func(t *testing.T) {
		// The third operand's implementation is the one that already
		// declined, so it is not tried again.
		r, err := vm.DispatchTernary(op, vm.NewObject(nt, nil), vm.NewInt(2), vm.NewObject(nt, nil), nil)
		if err != nil {
			t.Fatal(err)
		}
		if r != vm.NotImplemented {
			t.Errorf("want NotImplemented, got %v", r)
		}
	})
	t.Run("binary-operator", func(t *testing.T) {
		_, err := vm.DispatchTernary(vm.Ops.Lookup("+"), vm.NewInt(1), vm.NewInt(2), vm.NewInt(3), nil)
		if internal.KindOf(err) != internal.TypeError {
			t.Errorf("want TypeError, got %v", err)
		}
	})
	t.Run("unsupported-types", func(t *testing.T) {
		_, err := vm.EvalTernary(op, vm.NewObject(nt, nil), vm.NewStr("w"), vm.NewObject(nt, nil))
		var u *internal.UnsupportedOperandsError
		if !errors.As(err, &u) {
			t.Fatalf("want UnsupportedOperandsError, got %v", err)
		}
		if len(u.Types) != 3 || u.Types[0] != "NT" || u.Types[1] != "str" || u.Types[2] != "NT" {
			t.Errorf("wrong types: %v", u.Types)
		}
	})
}
