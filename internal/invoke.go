package internal

import (
	"fmt"
	"strings"
)

// maxArity is the largest number of arguments, receiver included, that a
// builtin implementation can declare.
const maxArity = 4

// Fn is the type of builtin implementations. For methods, args[0] is the
// receiver. len(args) always equals the declared arity; omitted optional
// arguments are None.
type Fn func(vm *VM, args ...*Object) (*Object, error)

// CFunction is a builtin function. Builtin slot implementations declare the
// type they belong to as their Owner.
type CFunction struct {
	Name  string
	Owner *Type
	// Arity is the number of arguments including the receiver, 1 through
	// maxArity. The last Optional of them may be omitted.
	Arity    int
	Optional int
	Fn       Fn
}

// NewCFunction creates a builtin function object.
func (vm *VM) NewCFunction(name string, owner *Type, arity, optional int, fn Fn) *Object {
	return vm.NewObject(vm.BuiltinType, &CFunction{Name: name, Owner: owner, Arity: arity, Optional: optional, Fn: fn})
}

// call calls the builtin using the calling convention for its arity.
func (f *CFunction) call(vm *VM, args []*Object) (*Object, error) {
	if f.Fn == nil || f.Arity < 1 || f.Arity > maxArity || f.Optional < 0 || f.Optional > f.Arity {
		panic(&InternalArityError{Name: f.Name, Arity: f.Arity})
	}
	n := len(args)
	if n > f.Arity || n < f.Arity-f.Optional {
		return nil, argCountError(vm, f.Name, f.Arity-f.Optional, f.Arity, n)
	}
	if n == f.Arity {
		return f.Fn(vm, args...)
	}
	var buf [maxArity]*Object
	copy(buf[:], args)
	for i := n; i < f.Arity; i++ {
		buf[i] = vm.None
	}
	return f.Fn(vm, buf[:f.Arity]...)
}

func argCountError(vm *VM, name string, min, max, have int) error {
	switch {
	case min == max:
		return vm.NewException(TypeError, "%s() takes exactly %d argument%s (%d given)", name, max, plural(max), have)
	case have < min:
		return vm.NewException(TypeError, "%s expected at least %d argument%s, got %d", name, min, plural(min), have)
	}
	return vm.NewException(TypeError, "%s expected at most %d argument%s, got %d", name, max, plural(max), have)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Function is a user-defined function.
type Function struct {
	Name   string
	Params []string
	// Body evaluates the function. len(args) == len(Params).
	Body func(vm *VM, args []*Object) (*Object, error)
}

// NewFunction creates a user function object.
func (vm *VM) NewFunction(name string, params []string, body func(vm *VM, args []*Object) (*Object, error)) *Object {
	return vm.NewObject(vm.FunctionType, &Function{Name: name, Params: params, Body: body})
}

func (vm *VM) callFunction(f *Function, args []*Object) (*Object, error) {
	switch {
	case len(args) > len(f.Params):
		return nil, vm.NewException(TypeError, "%s() takes %d positional argument%s but %d were given", f.Name, len(f.Params), plural(len(f.Params)), len(args))
	case len(args) < len(f.Params):
		missing := f.Params[len(args):]
		q := make([]string, len(missing))
		for i, p := range missing {
			q[i] = "'" + p + "'"
		}
		return nil, vm.NewException(TypeError, "%s() missing %d required positional argument%s: %s", f.Name, len(missing), plural(len(missing)), strings.Join(q, " and "))
	}
	if err := vm.enter(); err != nil {
		return nil, err
	}
	defer vm.leave()
	return f.Body(vm, args)
}

// Method is a function with its first argument bound.
type Method struct {
	Self *Object
	Func *Object
}

// NewMethod creates a bound method object.
func (vm *VM) NewMethod(self, fn *Object) *Object {
	return vm.NewObject(vm.MethodType, &Method{Self: self, Func: fn})
}

// Call calls fn with args.
func (vm *VM) Call(fn *Object, args ...*Object) (*Object, error) {
	switch f := fn.Value.(type) {
	case *CFunction:
		return f.call(vm, args)
	case *Function:
		return vm.callFunction(f, args)
	case *Method:
		all := make([]*Object, 0, len(args)+1)
		all = append(all, f.Self)
		all = append(all, args...)
		return vm.Call(f.Func, all...)
	case *Type:
		return vm.instantiate(f, args)
	}
	ref := vm.lookupSlot(fn.typ, SlotCall)
	if !ref.present() {
		return nil, vm.NewException(TypeError, "'%s' object is not callable", fn.typ.Name)
	}
	c, err := vm.bind(ref, fn, false)
	if err != nil {
		return nil, err
	}
	if c.Kind == Plain {
		all := make([]*Object, 0, len(args)+1)
		all = append(all, fn)
		all = append(all, args...)
		return vm.Call(c.Fn, all...)
	}
	return vm.Call(c.Fn, args...)
}

// instantiate calls a type object.
func (vm *VM) instantiate(t *Type, args []*Object) (*Object, error) {
	l := t.layout
	if l == nil || l.construct == nil {
		return nil, vm.NewException(TypeError, "cannot create '%s' instances", t.Name)
	}
	return l.construct(vm, t, args)
}

// invoke calls a resolved slot on behalf of recv, passing args after it. A
// plain callable receives recv as its first argument; a bound one already has
// it. The total number of arguments, receiver included, is at most maxArity.
func (vm *VM) invoke(c Callable, recv *Object, args ...*Object) (*Object, error) {
	if len(args)+1 > maxArity {
		panic(&InternalArityError{Name: calleeName(c.Fn), Arity: len(args) + 1})
	}
	switch c.Kind {
	case Plain:
		var buf [maxArity]*Object
		buf[0] = recv
		n := copy(buf[1:], args)
		return vm.Call(c.Fn, buf[:n+1]...)
	case Bound:
		return vm.Call(c.Fn, args...)
	case Absent:
		panic("opslot: invoke of an absent callable")
	}
	panic(fmt.Sprintf("opslot: unknown callable kind %d", c.Kind))
}

// invokeExplicit calls a resolved slot with exactly args. A bound callable
// adds its own receiver, so it accepts one argument fewer.
func (vm *VM) invokeExplicit(c Callable, args ...*Object) (*Object, error) {
	switch c.Kind {
	case Plain:
		if len(args) > maxArity {
			panic(&InternalArityError{Name: calleeName(c.Fn), Arity: len(args)})
		}
	case Bound:
		if len(args)+1 > maxArity {
			panic(&InternalArityError{Name: calleeName(c.Fn), Arity: len(args) + 1})
		}
	case Absent:
		panic("opslot: invoke of an absent callable")
	}
	return vm.Call(c.Fn, args...)
}

// calleeName returns a name for fn suitable for messages.
func calleeName(fn *Object) string {
	switch f := fn.Value.(type) {
	case *CFunction:
		return f.Name
	case *Function:
		return f.Name
	case *Method:
		return calleeName(f.Func)
	case *Type:
		return f.Name
	}
	return fn.typ.Name + " object"
}
