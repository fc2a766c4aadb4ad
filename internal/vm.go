package internal

import (
	"log/slog"
	"math/big"
	"sync/atomic"
)

// Version is the interpreter version.
const Version = "1"

// VM is the state of one thread of evaluation. The types, singletons,
// operator table, and call sites it refers to are shared by every thread
// created from it with NewThread; the recursion guards are not.
type VM struct {
	// Singletons.
	None           *Object
	NotImplemented *Object
	True           *Object
	False          *Object

	// Builtin types.
	ObjectType         *Type
	TypeType           *Type
	NoneType           *Type
	NotImplementedType *Type
	IntType            *Type
	BoolType           *Type
	FloatType          *Type
	StrType            *Type
	ListType           *Type
	TupleType          *Type
	FunctionType       *Type
	BuiltinType        *Type
	MethodType         *Type
	StaticMethodType   *Type
	ClassMethodType    *Type

	// Builtins holds the names visible to every program. It must not be
	// modified once NewVM returns.
	Builtins map[string]*Object

	// Ops is the operator table.
	Ops *OperatorTable
	// Limits bounds call-site caches and recursion.
	Limits Limits
	// Logger receives call-site transitions and, while tracing, dispatch
	// events.
	Logger *slog.Logger
	// TraceHook, if not nil, receives dispatch events instead of Logger.
	TraceHook TraceHook
	// Platform describes the host operating system, when known.
	Platform string

	// Trace is an atomic flag controlling whether dispatch tracing is
	// enabled for this thread.
	Trace uint32

	// sites is the list of call sites shared by all threads.
	sites *siteList
	// inline counts active cached uses of each implementation on this
	// thread.
	inline map[*Object]int
	// depth is the user call depth of this thread.
	depth int
	// repring is the set of containers being formatted on this thread.
	repring map[*Object]bool

	// intCache holds the small ints.
	intCache []*Object
}

// NewVM creates a VM with the given configuration. A nil cfg uses
// DefaultConfig.
func NewVM(cfg *Config) (*VM, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ops, err := cfg.Compile()
	if err != nil {
		return nil, err
	}
	vm := &VM{
		Ops:      ops,
		Limits:   cfg.Limits,
		Logger:   slog.Default(),
		Platform: platformVersion(),
		sites:    &siteList{},
		inline:   make(map[*Object]int),
		repring:  make(map[*Object]bool),
	}
	// There is a specific order for initialization. object and type come
	// first so that every other type gets a type object. builtin_function
	// must exist before anything defines a method, and int must exist before
	// bool. The builtin namespace is last because it refers to everything.
	vm.initTypes()
	vm.initObject()
	vm.initFunction()
	vm.initInt()
	vm.initBool()
	vm.initFloat()
	vm.initStr()
	vm.initList()
	vm.initTuple()
	vm.initBuiltins()
	return vm, nil
}

// NewThread returns a VM for another thread of evaluation. It shares
// everything with vm except the recursion guards.
func (vm *VM) NewThread() *VM {
	t := *vm
	t.Trace = atomic.LoadUint32(&vm.Trace)
	t.inline = make(map[*Object]int)
	t.depth = 0
	t.repring = make(map[*Object]bool)
	return &t
}

// initTypes creates the builtin types. Their dictionaries are filled in by
// the other init methods.
func (vm *VM) initTypes() {
	vm.ObjectType = vm.newBuiltinType("object", 0)
	vm.TypeType = vm.newBuiltinType("type", 0, vm.ObjectType)
	// Both exist now, so they can have type objects.
	vm.ObjectType.obj = vm.NewObject(vm.TypeType, vm.ObjectType)
	vm.TypeType.obj = vm.NewObject(vm.TypeType, vm.TypeType)

	obj := vm.ObjectType
	vm.NoneType = vm.newBuiltinType("NoneType", 0, obj)
	vm.NotImplementedType = vm.newBuiltinType("NotImplementedType", 0, obj)
	arith := CapAdd | CapSub | CapMul | CapTrueDiv | CapFloorDiv | CapMod | CapDivmod | CapPow
	vm.IntType = vm.newBuiltinType("int", arith|CapLShift|CapRShift|CapAnd|CapXor|CapOr, obj)
	vm.BoolType = vm.newBuiltinType("bool", 0, vm.IntType)
	vm.FloatType = vm.newBuiltinType("float", arith, obj)
	vm.StrType = vm.newBuiltinType("str", CapConcat|CapRepeat, obj)
	vm.ListType = vm.newBuiltinType("list", CapConcat|CapRepeat, obj)
	vm.TupleType = vm.newBuiltinType("tuple", CapConcat|CapRepeat, obj)
	vm.FunctionType = vm.newBuiltinType("function", 0, obj)
	vm.BuiltinType = vm.newBuiltinType("builtin_function_or_method", 0, obj)
	vm.MethodType = vm.newBuiltinType("method", 0, obj)
	vm.StaticMethodType = vm.newBuiltinType("staticmethod", 0, obj)
	vm.ClassMethodType = vm.newBuiltinType("classmethod", 0, obj)

	for _, t := range []*Type{vm.TypeType, vm.NoneType, vm.NotImplementedType, vm.BoolType, vm.FunctionType, vm.BuiltinType, vm.MethodType, vm.StaticMethodType, vm.ClassMethodType} {
		t.final = true
	}

	vm.None = vm.NewObject(vm.NoneType, nil)
	vm.NotImplemented = vm.NewObject(vm.NotImplementedType, nil)
}

// method describes a builtin method for define.
type method struct {
	name     string
	arity    int
	optional int
	fn       Fn
}

// define adds builtin methods to a builtin type. It must only be called
// during initialization.
func (vm *VM) define(t *Type, methods []method) {
	for _, m := range methods {
		t.dict.store(m.name, vm.NewCFunction(m.name, t, m.arity, m.optional, m.fn))
	}
}

// setConstructor makes t instantiable with fn, for itself and for heap types
// deriving from it.
func (t *Type) setConstructor(fn func(vm *VM, t *Type, args []*Object) (*Object, error)) {
	t.construct = fn
	t.layout = t
}

// swapped returns an Fn that calls f with its first two arguments exchanged,
// turning a forward implementation into a reflected one.
func swapped(f Fn) Fn {
	return func(vm *VM, args ...*Object) (*Object, error) {
		var buf [maxArity]*Object
		n := copy(buf[:], args)
		buf[0], buf[1] = buf[1], buf[0]
		return f(vm, buf[:n]...)
	}
}

// SetAttr sets an attribute of o. Setting an attribute of a type changes the
// version of that type and of all its subclasses, so call sites that cached
// plans for them plan again. Builtin types and their instances cannot be
// modified.
func (vm *VM) SetAttr(o *Object, name string, value *Object) error {
	if t, ok := o.Value.(*Type); ok && o.typ == vm.TypeType {
		if t.builtin {
			return vm.NewException(TypeError, "cannot set '%s' attribute of immutable type '%s'", name, t.Name)
		}
		t.setAttr(name, value)
		return nil
	}
	if o.typ.builtin {
		return vm.NewException(AttributeError, "'%s' object has no attribute '%s'", o.typ.Name, name)
	}
	o.SetLocal(name, value)
	return nil
}

// GetAttr gets an attribute of o. Instance attributes come first; anything
// found on the type whose type defines __get__ is bound to o. On a type
// object, attributes are looked up along its own MRO and bound to None.
func (vm *VM) GetAttr(o *Object, name string) (*Object, error) {
	if t, ok := o.Value.(*Type); ok && o.typ == vm.TypeType {
		if name == "__name__" {
			return vm.NewStr(t.Name), nil
		}
		v, _ := t.Lookup(name)
		if v == nil {
			return nil, vm.NewException(AttributeError, "type object '%s' has no attribute '%s'", t.Name, name)
		}
		if hasGetter(v.typ) {
			return vm.callGetter(v, nil, t)
		}
		return v, nil
	}
	if local := o.GetLocal(name); local != nil {
		return local, nil
	}
	v, _ := o.typ.Lookup(name)
	if v == nil {
		return nil, vm.NewException(AttributeError, "'%s' object has no attribute '%s'", o.typ.Name, name)
	}
	if hasGetter(v.typ) {
		return vm.callGetter(v, o, o.typ)
	}
	return v, nil
}

// Bool returns True or False.
func (vm *VM) Bool(b bool) *Object {
	if b {
		return vm.True
	}
	return vm.False
}

// Truth reports whether o is true in a boolean context.
func (vm *VM) Truth(o *Object) bool {
	if o.typ.IsSubtype(vm.ListType) {
		return len(vm.items(o)) != 0
	}
	switch v := o.Value.(type) {
	case nil:
		return o != vm.None
	case *big.Int:
		return v.Sign() != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []*Object:
		return len(v) != 0
	}
	return true
}

// Equal compares two objects with ==.
func (vm *VM) Equal(a, b *Object) (bool, error) {
	if a == b {
		return true, nil
	}
	r, err := vm.EvalBinary(vm.Ops.Lookup("=="), a, b)
	if err != nil {
		return false, err
	}
	return vm.Truth(r), nil
}
