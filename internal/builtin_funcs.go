package internal

import "unicode/utf8"

// initBuiltins fills the builtin namespace.
func (vm *VM) initBuiltins() {
	vm.Builtins = map[string]*Object{
		"None":           vm.None,
		"NotImplemented": vm.NotImplemented,
		"True":           vm.True,
		"False":          vm.False,

		"object":       vm.ObjectType.obj,
		"type":         vm.TypeType.obj,
		"int":          vm.IntType.obj,
		"bool":         vm.BoolType.obj,
		"float":        vm.FloatType.obj,
		"str":          vm.StrType.obj,
		"list":         vm.ListType.obj,
		"tuple":        vm.TupleType.obj,
		"staticmethod": vm.StaticMethodType.obj,
		"classmethod":  vm.ClassMethodType.obj,

		"pow":        vm.NewCFunction("pow", nil, 3, 1, builtinPow),
		"divmod":     vm.NewCFunction("divmod", nil, 2, 0, builtinDivmod),
		"len":        vm.NewCFunction("len", nil, 1, 0, builtinLen),
		"isinstance": vm.NewCFunction("isinstance", nil, 2, 0, builtinIsinstance),
		"repr":       vm.NewCFunction("repr", nil, 1, 0, builtinRepr),
	}
}

// PowBuiltin reports whether fn is the builtin pow function, which call
// sites evaluate through a ternary dispatch site.
func (vm *VM) PowBuiltin(fn *Object) bool {
	return fn == vm.Builtins["pow"]
}

func builtinPow(vm *VM, args ...*Object) (*Object, error) {
	op := vm.Ops.Lookup("**")
	if op == nil {
		return nil, vm.NewException(TypeError, "pow() is not available")
	}
	return vm.EvalTernary(op, args[0], args[1], args[2])
}

func builtinDivmod(vm *VM, args ...*Object) (*Object, error) {
	op := vm.Ops.Lookup("divmod")
	if op == nil {
		return nil, vm.NewException(TypeError, "divmod() is not available")
	}
	return vm.EvalBinary(op, args[0], args[1])
}

func builtinLen(vm *VM, args ...*Object) (*Object, error) {
	o := args[0]
	switch v := o.Value.(type) {
	case string:
		return vm.NewInt(int64(utf8.RuneCountInString(v))), nil
	case []*Object:
		return vm.NewInt(int64(len(vm.items(o)))), nil
	}
	c, err := vm.Resolve(o.typ, SlotLen, o)
	if err != nil {
		return nil, err
	}
	if c.Kind != Absent {
		return vm.invoke(c, o)
	}
	return nil, vm.NewException(TypeError, "object of type '%s' has no len()", o.typ.Name)
}

func builtinIsinstance(vm *VM, args ...*Object) (*Object, error) {
	switch t := args[1].Value.(type) {
	case *Type:
		if args[1].typ == vm.TypeType {
			return vm.Bool(args[0].IsInstance(t)), nil
		}
	case []*Object:
		if args[1].IsInstance(vm.TupleType) {
			for _, x := range t {
				r, err := builtinIsinstance(vm, args[0], x)
				if err != nil {
					return nil, err
				}
				if r == vm.True {
					return r, nil
				}
			}
			return vm.False, nil
		}
	}
	return nil, vm.NewException(TypeError, "isinstance() arg 2 must be a type or tuple of types")
}

func builtinRepr(vm *VM, args ...*Object) (*Object, error) {
	s, err := vm.Repr(args[0])
	if err != nil {
		return nil, err
	}
	return vm.NewStr(s), nil
}
