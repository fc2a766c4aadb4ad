package internal

import "fmt"

func (vm *VM) initObject() {
	obj := vm.ObjectType
	vm.define(obj, []method{
		{"__eq__", 2, 0, objectEq},
		{"__ne__", 2, 0, objectNe},
		{"__lt__", 2, 0, declined},
		{"__le__", 2, 0, declined},
		{"__gt__", 2, 0, declined},
		{"__ge__", 2, 0, declined},
		{"__repr__", 1, 0, objectRepr},
	})
	obj.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		if len(args) != 0 {
			return nil, vm.NewException(TypeError, "%s() takes no arguments", t.Name)
		}
		return vm.NewObject(t, nil), nil
	})

	vm.define(vm.TypeType, []method{
		{"__repr__", 1, 0, typeRepr},
	})
	vm.TypeType.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		if len(args) != 1 {
			return nil, vm.NewException(TypeError, "type() takes 1 argument")
		}
		return args[0].typ.obj, nil
	})

	vm.define(vm.NoneType, []method{
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) { return vm.NewStr("None"), nil }},
	})
	vm.NoneType.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		if len(args) != 0 {
			return nil, vm.NewException(TypeError, "NoneType takes no arguments")
		}
		return vm.None, nil
	})

	vm.define(vm.NotImplementedType, []method{
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) { return vm.NewStr("NotImplemented"), nil }},
	})
	vm.NotImplementedType.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		if len(args) != 0 {
			return nil, vm.NewException(TypeError, "NotImplementedType takes no arguments")
		}
		return vm.NotImplemented, nil
	})
}

// declined is the implementation of slots that never accept their operands.
func declined(vm *VM, args ...*Object) (*Object, error) {
	return vm.NotImplemented, nil
}

func objectEq(vm *VM, args ...*Object) (*Object, error) {
	if args[0] == args[1] {
		return vm.True, nil
	}
	return vm.NotImplemented, nil
}

// objectNe inverts the receiver's own __eq__, unless that declines.
func objectNe(vm *VM, args ...*Object) (*Object, error) {
	self := args[0]
	c, err := vm.Resolve(self.typ, SlotEq, self)
	if err != nil {
		return nil, err
	}
	if c.Kind == Absent {
		return vm.NotImplemented, nil
	}
	r, err := vm.invoke(c, self, args[1])
	if err != nil || r == vm.NotImplemented {
		return r, err
	}
	return vm.Bool(!vm.Truth(r)), nil
}

func objectRepr(vm *VM, args ...*Object) (*Object, error) {
	return vm.NewStr(fmt.Sprintf("<%s object at %#x>", args[0].typ.Name, args[0].id)), nil
}

func typeRepr(vm *VM, args ...*Object) (*Object, error) {
	t, ok := args[0].Value.(*Type)
	if !ok {
		return nil, vm.NewException(TypeError, "descriptor '__repr__' requires a 'type' object")
	}
	return vm.NewStr("<class '" + t.Name + "'>"), nil
}

func (vm *VM) initFunction() {
	vm.define(vm.FunctionType, []method{
		{"__get__", 3, 1, bindToInstance},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			return vm.NewStr("<function " + args[0].Value.(*Function).Name + ">"), nil
		}},
	})
	vm.define(vm.BuiltinType, []method{
		{"__get__", 3, 1, bindToInstance},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			f := args[0].Value.(*CFunction)
			if f.Owner != nil {
				return vm.NewStr(fmt.Sprintf("<slot wrapper '%s' of '%s' objects>", f.Name, f.Owner.Name)), nil
			}
			return vm.NewStr("<built-in function " + f.Name + ">"), nil
		}},
	})
	vm.define(vm.MethodType, []method{
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			m := args[0].Value.(*Method)
			s, err := vm.Repr(m.Self)
			if err != nil {
				return nil, err
			}
			return vm.NewStr("<bound method " + calleeName(m.Func) + " of " + s + ">"), nil
		}},
	})

	vm.define(vm.StaticMethodType, []method{
		{"__get__", 3, 1, func(vm *VM, args ...*Object) (*Object, error) {
			return args[0].Value.(*Object), nil
		}},
	})
	vm.StaticMethodType.setConstructor(wrapperConstructor)
	vm.define(vm.ClassMethodType, []method{
		{"__get__", 3, 1, func(vm *VM, args ...*Object) (*Object, error) {
			owner := args[2]
			if owner == vm.None {
				owner = args[1].typ.obj
			}
			return vm.NewMethod(owner, args[0].Value.(*Object)), nil
		}},
	})
	vm.ClassMethodType.setConstructor(wrapperConstructor)

	vm.FunctionType.layout = vm.FunctionType
	vm.BuiltinType.layout = vm.BuiltinType
	vm.MethodType.layout = vm.MethodType
}

// bindToInstance is __get__ for functions: accessed through an instance, the
// function becomes a method of it; accessed through the type, it is returned
// as is.
func bindToInstance(vm *VM, args ...*Object) (*Object, error) {
	if args[1] == vm.None {
		return args[0], nil
	}
	return vm.NewMethod(args[1], args[0]), nil
}

// wrapperConstructor creates staticmethod and classmethod objects.
func wrapperConstructor(vm *VM, t *Type, args []*Object) (*Object, error) {
	if len(args) != 1 {
		return nil, vm.NewException(TypeError, "%s expected 1 argument, got %d", t.Name, len(args))
	}
	return vm.NewObject(t, args[0]), nil
}
