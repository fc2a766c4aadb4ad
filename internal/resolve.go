package internal

// refKind classifies what a type holds for a slot, independent of any
// receiver.
type refKind uint8

const (
	refAbsent refKind = iota
	// refPlain is a function or builtin, called with the receiver as its
	// first argument.
	refPlain
	// refDescriptor is an attribute whose type defines __get__.
	refDescriptor
	// refAttribute is any other attribute, called as is.
	refAttribute
)

// slotRef is the result of looking up a slot on a type. It can be cached for
// as long as the type's version does not change.
type slotRef struct {
	kind refKind
	slot SlotID
	// attr is the attribute found on the type. Its identity is the identity
	// of the implementation, regardless of how it is later bound.
	attr *Object
	// owner is the declared owner type of a builtin implementation.
	owner *Type
}

// present reports whether the lookup found anything.
func (r slotRef) present() bool {
	return r.kind != refAbsent
}

// same reports whether two lookups found the same implementation. Absent
// lookups are never the same as anything.
func (r slotRef) same(s slotRef) bool {
	return r.attr != nil && r.attr == s.attr
}

// CallableKind is the kind of a resolved slot.
type CallableKind uint8

const (
	// Absent means the type does not implement the slot.
	Absent CallableKind = iota
	// Plain callables take the receiver as their first argument.
	Plain
	// Bound callables already have the receiver baked in.
	Bound
)

func (k CallableKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Bound:
		return "bound"
	}
	return "absent"
}

// Callable is a slot resolved for a particular receiver.
type Callable struct {
	Kind CallableKind
	// Fn is the object to call.
	Fn *Object

	impl  *Object
	owner *Type
}

// Impl returns the attribute that implements the slot, which is the same
// object for every receiver no matter how it is bound. It is nil for absent
// callables.
func (c Callable) Impl() *Object {
	return c.impl
}

// Owner returns the declared owner type of a builtin implementation, or nil.
func (c Callable) Owner() *Type {
	return c.owner
}

// lookupSlot finds slot s on t. When the slot belongs to a capability group
// that t does not participate in, the answer is absent without a lookup.
func (vm *VM) lookupSlot(t *Type, s SlotID) slotRef {
	if !t.Caps().Has(s.Group()) {
		return slotRef{slot: s}
	}
	attr, _ := t.Lookup(s.Name())
	if attr == nil {
		return slotRef{slot: s}
	}
	switch at := attr.typ; {
	case at == vm.FunctionType:
		return slotRef{kind: refPlain, slot: s, attr: attr}
	case at == vm.BuiltinType:
		return slotRef{kind: refPlain, slot: s, attr: attr, owner: attr.Value.(*CFunction).Owner}
	case hasGetter(at):
		return slotRef{kind: refDescriptor, slot: s, attr: attr}
	}
	return slotRef{kind: refAttribute, slot: s, attr: attr}
}

// hasGetter reports whether instances of t are descriptors.
func hasGetter(t *Type) bool {
	v, _ := t.Lookup(SlotGet.Name())
	return v != nil
}

// bind resolves a slot reference for a receiver. Descriptors are bound by
// calling their __get__ with the receiver and its type. When speculative is
// set, a failure to bind yields an absent callable instead of an error.
func (vm *VM) bind(r slotRef, recv *Object, speculative bool) (Callable, error) {
	switch r.kind {
	case refAbsent:
		return Callable{}, nil
	case refPlain:
		return Callable{Kind: Plain, Fn: r.attr, impl: r.attr, owner: r.owner}, nil
	case refAttribute:
		return Callable{Kind: Bound, Fn: r.attr, impl: r.attr}, nil
	case refDescriptor:
		fn, err := vm.callGetter(r.attr, recv, recv.typ)
		if err != nil {
			if speculative {
				return Callable{}, nil
			}
			return Callable{}, &DescriptorBindingError{Slot: r.slot.Name(), Type: recv.typ.Name, Err: err}
		}
		return Callable{Kind: Bound, Fn: fn, impl: r.attr}, nil
	}
	panic("opslot: unknown slot reference kind")
}

// callGetter invokes the __get__ of desc's type as __get__(desc, instance,
// owner). A nil instance passes None.
func (vm *VM) callGetter(desc, instance *Object, owner *Type) (*Object, error) {
	get := vm.lookupSlot(desc.typ, SlotGet)
	if instance == nil {
		instance = vm.None
	}
	switch get.kind {
	case refPlain:
		return vm.Call(get.attr, desc, instance, owner.obj)
	case refAttribute, refDescriptor:
		// A getter that is itself a descriptor or a callable instance is
		// called without binding it again.
		return vm.Call(get.attr, instance, owner.obj)
	}
	return nil, vm.NewException(TypeError, "'%s' object is not a descriptor", desc.typ.Name)
}

// Resolve looks up slot s on t and binds it for recv.
func (vm *VM) Resolve(t *Type, s SlotID, recv *Object) (Callable, error) {
	return vm.bind(vm.lookupSlot(t, s), recv, false)
}

// ResolveSpeculative is like Resolve, but binding failures yield Absent.
func (vm *VM) ResolveSpeculative(t *Type, s SlotID, recv *Object) Callable {
	c, _ := vm.bind(vm.lookupSlot(t, s), recv, true)
	return c
}
