package internal

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zephyrtronium/contains"
)

// Type is a class: a named dictionary of attributes with a fixed list of bases
// and a method-resolution order computed from them.
//
// The name, bases, and MRO never change after creation, so they may be read
// without synchronization. The dictionary is lock-free for readers. Writers to
// a type's dictionary must go through VM.SetAttr so that versions and
// capability bits of the type and its subclasses stay consistent.
type Type struct {
	// Name is the name of the type as it appears in messages.
	Name string

	// obj is the object representing this type at run time.
	obj *Object
	// bases is the list of direct bases in declaration order.
	bases []*Type
	// mro is the method-resolution order, beginning with the type itself.
	mro []*Type
	// dict holds the type's own attributes.
	dict dict

	// own is the set of capability groups the type declares itself; caps is
	// the union of own over the MRO.
	own  atomic.Uint32
	caps atomic.Uint32
	// version changes whenever the type or any of its ancestors is modified.
	version atomic.Uint64

	// mu serializes writers to dict and guards subclasses.
	mu         sync.Mutex
	subclasses []*Type

	// builtin types have their dictionaries fixed after initialization.
	builtin bool
	// final types cannot be used as bases.
	final bool
	// layout is the nearest type on the MRO that provides a constructor.
	layout *Type
	// construct creates instances of this type or of heap subtypes that
	// inherit its layout.
	construct func(vm *VM, t *Type, args []*Object) (*Object, error)
}

// typeVersions is the source of type version numbers. Versions are unique
// across all types, so a stale version can never match a live one.
var typeVersions atomic.Uint64

// Object returns the object representing t.
func (t *Type) Object() *Object {
	return t.obj
}

// Bases returns a copy of t's direct bases.
func (t *Type) Bases() []*Type {
	return append([]*Type(nil), t.bases...)
}

// MRO returns a copy of t's method-resolution order.
func (t *Type) MRO() []*Type {
	return append([]*Type(nil), t.mro...)
}

// Caps returns the capability groups t participates in.
func (t *Type) Caps() Capability {
	return Capability(t.caps.Load())
}

// Version returns the current version of t.
func (t *Type) Version() uint64 {
	return t.version.Load()
}

// IsBuiltin reports whether t is a builtin type.
func (t *Type) IsBuiltin() bool {
	return t.builtin
}

// IsSubtype reports whether t is u or derives from u.
func (t *Type) IsSubtype(u *Type) bool {
	if t == u {
		return true
	}
	for _, m := range t.mro[1:] {
		if m == u {
			return true
		}
	}
	return false
}

// Lookup finds name along t's method-resolution order. It returns the value
// and the type that defines it, or nil, nil if no type does.
func (t *Type) Lookup(name string) (value *Object, owner *Type) {
	for _, m := range t.mro {
		if v := m.dict.load(name); v != nil {
			return v, m
		}
	}
	return nil, nil
}

// GetLocal returns an attribute defined directly on t.
func (t *Type) GetLocal(name string) *Object {
	return t.dict.load(name)
}

// String returns the type's name.
func (t *Type) String() string {
	return t.Name
}

// newBuiltinType creates a builtin type. The caller must set the type's
// dictionary before any other thread can see the type.
func (vm *VM) newBuiltinType(name string, caps Capability, bases ...*Type) *Type {
	t := &Type{Name: name, builtin: true}
	t.bases = bases
	mro, err := linearize(t, bases)
	if err != nil {
		panic("opslot: builtin type " + name + ": " + err.Error())
	}
	t.mro = mro
	t.own.Store(uint32(caps))
	t.recompute()
	t.version.Store(typeVersions.Add(1))
	t.layout = layoutOf(bases)
	if vm.TypeType != nil {
		t.obj = vm.NewObject(vm.TypeType, t)
	}
	for _, b := range bases {
		b.addSubclass(t)
	}
	return t
}

// NewType creates a heap type, the way a class statement does. bases defaults
// to object. Every entry of ns becomes an attribute of the type.
func (vm *VM) NewType(name string, bases []*Type, ns map[string]*Object) (*Type, error) {
	if len(bases) == 0 {
		bases = []*Type{vm.ObjectType}
	}
	set := contains.Set{}
	for _, b := range bases {
		if b.final {
			return nil, vm.NewException(TypeError, "type '%s' is not an acceptable base type", b.Name)
		}
		if !set.Add(b.obj.UniqueID()) {
			return nil, vm.NewException(TypeError, "duplicate base class %s", b.Name)
		}
	}
	var layout *Type
	for _, b := range bases {
		switch l := b.layout; {
		case layout == nil || l.IsSubtype(layout):
			layout = l
		case !layout.IsSubtype(l):
			return nil, vm.NewException(TypeError, "multiple bases have instance lay-out conflict")
		}
	}
	t := &Type{Name: name, bases: append([]*Type(nil), bases...), layout: layout}
	mro, err := linearize(t, t.bases)
	if err != nil {
		return nil, vm.NewException(TypeError, "%s", err.Error())
	}
	t.mro = mro
	t.obj = vm.NewObject(vm.TypeType, t)
	var own Capability
	for k, v := range ns {
		t.dict.store(k, v)
		own |= heapGroups[k]
	}
	t.own.Store(uint32(own))
	t.recompute()
	t.version.Store(typeVersions.Add(1))
	for _, b := range t.bases {
		b.addSubclass(t)
	}
	return t, nil
}

func (t *Type) addSubclass(sub *Type) {
	t.mu.Lock()
	t.subclasses = append(t.subclasses, sub)
	t.mu.Unlock()
}

// recompute sets t's capability bits from its MRO.
func (t *Type) recompute() {
	var c uint32
	for _, m := range t.mro {
		c |= m.own.Load()
	}
	t.caps.Store(c)
}

// setAttr sets an attribute on a heap type and invalidates everything that
// may have observed the old value.
func (t *Type) setAttr(name string, value *Object) {
	t.mu.Lock()
	t.dict.store(name, value)
	var own Capability
	t.dict.foreach(func(k string, _ *Object) bool {
		own |= heapGroups[k]
		return true
	})
	t.own.Store(uint32(own))
	t.mu.Unlock()
	t.invalidate()
}

// invalidate gives t and all of its transitive subclasses new versions and
// recomputes their capability bits.
func (t *Type) invalidate() {
	stack := []*Type{t}
	set := contains.Set{}
	set.Add(t.obj.UniqueID())
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur.recompute()
		cur.version.Store(typeVersions.Add(1))
		cur.mu.Lock()
		for _, sub := range cur.subclasses {
			if set.Add(sub.obj.UniqueID()) {
				stack = append(stack, sub)
			}
		}
		cur.mu.Unlock()
	}
}

// layoutOf returns the most derived layout among bases. Builtin bases must
// already be consistent.
func layoutOf(bases []*Type) *Type {
	var layout *Type
	for _, b := range bases {
		if layout == nil || b.layout.IsSubtype(layout) {
			layout = b.layout
		}
	}
	return layout
}

// mroError describes a hierarchy with no consistent linearization.
type mroError struct {
	bases []*Type
}

func (e *mroError) Error() string {
	names := make([]string, len(e.bases))
	for i, b := range e.bases {
		names[i] = b.Name
	}
	return "Cannot create a consistent method resolution order (MRO) for bases " + strings.Join(names, ", ")
}

// linearize computes the C3 linearization of a type with the given bases.
func linearize(t *Type, bases []*Type) ([]*Type, error) {
	seqs := make([][]*Type, 0, len(bases)+1)
	for _, b := range bases {
		seqs = append(seqs, b.mro)
	}
	seqs = append(seqs, bases)
	mro := []*Type{t}
	for {
		// Drop exhausted sequences.
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return mro, nil
		}
		var next *Type
		for _, s := range seqs {
			if !inTail(s[0], seqs) {
				next = s[0]
				break
			}
		}
		if next == nil {
			var heads []*Type
			for _, s := range seqs {
				if !inHeads(s[0], heads) {
					heads = append(heads, s[0])
				}
			}
			return nil, &mroError{bases: heads}
		}
		mro = append(mro, next)
		for i, s := range seqs {
			if s[0] == next {
				seqs[i] = s[1:]
			}
		}
	}
}

// inTail reports whether c appears after the head of any sequence.
func inTail(c *Type, seqs [][]*Type) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}

func inHeads(c *Type, heads []*Type) bool {
	for _, h := range heads {
		if h == c {
			return true
		}
	}
	return false
}
