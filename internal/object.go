package internal

import (
	"sync"
	"sync/atomic"
)

// Object is a runtime value. Everything the dispatcher sees is an Object.
//
// Always use NewObject or a type-specific constructor to obtain new objects.
// Creating objects directly will result in arbitrary failures.
type Object struct {
	// Mutex is a lock which must be held when accessing the value of the
	// object if it is or may be mutable.
	sync.Mutex
	// Value is the object's type-specific primitive value.
	Value interface{}

	// typ is the object's type. It never changes.
	typ *Type
	// dict holds instance attributes.
	dict dict

	// id is the object's unique ID.
	id uintptr
}

// objectID is the global counter for object IDs. It must be accessed
// atomically.
var objectID uintptr

// nextObject returns a new object ID.
func nextObject() uintptr {
	return atomic.AddUintptr(&objectID, 1)
}

// NewObject creates a new object of the given type with the given primitive
// value.
func (vm *VM) NewObject(t *Type, value interface{}) *Object {
	return &Object{Value: value, typ: t, id: nextObject()}
}

// Type returns the object's type.
func (o *Object) Type() *Type {
	return o.typ
}

// TypeOf returns the type of o.
func (vm *VM) TypeOf(o *Object) *Type {
	return o.typ
}

// UniqueID returns the object's unique ID.
func (o *Object) UniqueID() uintptr {
	return o.id
}

// IsInstance reports whether o's type is t or a subtype of t.
func (o *Object) IsInstance(t *Type) bool {
	return o.typ.IsSubtype(t)
}

// GetLocal returns the value of an instance attribute of o, or nil if o has
// no such attribute.
func (o *Object) GetLocal(name string) *Object {
	return o.dict.load(name)
}

// SetLocal sets an instance attribute of o. Attributes set this way are
// never consulted for special methods, which are always found on the type.
func (o *Object) SetLocal(name string, value *Object) {
	o.dict.store(name, value)
}
