package internal

// Repr returns the printable representation of o using its type's __repr__.
func (vm *VM) Repr(o *Object) (string, error) {
	c, err := vm.Resolve(o.typ, SlotRepr, o)
	if err != nil {
		return "", err
	}
	if c.Kind == Absent {
		return "<" + o.typ.Name + " object>", nil
	}
	r, err := vm.invoke(c, o)
	if err != nil {
		return "", err
	}
	s, ok := r.Value.(string)
	if !ok {
		return "", vm.NewException(TypeError, "__repr__ returned non-string (type %s)", r.typ.Name)
	}
	return s, nil
}

// Str returns o itself if it is a str and its representation otherwise.
func (vm *VM) Str(o *Object) (string, error) {
	if s, ok := o.Value.(string); ok {
		return s, nil
	}
	return vm.Repr(o)
}
