package internal

// planTernary computes the plan for a ternary operator on operands of types
// vt, wt, and zt.
func (vm *VM) planTernary(op *Operator, vt, wt, zt *Type) *plan {
	p := &plan{op: op}
	vm.planPair(p, vt, wt)
	z := vm.lookupSlot(zt, op.Slot)
	if !z.same(p.left) && !z.same(p.right) {
		p.z = z
	}
	return p
}

// runTernary executes a ternary plan. v's forward slot and w's reflected slot
// are ordered as for binary operators and receive z as an extra argument.
// Only once both decline is z's own forward slot called, as z(v, w, z).
func (vm *VM) runTernary(p *plan, v, w, z *Object) (*Object, error) {
	op := p.op
	lc, err := vm.bind(p.left, v, op.Speculative)
	if err != nil {
		return nil, err
	}
	rc, err := vm.bind(p.right, w, op.Speculative)
	if err != nil {
		return nil, err
	}
	if p.rightFirst && rc.Kind != Absent {
		res, err := vm.attempt(op, rc, op.RSlot, w, v, z)
		if err != nil || res != vm.NotImplemented {
			return res, err
		}
		rc = Callable{}
	}
	if lc.Kind != Absent {
		res, err := vm.attempt(op, lc, op.Slot, v, w, z)
		if err != nil || res != vm.NotImplemented {
			return res, err
		}
	}
	if rc.Kind != Absent {
		res, err := vm.attempt(op, rc, op.RSlot, w, v, z)
		if err != nil || res != vm.NotImplemented {
			return res, err
		}
	}
	if !p.z.present() {
		return vm.NotImplemented, nil
	}
	zc, err := vm.bind(p.z, z, op.Speculative)
	if err != nil {
		return nil, err
	}
	if zc.Kind == Absent {
		return vm.NotImplemented, nil
	}
	if zc.owner != nil && !v.typ.IsSubtype(zc.owner) {
		// The builtin belongs to z's type and cannot take v as its
		// receiver, so it declines like any implementation would.
		return vm.NotImplemented, nil
	}
	res, err := vm.invokeExplicit(zc, v, w, z)
	if vm.tracing() {
		vm.trace(DispatchEvent{Op: op, Slot: op.Slot, Receiver: z, Callable: zc, Result: res, Err: err})
	}
	return res, err
}

// DispatchTernary applies a ternary operator without a call site. If every
// candidate declines, the result is h's, or NotImplemented if h is nil.
func (vm *VM) DispatchTernary(op *Operator, v, w, z *Object, h Handler) (*Object, error) {
	if !op.Ternary {
		return nil, vm.NewException(TypeError, "operator %s takes two operands", op.Display)
	}
	res, err := vm.runTernary(vm.planTernary(op, v.typ, w.typ, z.typ), v, w, z)
	return vm.finish(op, h, res, err, v, w, z)
}

// EvalTernary applies a ternary operator with its configured handler.
func (vm *VM) EvalTernary(op *Operator, v, w, z *Object) (*Object, error) {
	return vm.DispatchTernary(op, v, w, z, op.Handler)
}
