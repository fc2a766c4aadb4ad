package internal

// planInplace computes the plan for an augmented assignment. It is the binary
// plan plus the left type's in-place slot.
func (vm *VM) planInplace(op *Operator, lt, rt *Type) *plan {
	p := vm.planBinary(op, lt, rt)
	if op.ISlot != NoSlot {
		p.inplace = vm.lookupSlot(lt, op.ISlot)
	}
	return p
}

// runInplace tries the in-place slot and falls back to the binary dispatch
// when it is absent or declines.
func (vm *VM) runInplace(p *plan, l, r *Object) (*Object, error) {
	if p.inplace.present() {
		op := p.op
		c, err := vm.bind(p.inplace, l, op.Speculative)
		if err != nil {
			return nil, err
		}
		if c.Kind != Absent {
			res, err := vm.attempt(op, c, op.ISlot, l, r)
			if err != nil || res != vm.NotImplemented {
				return res, err
			}
		}
	}
	return vm.runBinary(p, l, r)
}

// EvalInplace applies the augmented form of a binary operator, as in x += y,
// with the operator's configured handler.
func (vm *VM) EvalInplace(op *Operator, l, r *Object) (*Object, error) {
	res, err := vm.runInplace(vm.planInplace(op, l.typ, r.typ), l, r)
	return vm.finish(op, op.Handler, res, err, l, r)
}
