package internal

// enter records a user function call on this thread. It fails with
// RecursionError once the configured depth is exceeded.
func (vm *VM) enter() error {
	if vm.depth >= vm.Limits.Recursion {
		return vm.NewException(RecursionError, "maximum recursion depth exceeded")
	}
	vm.depth++
	return nil
}

// leave undoes enter.
func (vm *VM) leave() {
	vm.depth--
}

// inlineEnter records that a cached implementation is about to run on this
// thread. It returns false without recording anything when impl is already
// active as many times as the inline limit allows, in which case the caller
// must take the uncached path.
func (vm *VM) inlineEnter(impl *Object) bool {
	if impl == nil {
		return true
	}
	n := vm.inline[impl]
	if n >= vm.Limits.Inline {
		return false
	}
	vm.inline[impl] = n + 1
	return true
}

// inlineLeave undoes a successful inlineEnter.
func (vm *VM) inlineLeave(impl *Object) {
	if impl == nil {
		return
	}
	if n := vm.inline[impl] - 1; n > 0 {
		vm.inline[impl] = n
	} else {
		delete(vm.inline, impl)
	}
}

// InlineDepth returns how many cached uses of impl are active on this thread.
func (vm *VM) InlineDepth(impl *Object) int {
	return vm.inline[impl]
}

// Depth returns the current user call depth of this thread.
func (vm *VM) Depth() int {
	return vm.depth
}
