/*
Package opslot implements operator dispatch for Python-style special methods.

An operator such as + or ** is not a function of its operands. It is a
protocol: the left operand's type is asked for its forward slot, __add__, and
the right operand's type for its reflected slot, __radd__. Either may decline
by returning NotImplemented, either may be missing, and a right operand whose
type is a proper subclass of the left operand's type that overrides the
reflected slot is asked first. Only once every candidate declines does the
operator fail, by default with a TypeError naming the operand types.

This package provides that protocol as a library, along with a small object
model for it to work on: types with C3 method resolution orders, int (of
arbitrary precision), bool, float, str, list, tuple, functions, methods, and
the staticmethod and classmethod wrappers. Heap types created with NewType or
with the class statement of the bundled expression language may define any
special method as an ordinary attribute.

Dispatch proceeds in two stages. Planning looks at the operand types alone and
decides which slots to try and in what order. Running binds those slots to the
actual operands and calls them. Because a plan depends only on the operand
types, a call site can remember it: a Site holds the plans for up to a
configured number of type combinations, becoming monomorphic, then
polymorphic, and finally megamorphic, after which it plans every time. A plan
stays valid only as long as the versions of its types do not change, and
setting an attribute on a type changes the version of the type and of every
subclass of it.

Sequences participate through fallbacks rather than through arithmetic slots.
If both operands of * decline, an operand whose type supports repetition is
repeated by the other, so 3 * [1, 2] and [1, 2] * 3 both produce
[1, 2, 1, 2, 1, 2]. + similarly falls back to concatenation of the left
operand.

Usage

The operator set is configuration. The defaults are embedded in the package and
can be overlaid with LoadConfig:

	vm, err := opslot.NewVM(nil)
	if err != nil {
		// ...
	}
	env := opslot.NewEnv(nil)
	r, err := vm.DoString(env, "class A: __add__ = lambda a, b: 'A'\nA() + 1", "example")

Each VM is one thread of evaluation. Use NewThread to evaluate on another
goroutine; threads share types, call sites, and the operator table, but each
has its own recursion guards.
*/
package opslot
