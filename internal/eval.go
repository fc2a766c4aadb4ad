package internal

import (
	"strings"
	"sync"
)

// Env is a scope of variables. Lookups that miss every scope fall back to
// the VM's builtins.
type Env struct {
	parent *Env
	mu     sync.RWMutex
	vars   map[string]*Object
}

// NewEnv creates a scope nested in parent, which may be nil.
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: make(map[string]*Object)}
}

// Get returns the value of a variable, or nil if no scope defines it.
func (e *Env) Get(name string) *Object {
	for ; e != nil; e = e.parent {
		e.mu.RLock()
		v := e.vars[name]
		e.mu.RUnlock()
		if v != nil {
			return v
		}
	}
	return nil
}

// Set sets a variable in this scope.
func (e *Env) Set(name string, v *Object) {
	e.mu.Lock()
	e.vars[name] = v
	e.mu.Unlock()
}

// Eval runs the program in env and returns the value of its last statement.
// Statements that are not expressions have the value None.
func (p *Program) Eval(vm *VM, env *Env) (*Object, error) {
	r := vm.None
	for _, s := range p.stmts {
		var err error
		if r, err = s.eval(vm, env); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DoString parses and evaluates src in env.
func (vm *VM) DoString(env *Env, src, label string) (*Object, error) {
	p, err := vm.Parse(strings.NewReader(src), label)
	if err != nil {
		return nil, err
	}
	return p.Eval(vm, env)
}

type node interface {
	eval(vm *VM, env *Env) (*Object, error)
}

type constNode struct {
	v *Object
}

func (n *constNode) eval(vm *VM, env *Env) (*Object, error) {
	return n.v, nil
}

type nameNode struct {
	name string
}

func (n *nameNode) eval(vm *VM, env *Env) (*Object, error) {
	if v := env.Get(n.name); v != nil {
		return v, nil
	}
	if v := vm.Builtins[n.name]; v != nil {
		return v, nil
	}
	return nil, vm.NewException(NameError, "name '%s' is not defined", n.name)
}

// seqNode is a list or tuple display.
type seqNode struct {
	elems []node
	tuple bool
}

func (n *seqNode) eval(vm *VM, env *Env) (*Object, error) {
	items, err := evalAll(vm, env, n.elems)
	if err != nil {
		return nil, err
	}
	if n.tuple {
		return vm.NewTuple(items), nil
	}
	return vm.NewList(items), nil
}

func evalAll(vm *VM, env *Env, xs []node) ([]*Object, error) {
	r := make([]*Object, len(xs))
	for i, x := range xs {
		v, err := x.eval(vm, env)
		if err != nil {
			return nil, err
		}
		r[i] = v
	}
	return r, nil
}

type attrNode struct {
	x    node
	name string
}

func (n *attrNode) eval(vm *VM, env *Env) (*Object, error) {
	o, err := n.x.eval(vm, env)
	if err != nil {
		return nil, err
	}
	return vm.GetAttr(o, n.name)
}

type callNode struct {
	fn    node
	args  []node
	label string

	// pow is the ternary site used when the callee is the builtin pow.
	powOnce sync.Once
	pow     *Site
}

func (n *callNode) eval(vm *VM, env *Env) (*Object, error) {
	fn, err := n.fn.eval(vm, env)
	if err != nil {
		return nil, err
	}
	args, err := evalAll(vm, env, n.args)
	if err != nil {
		return nil, err
	}
	if vm.PowBuiltin(fn) && (len(args) == 2 || len(args) == 3) {
		if s := n.powSite(vm); s != nil {
			z := vm.None
			if len(args) == 3 {
				z = args[2]
			}
			return s.Ternary(vm, args[0], args[1], z)
		}
	}
	return vm.Call(fn, args...)
}

func (n *callNode) powSite(vm *VM) *Site {
	n.powOnce.Do(func() {
		if op := vm.Ops.Lookup("**"); op != nil && op.Ternary {
			n.pow = vm.NewSite(op, TernarySite, n.label)
		}
	})
	return n.pow
}

type negNode struct {
	x node
}

func (n *negNode) eval(vm *VM, env *Env) (*Object, error) {
	x, err := n.x.eval(vm, env)
	if err != nil {
		return nil, err
	}
	c, err := vm.Resolve(x.typ, SlotNeg, x)
	if err != nil {
		return nil, err
	}
	if c.Kind != Absent {
		r, err := vm.invoke(c, x)
		if err != nil || r != vm.NotImplemented {
			return r, err
		}
	}
	return nil, vm.NewException(TypeError, "bad operand type for unary -: '%s'", x.typ.Name)
}

type binaryNode struct {
	site        *Site
	left, right node
}

func (n *binaryNode) eval(vm *VM, env *Env) (*Object, error) {
	l, err := n.left.eval(vm, env)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(vm, env)
	if err != nil {
		return nil, err
	}
	return n.site.Binary(vm, l, r)
}

type assignNode struct {
	target node
	value  node
}

func (n *assignNode) eval(vm *VM, env *Env) (*Object, error) {
	switch t := n.target.(type) {
	case *nameNode:
		v, err := n.value.eval(vm, env)
		if err != nil {
			return nil, err
		}
		env.Set(t.name, v)
	case *attrNode:
		o, err := t.x.eval(vm, env)
		if err != nil {
			return nil, err
		}
		v, err := n.value.eval(vm, env)
		if err != nil {
			return nil, err
		}
		if err := vm.SetAttr(o, t.name, v); err != nil {
			return nil, err
		}
	}
	return vm.None, nil
}

// augNode is an augmented assignment such as x += y.
type augNode struct {
	target node
	value  node
	site   *Site
}

func (n *augNode) eval(vm *VM, env *Env) (*Object, error) {
	switch t := n.target.(type) {
	case *nameNode:
		cur, err := t.eval(vm, env)
		if err != nil {
			return nil, err
		}
		v, err := n.value.eval(vm, env)
		if err != nil {
			return nil, err
		}
		r, err := n.site.Binary(vm, cur, v)
		if err != nil {
			return nil, err
		}
		env.Set(t.name, r)
	case *attrNode:
		o, err := t.x.eval(vm, env)
		if err != nil {
			return nil, err
		}
		cur, err := vm.GetAttr(o, t.name)
		if err != nil {
			return nil, err
		}
		v, err := n.value.eval(vm, env)
		if err != nil {
			return nil, err
		}
		r, err := n.site.Binary(vm, cur, v)
		if err != nil {
			return nil, err
		}
		if err := vm.SetAttr(o, t.name, r); err != nil {
			return nil, err
		}
	}
	return vm.None, nil
}

type lambdaNode struct {
	params []string
	body   node
}

func (n *lambdaNode) eval(vm *VM, env *Env) (*Object, error) {
	params, body := n.params, n.body
	return vm.NewFunction("<lambda>", params, func(vm *VM, args []*Object) (*Object, error) {
		scope := NewEnv(env)
		for i, p := range params {
			scope.vars[p] = args[i]
		}
		return body.eval(vm, scope)
	}), nil
}

type classAttr struct {
	name  string
	value node
}

type classNode struct {
	name  string
	bases []node
	attrs []classAttr
}

func (n *classNode) eval(vm *VM, env *Env) (*Object, error) {
	bs, err := evalAll(vm, env, n.bases)
	if err != nil {
		return nil, err
	}
	bases := make([]*Type, len(bs))
	for i, b := range bs {
		t, ok := b.Value.(*Type)
		if !ok || b.typ != vm.TypeType {
			return nil, vm.NewException(TypeError, "bases must be types, not '%s'", b.typ.Name)
		}
		bases[i] = t
	}
	ns := make(map[string]*Object, len(n.attrs))
	for _, a := range n.attrs {
		v, err := a.value.eval(vm, env)
		if err != nil {
			return nil, err
		}
		ns[a.name] = v
	}
	t, err := vm.NewType(n.name, bases, ns)
	if err != nil {
		return nil, err
	}
	env.Set(n.name, t.obj)
	return vm.None, nil
}
