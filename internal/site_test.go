package internal_test

import (
	"bytes"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrtronium/opslot"
	"github.com/zephyrtronium/opslot/internal"
	"github.com/zephyrtronium/opslot/testutils"
)

// operands returns pairs of operands of assorted types.
func operands(vm *internal.VM) [][2]*internal.Object {
	return [][2]*internal.Object{
		{vm.NewInt(1), vm.NewInt(2)},
		{vm.NewFloat(1.5), vm.NewInt(2)},
		{vm.NewInt(2), vm.NewFloat(0.25)},
		{vm.NewStr("a"), vm.NewStr("b")},
		{vm.NewList([]*internal.Object{vm.NewInt(1)}), vm.NewList(nil)},
		{vm.True, vm.NewInt(1)},
		{vm.NewTuple(nil), vm.NewTuple([]*internal.Object{vm.None})},
		{vm.NewInt(1), vm.NewStr("a")},
	}
}

func mustRepr(t *testing.T, vm *internal.VM, r *internal.Object, err error) string {
	t.Helper()
	if err != nil {
		return err.Error()
	}
	s, err := vm.Repr(r)
	if err != nil {
		t.Fatalf("repr failed: %v", err)
	}
	return s
}

// TestSiteTransitions tests the progression of cache states.
func TestSiteTransitions(t *testing.T) {
	cases := map[string]struct {
		limit int
		want  []internal.SiteState
	}{
		"default":  {5, []internal.SiteState{internal.Monomorphic, internal.Polymorphic, internal.Polymorphic, internal.Polymorphic, internal.Polymorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic}},
		"one":      {1, []internal.SiteState{internal.Monomorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic}},
		"two":      {2, []internal.SiteState{internal.Monomorphic, internal.Polymorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic}},
		"disabled": {-1, []internal.SiteState{internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic, internal.Megamorphic}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			vm := testutils.NewVM(t, func(cfg *opslot.Config) { cfg.Limits.Cache = c.limit })
			s := vm.NewSite(vm.Ops.Lookup("+"), internal.BinarySite, t.Name())
			if s.State() != internal.Uninitialized {
				t.Fatalf("new site is %v", s.State())
			}
			for i, ops := range operands(vm) {
				s.Binary(vm, ops[0], ops[1])
				// The same shape again must not change anything.
				before := s.Stats()
				s.Binary(vm, ops[0], ops[1])
				after := s.Stats()
				if after.State != c.want[i] {
					t.Errorf("after shape %d: want %v, got %v", i, c.want[i], after.State)
				}
				if before.State != after.State || before.Entries != after.Entries {
					t.Errorf("repeating shape %d changed the cache: %+v to %+v", i, before, after)
				}
				if after.State == internal.Megamorphic && after.Entries != 0 {
					t.Errorf("megamorphic site has %d entries", after.Entries)
				}
				if c.limit > 0 && after.Entries > c.limit {
					t.Errorf("site exceeded its limit: %d entries", after.Entries)
				}
			}
		})
	}
	t.Run("hits", func(t *testing.T) {
		vm := testutils.NewVM(t, nil)
		s := vm.NewSite(vm.Ops.Lookup("*"), internal.BinarySite, t.Name())
		for i := 0; i < 10; i++ {
			s.Binary(vm, vm.NewInt(int64(i)), vm.NewInt(3))
		}
		st := s.Stats()
		if st.Misses != 1 || st.Hits != 9 {
			t.Errorf("want 1 miss and 9 hits, got %+v", st)
		}
	})
}

// replayOperands returns constructors for operands of assorted builtin and
// heap types, along with the heap types that replays modify.
func replayOperands(t *testing.T, vm *internal.VM) ([]func() *internal.Object, *internal.Type, *internal.Type) {
	t.Helper()
	env := internal.NewEnv(nil)
	src := `
class Over(int): __add__ = lambda a, b: 'over+'; __radd__ = lambda a, b: 'over r+'; __mul__ = lambda a, b: 'over*'; __iadd__ = lambda a, b: 'over+='
class Sub(Over): __radd__ = lambda a, b: 'sub r+'; __rsub__ = lambda a, b: 'sub r-'
class Decl: __add__ = lambda a, b: NotImplemented; __radd__ = lambda a, b: NotImplemented; __mul__ = lambda a, b: NotImplemented; __pow__ = lambda a, b, c: NotImplemented; __lt__ = lambda a, b: NotImplemented
class Seq(list): pass
`
	if _, err := vm.DoString(env, src, t.Name()); err != nil {
		t.Fatal(err)
	}
	typ := func(name string) *internal.Type {
		return env.Get(name).Value.(*internal.Type)
	}
	over, decl := typ("Over"), typ("Decl")
	impl := vm.NewCFunction("bound", nil, 2, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
		if args[1].IsInstance(vm.IntType) {
			return vm.NewStr("bound"), nil
		}
		return vm.NotImplemented, nil
	})
	desc := newType(t, vm, "Desc", map[string]*internal.Object{
		"__get__": vm.NewCFunction("__get__", nil, 3, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
			return vm.NewMethod(args[1], impl), nil
		}),
	})
	bound := newType(t, vm, "Bound", map[string]*internal.Object{
		"__add__":  vm.NewObject(desc, nil),
		"__radd__": vm.NewObject(desc, nil),
		"__sub__":  vm.NewObject(desc, nil),
	})
	call := func(fn *internal.Object, args ...*internal.Object) func() *internal.Object {
		return func() *internal.Object {
			r, err := vm.Call(fn, args...)
			if err != nil {
				t.Fatal(err)
			}
			return r
		}
	}
	ctors := []func() *internal.Object{
		func() *internal.Object { return vm.NewInt(3) },
		func() *internal.Object { return vm.NewInt(-2) },
		func() *internal.Object { return vm.NewFloat(0.5) },
		func() *internal.Object { return vm.True },
		func() *internal.Object { return vm.None },
		func() *internal.Object { return vm.NewStr("ab") },
		func() *internal.Object { return vm.NewList([]*internal.Object{vm.NewInt(1)}) },
		func() *internal.Object { return vm.NewTuple([]*internal.Object{vm.NewInt(2)}) },
		call(typ("Seq").Object(), vm.NewList([]*internal.Object{vm.NewInt(4)})),
		call(over.Object(), vm.NewInt(3)),
		call(typ("Sub").Object(), vm.NewInt(5)),
		call(decl.Object()),
		func() *internal.Object { return vm.NewObject(bound, nil) },
	}
	return ctors, over, decl
}

// TestSiteTransparency tests that call sites give the same results as
// uncached dispatch at every cache limit, for a shuffled sequence of operand
// types and with types modified between replays.
func TestSiteTransparency(t *testing.T) {
	for _, limit := range []int{-1, 0, 1, 3, 5, 100} {
		vm := testutils.NewVM(t, func(cfg *opslot.Config) { cfg.Limits.Cache = limit })
		ctors, over, decl := replayOperands(t, vm)
		type site struct {
			s  *internal.Site
			op *internal.Operator
		}
		var binary, inplace []site
		for _, sym := range []string{"+", "*", "-", "==", "<", "//", "%"} {
			op := vm.Ops.Lookup(sym)
			binary = append(binary, site{vm.NewSite(op, internal.BinarySite, sym), op})
		}
		for _, sym := range []string{"+", "*", "-"} {
			op := vm.Ops.Lookup(sym)
			inplace = append(inplace, site{vm.NewSite(op, internal.InplaceSite, sym+"="), op})
		}
		pow := vm.Ops.Lookup("**")
		ternary := vm.NewSite(pow, internal.TernarySite, "pow")

		late := vm.NewCFunction("late", nil, 2, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
			return vm.NewStr("late"), nil
		})
		declines := vm.NewCFunction("declines", nil, 2, 0, func(vm *internal.VM, args ...*internal.Object) (*internal.Object, error) {
			return vm.NotImplemented, nil
		})
		rng := rand.New(rand.NewSource(1))
		for round := 0; round < 3; round++ {
			switch round {
			case 1:
				if err := vm.SetAttr(decl.Object(), "__add__", late); err != nil {
					t.Fatal(err)
				}
			case 2:
				if err := vm.SetAttr(over.Object(), "__mul__", declines); err != nil {
					t.Fatal(err)
				}
			}
			for k := 0; k < 64; k++ {
				x, y, z := ctors[rng.Intn(len(ctors))], ctors[rng.Intn(len(ctors))], ctors[rng.Intn(len(ctors))]
				for _, c := range binary {
					r, err := vm.EvalBinary(c.op, x(), y())
					want := mustRepr(t, vm, r, err)
					r, err = c.s.Binary(vm, x(), y())
					if got := mustRepr(t, vm, r, err); got != want {
						t.Errorf("limit %d round %d, %s %s %s: site gave %s, dispatch gave %s", limit, round, x().Type(), c.op.Symbol, y().Type(), got, want)
					}
				}
				for _, c := range inplace {
					r, err := vm.EvalInplace(c.op, x(), y())
					want := mustRepr(t, vm, r, err)
					r, err = c.s.Binary(vm, x(), y())
					if got := mustRepr(t, vm, r, err); got != want {
						t.Errorf("limit %d round %d, %s %s= %s: site gave %s, dispatch gave %s", limit, round, x().Type(), c.op.Symbol, y().Type(), got, want)
					}
				}
				r, err := vm.EvalTernary(pow, x(), y(), z())
				want := mustRepr(t, vm, r, err)
				r, err = ternary.Ternary(vm, x(), y(), z())
				if got := mustRepr(t, vm, r, err); got != want {
					t.Errorf("limit %d round %d, pow(%s, %s, %s): site gave %s, dispatch gave %s", limit, round, x().Type(), y().Type(), z().Type(), got, want)
				}
			}
		}
		for _, c := range append(binary, inplace...) {
			if st := c.s.Stats(); st.Hits+st.Misses+st.Uninlined == 0 {
				t.Errorf("limit %d: site %s was never used", limit, c.s.Label)
			}
		}
	}
}

// TestSiteInvalidation tests that modifying a type makes sites plan again.
func TestSiteInvalidation(t *testing.T) {
	vm := testutils.NewVM(t, nil)
	env := internal.NewEnv(nil)
	p, err := vm.Parse(strings.NewReader("a + b"), t.Name())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := vm.DoString(env, "class A: __add__ = lambda a, b: 'first'\nclass B(A): pass\na = B(); b = 1", t.Name()); err != nil {
		t.Fatal(err)
	}
	run := func() string {
		t.Helper()
		r, err := p.Eval(vm, env)
		return mustRepr(t, vm, r, err)
	}
	if got := run(); got != "'first'" {
		t.Fatalf("wrong result: %s", got)
	}
	if got := run(); got != "'first'" {
		t.Fatalf("wrong cached result: %s", got)
	}
	if _, err := vm.DoString(env, "A.__add__ = lambda a, b: 'second'", t.Name()); err != nil {
		t.Fatal(err)
	}
	if got := run(); got != "'second'" {
		t.Errorf("site used a stale plan: %s", got)
	}
	if _, err := vm.DoString(env, "B.__add__ = lambda a, b: NotImplemented\nB.__radd__ = lambda a, b: 'never'", t.Name()); err != nil {
		t.Fatal(err)
	}
	r, err := p.Eval(vm, env)
	if got := mustRepr(t, vm, r, err); !strings.Contains(got, "unsupported operand type(s) for +: 'B' and 'int'") {
		t.Errorf("wrong result after subclass change: %s", got)
	}
	sites := p.Sites()
	if len(sites) != 1 {
		t.Fatalf("program has %d sites", len(sites))
	}
	if st := sites[0].Stats(); st.Misses < 3 {
		t.Errorf("site did not plan again after changes: %+v", st)
	}
}

// TestSiteConcurrent tests many threads sharing sites.
func TestSiteConcurrent(t *testing.T) {
	for _, limit := range []int{1, 2, 5} {
		vm := testutils.NewVM(t, func(cfg *opslot.Config) { cfg.Limits.Cache = limit })
		p, err := vm.Parse(strings.NewReader("x * y + x"), t.Name())
		if err != nil {
			t.Fatal(err)
		}
		type binding struct {
			x, y string
			want string
		}
		cases := []binding{
			{"2", "3", "8"},
			{"'ab'", "2", "'ababab'"},
			{"[1]", "2", "[1, 1, 1]"},
			{"1.5", "2", "4.5"},
			{"2", "True", "4"},
			{"(0,)", "0", "(0,)"},
		}
		var wg sync.WaitGroup
		const n = 128
		wg.Add(n)
		for k := 0; k < n; k++ {
			go func(k int) {
				defer wg.Done()
				th := vm.NewThread()
				for i := 0; i < 20; i++ {
					c := cases[(k+i)%len(cases)]
					env := internal.NewEnv(nil)
					x, err := th.DoString(env, c.x, "x")
					if err != nil {
						t.Error(err)
						return
					}
					y, err := th.DoString(env, c.y, "y")
					if err != nil {
						t.Error(err)
						return
					}
					env.Set("x", x)
					env.Set("y", y)
					r, err := p.Eval(th, env)
					if err != nil {
						t.Errorf("%s * %s + %s: %v", c.x, c.y, c.x, err)
						return
					}
					if got, _ := th.Repr(r); got != c.want {
						t.Errorf("%s * %s + %s: want %s, got %s", c.x, c.y, c.x, c.want, got)
					}
				}
			}(k)
		}
		wg.Wait()
		for _, s := range p.Sites() {
			st := s.Stats()
			if st.State == internal.Uninitialized {
				t.Errorf("limit %d: site %s never initialized", limit, s.Label)
			}
			if st.Entries > limit {
				t.Errorf("limit %d: site %s has %d entries", limit, s.Label, st.Entries)
			}
		}
	}
}

// TestSiteInlineGuard tests that nested cached uses of one implementation
// beyond the inline limit run uncached.
func TestSiteInlineGuard(t *testing.T) {
	vm := testutils.NewVM(t, func(cfg *opslot.Config) { cfg.Limits.Inline = 2 })
	op := vm.Ops.Lookup("+")
	s := vm.NewSite(op, internal.BinarySite, t.Name())
	var add *internal.Object
	var depths []int
	remaining := 0
	add = vm.NewCFunction("__add__", nil, 2, 0, func(th *internal.VM, args ...*internal.Object) (*internal.Object, error) {
		depths = append(depths, th.InlineDepth(add))
		if remaining == 0 {
			return th.NewStr("done"), nil
		}
		remaining--
		return s.Binary(th, args[0], args[1])
	})
	rt := newType(t, vm, "Recursive", map[string]*internal.Object{"__add__": add})
	x := vm.NewObject(rt, nil)

	remaining = 5
	r, err := s.Binary(vm, x, x)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != "done" {
		t.Errorf("wrong result: %v", r.Value)
	}
	// The first evaluation is a miss. Each nested one is a hit until two
	// cached uses are active; the rest replan.
	want := []int{0, 1, 2, 2, 2, 2}
	if len(depths) != len(want) {
		t.Fatalf("wrong depths: want %v, got %v", want, depths)
	}
	for i := range want {
		if depths[i] != want[i] {
			t.Errorf("wrong depths: want %v, got %v", want, depths)
			break
		}
	}
	if st := s.Stats(); st.Uninlined != 3 || st.Hits != 2 {
		t.Errorf("wrong stats: want 2 hits and 3 uninlined, got %+v", st)
	}
	if d := vm.InlineDepth(add); d != 0 {
		t.Errorf("inline depth not restored: %d", d)
	}
	t.Run("thread", func(t *testing.T) {
		th := vm.NewThread()
		depths = depths[:0]
		remaining = 1
		if _, err := s.Binary(th, x, x); err != nil {
			t.Fatal(err)
		}
		if depths[0] != 1 {
			t.Errorf("cached use on a new thread has depth %d", depths[0])
		}
	})
}

// TestSiteLogging tests that transitions are logged.
func TestSiteLogging(t *testing.T) {
	var buf bytes.Buffer
	vm := testutils.NewVM(t, func(cfg *opslot.Config) { cfg.Limits.Cache = 1 })
	vm.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := vm.NewSite(vm.Ops.Lookup("-"), internal.BinarySite, "logged")
	s.Binary(vm, vm.NewInt(1), vm.NewInt(1))
	s.Binary(vm, vm.NewFloat(1), vm.NewInt(1))
	out := buf.String()
	for _, want := range []string{"from=uninitialized to=monomorphic", "from=monomorphic to=megamorphic", "site=logged"} {
		if !strings.Contains(out, want) {
			t.Errorf("log does not contain %q:\n%s", want, out)
		}
	}
}

// TestSites tests that parsed programs register their sites with the VM.
func TestSites(t *testing.T) {
	vm := testutils.NewVM(t, nil)
	before := len(vm.Sites())
	if _, err := vm.Parse(strings.NewReader("a = 1 + 2\na += 3\npow(a, 2)"), t.Name()); err != nil {
		t.Fatal(err)
	}
	if n := len(vm.Sites()) - before; n != 2 {
		t.Errorf("parsing registered %d sites, want 2", n)
	}
	if _, err := vm.Parse(strings.NewReader("1 + (2 *"), t.Name()); err == nil {
		t.Fatal("bad program parsed")
	}
	if n := len(vm.Sites()) - before; n != 2 {
		t.Errorf("failed parse registered sites: %d total", n)
	}
	kinds := map[internal.SiteKind]int{}
	for _, s := range vm.Sites()[before:] {
		kinds[s.Kind]++
	}
	if kinds[internal.BinarySite] != 1 || kinds[internal.InplaceSite] != 1 {
		t.Errorf("wrong site kinds: %v", kinds)
	}
}
