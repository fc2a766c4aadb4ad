// Package testutils provides utilities for testing opslot in Go.
package testutils

import (
	"strings"
	"sync"
	"testing"

	"github.com/zephyrtronium/opslot"
)

// testVM is the VM used for all tests.
var testVM *opslot.VM

var testVMInit sync.Once

// VM returns a VM for testing. The VM is shared by all tests that use this
// package, so tests must not modify builtin state through it.
func VM() *opslot.VM {
	testVMInit.Do(ResetVM)
	return testVM
}

// ResetVM reinitializes the VM returned by VM. It is not safe to call this in
// parallel tests.
func ResetVM() {
	vm, err := opslot.NewVM(nil)
	if err != nil {
		panic("testutils: " + err.Error())
	}
	testVM = vm
}

// NewVM creates a fresh VM with the default configuration modified by f.
func NewVM(t testing.TB, f func(cfg *opslot.Config)) *opslot.VM {
	t.Helper()
	cfg := opslot.DefaultConfig()
	if f != nil {
		f(cfg)
	}
	vm, err := opslot.NewVM(cfg)
	if err != nil {
		t.Fatalf("could not create VM: %v", err)
	}
	return vm
}

// Run evaluates src in a new scope on vm and fails the test if evaluation
// fails.
func Run(t testing.TB, vm *opslot.VM, src string) *opslot.Object {
	t.Helper()
	r, err := vm.DoString(opslot.NewEnv(nil), src, t.Name())
	if err != nil {
		t.Fatalf("%q failed: %v", src, err)
	}
	return r
}

// Repr evaluates src like Run and returns the repr of the result.
func Repr(t testing.TB, vm *opslot.VM, src string) string {
	t.Helper()
	r := Run(t, vm, src)
	s, err := vm.Repr(r)
	if err != nil {
		t.Fatalf("repr of %q failed: %v", src, err)
	}
	return s
}

// Fail evaluates src in a new scope on vm and returns the error, failing the
// test if there is none.
func Fail(t testing.TB, vm *opslot.VM, src string) error {
	t.Helper()
	r, err := vm.DoString(opslot.NewEnv(nil), src, t.Name())
	if err == nil {
		s, _ := vm.Repr(r)
		t.Fatalf("%q succeeded with %s; expected an error", src, s)
	}
	return err
}

// Source is a test case containing source code and the repr of its expected
// result.
type Source struct {
	Source string
	Want   string
}

// TestFunc returns a test function for the case, using VM.
func (c Source) TestFunc() func(*testing.T) {
	return func(t *testing.T) {
		got := Repr(t, VM(), c.Source)
		if got != c.Want {
			t.Errorf("%q: want %s, got %s", strings.TrimSpace(c.Source), c.Want, got)
		}
	}
}
