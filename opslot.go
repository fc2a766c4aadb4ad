package opslot

import (
	"io"

	"github.com/zephyrtronium/opslot/internal"
)

// A VM is one thread of evaluation, with the types, operators, and call sites
// it shares with its other threads.
type VM = internal.VM

// Object is a runtime value.
//
// Always use NewObject or a type-specific constructor to obtain new objects.
// Creating objects directly will result in arbitrary failures.
type Object = internal.Object

// Type is a class.
type Type = internal.Type

// Operator describes how one operator is dispatched.
type Operator = internal.Operator

// OperatorTable is an immutable set of operators.
type OperatorTable = internal.OperatorTable

// Site is a call site, which caches dispatch plans by operand types.
type Site = internal.Site

// SiteStats is a snapshot of a call site's cache.
type SiteStats = internal.SiteStats

// Callable is a slot resolved for a particular receiver.
type Callable = internal.Callable

// SlotID identifies an operator slot.
type SlotID = internal.SlotID

// Fn is the type of builtin implementations.
type Fn = internal.Fn

// Handler decides the result of an operator whose candidates all declined.
type Handler = internal.Handler

// Config is the dispatch configuration of a VM.
type Config = internal.Config

// Limits bounds call-site caches and recursion.
type Limits = internal.Limits

// Env is a scope of variables for the expression language.
type Env = internal.Env

// Program is a parsed source.
type Program = internal.Program

// DispatchEvent describes one candidate invocation while tracing.
type DispatchEvent = internal.DispatchEvent

// Errors produced by dispatch.
type (
	Exception                = internal.Exception
	ExceptionKind            = internal.ExceptionKind
	UnsupportedOperandsError = internal.UnsupportedOperandsError
	OwnerTypeMismatchError   = internal.OwnerTypeMismatchError
	DescriptorBindingError   = internal.DescriptorBindingError
)

// Exception kinds.
const (
	TypeError         = internal.TypeError
	ValueError        = internal.ValueError
	ZeroDivisionError = internal.ZeroDivisionError
	OverflowError     = internal.OverflowError
	MemoryError       = internal.MemoryError
	AttributeError    = internal.AttributeError
	NameError         = internal.NameError
	RecursionError    = internal.RecursionError
	SyntaxError       = internal.SyntaxError
)

// NewVM creates a VM. A nil cfg uses DefaultConfig.
func NewVM(cfg *Config) (*VM, error) {
	return internal.NewVM(cfg)
}

// DefaultConfig returns a copy of the built-in configuration.
func DefaultConfig() *Config {
	return internal.DefaultConfig()
}

// LoadConfig reads a YAML configuration and overlays it on the defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	return internal.LoadConfig(r)
}

// NewEnv creates a scope nested in parent, which may be nil.
func NewEnv(parent *Env) *Env {
	return internal.NewEnv(parent)
}

// KindOf returns the exception kind of err, or the empty string if err is
// not an exception.
func KindOf(err error) ExceptionKind {
	return internal.KindOf(err)
}
