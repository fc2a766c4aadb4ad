package internal

import (
	_ "embed"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed operators.yaml
var defaultYAML []byte

// Config is the dispatch configuration of a VM: its operator table and the
// limits of its call-site caches and recursion guards.
type Config struct {
	Limits    Limits         `yaml:"limits"`
	Operators []OperatorSpec `yaml:"operators"`
}

// Limits bounds the adaptive parts of dispatch.
type Limits struct {
	// Cache is the number of shapes a call site remembers before it becomes
	// megamorphic. A negative value disables memoization entirely.
	Cache int `yaml:"cache"`
	// Inline is how many times a cached implementation may be active on one
	// thread's stack before further cached uses of it run uncached.
	Inline int `yaml:"inline"`
	// Recursion is the maximum depth of user function calls.
	Recursion int `yaml:"recursion"`
}

// OperatorSpec is the configuration form of an Operator.
type OperatorSpec struct {
	Symbol        string `yaml:"symbol"`
	Display       string `yaml:"display,omitempty"`
	Slot          string `yaml:"slot"`
	Reflected     string `yaml:"reflected"`
	Inplace       string `yaml:"inplace,omitempty"`
	Ternary       bool   `yaml:"ternary,omitempty"`
	AlwaysReverse bool   `yaml:"always_reverse,omitempty"`
	Speculative   bool   `yaml:"speculative,omitempty"`
	Fallback      string `yaml:"fallback,omitempty"`
	Handler       string `yaml:"handler,omitempty"`
}

var (
	defaultOnce   sync.Once
	defaultConfig Config
)

// DefaultConfig returns a copy of the built-in configuration.
func DefaultConfig() *Config {
	defaultOnce.Do(func() {
		if err := yaml.UnmarshalStrict(defaultYAML, &defaultConfig); err != nil {
			panic("opslot: bad embedded operators.yaml: " + err.Error())
		}
	})
	c := defaultConfig
	c.Operators = append([]OperatorSpec(nil), defaultConfig.Operators...)
	return &c
}

// LoadConfig reads a YAML configuration and overlays it on the defaults.
// Non-zero limits replace the defaults; operators replace the default with
// the same symbol or add a new operator.
func LoadConfig(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var user Config
	if err := yaml.UnmarshalStrict(b, &user); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	c := DefaultConfig()
	c.merge(&user)
	if _, err := c.Compile(); err != nil {
		return nil, err
	}
	return c, nil
}

// merge overlays u onto c.
func (c *Config) merge(u *Config) {
	if u.Limits.Cache != 0 {
		c.Limits.Cache = u.Limits.Cache
	}
	if u.Limits.Inline != 0 {
		c.Limits.Inline = u.Limits.Inline
	}
	if u.Limits.Recursion != 0 {
		c.Limits.Recursion = u.Limits.Recursion
	}
outer:
	for _, op := range u.Operators {
		for i := range c.Operators {
			if c.Operators[i].Symbol == op.Symbol {
				c.Operators[i] = op
				continue outer
			}
		}
		c.Operators = append(c.Operators, op)
	}
}

// Compile validates the configuration and builds its operator table.
func (c *Config) Compile() (*OperatorTable, error) {
	if c.Limits.Inline < 0 {
		return nil, fmt.Errorf("config: inline limit %d is negative", c.Limits.Inline)
	}
	if c.Limits.Recursion <= 0 {
		return nil, fmt.Errorf("config: recursion limit must be positive, not %d", c.Limits.Recursion)
	}
	t := &OperatorTable{bySymbol: make(map[string]*Operator, len(c.Operators))}
	for _, spec := range c.Operators {
		op, err := spec.compile()
		if err != nil {
			return nil, err
		}
		if t.bySymbol[op.Symbol] != nil {
			return nil, fmt.Errorf("config: operator %q defined twice", op.Symbol)
		}
		t.ops = append(t.ops, op)
		t.bySymbol[op.Symbol] = op
	}
	return t, nil
}

func (s OperatorSpec) compile() (*Operator, error) {
	if s.Symbol == "" {
		return nil, fmt.Errorf("config: operator with no symbol")
	}
	op := Operator{
		Symbol:        s.Symbol,
		Display:       s.Display,
		Ternary:       s.Ternary,
		AlwaysReverse: s.AlwaysReverse,
		Speculative:   s.Speculative,
	}
	if op.Display == "" {
		op.Display = s.Symbol
	}
	var ok bool
	if op.Slot, ok = SlotNamed(s.Slot); !ok {
		return nil, fmt.Errorf("config: operator %q: unknown slot %q", s.Symbol, s.Slot)
	}
	if op.RSlot, ok = SlotNamed(s.Reflected); !ok {
		return nil, fmt.Errorf("config: operator %q: unknown reflected slot %q", s.Symbol, s.Reflected)
	}
	if s.Inplace != "" {
		if op.ISlot, ok = SlotNamed(s.Inplace); !ok {
			return nil, fmt.Errorf("config: operator %q: unknown in-place slot %q", s.Symbol, s.Inplace)
		}
	}
	switch s.Fallback {
	case "", "none":
		op.Fallback = NoFallback
	case "repeat":
		op.Fallback = RepeatFallback
	case "concat":
		op.Fallback = ConcatFallback
	default:
		return nil, fmt.Errorf("config: operator %q: unknown fallback %q", s.Symbol, s.Fallback)
	}
	name := s.Handler
	if name == "" {
		name = "unsupported"
	}
	h, ok := handlers[name]
	if !ok {
		return nil, fmt.Errorf("config: operator %q: unknown handler %q", s.Symbol, s.Handler)
	}
	op.Handler = h
	op.handler = name
	return &op, nil
}
