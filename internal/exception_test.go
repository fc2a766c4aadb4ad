package internal_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/zephyrtronium/opslot/internal"
)

// TestKindOf tests exception kinds of bare and wrapped errors.
func TestKindOf(t *testing.T) {
	exc := &internal.Exception{Kind: internal.ZeroDivisionError, Msg: "division by zero"}
	unsupported := &internal.UnsupportedOperandsError{Op: "+", Types: []string{"A", "B"}}
	cases := map[string]struct {
		err  error
		want internal.ExceptionKind
	}{
		"nil":              {nil, ""},
		"plain":            {errors.New("plain"), ""},
		"exception":        {exc, internal.ZeroDivisionError},
		"unsupported":      {unsupported, internal.TypeError},
		"owner":            {&internal.OwnerTypeMismatchError{Slot: "__add__", Required: "int"}, internal.TypeError},
		"descriptor":       {&internal.DescriptorBindingError{Slot: "__add__", Type: "A", Err: exc}, internal.ZeroDivisionError},
		"descriptor-plain": {&internal.DescriptorBindingError{Slot: "__add__", Type: "A", Err: errors.New("plain")}, ""},
		"wrapped":          {fmt.Errorf("evaluating: %w", exc), internal.ZeroDivisionError},
		"wrapped-typed":    {fmt.Errorf("evaluating: %w", unsupported), internal.TypeError},
		"wrapped-twice":    {fmt.Errorf("a: %w", fmt.Errorf("b: %w", &internal.DescriptorBindingError{Err: unsupported})), internal.TypeError},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if got := internal.KindOf(c.err); got != c.want {
				t.Errorf("want %q, got %q", c.want, got)
			}
		})
	}
}
