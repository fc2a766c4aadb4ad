package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/opslot"
)

// interactive reports whether f is a terminal.
func interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runREPL(cmd *cobra.Command) error {
	vm, err := newVM()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	tty := interactive(os.Stdin)
	if tty {
		fmt.Fprintln(out, banner(vm))
	}
	env := opslot.NewEnv(nil)
	stdin := bufio.NewScanner(cmd.InOrStdin())
	for line := 1; ; line++ {
		if tty {
			fmt.Fprint(out, ">>> ")
		}
		if !stdin.Scan() {
			break
		}
		src := strings.TrimSpace(stdin.Text())
		switch src {
		case "":
			continue
		case ":quit":
			return nil
		case ":sites":
			printSites(out, vm)
			continue
		}
		r, err := vm.DoString(env, src, fmt.Sprintf("<stdin>:%d", line))
		if err != nil {
			errorColor.Fprintln(os.Stderr, err)
			continue
		}
		if r == vm.None {
			continue
		}
		s, err := vm.Repr(r)
		if err != nil {
			errorColor.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Fprintln(out, s)
	}
	if tty {
		fmt.Fprintln(out)
	}
	return stdin.Err()
}

func printSites(w io.Writer, vm *opslot.VM) {
	sites := vm.Sites()
	if len(sites) == 0 {
		dimColor.Fprintln(w, "no call sites")
		return
	}
	headerColor.Fprintf(w, "%-20s %-6s %-8s %-13s %7s %7s %7s %9s\n", "site", "op", "kind", "state", "entries", "hits", "misses", "uninlined")
	for _, s := range sites {
		st := s.Stats()
		fmt.Fprintf(w, "%-20s %-6s %-8s %-13s %7d %7d %7d %9d\n", s.Label, s.Op.Symbol, s.Kind, st.State, st.Entries, st.Hits, st.Misses, st.Uninlined)
	}
}
