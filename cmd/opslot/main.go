package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/opslot"
	"github.com/zephyrtronium/opslot/internal"
)

var (
	configPath string
	debug      bool

	errorColor  = color.New(color.FgRed, color.Bold)
	headerColor = color.New(color.FgBlue, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
)

var rootCmd = &cobra.Command{
	Use:   "opslot",
	Short: "Evaluate expressions with Python-style operator dispatch",
	Long: `opslot evaluates a small Python-flavoured expression language whose
operators dispatch through special methods such as __add__ and __radd__.

With no command, opslot starts an interactive session.`,
	Version:       internal.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd)
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd)
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval EXPR...",
	Short: "Evaluate each argument as a program and print its value",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := newVM()
		if err != nil {
			return err
		}
		env := opslot.NewEnv(nil)
		for i, src := range args {
			r, err := vm.DoString(env, src, fmt.Sprintf("arg%d", i+1))
			if err != nil {
				return err
			}
			s, err := vm.Repr(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "Print the operator table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := newVM()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		headerColor.Fprintf(w, "%-8s %-14s %-14s %-14s %-8s %s\n", "symbol", "forward", "reflected", "in-place", "fallback", "handler")
		for _, op := range vm.Ops.All() {
			var flags []string
			if op.Ternary {
				flags = append(flags, "ternary")
			}
			if op.AlwaysReverse {
				flags = append(flags, "always-reverse")
			}
			if op.Speculative {
				flags = append(flags, "speculative")
			}
			islot := "-"
			if op.ISlot != internal.NoSlot {
				islot = op.ISlot.Name()
			}
			fmt.Fprintf(w, "%-8s %-14s %-14s %-14s %-8s %s", op.Symbol, op.Slot.Name(), op.RSlot.Name(), islot, op.Fallback, op.HandlerName())
			if len(flags) > 0 {
				dimColor.Fprintf(w, " (%s)", strings.Join(flags, ", "))
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file overlaid on the default operator configuration")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log call-site transitions and trace every dispatch to stderr")
	rootCmd.AddCommand(replCmd, evalCmd, opsCmd)
}

// newVM creates a VM from the command line flags.
func newVM() (*opslot.VM, error) {
	cfg := opslot.DefaultConfig()
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = opslot.LoadConfig(f); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
	}
	vm, err := opslot.NewVM(cfg)
	if err != nil {
		return nil, err
	}
	if debug {
		vm.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		vm.SetTrace(true)
	}
	return vm, nil
}

func banner(vm *opslot.VM) string {
	p := vm.Platform
	if p == "" {
		p = runtime.GOOS
	}
	return fmt.Sprintf("opslot %s (%s, %s/%s)", internal.Version, runtime.Version(), p, runtime.GOARCH)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
