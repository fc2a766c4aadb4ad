// Command slotfn lists the functions in Go packages that can serve as builtin
// slot implementations, formatted as entries for a method table.
package main

import (
	"flag"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

func main() {
	var match, ignore string
	var opslot string
	var arity int
	flag.StringVar(&match, "match", ".", "include only functions matching this regular expression")
	flag.StringVar(&ignore, "ignore", "$^", "exclude functions matching this regular expression")
	flag.StringVar(&opslot, "opslot", "github.com/zephyrtronium/opslot/internal", "import path of the package defining Fn")
	flag.IntVar(&arity, "arity", 2, "arity to write in each entry")
	flag.Parse()
	mre, err := regexp.Compile(match)
	if err != nil {
		fail("error compiling match:", err)
	}
	ire, err := regexp.Compile(ignore)
	if err != nil {
		fail("error compiling ignore:", err)
	}

	fset := token.NewFileSet()
	config := packages.Config{Mode: packages.NeedTypes | packages.NeedSyntax | packages.NeedImports, Fset: fset}
	pkgs, err := packages.Load(&config, append([]string{opslot}, flag.Args()...)...)
	if err != nil {
		fail("error loading packages:", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}
	fn, pkgs := getFn(pkgs)
	results := []string{}
	for _, pkg := range pkgs {
		results = append(results, find(pkg.Types.Scope(), fn, mre, ire)...)
	}
	sort.Strings(results)
	for _, name := range results {
		fmt.Printf("\t\t{%q, %d, 0, %s},\n", slotName(name, mre), arity, name)
	}
}

func fail(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

// getFn finds the Fn type in the first package. If that is the only package,
// it is also the one searched.
func getFn(pkgs []*packages.Package) (types.Type, []*packages.Package) {
	pkg := pkgs[0].Types
	r := pkg.Scope().Lookup("Fn")
	if r == nil {
		fail(pkg.Name(), "has no definition of Fn")
	}
	t, ok := r.(*types.TypeName)
	if !ok {
		fail(pkg.Name(), "has incorrect definition of Fn:", r)
	}
	fn := t.Type().Underlying()
	if len(pkgs) == 1 {
		return fn, pkgs
	}
	return fn, pkgs[1:]
}

func find(pkg *types.Scope, fn types.Type, mre, ire *regexp.Regexp) []string {
	var r []string
	for _, name := range pkg.Names() {
		if !mre.MatchString(name) || ire.MatchString(name) {
			continue
		}
		f, ok := pkg.Lookup(name).(*types.Func)
		if ok && types.AssignableTo(f.Type(), fn) {
			r = append(r, name)
		}
	}
	return r
}

// slotName guesses the special method name from a function name, so intAdd
// becomes __add__ when matching ^int.
func slotName(name string, mre *regexp.Regexp) string {
	if mre.String() != "." {
		k := mre.FindStringIndex(name)
		name = name[k[1]:]
	}
	return "__" + strings.ToLower(name) + "__"
}
