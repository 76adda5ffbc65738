package main

// exprgen.go generates synthetic expression trees for standalone
// benchmarking of the expression hasher, outside `go test`. It emits one
// serialized-as-text expression description per line, for an external
// harness to rebuild into *ast.Expr trees (bench/bench_test.go builds its
// own inputs and does not read this output). The generation
// knobs (count, distribution, seed) mirror a synthetic-dataset generator;
// the payload shape is "random expression shape" rather than "random key"
// since this module benchmarks hashing trees, not a key-value store.
//
// Usage:
//   go run ./tools/exprgen -n 100000 -maxdepth 6 -seed 42 -out exprs.txt
//
// Flags:
//   -n         number of expressions to generate (default 100000)
//   -maxdepth  maximum nesting depth of generated trees (default 6)
//   -seed      RNG seed (default current time)
//   -out       output file (default stdout)
//
// © 2025 evalhash authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// A generated expression is printed as a simple prefix-notation string:
// "i<n>" for an Int, "f<n>" for a Float, "s<n>" for a String, and
// "l(<e1> <e2> ...)" / "a(<name1>=<e1> <name2>=<e2> ...)" for List/Attrs.
// This textual form is a simple replay format, not a general-purpose
// serialization; no parser for it is included in this module.

func main() {
	var (
		n        = flag.Int("n", 100_000, "number of expressions to generate")
		maxDepth = flag.Int("maxdepth", 6, "maximum nesting depth")
		seedVal  = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath  = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	rnd := rand.New(rand.NewSource(*seedVal))

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for i := 0; i < *n; i++ {
		fmt.Fprintln(w, genExpr(rnd, *maxDepth))
	}
}

func genExpr(rnd *rand.Rand, depth int) string {
	if depth <= 0 {
		return leaf(rnd)
	}
	switch rnd.Intn(5) {
	case 0, 1:
		return leaf(rnd)
	case 2:
		n := rnd.Intn(4) + 1
		parts := make([]string, n)
		for i := range parts {
			parts[i] = genExpr(rnd, depth-1)
		}
		return "l(" + strings.Join(parts, " ") + ")"
	default:
		n := rnd.Intn(4) + 1
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf("k%d=%s", i, genExpr(rnd, depth-1))
		}
		return "a(" + strings.Join(parts, " ") + ")"
	}
}

func leaf(rnd *rand.Rand) string {
	switch rnd.Intn(3) {
	case 0:
		return fmt.Sprintf("i%d", rnd.Int63())
	case 1:
		return fmt.Sprintf("f%g", rnd.Float64())
	default:
		return fmt.Sprintf("s%d", rnd.Intn(1000))
	}
}
